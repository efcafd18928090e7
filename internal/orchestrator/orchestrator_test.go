package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/config"
)

// newTestOrchestrator builds an Orchestrator rooted at a temp directory
// seeded with one Go source file, using a disabled-platform config so
// New never attempts a real network dial.
func newTestOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/sample\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(sampleGoSource), 0o644))

	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Project.PrimaryLanguage = "go"
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4"

	orch, err := New(cfg, root)
	require.NoError(t, err)
	return orch, root
}

const sampleGoSource = `package sample

import "errors"

var errDivideByZero = errors.New("divide by zero")

func Add(a, b int) int {
	return a + b
}

func Divide(a, b int) (int, error) {
	if b == 0 {
		return 0, errDivideByZero
	}
	return a / b, nil
}
`

func TestNewConstructsEveryCollaborator(t *testing.T) {
	orch, root := newTestOrchestrator(t)
	assert.Equal(t, root, orch.ProjectRoot)
	assert.NotNil(t, orch.RC)
	assert.NotNil(t, orch.RC.Limiter)
	assert.Equal(t, maxConcurrentAgents, cap(orch.RC.Limiter))
	assert.NoError(t, orch.Close())
}
