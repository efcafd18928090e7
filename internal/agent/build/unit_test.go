package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/llm"
	"github.com/nit-test/nit/internal/memory"
)

func writeBuildFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func pytestProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeBuildFile(t, dir, "pytest.ini", "[pytest]\n")
	return dir
}

func TestUnitBuilderGeneratesAndValidatesTest(t *testing.T) {
	dir := pytestProject(t)
	srcFile := writeBuildFile(t, dir, "calc.py", "def add(a, b):\n    return a + b\n")

	client := &fakeBuildClient{responses: []llm.Response{
		{Text: "```python\ndef test_add():\n    assert add(1, 2) == 3\n```", Model: "gpt-4o", PromptTokens: 10, CompletionTokens: 5},
	}}
	store, err := memory.Open(filepath.Join(dir, ".nit", "memory.json"))
	require.NoError(t, err)

	builder := NewUnitBuilder(newTestAssembler(), newBuildTestEngine(client), adapter.NewRegistry(), store, dir)

	result, err := builder.Build(context.Background(), BuildTask{SourceFile: srcFile, Framework: "pytest", OutputFile: "test_calc.py"})
	require.NoError(t, err)
	assert.True(t, result.ValidationPassed)
	assert.Contains(t, result.TestCode, "def test_add")
	assert.NotContains(t, result.TestCode, "```")
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 15, result.TokensUsed)

	known := store.GetKnownPatterns(func(memory.KnownPattern) bool { return true })
	assert.Len(t, known, 1)
}

func TestUnitBuilderFailsWhenAdapterNotDetected(t *testing.T) {
	dir := t.TempDir()
	srcFile := writeBuildFile(t, dir, "calc.py", "def add(a, b):\n    return a + b\n")

	client := &fakeBuildClient{responses: []llm.Response{{Text: "code"}}}
	builder := NewUnitBuilder(newTestAssembler(), newBuildTestEngine(client), adapter.NewRegistry(), nil, dir)

	_, err := builder.Build(context.Background(), BuildTask{SourceFile: srcFile, Framework: "pytest"})
	require.Error(t, err)
	var unavailable *adapter.ErrAdapterUnavailable
	assert.ErrorAs(t, err, &unavailable)
}

func TestUnitBuilderRetriesOnInvalidCode(t *testing.T) {
	dir := pytestProject(t)
	srcFile := writeBuildFile(t, dir, "calc.py", "def add(a, b):\n    return a + b\n")

	client := &fakeBuildClient{responses: []llm.Response{
		{Text: "def test_add(:\n    broken(", Model: "gpt-4o"},
		{Text: "def test_add():\n    assert add(1, 2) == 3", Model: "gpt-4o"},
	}}
	builder := NewUnitBuilder(newTestAssembler(), newBuildTestEngine(client), adapter.NewRegistry(), nil, dir)
	builder.MaxRetries = 3

	result, err := builder.Build(context.Background(), BuildTask{SourceFile: srcFile, Framework: "pytest"})
	require.NoError(t, err)
	assert.True(t, result.ValidationPassed)
	assert.Equal(t, 2, client.calls)
}
