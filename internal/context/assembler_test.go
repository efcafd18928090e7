package context

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/llm"
)

func writeTestFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestAssembleProducesTokenBudgetBoundedContext(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "math.go", "package math\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")
	writeTestFile(t, dir, "math_test.go", "package math\n\nfunc TestAdd(t *testing.T) {\n\tassert.Equal(t, 3, Add(1, 2))\n}\n")

	assembler := NewAssembler(ast.NewParser(), llm.NewTokenizer("gpt-4"), 8000)
	result, err := assembler.Assemble(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "go", result.Language)
	assert.Contains(t, result.SourceCode, "func Add")
	assert.LessOrEqual(t, result.TotalTokens, 8000)
	require.Len(t, result.Related, 1)
	assert.Equal(t, "sibling_test", result.Related[0].Reason)
	assert.Equal(t, "testify", result.TestPattern.AssertionStyle)
}

func TestAssembleUnsupportedLanguage(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "notes.txt", "hello")

	assembler := NewAssembler(ast.NewParser(), llm.NewTokenizer("gpt-4"), 8000)
	_, err := assembler.Assemble(context.Background(), src)
	require.Error(t, err)
	var unsupported *ErrUnsupportedLanguage
	require.ErrorAs(t, err, &unsupported)
}

func TestAssembleTruncatesUnderTightBudget(t *testing.T) {
	dir := t.TempDir()
	var body string
	for i := 0; i < 500; i++ {
		body += "func F" + string(rune('a'+i%26)) + "() {}\n"
	}
	src := writeTestFile(t, dir, "big.go", "package big\n\n"+body)

	assembler := NewAssembler(ast.NewParser(), llm.NewTokenizer("gpt-4"), 20)
	result, err := assembler.Assemble(context.Background(), src)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.TotalTokens, 20)
}
