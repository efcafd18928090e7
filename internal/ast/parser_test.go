package ast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("foo/bar.go"))
	assert.Equal(t, "python", DetectLanguage("a/b.py"))
	assert.Equal(t, "tsx", DetectLanguage("component.tsx"))
	assert.Equal(t, "", DetectLanguage("README.md"))
}

func TestParseGoExtractsFunction(t *testing.T) {
	src := []byte(`package main

func Add(a, b int) int {
	if a > 0 {
		return a + b
	}
	return b
}
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "main.go")
	require.NoError(t, err)
	assert.False(t, result.HasErrors)
	assert.Equal(t, "go", result.Language)
	require.Len(t, result.Functions, 1)
	assert.Equal(t, "Add", result.Functions[0].Name)
	assert.True(t, result.Functions[0].Exported)
}

func TestParseReportsPartialResultOnSyntaxError(t *testing.T) {
	src := []byte(`package main

func Broken( {
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "broken.go")
	require.NoError(t, err)
	assert.True(t, result.HasErrors)
	assert.NotEmpty(t, result.Errors)
}

func TestParseRejectsOversizedFile(t *testing.T) {
	p := NewParser(WithMaxFileSize(10))
	_, err := p.Parse(context.Background(), []byte("package main\nfunc f(){}\n"), "x.go")
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestQueryASTFindsFunctionDeclarations(t *testing.T) {
	src := []byte(`package main

func Foo() {}
func Bar() {}
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "main.go")
	require.NoError(t, err)

	matches, err := QueryAST(result, `(function_declaration name: (identifier) @fn)`)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Foo", matches[0].Text)
	assert.Equal(t, "Bar", matches[1].Text)
}
