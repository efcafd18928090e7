package debug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/llm"
)

func TestFixGeneratorName(t *testing.T) {
	g := NewFixGenerator(newDebugTestEngine(&fakeDebugClient{}))
	assert.Equal(t, "FixGenerator", g.Name())
}

func TestFixGeneratorStripsCodeFences(t *testing.T) {
	client := &fakeDebugClient{responses: []llm.Response{
		{Text: "```python\ndef f():\n    return data.get('k') if data else None\n```", Model: "gpt-4o"},
	}}
	g := NewFixGenerator(newDebugTestEngine(client))

	task := FixGenerationTask{
		Target: "src/app.py",
		BugReport: BugReport{
			Title:        "null_dereference",
			ErrorMessage: "AttributeError: 'NoneType' object has no attribute 'get'",
		},
		RootCause: RootCause{
			Description:   "Missing null check",
			MissingChecks: []string{"Missing null/undefined check before dereference"},
			Confidence:    0.8,
		},
		SourceCode: "def f():\n    return data.get('k')\n",
	}

	fix, err := g.Generate(context.Background(), task)
	require.NoError(t, err)
	assert.NotContains(t, fix.FixedCode, "```")
	assert.Contains(t, fix.FixedCode, "def f():")
	assert.Equal(t, "Missing null check", fix.Explanation)
	assert.Equal(t, 0.8, fix.Confidence)
}

func TestFixGeneratorHandlesUnfencedResponse(t *testing.T) {
	client := &fakeDebugClient{responses: []llm.Response{{Text: "  def f():\n    return 1\n  ", Model: "gpt-4o"}}}
	g := NewFixGenerator(newDebugTestEngine(client))

	fix, err := g.Generate(context.Background(), FixGenerationTask{Target: "a.py", SourceCode: "def f(): pass"})
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    return 1", fix.FixedCode)
}

func TestFixGeneratorPropagatesEngineError(t *testing.T) {
	client := &fakeDebugClient{err: assert.AnError}
	g := NewFixGenerator(newDebugTestEngine(client))

	_, err := g.Generate(context.Background(), FixGenerationTask{Target: "a.py"})
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "x = 1", stripCodeFences("```\nx = 1\n```"))
	assert.Equal(t, "x = 1", stripCodeFences("```python\nx = 1\n```"))
	assert.Equal(t, "x = 1", stripCodeFences("  x = 1  "))
}
