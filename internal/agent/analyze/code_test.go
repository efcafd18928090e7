package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/ast"
)

func TestCalculateComplexityIfElseAddsTernaryCrossMatch(t *testing.T) {
	// The original's ternary pattern "\bif\b.*\belse\b" incidentally
	// matches any function containing both an if and an else, not just
	// true ternary expressions — kept verbatim since it's the algorithm
	// being ported, not a bug to silently fix.
	fn := ast.FunctionInfo{
		Name: "classify",
		BodyText: `
	if x > 0 {
		return "positive"
	} else {
		return "zero"
	}
`,
	}

	m := calculateComplexity(fn)
	assert.Equal(t, 3, m.Cyclomatic) // base 1 + if(1) + ternary-crossmatch(1); else itself doesn't add
	assert.Equal(t, 1, m.DecisionPoints["if"])
	assert.Equal(t, 1, m.DecisionPoints["else"])
}

func TestCalculateComplexityCountsAndOrIndependently(t *testing.T) {
	fn := ast.FunctionInfo{
		Name:     "allPositive",
		BodyText: "if a && b && c { return true }",
	}

	m := calculateComplexity(fn)
	assert.Equal(t, 2, m.DecisionPoints["and"]) // two "&&" occurrences counted independently, no short-circuit lowering
	assert.Equal(t, 1+1+2, m.Cyclomatic)        // base + if(1) + and(2)
}

func TestCalculateComplexitySimpleFunctionIsOne(t *testing.T) {
	fn := ast.FunctionInfo{Name: "add", BodyText: "return a + b"}
	m := calculateComplexity(fn)
	assert.Equal(t, 1, m.Cyclomatic)
	assert.False(t, m.IsComplex())
	assert.False(t, m.IsModerate())
}

func TestCodeAnalyzerAnalyzeUnsupportedLanguage(t *testing.T) {
	a := NewCodeAnalyzer(ast.NewParser())
	cm := a.Analyze(context.Background(), []byte("hello"), "notes.txt")
	assert.True(t, cm.HasErrors)
	assert.Equal(t, "unknown", cm.Language)
}

func TestBuildImportEvidenceMatchesDatabaseModule(t *testing.T) {
	imports := []ast.Import{{Module: "sqlalchemy.orm", Line: 1}}
	evidence := buildImportEvidence(imports)
	require.Contains(t, evidence, SideEffectDatabase)
	assert.Contains(t, evidence[SideEffectDatabase], "sqlalchemy.orm")
}

func TestExtractFunctionCallsOnlyTracksKnownFunctions(t *testing.T) {
	fn := ast.FunctionInfo{Name: "caller", StartLine: 10, BodyText: "helper()\nunknownFn()\n"}
	known := map[string]bool{"helper": true, "caller": true}

	calls := extractFunctionCalls(fn, known, "")
	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].Callee)
	assert.Equal(t, "caller", calls[0].Caller)
}
