package debug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/llm"
)

func TestRootCauseAnalyzerName(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	assert.Equal(t, "RootCauseAnalyzer", a.Name())
	assert.Contains(t, a.Description(), "root cause")
}

func TestRootCauseAnalyzerSuccessfulAnalysis(t *testing.T) {
	llmText := "Category: missing_validation\n" +
		"Description: Missing null check before access\n" +
		"Affected Code: result = data.get('key')\n" +
		"Incorrect Assumptions: data is always non-null\n" +
		"Contributing Factors: no input validation"
	client := &fakeDebugClient{responses: []llm.Response{{Text: llmText, Model: "gpt-4o"}}}
	a := NewRootCauseAnalyzer(newDebugTestEngine(client), t.TempDir())

	bug := BugReport{
		BugType:  BugTypeNullDereference,
		Severity: BugSeverityHigh,
		Title:    "null_dereference in process_data",
		Location: BugLocation{FilePath: "src/app.py", LineNumber: 10, FunctionName: "process_data"},
	}
	task := RootCauseAnalysisTask{
		Target:     "src/app.py",
		BugReport:  bug,
		SourceCode: "def process_data(data):\n    result = data.get('key')\n    return result\n",
	}

	rc, err := a.Analyze(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "missing_validation", rc.Category)
	assert.Equal(t, rootCauseConfidence, rc.Confidence)
}

func TestFindFunctionAtLocationFindsFunctionAtLine(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	pr := &ast.ParseResult{Functions: []ast.FunctionInfo{{Name: "f", StartLine: 5, EndLine: 20}}}
	got := a.findFunctionAt(pr, 10)
	require.NotNil(t, got)
	assert.Equal(t, "f", got.Name)
}

func TestFindFunctionAtLocationReturnsNilWhenNoMatch(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	pr := &ast.ParseResult{Functions: []ast.FunctionInfo{{Name: "f", StartLine: 5, EndLine: 10}}}
	assert.Nil(t, a.findFunctionAt(pr, 50))
}

func TestFindFunctionAtLocationReturnsFirstWhenNoLineNumber(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	pr := &ast.ParseResult{Functions: []ast.FunctionInfo{{Name: "f", StartLine: 5, EndLine: 20}}}
	got := a.findFunctionAt(pr, 0)
	require.NotNil(t, got)
	assert.Equal(t, "f", got.Name)
}

func TestFindFunctionAtLocationReturnsNilWhenEmpty(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	pr := &ast.ParseResult{}
	assert.Nil(t, a.findFunctionAt(pr, 0))
}

func TestFindFunctionAtLocationFindsClassMethod(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	method := ast.FunctionInfo{Name: "do_stuff", StartLine: 10, EndLine: 25}
	pr := &ast.ParseResult{Classes: []ast.ClassInfo{{Name: "MyClass", StartLine: 5, EndLine: 30, Methods: []ast.FunctionInfo{method}}}}
	got := a.findFunctionAt(pr, 15)
	require.NotNil(t, got)
	assert.Equal(t, "do_stuff", got.Name)
}

func TestExtractVariablesFindsAssignmentsAndParams(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	fn := &ast.FunctionInfo{
		BodyText:  "total = a + b\nresult = total * 2",
		Signature: "func sum(a, b)",
	}
	vars := a.extractVariables(fn)
	assert.Contains(t, vars, "total")
	assert.Contains(t, vars, "result")
	assert.Contains(t, vars, "a")
	assert.Contains(t, vars, "b")
}

func TestFindAssignments(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	code := "x = 10; y = 20; x = x + 1"
	assignments := a.findAssignments(code, "x")
	require.Len(t, assignments, 2)
	assert.Contains(t, assignments[0]+assignments[1], "10")
	assert.Contains(t, assignments[0]+assignments[1], "x + 1")
}

func TestFindConditions(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	code := "if (x > 0)\nwhile (x < 10)"
	conditions := a.findConditions(code, "x")
	assert.Len(t, conditions, 2)
}

func TestFindUsagesSkipsAssignmentLine(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	code := "x = 10\nprint(x)\nreturn x"
	usages := a.findUsages(code, "x")
	require.Len(t, usages, 2)
	assert.Contains(t, usages[0]+usages[1], "print(x)")
}

func TestFindUsagesRespectsMax(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	var code string
	for i := 0; i < 20; i++ {
		code += "foo(x)\n"
	}
	usages := a.findUsages(code, "x")
	assert.LessOrEqual(t, len(usages), maxUsages)
}

func TestAnalyzeDataFlowReturnsEmptyWhenNoFunction(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	pr := &ast.ParseResult{}
	bug := BugReport{Location: BugLocation{LineNumber: 999}}
	assert.Empty(t, a.analyzeDataFlow(pr, bug))
}

func TestAnalyzeDataFlowReturnsFlowsForVariables(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	fn := ast.FunctionInfo{
		StartLine: 1, EndLine: 20,
		BodyText:  "val = data.get('k')\nif (val > 0)\nprint(val)",
		Signature: "func f(data)",
	}
	pr := &ast.ParseResult{Functions: []ast.FunctionInfo{fn}}
	bug := BugReport{Location: BugLocation{LineNumber: 10}}
	flows := a.analyzeDataFlow(pr, bug)
	require.NotEmpty(t, flows)
	var names []string
	for _, f := range flows {
		names = append(names, f.VariableName)
	}
	assert.Contains(t, names, "val")
}

func TestIdentifyMissingChecksNullDereference(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	bug := BugReport{BugType: BugTypeNullDereference}
	flow := NewDataFlowPath("data")
	flow.Usages = []string{"print(data.x)"}
	missing := a.identifyMissingChecks(bug, []DataFlowPath{flow})
	require.Len(t, missing, 1)
}

func TestIdentifyMissingChecksNullDereferenceWithCheckPresent(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	bug := BugReport{BugType: BugTypeNullDereference}
	flow := NewDataFlowPath("data")
	flow.Usages = []string{"print(data.x)"}
	flow.Conditions = []string{"if (data != null)"}
	missing := a.identifyMissingChecks(bug, []DataFlowPath{flow})
	assert.Empty(t, missing)
}

func TestIdentifyMissingChecksArithmeticZero(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	bug := BugReport{BugType: BugTypeArithmeticError}
	flow := NewDataFlowPath("divisor")
	flow.Usages = []string{"result = total / divisor"}
	missing := a.identifyMissingChecks(bug, []DataFlowPath{flow})
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "zero")
}

func TestIdentifyMissingChecksIndexBounds(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	bug := BugReport{BugType: BugTypeIndexError}
	flow := NewDataFlowPath("idx")
	flow.Usages = []string{"items[idx]"}
	missing := a.identifyMissingChecks(bug, []DataFlowPath{flow})
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "bounds")
}

func TestParseLLMResponseParsesFullResponse(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	text := "Category: missing_validation\n" +
		"Description: The variable is not validated before use\n" +
		"Affected Code: x = data.value\n" +
		"Incorrect Assumptions: data is always valid\n" +
		"Contributing Factors: no input checking"
	flows := []DataFlowPath{NewDataFlowPath("x")}
	missing := []string{"Missing null check"}
	rc := a.parseLLMResponse(text, BugReport{}, flows, missing)
	assert.Equal(t, "missing_validation", rc.Category)
	assert.Contains(t, rc.Description, "not validated")
	assert.Contains(t, rc.AffectedCode, "x = data.value")
	assert.Equal(t, flows, rc.DataFlow)
	assert.Equal(t, missing, rc.MissingChecks)
	assert.Equal(t, rootCauseConfidence, rc.Confidence)
}

func TestParseLLMResponseDefaultsWhenNoMatch(t *testing.T) {
	a := NewRootCauseAnalyzer(newDebugTestEngine(&fakeDebugClient{}), t.TempDir())
	rc := a.parseLLMResponse("some unstructured response text", BugReport{}, nil, nil)
	assert.Equal(t, "logic_error", rc.Category)
	assert.NotEmpty(t, rc.Description)
}

func TestDataFlowPathDefaults(t *testing.T) {
	flow := NewDataFlowPath("x")
	assert.Equal(t, "x", flow.VariableName)
	assert.Empty(t, flow.Assignments)
	assert.Empty(t, flow.Conditions)
	assert.Empty(t, flow.Usages)
}

func TestRootCauseDefaults(t *testing.T) {
	rc := NewRootCause("logic_error", "test", "x = 1")
	assert.Equal(t, 0.7, rc.Confidence)
	assert.Empty(t, rc.DataFlow)
	assert.Empty(t, rc.MissingChecks)
	assert.Empty(t, rc.IncorrectAssumptions)
	assert.Empty(t, rc.ContributingFactors)
}
