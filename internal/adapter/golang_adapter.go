package adapter

import (
	"context"
	"go/parser"
	"go/scanner"
	"go/token"
	"path/filepath"
	"time"
)

// goTestAdapter is gotest's TestAdapter, split out from the generic
// table in adapters.go because it validates with go/parser directly
// instead of the shared balanced-delimiter heuristic — Go tests are the
// one language whose own compiler frontend is available as a Go library,
// so there's no reason to settle for the generic fallback here.
type goTestAdapter struct {
	generic genericAdapter
}

func newGoTestAdapter() TestAdapter {
	return &goTestAdapter{generic: genericAdapter{
		name:        "gotest",
		language:    "go",
		testPattern: []string{"*_test.go"},
		detect: func(root string) bool {
			return hasFile(root, "go.mod")
		},
		template: Template{
			System: "You write Go tests using the standard library testing package and the project's existing assertion style.",
			Body:   "Generate table-driven Go tests for the function(s) below.",
		},
		run: runSpec{
			command: "go",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				args := []string{"test", "-v", "./..."}
				if collectCoverage {
					args = append(args, "-coverprofile="+filepath.Join(".nit", "coverage.out"))
				}
				return args
			},
			textParser: parseGoTestText,
		},
	}}
}

func (a *goTestAdapter) Name() string             { return a.generic.name }
func (a *goTestAdapter) Language() string         { return a.generic.language }
func (a *goTestAdapter) Detect(root string) bool  { return a.generic.Detect(root) }
func (a *goTestAdapter) TestPattern() []string    { return a.generic.TestPattern() }
func (a *goTestAdapter) PromptTemplate() Template { return a.generic.PromptTemplate() }

func (a *goTestAdapter) RunTests(ctx context.Context, projectRoot string, testFiles []string, timeout time.Duration, collectCoverage bool) (RunResult, error) {
	return a.generic.RunTests(ctx, projectRoot, testFiles, timeout, collectCoverage)
}

// Validate parses code as a Go source file, reporting the parser's own
// syntax errors rather than a generic heuristic.
func (a *goTestAdapter) Validate(code string) ValidationResult {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "generated_test.go", code, parser.AllErrors)
	if err != nil {
		if list, ok := err.(scanner.ErrorList); ok {
			errs := make([]string, 0, len(list))
			for _, e := range list {
				errs = append(errs, e.Error())
			}
			return ValidationResult{Valid: false, Errors: errs}
		}
		return ValidationResult{Valid: false, Errors: []string{err.Error()}}
	}
	return ValidationResult{Valid: true}
}
