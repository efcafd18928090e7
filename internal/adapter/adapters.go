package adapter

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// runSpec is the subprocess shape of one framework's test execution:
// the command, how to build its argument list, where it writes a JUnit
// report (if it can), and the text-parse fallback for when it can't.
type runSpec struct {
	command    string
	buildArgs  func(testFiles []string, junitPath string, collectCoverage bool) []string
	junitPath  func(root string) string
	textParser func(stdout string) RunResult
}

// genericAdapter implements TestAdapter from a declarative definition,
// the same table-driven shape internal/ast uses for per-language grammar
// registration — one entry per framework instead of one hand-written
// adapter type per framework, since detection/execution/text-parsing
// follow the same three-step shape across all twelve.
type genericAdapter struct {
	name        string
	language    string
	detect      func(root string) bool
	testPattern []string
	template    Template
	run         runSpec
}

func (a *genericAdapter) Name() string             { return a.name }
func (a *genericAdapter) Language() string         { return a.language }
func (a *genericAdapter) Detect(root string) bool  { return a.detect(root) }
func (a *genericAdapter) TestPattern() []string    { return a.testPattern }
func (a *genericAdapter) PromptTemplate() Template { return a.template }

func (a *genericAdapter) RunTests(ctx context.Context, projectRoot string, testFiles []string, timeout time.Duration, collectCoverage bool) (RunResult, error) {
	junitPath := ""
	if a.run.junitPath != nil {
		junitPath = a.run.junitPath(projectRoot)
	}

	args := a.run.buildArgs(testFiles, junitPath, collectCoverage)
	start := time.Now()
	res, err := runSubprocess(ctx, projectRoot, a.run.command, args, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return RunResult{}, err
		}
		// Tooling could not be located or failed to start at all.
		return RunResult{Success: false, Total: 0, RawOutput: err.Error()}, nil
	}

	if res.TimedOut {
		return RunResult{Success: false, Total: 0, RawOutput: "timed out after " + timeout.String()}, nil
	}

	if junitPath != "" {
		if data, readErr := os.ReadFile(filepath.Join(projectRoot, junitPath)); readErr == nil {
			if parsed, parseErr := parseJUnitXML(data); parseErr == nil {
				parsed.DurationMS = time.Since(start).Milliseconds()
				return parsed, nil
			}
		}
	}

	parsed := a.run.textParser(res.Stdout + "\n" + res.Stderr)
	parsed.DurationMS = time.Since(start).Milliseconds()
	return parsed, nil
}

var balancedDelims = map[rune]rune{'(': ')', '{': '}', '[': ']'}

// Validate applies a conservative balanced-delimiter heuristic shared by
// every adapter except gotest, which can validate with go/parser
// directly (see golang_adapter.go). Real per-language syntax validation
// for the others would require embedding each language's own parser,
// which is out of scope here; adapters needing stronger validation
// should shell out to the language's own syntax-check subcommand
// (e.g. `node --check`, `tsc --noEmit`) — left as future adapter-level
// work, not attempted generically.
func (a *genericAdapter) Validate(code string) ValidationResult {
	var stack []rune
	for _, r := range code {
		switch r {
		case '(', '{', '[':
			stack = append(stack, r)
		case ')', '}', ']':
			if len(stack) == 0 {
				return ValidationResult{Valid: false, Errors: []string{"unbalanced delimiters"}}
			}
			top := stack[len(stack)-1]
			if balancedDelims[top] != r {
				return ValidationResult{Valid: false, Errors: []string{"mismatched delimiters"}}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return ValidationResult{Valid: false, Errors: []string{"unclosed delimiters"}}
	}
	return ValidationResult{Valid: true}
}

var (
	pytestImportRe    = regexp.MustCompile(`(?m)^\s*(import pytest|from pytest)`)
	vitestImportRe    = regexp.MustCompile(`(?m)from\s+['"]vitest['"]`)
	jestConfigFieldRe = regexp.MustCompile(`"jest"\s*:`)
	playwrightImpRe   = regexp.MustCompile(`from\s+['"]@playwright/test['"]`)
	cypressImpRe      = regexp.MustCompile(`cy\.(visit|get|request)\(`)
)

func newPytestAdapter() TestAdapter {
	return &genericAdapter{
		name:        "pytest",
		language:    "python",
		testPattern: []string{"test_*.py", "*_test.py"},
		detect: func(root string) bool {
			return hasFile(root, "pytest.ini") || hasFile(root, "pyproject.toml") ||
				hasFile(root, "setup.cfg") || grepGlob(root, "test_*.py", pytestImportRe) ||
				grepGlob(root, "*_test.py", pytestImportRe)
		},
		template: Template{
			System: "You write pytest unit tests following the project's existing fixture and assertion conventions.",
			Body:   "Generate pytest tests for the function(s) below. Use plain assert statements and pytest fixtures where appropriate.",
		},
		run: runSpec{
			command: "pytest",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				args := []string{"-q", "--junitxml=" + junitPath}
				if collectCoverage {
					args = append(args, "--cov", "--cov-report=lcov")
				}
				args = append(args, testFiles...)
				return args
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "pytest-junit.xml") },
			textParser: parsePytestText,
		},
	}
}

func newVitestAdapter() TestAdapter {
	return &genericAdapter{
		name:        "vitest",
		language:    "typescript",
		testPattern: []string{"*.test.ts", "*.test.tsx", "*.spec.ts"},
		detect: func(root string) bool {
			return hasNodeDependency(root, "vitest") || fileExistsGlob(root, "vitest.config.*") ||
				grepGlob(root, "*.test.ts", vitestImportRe)
		},
		template: Template{
			System: "You write Vitest unit tests following the project's existing TypeScript test conventions.",
			Body:   "Generate Vitest tests for the function(s) below using describe/it and expect assertions.",
		},
		run: runSpec{
			command: "npx",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				args := []string{"vitest", "run", "--reporter=junit", "--outputFile", junitPath}
				if collectCoverage {
					args = append(args, "--coverage")
				}
				args = append(args, testFiles...)
				return args
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "vitest-junit.xml") },
			textParser: parseJestText,
		},
	}
}

func newJestAdapter() TestAdapter {
	return &genericAdapter{
		name:        "jest",
		language:    "javascript",
		testPattern: []string{"*.test.js", "*.test.jsx", "__tests__/*.js"},
		detect: func(root string) bool {
			return hasNodeDependency(root, "jest") || hasFile(root, "jest.config.js") ||
				jestConfigFieldInPackageJSON(root)
		},
		template: Template{
			System: "You write Jest unit tests following the project's existing JavaScript test conventions.",
			Body:   "Generate Jest tests for the function(s) below using describe/it and expect assertions.",
		},
		run: runSpec{
			command: "npx",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				args := []string{"jest", "--reporters=default", "--reporters=jest-junit"}
				if collectCoverage {
					args = append(args, "--coverage")
				}
				args = append(args, testFiles...)
				return args
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "jest-junit.xml") },
			textParser: parseJestText,
		},
	}
}

func jestConfigFieldInPackageJSON(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return false
	}
	return jestConfigFieldRe.Match(data)
}

func newPlaywrightAdapter() TestAdapter {
	return &genericAdapter{
		name:        "playwright",
		language:    "typescript",
		testPattern: []string{"*.spec.ts", "e2e/*.spec.ts"},
		detect: func(root string) bool {
			return hasNodeDependency(root, "@playwright/test") || hasFile(root, "playwright.config.ts") ||
				grepGlob(root, "*.spec.ts", playwrightImpRe)
		},
		template: Template{
			System: "You write Playwright end-to-end tests following the project's existing page-object and fixture conventions.",
			Body:   "Generate a Playwright test covering the user flow described below.",
		},
		run: runSpec{
			command: "npx",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				args := []string{"playwright", "test", "--reporter=junit"}
				args = append(args, testFiles...)
				return args
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "playwright-junit.xml") },
			textParser: parseJestText,
		},
	}
}

func newCypressAdapter() TestAdapter {
	return &genericAdapter{
		name:        "cypress",
		language:    "javascript",
		testPattern: []string{"cypress/e2e/*.cy.js"},
		detect: func(root string) bool {
			return hasNodeDependency(root, "cypress") || hasFile(root, "cypress.config.js") ||
				grepGlob(root, "cypress/e2e/*.cy.js", cypressImpRe)
		},
		template: Template{
			System: "You write Cypress end-to-end tests following the project's existing command and fixture conventions.",
			Body:   "Generate a Cypress test covering the user flow described below.",
		},
		run: runSpec{
			command: "npx",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				args := []string{"cypress", "run", "--reporter", "junit", "--reporter-options", "mochaFile=" + junitPath}
				args = append(args, testFiles...)
				return args
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "cypress-junit.xml") },
			textParser: parseJestText,
		},
	}
}

func newCargoTestAdapter() TestAdapter {
	return &genericAdapter{
		name:        "cargo_test",
		language:    "rust",
		testPattern: []string{"tests/*.rs", "src/**/*_test.rs"},
		detect: func(root string) bool {
			return hasFile(root, "Cargo.toml")
		},
		template: Template{
			System: "You write Rust unit tests using #[test] and the project's existing assertion conventions.",
			Body:   "Generate Rust tests for the function(s) below using #[cfg(test)] modules.",
		},
		run: runSpec{
			command: "cargo",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				return []string{"test", "--", "--nocapture"}
			},
			textParser: parseCargoTestText,
		},
	}
}

func newCatch2Adapter() TestAdapter {
	return &genericAdapter{
		name:        "catch2",
		language:    "cpp",
		testPattern: []string{"tests/*_test.cpp"},
		detect: func(root string) bool {
			return grepGlob(root, "CMakeLists.txt", regexp.MustCompile(`Catch2|catch2`))
		},
		template: Template{
			System: "You write Catch2 unit tests using TEST_CASE/SECTION following the project's existing conventions.",
			Body:   "Generate a Catch2 TEST_CASE covering the function(s) below.",
		},
		run: runSpec{
			command: "ctest",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				return []string{"--output-junit", junitPath}
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "catch2-junit.xml") },
			textParser: parseGtestText,
		},
	}
}

func newGtestAdapter() TestAdapter {
	return &genericAdapter{
		name:        "gtest",
		language:    "cpp",
		testPattern: []string{"*_test.cc", "*_unittest.cc"},
		detect: func(root string) bool {
			return grepGlob(root, "CMakeLists.txt", regexp.MustCompile(`gtest|GTest`))
		},
		template: Template{
			System: "You write Google Test unit tests using TEST/TEST_F following the project's existing conventions.",
			Body:   "Generate a gtest TEST covering the function(s) below.",
		},
		run: runSpec{
			command: "ctest",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				return []string{"--output-junit", junitPath}
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "gtest-junit.xml") },
			textParser: parseGtestText,
		},
	}
}

func newJUnit5Adapter() TestAdapter {
	return &genericAdapter{
		name:        "junit5",
		language:    "java",
		testPattern: []string{"src/test/java/**/*Test.java"},
		detect: func(root string) bool {
			return grepGlob(root, "pom.xml", regexp.MustCompile(`junit-jupiter|junit5`)) ||
				grepGlob(root, "build.gradle", regexp.MustCompile(`junit-jupiter|junit5`))
		},
		template: Template{
			System: "You write JUnit 5 tests using @Test and the project's existing assertion library.",
			Body:   "Generate JUnit 5 tests for the method(s) below.",
		},
		run: runSpec{
			command: "mvn",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				return []string{"-q", "test"}
			},
			junitPath:  func(root string) string { return filepath.Join("target", "surefire-reports", "TEST-junit5.xml") },
			textParser: func(stdout string) RunResult { return RunResult{RawOutput: stdout} },
		},
	}
}

func newXUnitAdapter() TestAdapter {
	return &genericAdapter{
		name:        "xunit",
		language:    "csharp",
		testPattern: []string{"*Tests.cs"},
		detect: func(root string) bool {
			return grepGlob(root, "*.csproj", regexp.MustCompile(`xunit`))
		},
		template: Template{
			System: "You write xUnit.net tests using [Fact]/[Theory] following the project's existing conventions.",
			Body:   "Generate xUnit tests for the method(s) below.",
		},
		run: runSpec{
			command: "dotnet",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				return []string{"test", "--logger", "junit;LogFilePath=" + junitPath}
			},
			junitPath:  func(root string) string { return filepath.Join(".nit", "xunit-junit.xml") },
			textParser: func(stdout string) RunResult { return RunResult{RawOutput: stdout} },
		},
	}
}

func newKotestAdapter() TestAdapter {
	return &genericAdapter{
		name:        "kotest",
		language:    "kotlin",
		testPattern: []string{"src/test/kotlin/**/*Test.kt"},
		detect: func(root string) bool {
			return grepGlob(root, "build.gradle.kts", regexp.MustCompile(`kotest`))
		},
		template: Template{
			System: "You write Kotest spec-style tests following the project's existing spec style (StringSpec/BehaviorSpec).",
			Body:   "Generate a Kotest spec covering the function(s) below.",
		},
		run: runSpec{
			command: "gradle",
			buildArgs: func(testFiles []string, junitPath string, collectCoverage bool) []string {
				return []string{"test"}
			},
			junitPath:  func(root string) string { return filepath.Join("build", "test-results", "test", "TEST-kotest.xml") },
			textParser: func(stdout string) RunResult { return RunResult{RawOutput: stdout} },
		},
	}
}
