package detect

// builtinRules is the FrameworkRule table FrameworkDetector scores
// against. Each rule mirrors a framework this module can generate and
// run tests for (internal/adapter's registry), grounded on the original
// detector's JS/TS and Python rule sets, extended to the remaining
// languages the adapter registry supports.
func builtinRules() []FrameworkRule {
	return []FrameworkRule{
		{
			Name: "vitest", Language: "javascript", Category: CategoryUnitTest,
			Signals: []Signal{
				ConfigFile{Glob: "vitest.config.*"},
				Dependency{Name: "vitest", DevOnly: true},
				&ImportPattern{Pattern: `from ['"]vitest['"]`},
				FilePattern{Glob: "**/*.test.ts"},
			},
		},
		{
			Name: "jest", Language: "javascript", Category: CategoryUnitTest,
			Signals: []Signal{
				ConfigFile{Glob: "jest.config.*"},
				Dependency{Name: "jest", DevOnly: true},
				PackageJsonField{DotPath: "jest", Substr: ""},
				&ImportPattern{Pattern: `require\(['"]jest['"]\)|from ['"]@jest/globals['"]`},
				FilePattern{Glob: "**/*.test.js"},
			},
		},
		{
			Name: "mocha", Language: "javascript", Category: CategoryUnitTest,
			Signals: []Signal{
				ConfigFile{Glob: ".mocharc.*"},
				Dependency{Name: "mocha", DevOnly: true},
				FilePattern{Glob: "test/**/*.js"},
			},
		},
		{
			Name: "playwright", Language: "javascript", Category: CategoryE2ETest,
			Signals: []Signal{
				ConfigFile{Glob: "playwright.config.*"},
				Dependency{Name: "@playwright/test", DevOnly: true},
				&ImportPattern{Pattern: `from ['"]@playwright/test['"]`},
				FilePattern{Glob: "**/*.spec.ts"},
			},
		},
		{
			Name: "cypress", Language: "javascript", Category: CategoryE2ETest,
			Signals: []Signal{
				ConfigFile{Glob: "cypress.config.*"},
				Dependency{Name: "cypress", DevOnly: true},
				FilePattern{Glob: "cypress/**/*.cy.ts"},
			},
		},
		{
			Name: "pytest", Language: "python", Category: CategoryUnitTest,
			Signals: []Signal{
				ConfigFile{Glob: "pytest.ini"},
				ConfigFile{Glob: "pyproject.toml"},
				Dependency{Name: "pytest"},
				&ImportPattern{Pattern: `import pytest`},
				FilePattern{Glob: "test_*.py"},
			},
		},
		{
			Name: "unittest", Language: "python", Category: CategoryUnitTest,
			Signals: []Signal{
				&ImportPattern{Pattern: `import unittest`},
				FilePattern{Glob: "test_*.py"},
			},
		},
		{
			Name: "gotest", Language: "go", Category: CategoryUnitTest,
			Signals: []Signal{
				ConfigFile{Glob: "go.mod"},
				FilePattern{Glob: "**/*_test.go"},
				&ImportPattern{Pattern: `"testing"`},
			},
		},
		{
			Name: "cargo_test", Language: "rust", Category: CategoryUnitTest,
			Signals: []Signal{
				ConfigFile{Glob: "Cargo.toml"},
				&ImportPattern{Pattern: `#\[test\]`},
				FilePattern{Glob: "**/*_test.rs"},
			},
		},
		{
			Name: "catch2", Language: "cpp", Category: CategoryUnitTest,
			Signals: []Signal{
				Dependency{Name: "Catch2"},
				&CMakePattern{Pattern: `Catch2|catch2`},
				&ImportPattern{Pattern: `#include <catch2/catch`},
			},
		},
		{
			Name: "gtest", Language: "cpp", Category: CategoryUnitTest,
			Signals: []Signal{
				Dependency{Name: "GTest"},
				&CMakePattern{Pattern: `gtest|GTest`},
				&ImportPattern{Pattern: `#include <gtest/gtest\.h>`},
			},
		},
		{
			Name: "junit5", Language: "java", Category: CategoryUnitTest,
			Signals: []Signal{
				Dependency{Name: "junit-jupiter"},
				&ImportPattern{Pattern: `org\.junit\.jupiter`},
				FilePattern{Glob: "**/*Test.java"},
			},
		},
		{
			Name: "xunit", Language: "csharp", Category: CategoryUnitTest,
			Signals: []Signal{
				Dependency{Name: "xunit"},
				&ImportPattern{Pattern: `using Xunit`},
				FilePattern{Glob: "**/*Tests.cs"},
			},
		},
		{
			Name: "kotest", Language: "kotlin", Category: CategoryUnitTest,
			Signals: []Signal{
				Dependency{Name: "io.kotest"},
				&ImportPattern{Pattern: `import io\.kotest`},
				FilePattern{Glob: "**/*Test.kt"},
			},
		},
	}
}
