package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/ast"
)

func TestIntegrationDepsAnalyzerDetectsHTTPClientPython(t *testing.T) {
	parsed := &ast.ParseResult{
		Imports: []ast.Import{{Module: "requests"}},
		Functions: []ast.FunctionInfo{
			{Name: "fetch_users", BodyText: `response = requests.get("https://api.example.com/users")`},
		},
	}

	report := NewIntegrationDepsAnalyzer().Analyze("api_client.py", parsed, "python")
	require.True(t, report.NeedsIntegrationTests)
	require.Len(t, report.Dependencies, 1)
	dep := report.Dependencies[0]
	assert.Equal(t, IntegrationHTTPClient, dep.DependencyType)
	assert.Contains(t, dep.UsedByFuncs, "fetch_users")
	assert.NotEmpty(t, dep.MockStrategies)
	assert.Contains(t, report.RecommendedFixtures, "http_response_fixture")
}

func TestIntegrationDepsAnalyzerDetectsDatabasePython(t *testing.T) {
	parsed := &ast.ParseResult{
		Imports: []ast.Import{{Module: "sqlalchemy"}},
	}

	report := NewIntegrationDepsAnalyzer().Analyze("models.py", parsed, "python")
	require.True(t, report.NeedsIntegrationTests)
	assert.Equal(t, IntegrationDatabase, report.Dependencies[0].DependencyType)
}

func TestIntegrationDepsAnalyzerDetectsHTTPClientTypeScript(t *testing.T) {
	parsed := &ast.ParseResult{
		Imports: []ast.Import{{Module: "axios"}},
	}

	report := NewIntegrationDepsAnalyzer().Analyze("client.ts", parsed, "typescript")
	require.True(t, report.NeedsIntegrationTests)
	dep := report.Dependencies[0]
	assert.Equal(t, IntegrationHTTPClient, dep.DependencyType)
	found := false
	for _, s := range dep.MockStrategies {
		if s == "msw" || s == "nock" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestIntegrationDepsAnalyzerNoDependenciesForPlainImports(t *testing.T) {
	parsed := &ast.ParseResult{Imports: []ast.Import{{Module: "json"}}}

	report := NewIntegrationDepsAnalyzer().Analyze("util.py", parsed, "python")
	assert.False(t, report.NeedsIntegrationTests)
	assert.Empty(t, report.Dependencies)
}
