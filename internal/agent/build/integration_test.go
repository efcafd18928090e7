package build

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/llm"
)

func TestIntegrationBuilderAugmentsContextWithFixtures(t *testing.T) {
	dir := pytestProject(t)
	srcFile := writeBuildFile(t, dir, "client.py", "import requests\n\n"+
		"def fetch_users():\n    return requests.get('https://api.example.com/users')\n")

	client := &fakeBuildClient{responses: []llm.Response{{Text: "def test_fetch_users():\n    pass", Model: "gpt-4o"}}}
	builder := NewIntegrationBuilder(newTestAssembler(), ast.NewParser(), newBuildTestEngine(client), adapter.NewRegistry(), nil, dir)

	result, err := builder.Build(context.Background(), BuildTask{SourceFile: srcFile, Framework: "pytest"})
	require.NoError(t, err)
	assert.True(t, result.ValidationPassed)

	report := builder.analyzeDeps(context.Background(), srcFile, "python")
	require.True(t, report.NeedsIntegrationTests)
	assert.Contains(t, report.RecommendedFixtures, "http_response_fixture")
}

func TestIntegrationBuilderWithNoDependenciesStillBuilds(t *testing.T) {
	dir := pytestProject(t)
	srcFile := writeBuildFile(t, dir, "util.py", "def square(x):\n    return x * x\n")

	client := &fakeBuildClient{responses: []llm.Response{{Text: "def test_square():\n    pass", Model: "gpt-4o"}}}
	builder := NewIntegrationBuilder(newTestAssembler(), ast.NewParser(), newBuildTestEngine(client), adapter.NewRegistry(), nil, dir)

	result, err := builder.Build(context.Background(), BuildTask{SourceFile: srcFile, Framework: "pytest"})
	require.NoError(t, err)
	assert.True(t, result.ValidationPassed)
	assert.NotEmpty(t, filepath.Base(srcFile))
}
