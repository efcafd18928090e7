package watch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDriftYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "drift-tests.yml")
	require.NoError(t, writeFile(path, content))
	return path
}

func TestParseDriftTestsFullFile(t *testing.T) {
	path := writeDriftYAML(t, `
tests:
  - id: test_echo
    name: "Echo test"
    endpoint_type: cli
    comparison_type: exact
    endpoint_config:
      command: ["echo", "hello drift"]

  - id: test_str_convert
    name: "String conversion test"
    endpoint_type: function
    comparison_type: semantic
    endpoint_config:
      module: builtins
      function: str
      args: [123]
    comparison_config:
      threshold: 0.8
`)

	specs, err := ParseDriftTests(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "test_echo", specs[0].ID)
	assert.Equal(t, EndpointCLI, specs[0].EndpointType)
	assert.Equal(t, ComparisonExact, specs[0].ComparisonType)
	assert.Equal(t, []string{"echo", "hello drift"}, specs[0].EndpointConfig.Command)

	assert.Equal(t, "test_str_convert", specs[1].ID)
	assert.Equal(t, EndpointFunction, specs[1].EndpointType)
	assert.Equal(t, ComparisonSemantic, specs[1].ComparisonType)
	assert.Equal(t, "builtins", specs[1].EndpointConfig.Module)
	assert.Equal(t, "str", specs[1].EndpointConfig.Function)
	assert.Equal(t, 0.8, specs[1].ComparisonConfig.Threshold)
}

func TestParseDriftTestsEmptyFile(t *testing.T) {
	path := writeDriftYAML(t, "")
	specs, err := ParseDriftTests(path)
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestParseDriftTestsNonexistentFile(t *testing.T) {
	specs, err := ParseDriftTests(filepath.Join(t.TempDir(), "nonexistent.yml"))
	require.NoError(t, err)
	assert.Empty(t, specs)
}
