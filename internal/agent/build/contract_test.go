package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePact = `{
  "consumer": {"name": "web-app"},
  "provider": {"name": "users-api"},
  "interactions": [
    {
      "description": "get user by id",
      "providerState": "user 1 exists",
      "request": {"method": "GET", "path": "/users/1"},
      "response": {"status": 200}
    }
  ]
}`

func TestContractBuilderRendersConsumerAndProviderTests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pacts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pacts", "web-app-users-api.json"), []byte(samplePact), 0o644))

	builder := NewContractBuilder()
	generated, err := builder.Build(dir)
	require.NoError(t, err)
	require.Len(t, generated, 2)

	assert.Equal(t, "consumer_mock", generated[0].TestType)
	assert.Contains(t, generated[0].Code, "GET")
	assert.Contains(t, generated[0].Code, "/users/1")

	assert.Equal(t, "provider_verification", generated[1].TestType)
	assert.Contains(t, generated[1].Code, "users-api")
}

func TestContractBuilderNoContractsYieldsEmptyPlan(t *testing.T) {
	dir := t.TempDir()
	builder := NewContractBuilder()
	generated, err := builder.Build(dir)
	require.NoError(t, err)
	assert.Empty(t, generated)
}
