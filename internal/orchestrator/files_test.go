package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFilesForLanguageSkipsVendorAndTestFiles(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("package sample\n"), 0o644))
	}
	write("main.go")
	write("handler_test.go")
	write("vendor/dep/dep.go")
	write("sub/util.go")

	files := sourceFilesForLanguage(root, "go")
	var rels []string
	for _, f := range files {
		rel, _ := filepath.Rel(root, f)
		rels = append(rels, rel)
	}
	assert.ElementsMatch(t, []string{"main.go", filepath.Join("sub", "util.go")}, rels)
}

func TestSourceFilesForLanguageUnknownLanguage(t *testing.T) {
	assert.Nil(t, sourceFilesForLanguage(t.TempDir(), "cobol"))
}

func TestIsTestFile(t *testing.T) {
	cases := map[string]bool{
		"/proj/handler_test.go":    true,
		"/proj/util.go":            false,
		"/proj/foo.test.ts":        true,
		"/proj/foo.spec.ts":        true,
		"/proj/index.ts":           false,
		"/proj/tests/fixture.go":   true,
		"/proj/__tests__/index.js": true,
		"/proj/test_helpers.py":    true,
		"/proj/testing_helpers.py": false,
	}
	for path, want := range cases {
		assert.Equal(t, want, isTestFile(path), path)
	}
}
