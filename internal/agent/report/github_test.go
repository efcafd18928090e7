package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGitHubReporter(t *testing.T, ghAvailable bool) (*GitHubReporter, *[][]string) {
	dir := t.TempDir()
	var gitCalls [][]string
	r := NewGitHubReporter("acme/widgets", "tok", "main", dir, nil)
	r.runGit = func(_ context.Context, _ string, args ...string) (string, error) {
		gitCalls = append(gitCalls, args)
		return "", nil
	}
	r.lookPath = func(name string) (string, error) {
		if ghAvailable {
			return "/usr/bin/" + name, nil
		}
		return "", fmt.Errorf("not found")
	}
	return r, &gitCalls
}

func TestOpenPullRequestViaCLI(t *testing.T) {
	r, gitCalls := fakeGitHubReporter(t, true)
	var cliArgs []string
	r.runCLI = func(_ context.Context, _ string, path string, args ...string) error {
		cliArgs = args
		assert.Equal(t, "/usr/bin/gh", path)
		return nil
	}

	err := r.OpenPullRequest(context.Background(), PullRequest{
		Branch: "nit/drift-fix-1",
		Title:  "fix drift in /health",
		Body:   "auto-generated by nit",
		Files:  map[string][]byte{"tests/health_test.go": []byte("package tests\n")},
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(r.WorkDir, "tests/health_test.go"))
	require.NoError(t, err)
	assert.Contains(t, cliArgs, "nit/drift-fix-1")
	require.NotEmpty(t, *gitCalls)
}

func TestOpenPullRequestFallsBackToREST(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	r, gitCalls := fakeGitHubReporter(t, false)
	r.HTTPClient = server.Client()
	r.APIBaseURL = server.URL

	err := r.OpenPullRequest(context.Background(), PullRequest{
		Branch: "nit/drift-fix-2", Title: "fix drift", Body: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, "nit/drift-fix-2", gotBody["head"])
	require.NotEmpty(t, *gitCalls)
}

func TestOpenPullRequestNoRepoConfiguredIsNoop(t *testing.T) {
	r, gitCalls := fakeGitHubReporter(t, true)
	r.Repo = ""
	err := r.OpenPullRequest(context.Background(), PullRequest{Branch: "x"})
	require.NoError(t, err)
	assert.Empty(t, *gitCalls)
}

func TestOpenPullRequestGitFailureStops(t *testing.T) {
	r, _ := fakeGitHubReporter(t, true)
	r.runGit = func(_ context.Context, _ string, args ...string) (string, error) {
		return "", fmt.Errorf("git boom")
	}
	err := r.OpenPullRequest(context.Background(), PullRequest{Branch: "x", Title: "t"})
	assert.Error(t, err)
}
