package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/nit-test/nit/internal/logging"
)

// GitHubReporter opens a pull request carrying a batch of generated or
// healed files (spec.md: "GitHub: create branch -> commit files ->
// push -> open PR via CLI if available, else REST API"). Subprocess
// invocation of git itself is grounded on
// services/code_buddy/git/classifier.go's exec.CommandContext(ctx,
// "git", args...) idiom; PR creation prefers the gh CLI when present
// and falls back to a plain REST call otherwise, the same
// subprocess-first-then-API-fallback shape the rest of nit's adapters
// use for their own tooling.
type GitHubReporter struct {
	Repo       string // "owner/name"
	Token      string
	BaseBranch string
	WorkDir    string // local checkout PR commits are made against
	HTTPClient *http.Client
	Logger     *logging.Logger
	APIBaseURL string // overridable for tests; defaults to https://api.github.com

	lookPath func(string) (string, error)
	runGit   func(ctx context.Context, dir string, args ...string) (string, error)
	runCLI   func(ctx context.Context, dir, path string, args ...string) error
}

func NewGitHubReporter(repo, token, baseBranch, workDir string, logger *logging.Logger) *GitHubReporter {
	if baseBranch == "" {
		baseBranch = "main"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GitHubReporter{
		Repo:       repo,
		Token:      token,
		BaseBranch: baseBranch,
		WorkDir:    workDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
		APIBaseURL: "https://api.github.com",
		lookPath:   exec.LookPath,
		runGit:     runGitCommand,
		runCLI:     runCLICommand,
	}
}

func runCLICommand(ctx context.Context, dir, path string, args ...string) error {
	cmdCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(cmdCtx, path, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, stderr.String())
	}
	return nil
}

func runGitCommand(ctx context.Context, dir string, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "git", args...)
	cmd.Dir = dir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(out.String()), nil
}

// PullRequest describes the PR to open once branch and commit are in place.
type PullRequest struct {
	Branch string
	Title  string
	Body   string
	Files  map[string][]byte // path (relative to WorkDir) -> contents
}

// OpenPullRequest creates pr.Branch off BaseBranch, writes and commits
// pr.Files, pushes the branch, then opens the PR — via the gh CLI if
// it's on PATH, otherwise via the GitHub REST API. A failure at any
// step is logged and returned; it never aborts the caller's run.
func (r *GitHubReporter) OpenPullRequest(ctx context.Context, pr PullRequest) error {
	if r.Repo == "" {
		return nil
	}

	steps := [][]string{
		{"fetch", "origin", r.BaseBranch},
		{"checkout", "-B", pr.Branch, "origin/" + r.BaseBranch},
	}
	for _, args := range steps {
		if _, err := r.runGit(ctx, r.WorkDir, args...); err != nil {
			r.Logger.Error("github report: git step failed", "args", args, "error", err)
			return fmt.Errorf("report/github: %w", err)
		}
	}

	for path, contents := range pr.Files {
		if err := writeFile(r.WorkDir, path, contents); err != nil {
			r.Logger.Error("github report: write file", "path", path, "error", err)
			return fmt.Errorf("report/github: write %s: %w", path, err)
		}
		if _, err := r.runGit(ctx, r.WorkDir, "add", path); err != nil {
			r.Logger.Error("github report: git add failed", "path", path, "error", err)
			return fmt.Errorf("report/github: %w", err)
		}
	}

	if _, err := r.runGit(ctx, r.WorkDir, "commit", "-m", pr.Title); err != nil {
		r.Logger.Error("github report: git commit failed", "error", err)
		return fmt.Errorf("report/github: %w", err)
	}
	if _, err := r.runGit(ctx, r.WorkDir, "push", "-u", "origin", pr.Branch); err != nil {
		r.Logger.Error("github report: git push failed", "error", err)
		return fmt.Errorf("report/github: %w", err)
	}

	if ghPath, err := r.lookPath("gh"); err == nil {
		return r.openPRViaCLI(ctx, ghPath, pr)
	}
	return r.openPRViaREST(ctx, pr)
}

func (r *GitHubReporter) openPRViaCLI(ctx context.Context, ghPath string, pr PullRequest) error {
	err := r.runCLI(ctx, r.WorkDir, ghPath, "pr", "create",
		"--repo", r.Repo, "--base", r.BaseBranch, "--head", pr.Branch,
		"--title", pr.Title, "--body", pr.Body)
	if err != nil {
		r.Logger.Error("github report: gh pr create failed", "error", err)
		return fmt.Errorf("report/github: gh pr create: %w", err)
	}
	return nil
}

func (r *GitHubReporter) openPRViaREST(ctx context.Context, pr PullRequest) error {
	body, err := json.Marshal(map[string]string{
		"title": pr.Title,
		"body":  pr.Body,
		"head":  pr.Branch,
		"base":  r.BaseBranch,
	})
	if err != nil {
		return fmt.Errorf("report/github: marshal PR body: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/pulls", trimTrailingSlash(r.APIBaseURL), r.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("report/github: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+r.Token)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		r.Logger.Error("github report: REST pr create failed", "error", err)
		return fmt.Errorf("report/github: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		r.Logger.Error("github report: REST pr create unexpected status", "status", resp.StatusCode)
		return fmt.Errorf("report/github: api returned status %d", resp.StatusCode)
	}
	return nil
}
