package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nit-test/nit/internal/logging"
)

// SlackReporter posts a RunSummary to a Slack incoming webhook as a
// Block Kit message (spec.md: "Slack webhook: POST JSON with blocks;
// expects HTTP 200").
type SlackReporter struct {
	WebhookURL string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

func NewSlackReporter(webhookURL string, logger *logging.Logger) *SlackReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &SlackReporter{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
}

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send delivers summary to the configured webhook. A transport or
// non-200 failure is logged and returned; it never panics and the
// caller is free to ignore the error and keep running.
func (r *SlackReporter) Send(ctx context.Context, summary RunSummary) error {
	if r.WebhookURL == "" {
		return nil
	}

	payload := slackPayload{Blocks: []slackBlock{
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: headline(summary)}},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: details(summary)}},
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		r.Logger.Error("slack report: marshal payload", "error", err)
		return fmt.Errorf("report/slack: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.WebhookURL, bytes.NewReader(body))
	if err != nil {
		r.Logger.Error("slack report: build request", "error", err)
		return fmt.Errorf("report/slack: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		r.Logger.Error("slack report: post webhook", "error", err)
		return fmt.Errorf("report/slack: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.Logger.Error("slack report: unexpected status", "status", resp.StatusCode)
		return fmt.Errorf("report/slack: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func headline(s RunSummary) string {
	status := "succeeded"
	if !s.Success {
		status = "failed"
	}
	return fmt.Sprintf("*nit %s* %s in %s", s.Command, status, s.Duration().Round(time.Second))
}

func details(s RunSummary) string {
	text := fmt.Sprintf(
		"tests: %d generated, %d passed, %d failed\nbugs: %d found, %d fixed\nsecurity findings: %d",
		s.TestsGenerated, s.TestsPassed, s.TestsFailed, s.BugsFound, s.BugsFixed, s.SecurityFindings)
	if s.DriftDetected {
		text += "\n:warning: drift detected"
	}
	for _, m := range s.Messages {
		text += "\n- " + m
	}
	return text
}
