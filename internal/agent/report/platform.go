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

// PlatformSink uploads any of nit's report kinds to the Platform API
// (spec.md: "Platform API: POST reports/bugs/drift/usage/memory/
// security/risk/coverage-gaps/fixes/routes/doc-coverage/prompts;
// Bearer auth"). One generic Upload keeps this package from needing to
// import every domain package's result type just to name a method
// signature — callers already hold a concretely-typed value and pass
// it straight through as payload.
type PlatformSink struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

func NewPlatformSink(baseURL, apiKey string, logger *logging.Logger) *PlatformSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlatformSink{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logger,
	}
}

// Upload POSTs payload to BaseURL/<kind>. A transport or non-2xx
// failure is logged and returned; callers are expected to swallow the
// error rather than abort the run that produced payload.
func (s *PlatformSink) Upload(ctx context.Context, kind Kind, payload any) error {
	if s.BaseURL == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Error("platform upload: marshal payload", "kind", kind, "error", err)
		return fmt.Errorf("report/platform: marshal %s: %w", kind, err)
	}

	url := fmt.Sprintf("%s/%s", trimTrailingSlash(s.BaseURL), kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.Logger.Error("platform upload: build request", "kind", kind, "error", err)
		return fmt.Errorf("report/platform: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		s.Logger.Error("platform upload: post failed", "kind", kind, "error", err)
		return fmt.Errorf("report/platform: post %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.Logger.Error("platform upload: unexpected status", "kind", kind, "status", resp.StatusCode)
		return fmt.Errorf("report/platform: %s returned status %d", kind, resp.StatusCode)
	}
	return nil
}

func (s *PlatformSink) UploadReport(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindReport, payload)
}

func (s *PlatformSink) UploadBugs(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindBugs, payload)
}

func (s *PlatformSink) UploadDrift(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindDrift, payload)
}

func (s *PlatformSink) UploadUsage(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindUsage, payload)
}

func (s *PlatformSink) UploadMemory(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindMemory, payload)
}

func (s *PlatformSink) UploadSecurity(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindSecurity, payload)
}

func (s *PlatformSink) UploadRisk(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindRisk, payload)
}

func (s *PlatformSink) UploadCoverageGaps(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindCoverageGaps, payload)
}

func (s *PlatformSink) UploadFixes(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindFixes, payload)
}

func (s *PlatformSink) UploadRoutes(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindRoutes, payload)
}

func (s *PlatformSink) UploadDocCoverage(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindDocCoverage, payload)
}

func (s *PlatformSink) UploadPrompts(ctx context.Context, payload any) error {
	return s.Upload(ctx, KindPrompts, payload)
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
