package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackReporterSendSuccess(t *testing.T) {
	var received slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reporter := NewSlackReporter(server.URL, nil)
	err := reporter.Send(context.Background(), RunSummary{
		Command: "generate", Success: true, TestsGenerated: 5, TestsPassed: 5,
	})
	require.NoError(t, err)
	require.Len(t, received.Blocks, 2)
	assert.Contains(t, received.Blocks[0].Text.Text, "nit generate")
}

func TestSlackReporterSendNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reporter := NewSlackReporter(server.URL, nil)
	err := reporter.Send(context.Background(), RunSummary{Command: "generate"})
	assert.Error(t, err)
}

func TestSlackReporterNoWebhookConfiguredIsNoop(t *testing.T) {
	reporter := NewSlackReporter("", nil)
	err := reporter.Send(context.Background(), RunSummary{Command: "generate"})
	assert.NoError(t, err)
}

func TestDetailsIncludesDriftWarningAndMessages(t *testing.T) {
	text := details(RunSummary{DriftDetected: true, Messages: []string{"endpoint /health drifted"}})
	assert.Contains(t, text, "drift detected")
	assert.Contains(t, text, "endpoint /health drifted")
}
