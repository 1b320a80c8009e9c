package alerting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func sampleAlert() RefreshAlert {
	return RefreshAlert{
		JobName:      "catalog-refresh",
		TotalCount:   2,
		SuccessCount: 1,
		FailedCount:  1,
		Duration:     1500 * time.Millisecond,
		FailedDetails: []SourceFailure{
			{Source: "kamaze", Error: "fetch: 503", Attempts: 1},
		},
		Timestamp: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestSendRefreshAlertGenericPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("payload is not JSON: %v", err)
		}
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{
		WebhookURL:             srv.URL,
		WebhookType:            "generic",
		Enabled:                true,
		MinFailuresBeforeAlert: 1,
		Timeout:                time.Second,
	})
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("SendRefreshAlert: %v", err)
	}
	if got["alert_type"] != "refresh_failure" || got["job_name"] != "catalog-refresh" {
		t.Errorf("unexpected payload: %v", got)
	}
	if got["failed_count"].(float64) != 1 {
		t.Errorf("failed_count = %v", got["failed_count"])
	}
}

func TestSendRefreshAlertSlackPayload(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{
		WebhookURL:             srv.URL,
		WebhookType:            "slack",
		Enabled:                true,
		MinFailuresBeforeAlert: 1,
		Timeout:                time.Second,
	})
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("SendRefreshAlert: %v", err)
	}
	for _, want := range []string{"blocks", "Catalog Refresh Alert: catalog-refresh", "*kamaze*", "1/2 sources failed"} {
		if !strings.Contains(body, want) {
			t.Errorf("slack payload missing %q\n%s", want, body)
		}
	}
	// One of two sources failed, so the header carries the warning emoji.
	if !strings.Contains(body, ":warning:") || strings.Contains(body, ":x:") {
		t.Errorf("expected warning emoji for a partial failure\n%s", body)
	}
}

func TestSendRefreshAlertBelowThreshold(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{
		WebhookURL:             srv.URL,
		WebhookType:            "generic",
		Enabled:                true,
		MinFailuresBeforeAlert: 3,
		Timeout:                time.Second,
	})
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("SendRefreshAlert: %v", err)
	}
	if called {
		t.Error("webhook called for a failure count below the threshold")
	}
}

func TestSendRefreshAlertWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{
		WebhookURL:             srv.URL,
		WebhookType:            "generic",
		Enabled:                true,
		MinFailuresBeforeAlert: 1,
		Timeout:                time.Second,
	})
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err == nil {
		t.Fatal("expected an error for a 502 webhook response")
	}
}

func TestDefaultAlertConfigDetectsType(t *testing.T) {
	t.Setenv("EPLANCOMPARE_ALERT_WEBHOOK_URL", "https://hooks.slack.com/services/T/B/x")
	t.Setenv("EPLANCOMPARE_ALERT_WEBHOOK_TYPE", "")
	t.Setenv("EPLANCOMPARE_ALERT_MIN_FAILURES", "2")

	cfg := DefaultAlertConfig()
	if !cfg.Enabled || cfg.WebhookType != "slack" || cfg.MinFailuresBeforeAlert != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
