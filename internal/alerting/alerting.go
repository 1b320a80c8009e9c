package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// AlertConfig holds webhook alerting configuration.
type AlertConfig struct {
	WebhookURL string
	// WebhookType selects the payload format: "slack", "discord" or "generic".
	WebhookType string
	Enabled     bool
	// MinFailuresBeforeAlert suppresses alerts below this failure count.
	MinFailuresBeforeAlert int
	Timeout                time.Duration
}

// DefaultAlertConfig reads webhook settings from environment variables.
// The payload format is inferred from the URL host when not set explicitly.
func DefaultAlertConfig() AlertConfig {
	cfg := AlertConfig{
		WebhookURL:             os.Getenv("EPLANCOMPARE_ALERT_WEBHOOK_URL"),
		WebhookType:            os.Getenv("EPLANCOMPARE_ALERT_WEBHOOK_TYPE"),
		MinFailuresBeforeAlert: 1,
		Timeout:                10 * time.Second,
	}
	cfg.Enabled = cfg.WebhookURL != ""

	if cfg.WebhookType == "" {
		switch {
		case strings.Contains(cfg.WebhookURL, "slack.com"):
			cfg.WebhookType = "slack"
		case strings.Contains(cfg.WebhookURL, "discord.com"):
			cfg.WebhookType = "discord"
		default:
			cfg.WebhookType = "generic"
		}
	}

	if v := os.Getenv("EPLANCOMPARE_ALERT_MIN_FAILURES"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			cfg.MinFailuresBeforeAlert = n
		}
	}

	return cfg
}

// Alerter posts refresh failure alerts to a configured webhook.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
}

func NewAlerter(cfg AlertConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// RefreshAlert describes the outcome of a scheduled refresh run.
type RefreshAlert struct {
	JobName       string
	TotalCount    int
	SuccessCount  int
	FailedCount   int
	Duration      time.Duration
	FailedDetails []SourceFailure
	Timestamp     time.Time
}

// SourceFailure records one catalog source that failed to refresh.
type SourceFailure struct {
	Source   string
	Error    string
	Attempts int
}

func (a RefreshAlert) title() string {
	return "Catalog Refresh Alert: " + a.JobName
}

func (a RefreshAlert) summary() string {
	return fmt.Sprintf("%d/%d sources failed", a.FailedCount, a.TotalCount)
}

func (a RefreshAlert) allFailed() bool {
	return a.FailedCount == a.TotalCount
}

// failureList renders one bullet per failed source, with the source name
// wrapped in the format's bold marker.
func (a RefreshAlert) failureList(bold string) string {
	var b strings.Builder
	for _, f := range a.FailedDetails {
		fmt.Fprintf(&b, "• %s%s%s: %s\n", bold, f.Source, bold, f.Error)
	}
	return b.String()
}

// SendRefreshAlert posts the alert, honoring the enabled flag and the
// failure threshold. A webhook response of 400+ is an error.
func (al *Alerter) SendRefreshAlert(ctx context.Context, alert RefreshAlert) error {
	if !al.cfg.Enabled {
		log.Printf("alerting: alerts disabled, skipping")
		return nil
	}
	if alert.FailedCount < al.cfg.MinFailuresBeforeAlert {
		log.Printf("alerting: %d failures below threshold (%d), skipping",
			alert.FailedCount, al.cfg.MinFailuresBeforeAlert)
		return nil
	}

	var body any
	switch al.cfg.WebhookType {
	case "slack":
		body = slackPayload(alert)
	case "discord":
		body = discordPayload(alert)
	default:
		body = genericPayload(alert)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", al.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := al.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("alerting: sent alert for %d failed sources", alert.FailedCount)
	return nil
}

func slackPayload(a RefreshAlert) any {
	emoji := ":warning:"
	if a.allFailed() {
		emoji = ":x:"
	}
	mrkdwn := func(s string) map[string]string {
		return map[string]string{"type": "mrkdwn", "text": s}
	}
	return map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]string{"type": "plain_text", "text": emoji + " " + a.title()},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					mrkdwn("*Status:*\n" + a.summary()),
					mrkdwn("*Duration:*\n" + a.Duration.Round(time.Millisecond).String()),
					mrkdwn(fmt.Sprintf("*Success:*\n%d", a.SuccessCount)),
					mrkdwn("*Timestamp:*\n" + a.Timestamp.Format(time.RFC3339)),
				},
			},
			{
				"type": "section",
				"text": mrkdwn("*Failed Sources:*\n" + a.failureList("*")),
			},
		},
	}
}

func discordPayload(a RefreshAlert) any {
	color := 0xFFFF00
	if a.allFailed() {
		color = 0xFF0000
	}
	return map[string]any{
		"embeds": []map[string]any{{
			"title":       a.title(),
			"description": a.summary(),
			"color":       color,
			"fields": []map[string]any{
				{"name": "Success", "value": fmt.Sprintf("%d", a.SuccessCount), "inline": true},
				{"name": "Failed", "value": fmt.Sprintf("%d", a.FailedCount), "inline": true},
				{"name": "Duration", "value": a.Duration.Round(time.Millisecond).String(), "inline": true},
				{"name": "Failed Sources", "value": a.failureList("**"), "inline": false},
			},
			"timestamp": a.Timestamp.Format(time.RFC3339),
		}},
	}
}

func genericPayload(a RefreshAlert) any {
	return map[string]any{
		"alert_type":     "refresh_failure",
		"job_name":       a.JobName,
		"total_count":    a.TotalCount,
		"success_count":  a.SuccessCount,
		"failed_count":   a.FailedCount,
		"duration_ms":    a.Duration.Milliseconds(),
		"timestamp":      a.Timestamp.Format(time.RFC3339),
		"failed_details": a.FailedDetails,
	}
}
