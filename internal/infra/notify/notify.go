// Package notify posts run summaries to an external HTTP endpoint, for
// hooking suite results into chat or alerting systems.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/runner/diagnose"
)

// Config holds notification configuration. An empty URL disables sending.
type Config struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Failure is one failed request inside a payload.
type Failure struct {
	Name     string `json:"name,omitempty"`
	Method   string `json:"method"`
	URL      string `json:"url"`
	Status   int    `json:"status,omitempty"`
	Attempts int    `json:"attempts"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
	Issue    string `json:"issue,omitempty"`
}

// Payload is the JSON body posted to the notification endpoint.
type Payload struct {
	Source   string           `json:"source"`
	Suite    string           `json:"suite,omitempty"`
	Summary  diagnose.Summary `json:"summary"`
	Failures []Failure        `json:"failures,omitempty"`
	SentAt   time.Time        `json:"sent_at"`
}

// BuildPayload folds results into a notification payload. source names what
// ran, e.g. "request" or "suite"; suite carries the suite name when set.
func BuildPayload(source, suite string, results []domain.Result) Payload {
	p := Payload{
		Source:  source,
		Suite:   suite,
		Summary: diagnose.Summarize(results),
		SentAt:  time.Now().UTC(),
	}

	for _, r := range results {
		if r.Success {
			continue
		}
		f := Failure{
			Method:   r.Method,
			URL:      r.URL,
			Status:   r.StatusCode,
			Attempts: r.Attempts,
		}
		if r.Diagnosis != nil {
			f.Category = string(r.Diagnosis.Category)
			f.Severity = string(r.Diagnosis.Severity)
			f.Issue = r.Diagnosis.Issue
		}
		p.Failures = append(p.Failures, f)
	}
	return p
}

// Notifier posts payloads to the configured endpoint.
type Notifier struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates a Notifier. A zero timeout defaults to 5s.
func New(cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Enabled reports whether a destination is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.cfg.URL != ""
}

// Send posts the payload. The caller decides what to do with a failure; a
// broken notification hook must never fail the run itself.
func (n *Notifier) Send(ctx context.Context, p Payload) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	n.logger.Debug("notification sent",
		"url", n.cfg.URL,
		"failed", p.Summary.Failed,
		"total", p.Summary.Total,
	)
	return nil
}
