// Package runner executes logical HTTP requests: an attempt loop that
// consults the retry policy after each failure and classifies the terminal
// outcome once no retry is permitted.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/infra/metrics"
	"github.com/Scarage1/API-Watch/internal/runner/diagnose"
	"github.com/Scarage1/API-Watch/internal/runner/retry"
)

// Transport performs one HTTP attempt. The executor stays agnostic to TLS,
// pooling, and redirect handling; those belong to the implementation.
type Transport interface {
	Attempt(ctx context.Context, spec domain.RequestSpec) domain.Attempt
}

// Executor drives requests through the retry state machine. Safe for
// concurrent use: every Execute call carries its own attempt counter and
// timer, nothing is shared between invocations.
type Executor struct {
	transport Transport
	policy    retry.Config
	auth      Auth
	logger    *slog.Logger
}

// Option customizes an Executor.
type Option func(*Executor)

// WithAuth attaches credentials applied once per execution.
func WithAuth(a Auth) Option {
	return func(e *Executor) { e.auth = a }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New builds an Executor. Zero policy delay fields fall back to defaults.
func New(t Transport, policy retry.Config, opts ...Option) *Executor {
	e := &Executor{
		transport: t,
		policy:    policy.Normalized(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one logical request to a terminal state. The error is nil
// only on success: an invalid spec returns *ConfigError before any attempt,
// a completed-but-failed run returns the populated result plus an
// *ExhaustedError, and cancellation surfaces ctx.Err() with the partial
// result.
func (e *Executor) Execute(ctx context.Context, spec domain.RequestSpec) (domain.Result, error) {
	res := domain.Result{
		ID:        uuid.NewString(),
		Method:    methodOf(spec),
		URL:       spec.URL,
		StartedAt: time.Now(),
	}

	state := domain.StatePending

	if err := validateSpec(spec); err != nil {
		e.logger.Error("request config rejected", "url", spec.URL, "error", err)
		return res, err
	}

	maxRetries := e.policy.MaxRetries
	if spec.MaxRetries != nil {
		maxRetries = *spec.MaxRetries
	}

	spec = spec.Clone()
	if e.auth != nil {
		if spec.Headers == nil {
			spec.Headers = make(map[string]string)
		}
		if err := e.auth.Apply(spec.Headers); err != nil {
			return res, &ConfigError{Field: "auth", Reason: err.Error()}
		}
	}

	start := time.Now()
	var last domain.Attempt

	for attempt := 1; ; attempt++ {
		state = e.shift(res.ID, state, domain.StateAttempting)

		last = e.transport.Attempt(ctx, spec)
		last.Number = attempt
		res.Trace = append(res.Trace, last)
		metrics.AttemptsTotal.WithLabelValues(res.Method).Inc()

		if last.Success() {
			state = e.shift(res.ID, state, domain.StateSucceeded)
			break
		}

		if ctx.Err() != nil {
			e.finalize(&res, last, start)
			return res, ctx.Err()
		}

		decision := e.policy.Decide(attempt, last, maxRetries)
		if !decision.Retry {
			state = e.shift(res.ID, state, domain.StateFailed)
			break
		}

		state = e.shift(res.ID, state, domain.StateRetrying)
		metrics.RetriesTotal.WithLabelValues(retryReason(last)).Inc()
		e.logger.Debug("retrying request",
			"id", res.ID,
			"attempt", attempt,
			"reason", retryReason(last),
			"delay", decision.Delay,
		)

		select {
		case <-ctx.Done():
			e.finalize(&res, last, start)
			return res, ctx.Err()
		case <-time.After(decision.Delay):
		}
	}

	e.finalize(&res, last, start)

	if res.Success {
		e.logger.Info("request succeeded",
			"id", res.ID,
			"method", res.Method,
			"url", res.URL,
			"status", res.StatusCode,
			"attempts", res.Attempts,
			"elapsed", res.Elapsed,
		)
		return res, nil
	}

	e.logger.Warn("request failed",
		"id", res.ID,
		"method", res.Method,
		"url", res.URL,
		"status", res.StatusCode,
		"attempts", res.Attempts,
		"category", res.Diagnosis.Category,
		"severity", res.Diagnosis.Severity,
		"issue", res.Diagnosis.Issue,
	)
	return res, &ExhaustedError{
		Attempts:  res.Attempts,
		Diagnosis: *res.Diagnosis,
		Last:      terminalErr(last),
	}
}

// finalize copies the terminal attempt into the result and, on failure,
// computes the diagnosis. Called exactly once per execution.
func (e *Executor) finalize(res *domain.Result, last domain.Attempt, start time.Time) {
	res.Attempts = len(res.Trace)
	res.Elapsed = time.Since(start)
	res.StatusCode = last.StatusCode
	res.Body = last.Body
	res.Size = last.Size
	res.Headers = last.Headers
	res.Success = last.Success()

	if !res.Success {
		res.ErrorKind = last.ErrorKind
		res.Error = last.Error
		d := diagnose.Classify(last)
		res.Diagnosis = &d
	}

	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	metrics.RequestsTotal.WithLabelValues(res.Method, outcome).Inc()
	metrics.RequestDuration.WithLabelValues(res.Method).Observe(res.Elapsed.Seconds())
}

func (e *Executor) shift(id string, from, to domain.RunState) domain.RunState {
	if !domain.CanTransition(from, to) {
		e.logger.Warn("unexpected state transition", "id", id, "from", from, "to", to)
	}
	return to
}

func validateSpec(spec domain.RequestSpec) error {
	if strings.TrimSpace(spec.URL) == "" {
		return &ConfigError{Field: "url", Reason: "must not be empty"}
	}
	u, err := url.Parse(spec.URL)
	if err != nil {
		return &ConfigError{Field: "url", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "url", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &ConfigError{Field: "url", Reason: "missing host"}
	}
	if spec.Method != "" && !domain.SupportedMethods[strings.ToUpper(spec.Method)] {
		return &ConfigError{Field: "method", Reason: fmt.Sprintf("unsupported method %q", spec.Method)}
	}
	if spec.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: "must be positive"}
	}
	if spec.MaxRetries != nil && *spec.MaxRetries < 0 {
		return &ConfigError{Field: "max_retries", Reason: "must not be negative"}
	}
	return nil
}

func methodOf(spec domain.RequestSpec) string {
	if spec.Method == "" {
		return "GET"
	}
	return strings.ToUpper(spec.Method)
}

func retryReason(a domain.Attempt) string {
	if a.Failed() {
		return string(a.ErrorKind)
	}
	return fmt.Sprintf("http_%d", a.StatusCode)
}

func terminalErr(a domain.Attempt) error {
	if a.Failed() {
		return a.Err
	}
	return &StatusError{StatusCode: a.StatusCode}
}
