// Package retry decides whether a failed attempt earns another try and how
// long to wait before it. The policy is pure and holds no state; every
// execution passes its own attempt counter.
package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// Config defines backoff behavior.
type Config struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Multiplier float64       `yaml:"multiplier"`

	// Jitter randomizes each delay by the given fraction (0.2 means +-20%).
	// Zero keeps the backoff fully deterministic, which is the default and
	// what the tests rely on. Never enabled implicitly.
	Jitter float64 `yaml:"jitter"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   30 * time.Second,
	Multiplier: 2.0,
}

// Decision is the policy verdict for one completed attempt. Computed fresh
// per attempt, never persisted.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// retryableStatus lists the status codes treated as transient.
var retryableStatus = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// RetryableStatus reports whether an HTTP status is worth another attempt.
func RetryableStatus(code int) bool {
	return retryableStatus[code]
}

// RetryableKind reports whether a transport failure is worth another attempt.
func RetryableKind(kind domain.ErrorKind) bool {
	return kind == domain.KindConnection || kind == domain.KindTimeout
}

// Retryable reports whether an attempt outcome is transient. Responses are
// judged by status code, transport failures by error kind.
func Retryable(outcome domain.Attempt) bool {
	if outcome.Failed() {
		return RetryableKind(outcome.ErrorKind)
	}
	return RetryableStatus(outcome.StatusCode)
}

// Decide returns the verdict for the just-completed attempt. attemptNumber is
// 1-indexed; maxRetries counts retries after the first attempt, so a request
// makes at most maxRetries+1 attempts.
func (c Config) Decide(attemptNumber int, outcome domain.Attempt, maxRetries int) Decision {
	if !Retryable(outcome) {
		return Decision{}
	}
	if attemptNumber > maxRetries {
		return Decision{}
	}
	return Decision{Retry: true, Delay: c.Delay(attemptNumber)}
}

// Delay computes the backoff after attemptNumber failures:
// min(BaseDelay * Multiplier^(attemptNumber-1), MaxDelay). With the defaults
// the sequence is 1s, 2s, 4s, 8s, 16s, then 30s forever.
func (c Config) Delay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attemptNumber-1))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		span := delay * c.Jitter
		delay = delay - span + rand.Float64()*2*span
	}

	return time.Duration(delay)
}

// Normalized fills zero fields from DefaultConfig so a partially specified
// config still backs off sanely.
func (c Config) Normalized() Config {
	out := c
	if out.MaxRetries < 0 {
		out.MaxRetries = DefaultConfig.MaxRetries
	}
	if out.BaseDelay <= 0 {
		out.BaseDelay = DefaultConfig.BaseDelay
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = DefaultConfig.MaxDelay
	}
	if out.Multiplier <= 0 {
		out.Multiplier = DefaultConfig.Multiplier
	}
	return out
}
