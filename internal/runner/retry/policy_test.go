package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

func TestRetryableStatus(t *testing.T) {
	tests := []struct {
		code   int
		expect bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{200, false},
		{301, false},
		{400, false},
		{401, false},
		{403, false},
		{404, false},
		{422, false},
		{501, false},
	}

	for _, tt := range tests {
		if got := RetryableStatus(tt.code); got != tt.expect {
			t.Errorf("RetryableStatus(%d) = %v, want %v", tt.code, got, tt.expect)
		}
	}
}

func TestRetryableKind(t *testing.T) {
	tests := []struct {
		kind   domain.ErrorKind
		expect bool
	}{
		{domain.KindConnection, true},
		{domain.KindTimeout, true},
		{domain.KindOther, false},
	}

	for _, tt := range tests {
		if got := RetryableKind(tt.kind); got != tt.expect {
			t.Errorf("RetryableKind(%q) = %v, want %v", tt.kind, got, tt.expect)
		}
	}
}

func TestDecideBudgetBoundary(t *testing.T) {
	cfg := DefaultConfig
	outcome := domain.Attempt{StatusCode: 503}
	const maxRetries = 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		d := cfg.Decide(attempt, outcome, maxRetries)
		if !d.Retry {
			t.Errorf("attempt %d within budget %d should retry", attempt, maxRetries)
		}
	}

	d := cfg.Decide(maxRetries+1, outcome, maxRetries)
	if d.Retry {
		t.Errorf("attempt %d past budget %d should not retry", maxRetries+1, maxRetries)
	}
	if d.Delay != 0 {
		t.Errorf("non-retry decision should carry zero delay, got %v", d.Delay)
	}
}

func TestDecideNonRetryableIgnoresBudget(t *testing.T) {
	cfg := DefaultConfig

	for _, code := range []int{400, 401, 403, 404, 405, 422} {
		d := cfg.Decide(1, domain.Attempt{StatusCode: code}, 100)
		if d.Retry {
			t.Errorf("status %d should never retry", code)
		}
	}

	failed := domain.Attempt{Err: errors.New("tls handshake rejected"), ErrorKind: domain.KindOther}
	if d := cfg.Decide(1, failed, 100); d.Retry {
		t.Error("error kind other should never retry")
	}
}

func TestDecideZeroBudget(t *testing.T) {
	cfg := DefaultConfig
	outcome := domain.Attempt{Err: errors.New("connection refused"), ErrorKind: domain.KindConnection}

	if d := cfg.Decide(1, outcome, 0); d.Retry {
		t.Error("zero budget should never retry even for retryable outcomes")
	}
}

func TestDelaySequence(t *testing.T) {
	cfg := Config{BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2.0}

	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}

	for i, want := range expected {
		attempt := i + 1
		if got := cfg.Delay(attempt); got != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestDelayDeterministic(t *testing.T) {
	cfg := DefaultConfig
	for attempt := 1; attempt <= 10; attempt++ {
		first := cfg.Delay(attempt)
		second := cfg.Delay(attempt)
		if first != second {
			t.Errorf("Delay(%d) not deterministic: %v then %v", attempt, first, second)
		}
	}
}

func TestDelayJitterBounds(t *testing.T) {
	cfg := Config{BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2.0, Jitter: 0.5}

	base := 4 * time.Second
	lo := time.Duration(float64(base) * 0.5)
	hi := time.Duration(float64(base) * 1.5)

	for i := 0; i < 50; i++ {
		got := cfg.Delay(3)
		if got < lo || got > hi {
			t.Fatalf("jittered Delay(3) = %v, want within [%v, %v]", got, lo, hi)
		}
	}
}

func TestNormalized(t *testing.T) {
	got := Config{}.Normalized()
	if got.BaseDelay != DefaultConfig.BaseDelay ||
		got.MaxDelay != DefaultConfig.MaxDelay ||
		got.Multiplier != DefaultConfig.Multiplier {
		t.Errorf("Normalized() = %+v, want defaults filled", got)
	}

	kept := Config{MaxRetries: 7, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 3}.Normalized()
	if kept.MaxRetries != 7 || kept.BaseDelay != 250*time.Millisecond {
		t.Errorf("Normalized() should keep explicit values, got %+v", kept)
	}
}
