package runner

import (
	"fmt"
	"net/http"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// ConfigError reports an invalid RequestSpec. No attempt is made.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid request config: %s %s", e.Field, e.Reason)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d %s", e.StatusCode, text)
}

// ExhaustedError reports a request that ended in failure with no further
// retry permitted. It carries the diagnosis and wraps the terminal attempt's
// error.
type ExhaustedError struct {
	Attempts  int
	Diagnosis domain.Diagnosis
	Last      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
