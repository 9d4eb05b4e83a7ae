package domain

import (
	"net/http"
	"time"
)

// Result is the terminal outcome of one executed request.
type Result struct {
	ID         string        `json:"id"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	Success    bool          `json:"success"`
	StatusCode int           `json:"status_code,omitempty"`
	Attempts   int           `json:"attempts"`
	Elapsed    time.Duration `json:"elapsed"`
	Size       int64         `json:"size,omitempty"`
	Body       []byte        `json:"-"`
	Headers    http.Header   `json:"-"`
	ErrorKind  ErrorKind     `json:"error_kind,omitempty"`
	Error      string        `json:"error,omitempty"`
	Diagnosis  *Diagnosis    `json:"diagnosis,omitempty"`
	Trace      []Attempt     `json:"trace,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
}

// Last returns the terminal attempt. Only the last attempt survives into the
// result's top-level fields; the full trace is kept for verbose output.
func (r Result) Last() Attempt {
	if len(r.Trace) == 0 {
		return Attempt{}
	}
	return r.Trace[len(r.Trace)-1]
}
