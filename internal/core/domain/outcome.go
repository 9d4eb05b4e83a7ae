package domain

import (
	"net/http"
	"time"
)

// ErrorKind classifies a transport-level failure.
type ErrorKind string

const (
	KindConnection ErrorKind = "connection"
	KindTimeout    ErrorKind = "timeout"
	KindOther      ErrorKind = "other"
)

// Attempt is the outcome of one transport try. Either the response fields or
// Err/ErrorKind are populated, never both.
type Attempt struct {
	Number     int           `json:"number"`
	StatusCode int           `json:"status_code,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	Body       []byte        `json:"-"`
	Size       int64         `json:"size,omitempty"`
	Headers    http.Header   `json:"-"`
	Err        error         `json:"-"`
	ErrorKind  ErrorKind     `json:"error_kind,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Responded reports whether the server produced a status code.
func (a Attempt) Responded() bool { return a.Err == nil }

// Failed reports whether the attempt died before a response arrived.
func (a Attempt) Failed() bool { return a.Err != nil }

// Success reports whether the attempt responded with a 2xx status.
func (a Attempt) Success() bool {
	return a.Err == nil && a.StatusCode >= 200 && a.StatusCode < 300
}
