package domain

import "time"

// RequestSpec describes one logical HTTP request. It is owned by the caller
// and immutable for the duration of a single execution.
type RequestSpec struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Body    []byte            `json:"-"`
	Timeout time.Duration     `json:"timeout"`

	// MaxRetries overrides the executor's retry budget for this request.
	// Nil means use the configured default.
	MaxRetries *int `json:"max_retries,omitempty"`
}

// SupportedMethods lists the HTTP methods a spec may carry.
var SupportedMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"OPTIONS": true,
}

// Clone returns a deep copy so callers can adjust headers or params without
// touching the original.
func (r RequestSpec) Clone() RequestSpec {
	out := r
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	if r.Params != nil {
		out.Params = make(map[string]string, len(r.Params))
		for k, v := range r.Params {
			out.Params[k] = v
		}
	}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	if r.MaxRetries != nil {
		n := *r.MaxRetries
		out.MaxRetries = &n
	}
	return out
}
