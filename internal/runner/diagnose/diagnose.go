// Package diagnose turns terminal request failures into actionable
// explanations: what went wrong, why, and what to do about it.
package diagnose

import (
	"fmt"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// rule is one classification table entry.
type rule struct {
	issue      string
	cause      string
	suggestion string
	severity   domain.Severity
	category   domain.Category
}

func (r rule) diagnosis() domain.Diagnosis {
	return domain.Diagnosis{
		Issue:      r.issue,
		Cause:      r.cause,
		Suggestion: r.suggestion,
		Severity:   r.severity,
		Category:   r.category,
	}
}

// statusRules maps known HTTP status codes to their diagnosis.
var statusRules = map[int]rule{
	400: {
		issue:      "Bad Request",
		cause:      "The request was malformed or carried invalid parameters.",
		suggestion: "Compare the request body and query parameters against the API documentation.",
		severity:   domain.SeverityMedium,
		category:   domain.CategoryClient,
	},
	401: {
		issue:      "Authentication Failed",
		cause:      "The credentials are missing, invalid, or expired.",
		suggestion: "Check the API key or token and the Authorization header format, then refresh expired credentials.",
		severity:   domain.SeverityHigh,
		category:   domain.CategoryAuth,
	},
	403: {
		issue:      "Permission Denied",
		cause:      "The credentials were accepted but lack access to this resource.",
		suggestion: "Review the key's scopes or roles and request access to the resource if needed.",
		severity:   domain.SeverityHigh,
		category:   domain.CategoryAuth,
	},
	404: {
		issue:      "Resource Not Found",
		cause:      "The endpoint path or resource identifier does not exist.",
		suggestion: "Verify the URL path, the resource ID, and the API version prefix.",
		severity:   domain.SeverityMedium,
		category:   domain.CategoryClient,
	},
	405: {
		issue:      "Method Not Allowed",
		cause:      "The endpoint exists but does not accept this HTTP method.",
		suggestion: "Check which methods the endpoint supports and switch the request method.",
		severity:   domain.SeverityLow,
		category:   domain.CategoryClient,
	},
	422: {
		issue:      "Validation Error",
		cause:      "The request was well-formed but failed the server's semantic validation.",
		suggestion: "Inspect the response body for field-level errors and fix the offending values.",
		severity:   domain.SeverityMedium,
		category:   domain.CategoryClient,
	},
	429: {
		issue:      "Rate Limit Exceeded",
		cause:      "Too many requests were sent inside the provider's time window.",
		suggestion: "Slow down the request rate and honor the Retry-After header before sending more traffic.",
		severity:   domain.SeverityMedium,
		category:   domain.CategoryRateLimit,
	},
	500: {
		issue:      "Internal Server Error",
		cause:      "The server hit an unexpected condition while handling the request.",
		suggestion: "Retry later; if the error persists, report it to the API provider with the request ID.",
		severity:   domain.SeverityHigh,
		category:   domain.CategoryServer,
	},
	502: {
		issue:      "Bad Gateway",
		cause:      "An intermediate proxy received an invalid response from the upstream server.",
		suggestion: "Retry later and check the provider's status page for upstream incidents.",
		severity:   domain.SeverityHigh,
		category:   domain.CategoryServer,
	},
	503: {
		issue:      "Service Unavailable",
		cause:      "The server is overloaded or down for maintenance.",
		suggestion: "Back off and retry; check the provider's status page if the outage continues.",
		severity:   domain.SeverityHigh,
		category:   domain.CategoryServer,
	},
	504: {
		issue:      "Gateway Timeout",
		cause:      "An intermediate proxy gave up waiting for the upstream server.",
		suggestion: "Retry later; if it persists, the upstream service is likely degraded.",
		severity:   domain.SeverityHigh,
		category:   domain.CategoryServer,
	},
}

// kindRules maps transport failure kinds to their diagnosis.
var kindRules = map[domain.ErrorKind]rule{
	domain.KindTimeout: {
		issue:      "Request Timeout",
		cause:      "The request did not complete within the configured timeout.",
		suggestion: "Increase the timeout, or check network latency and the service's responsiveness.",
		severity:   domain.SeverityMedium,
		category:   domain.CategoryNetwork,
	},
	domain.KindConnection: {
		issue:      "Connection Failed",
		cause:      "No connection could be established to the host.",
		suggestion: "Verify the host name, DNS resolution, and that the service is reachable from this network.",
		severity:   domain.SeverityHigh,
		category:   domain.CategoryNetwork,
	},
	domain.KindOther: {
		issue:      "Request Error",
		cause:      "The request failed before a response arrived, for a reason other than connectivity or timeout.",
		suggestion: "Inspect the underlying error message; it usually names the protocol or TLS problem.",
		severity:   domain.SeverityLow,
		category:   domain.CategoryUnknown,
	},
}

// Classify maps a terminal attempt to its diagnosis. It is total: every
// outcome yields exactly one diagnosis, and unmapped status codes fall back
// to a range rule or the generic unknown one instead of failing.
func Classify(outcome domain.Attempt) domain.Diagnosis {
	if outcome.Failed() {
		if r, ok := kindRules[outcome.ErrorKind]; ok {
			return r.diagnosis()
		}
		return kindRules[domain.KindOther].diagnosis()
	}

	if r, ok := statusRules[outcome.StatusCode]; ok {
		return r.diagnosis()
	}

	switch {
	case outcome.StatusCode >= 500 && outcome.StatusCode < 600:
		return rule{
			issue:      fmt.Sprintf("Server Error (HTTP %d)", outcome.StatusCode),
			cause:      "The server failed to fulfill an apparently valid request.",
			suggestion: "Retry later; if the status persists, report it to the API provider.",
			severity:   domain.SeverityHigh,
			category:   domain.CategoryServer,
		}.diagnosis()
	case outcome.StatusCode >= 400 && outcome.StatusCode < 500:
		return rule{
			issue:      fmt.Sprintf("Client Error (HTTP %d)", outcome.StatusCode),
			cause:      "The server rejected the request as sent.",
			suggestion: "Check the response body for details and compare the request against the API documentation.",
			severity:   domain.SeverityMedium,
			category:   domain.CategoryClient,
		}.diagnosis()
	}

	return rule{
		issue:      fmt.Sprintf("Unexpected Status (HTTP %d)", outcome.StatusCode),
		cause:      "The response does not fit any known failure pattern.",
		suggestion: "Inspect the raw response; the API may be returning a non-standard status.",
		severity:   domain.SeverityLow,
		category:   domain.CategoryUnknown,
	}.diagnosis()
}
