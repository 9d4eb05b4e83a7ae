package suite

import (
	"fmt"
	"slices"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// Evaluate checks a terminal result against the case's expectations and
// returns the failure messages, empty when the case passes.
func Evaluate(c Case, res domain.Result) []string {
	var failures []string

	// No status code means the request never got a response; nothing else
	// can be asserted.
	if res.StatusCode == 0 {
		failures = append(failures, fmt.Sprintf("request failed: %s", res.Error))
		return failures
	}

	if len(c.Expect.Status) > 0 {
		if !slices.Contains(c.Expect.Status, res.StatusCode) {
			failures = append(failures,
				fmt.Sprintf("expected status %v, got %d", c.Expect.Status, res.StatusCode))
		}
	} else if !res.Success {
		failures = append(failures,
			fmt.Sprintf("expected 2xx status, got %d", res.StatusCode))
	}

	if c.Expect.MaxElapsed > 0 && res.Elapsed > c.Expect.MaxElapsed {
		failures = append(failures,
			fmt.Sprintf("elapsed %s exceeds limit %s", res.Elapsed.Round(time.Millisecond), c.Expect.MaxElapsed))
	}

	if len(c.Expect.JSON) > 0 {
		if !gjson.ValidBytes(res.Body) {
			failures = append(failures, "response body is not valid JSON")
		} else {
			for _, a := range c.Expect.JSON {
				if msg := evalJSON(a, res.Body); msg != "" {
					failures = append(failures, msg)
				}
			}
		}
	}

	return failures
}

func evalJSON(a JSONAssertion, body []byte) string {
	got := gjson.GetBytes(body, a.Path)

	if a.Exists != nil {
		if *a.Exists && !got.Exists() {
			return fmt.Sprintf("json path %q not found", a.Path)
		}
		if !*a.Exists && got.Exists() {
			return fmt.Sprintf("json path %q should not exist, got %s", a.Path, got.Raw)
		}
	}

	if a.Equals != nil {
		if !got.Exists() {
			return fmt.Sprintf("json path %q not found", a.Path)
		}
		want := fmt.Sprint(a.Equals)
		if got.String() != want {
			return fmt.Sprintf("json path %q: expected %q, got %q", a.Path, want, got.String())
		}
	}

	if a.Exists == nil && a.Equals == nil && !got.Exists() {
		return fmt.Sprintf("json path %q not found", a.Path)
	}

	return ""
}
