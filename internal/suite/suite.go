// Package suite loads and runs YAML test suites: named request cases with
// expectations evaluated against the terminal result of each case.
package suite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Scarage1/API-Watch/internal/core/config"
	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// Suite is one YAML suite file.
type Suite struct {
	Name     string             `yaml:"name" validate:"required"`
	BaseURL  string             `yaml:"base_url" validate:"omitempty,url"`
	Defaults CaseDefaults       `yaml:"defaults"`
	Auth     *config.AuthConfig `yaml:"auth"`
	Tests    []Case             `yaml:"tests" validate:"required,min=1,unique=ID,dive"`
}

// CaseDefaults are suite-wide fallbacks applied to cases that don't set
// their own.
type CaseDefaults struct {
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxRetries *int          `yaml:"max_retries"`
}

// Case is one request in a suite.
type Case struct {
	ID         string            `yaml:"id" validate:"required"`
	Name       string            `yaml:"name"`
	Method     string            `yaml:"method"`
	Path       string            `yaml:"path" validate:"required"`
	Headers    map[string]string `yaml:"headers"`
	Params     map[string]string `yaml:"params"`
	Body       interface{}       `yaml:"body"`
	Timeout    time.Duration     `yaml:"timeout" validate:"gte=0"`
	MaxRetries *int              `yaml:"max_retries"`
	Expect     Expectation       `yaml:"expect"`
}

// DisplayName returns the human label for listings.
func (c Case) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Expectation describes what a passing case looks like. An empty status list
// means any 2xx.
type Expectation struct {
	Status     []int           `yaml:"status" validate:"dive,gte=100,lte=599"`
	MaxElapsed time.Duration   `yaml:"max_elapsed" validate:"gte=0"`
	JSON       []JSONAssertion `yaml:"json" validate:"dive"`
}

// JSONAssertion checks one gjson path in the response body. With neither
// equals nor exists set, the path just has to exist.
type JSONAssertion struct {
	Path   string      `yaml:"path" validate:"required"`
	Equals interface{} `yaml:"equals"`
	Exists *bool       `yaml:"exists"`
}

// SpecFor resolves a case into an executable request spec, applying the
// suite's base URL and defaults.
func (s *Suite) SpecFor(c Case) (domain.RequestSpec, error) {
	target := c.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if s.BaseURL == "" {
			return domain.RequestSpec{}, fmt.Errorf("case %s: relative path %q needs a base_url", c.ID, c.Path)
		}
		target = strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(c.Path, "/")
	}

	body, structured, err := encodeBody(c.Body)
	if err != nil {
		return domain.RequestSpec{}, fmt.Errorf("case %s: %w", c.ID, err)
	}

	spec := domain.RequestSpec{
		Method:  c.Method,
		URL:     target,
		Params:  c.Params,
		Body:    body,
		Timeout: c.Timeout,
	}

	spec.Headers = make(map[string]string, len(c.Headers)+1)
	for k, v := range c.Headers {
		spec.Headers[k] = v
	}
	if structured && !hasHeader(spec.Headers, "Content-Type") {
		spec.Headers["Content-Type"] = "application/json"
	}

	if spec.Method == "" {
		spec.Method = "GET"
	}
	if spec.Timeout == 0 {
		spec.Timeout = s.Defaults.Timeout
	}
	if spec.Timeout == 0 {
		spec.Timeout = 10 * time.Second
	}

	if c.MaxRetries != nil {
		n := *c.MaxRetries
		spec.MaxRetries = &n
	} else if s.Defaults.MaxRetries != nil {
		n := *s.Defaults.MaxRetries
		spec.MaxRetries = &n
	}

	return spec, nil
}

// encodeBody turns a YAML body into request bytes. Strings pass through
// untouched; mappings and sequences are serialized to JSON.
func encodeBody(v interface{}) (data []byte, structured bool, err error) {
	switch b := v.(type) {
	case nil:
		return nil, false, nil
	case string:
		if b == "" {
			return nil, false, nil
		}
		return []byte(b), false, nil
	default:
		normalized := normalizeYAML(v)
		data, err := json.Marshal(normalized)
		if err != nil {
			return nil, false, fmt.Errorf("body is not JSON-serializable: %w", err)
		}
		return data, true, nil
	}
}

// normalizeYAML rewrites yaml.v2's map[interface{}]interface{} trees into
// map[string]interface{} so encoding/json accepts them.
func normalizeYAML(v interface{}) interface{} {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = normalizeYAML(v[i])
		}
		return out
	default:
		return v
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
