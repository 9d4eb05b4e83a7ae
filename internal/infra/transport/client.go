// Package transport performs single HTTP attempts for the executor. It owns
// connection pooling, TLS verification, redirect policy, and response
// decompression; callers never see an *http.Response.
package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// Options configures the shared HTTP client.
type Options struct {
	InsecureSkipVerify  bool
	DisableRedirects    bool
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	UserAgent           string
}

// Client wraps an http.Client and turns each call into a domain.Attempt.
// Safe for concurrent use.
type Client struct {
	hc   *http.Client
	opts Options
}

// NewClient builds a pooled client. Zero option fields get defaults.
func NewClient(opts Options) *Client {
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 100
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = 10
	}
	if opts.IdleConnTimeout == 0 {
		opts.IdleConnTimeout = 90 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "apiwatch"
	}

	tr := &http.Transport{
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     opts.IdleConnTimeout,
	}
	if opts.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	hc := &http.Client{Transport: tr}
	if opts.DisableRedirects {
		hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Client{hc: hc, opts: opts}
}

// Attempt performs exactly one transport call for the spec. The spec's
// timeout bounds the whole attempt including the body read. Failures are
// folded into the returned attempt, never raised.
func (c *Client) Attempt(ctx context.Context, spec domain.RequestSpec) domain.Attempt {
	start := time.Now()

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	req, err := c.buildRequest(ctx, spec)
	if err != nil {
		return failedAttempt(spec.URL, domain.KindOther, err, time.Since(start))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return failedAttempt(spec.URL, KindOf(err), err, time.Since(start))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := decodeBody(resp)
	if err != nil {
		return failedAttempt(spec.URL, KindOf(err), err, time.Since(start))
	}

	return domain.Attempt{
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
		Body:       body,
		Size:       int64(len(body)),
		Headers:    resp.Header,
	}
}

func (c *Client) buildRequest(ctx context.Context, spec domain.RequestSpec) (*http.Request, error) {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}

	target := spec.URL
	if len(spec.Params) > 0 {
		var err error
		target, err = mergeQuery(target, spec.Params)
		if err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	// Advertising encodings ourselves disables the stdlib's transparent
	// gzip handling, so decodeBody covers both.
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br")
	}

	return req, nil
}

func mergeQuery(target string, params map[string]string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func decodeBody(resp *http.Response) ([]byte, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer func() {
			_ = zr.Close()
		}()
		return io.ReadAll(zr)
	case "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	default:
		return io.ReadAll(resp.Body)
	}
}

func failedAttempt(url string, kind domain.ErrorKind, err error, elapsed time.Duration) domain.Attempt {
	werr := &Error{Kind: kind, URL: url, Err: err}
	return domain.Attempt{
		Elapsed:   elapsed,
		Err:       werr,
		ErrorKind: kind,
		Error:     werr.Error(),
	}
}
