package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

func sampleResults() []domain.Result {
	return []domain.Result{
		{Method: "GET", URL: "https://api.example.com/ok", Success: true, StatusCode: 200, Attempts: 1, Elapsed: 100 * time.Millisecond},
		{
			Method:     "POST",
			URL:        "https://api.example.com/orders",
			Success:    false,
			StatusCode: 503,
			Attempts:   4,
			Elapsed:    2 * time.Second,
			Diagnosis: &domain.Diagnosis{
				Issue:    "server error (503)",
				Category: domain.CategoryServer,
				Severity: domain.SeverityHigh,
			},
		},
	}
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload("suite", "smoke", sampleResults())

	assert.Equal(t, "suite", p.Source)
	assert.Equal(t, "smoke", p.Suite)
	assert.Equal(t, 2, p.Summary.Total)
	assert.Equal(t, 1, p.Summary.Failed)
	require.Len(t, p.Failures, 1)
	assert.Equal(t, "POST", p.Failures[0].Method)
	assert.Equal(t, 503, p.Failures[0].Status)
	assert.Equal(t, "server", p.Failures[0].Category)
	assert.False(t, p.SentAt.IsZero())
}

func TestSendPostsJSON(t *testing.T) {
	var got Payload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	n := New(Config{URL: ts.URL}, nil)
	err := n.Send(context.Background(), BuildPayload("request", "", sampleResults()))
	require.NoError(t, err)
	assert.Equal(t, "request", got.Source)
	assert.Equal(t, 1, got.Summary.Failed)
}

func TestSendReportsEndpointFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	n := New(Config{URL: ts.URL}, nil)
	err := n.Send(context.Background(), Payload{Source: "request"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSendDisabledWithoutURL(t *testing.T) {
	n := New(Config{}, nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Send(context.Background(), Payload{}))
}
