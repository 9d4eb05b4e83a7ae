package suite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/runner"
)

// stubExecutor returns canned results keyed by URL. Unknown URLs succeed
// with a 200.
type stubExecutor struct {
	mu      sync.Mutex
	calls   []string
	results map[string]domain.Result
	errs    map[string]error
	delay   time.Duration
	delays  map[string]time.Duration
}

func (s *stubExecutor) Execute(ctx context.Context, spec domain.RequestSpec) (domain.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, spec.URL)
	s.mu.Unlock()

	delay := s.delay
	if d, ok := s.delays[spec.URL]; ok {
		delay = d
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return domain.Result{URL: spec.URL}, ctx.Err()
		case <-time.After(delay):
		}
	}

	res, ok := s.results[spec.URL]
	if !ok {
		res = domain.Result{Success: true, StatusCode: 200, Attempts: 1}
	}
	res.URL = spec.URL
	res.Method = spec.Method
	return res, s.errs[spec.URL]
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func threeCaseSuite() *Suite {
	return &Suite{
		Name:    "smoke",
		BaseURL: "https://api.example.com",
		Tests: []Case{
			{ID: "a", Path: "/a"},
			{ID: "b", Path: "/b"},
			{ID: "c", Path: "/c"},
		},
	}
}

func TestRunSequentialKeepsOrder(t *testing.T) {
	exec := &stubExecutor{}
	r := NewRunner(exec, nil)

	results, err := r.Run(context.Background(), threeCaseSuite(), Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].Case.ID)
	assert.Equal(t, "b", results[1].Case.ID)
	assert.Equal(t, "c", results[2].Case.ID)
	assert.True(t, Passed(results))
	assert.Equal(t, []string{
		"https://api.example.com/a",
		"https://api.example.com/b",
		"https://api.example.com/c",
	}, exec.calls)
}

func TestRunExpectedFailureStatusPasses(t *testing.T) {
	s := &Suite{
		Name:    "smoke",
		BaseURL: "https://api.example.com",
		Tests:   []Case{{ID: "gone", Path: "/gone", Expect: Expectation{Status: []int{404}}}},
	}

	res := domain.Result{
		Success:    false,
		StatusCode: 404,
		Attempts:   1,
		Diagnosis:  &domain.Diagnosis{Category: domain.CategoryClient, Severity: domain.SeverityMedium},
	}
	exec := &stubExecutor{
		results: map[string]domain.Result{"https://api.example.com/gone": res},
		errs: map[string]error{"https://api.example.com/gone": &runner.ExhaustedError{
			Attempts:  1,
			Diagnosis: *res.Diagnosis,
			Last:      &runner.StatusError{StatusCode: 404},
		}},
	}

	r := NewRunner(exec, nil)
	results, err := r.Run(context.Background(), s, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed(), "expected 404 should pass: %v", results[0].Failures)
}

func TestRunBailSkipsRemaining(t *testing.T) {
	exec := &stubExecutor{
		results: map[string]domain.Result{
			"https://api.example.com/b": {Success: false, StatusCode: 500, Attempts: 1},
		},
	}
	r := NewRunner(exec, nil)

	results, err := r.Run(context.Background(), threeCaseSuite(), Options{Bail: true})
	require.NoError(t, err)

	assert.True(t, results[0].Passed())
	assert.False(t, results[1].Passed())
	assert.True(t, results[2].Skipped)
	assert.Equal(t, 2, exec.callCount())
	assert.False(t, Passed(results))
}

func TestRunParallelRunsConcurrently(t *testing.T) {
	s := &Suite{
		Name:    "smoke",
		BaseURL: "https://api.example.com",
		Tests: []Case{
			{ID: "a", Path: "/a"}, {ID: "b", Path: "/b"}, {ID: "c", Path: "/c"},
			{ID: "d", Path: "/d"}, {ID: "e", Path: "/e"}, {ID: "f", Path: "/f"},
		},
	}
	exec := &stubExecutor{delay: 50 * time.Millisecond}
	r := NewRunner(exec, nil)

	start := time.Now()
	results, err := r.Run(context.Background(), s, Options{Parallel: 3})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, Passed(results))
	assert.Equal(t, 6, exec.callCount())
	// Six 50ms cases three at a time should take ~100ms; sequential would
	// need 300ms.
	assert.Less(t, elapsed, 250*time.Millisecond)

	for i, id := range []string{"a", "b", "c", "d", "e", "f"} {
		assert.Equal(t, id, results[i].Case.ID)
	}
}

func TestRunParallelBailCancels(t *testing.T) {
	s := &Suite{
		Name:    "smoke",
		BaseURL: "https://api.example.com",
		Tests: []Case{
			{ID: "fail", Path: "/fail"},
			{ID: "b", Path: "/b"},
			{ID: "c", Path: "/c"},
			{ID: "d", Path: "/d"},
		},
	}
	// The failing case finishes first; everything else is still in flight
	// or waiting for a slot when the run gets canceled.
	exec := &stubExecutor{
		results: map[string]domain.Result{
			"https://api.example.com/fail": {Success: false, StatusCode: 500, Attempts: 1},
		},
		delays: map[string]time.Duration{
			"https://api.example.com/b": 50 * time.Millisecond,
		},
	}
	r := NewRunner(exec, nil)

	results, err := r.Run(context.Background(), s, Options{Parallel: 2, Bail: true})
	require.NoError(t, err)

	assert.False(t, results[0].Passed())
	assert.True(t, results[2].Skipped)
	assert.True(t, results[3].Skipped)
	assert.False(t, Passed(results))
}

func TestRunCanceledContextSkipsEverything(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &stubExecutor{}
	r := NewRunner(exec, nil)

	results, err := r.Run(ctx, threeCaseSuite(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	for _, res := range results {
		assert.True(t, res.Skipped)
	}
	assert.Equal(t, 0, exec.callCount())
}

func TestRunUnresolvableCaseFails(t *testing.T) {
	s := &Suite{Name: "smoke", Tests: []Case{{ID: "a", Path: "/relative"}}}
	exec := &stubExecutor{}
	r := NewRunner(exec, nil)

	results, err := r.Run(context.Background(), s, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed())
	assert.Contains(t, results[0].Failures[0], "base_url")
	assert.Equal(t, 0, exec.callCount())
}

func TestRunExecutorConfigError(t *testing.T) {
	s := &Suite{
		Name:    "smoke",
		BaseURL: "https://api.example.com",
		Tests:   []Case{{ID: "a", Path: "/a"}},
	}
	exec := &stubExecutor{
		errs: map[string]error{
			"https://api.example.com/a": &runner.ConfigError{Field: "timeout", Reason: "must be positive"},
		},
	}
	r := NewRunner(exec, nil)

	results, err := r.Run(context.Background(), s, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed())
	assert.Contains(t, results[0].Failures[0], "timeout")
}

func TestDomainResultsSkipsUnexecuted(t *testing.T) {
	results := []CaseResult{
		{Case: Case{ID: "a"}, Result: domain.Result{StatusCode: 200, Success: true}},
		{Case: Case{ID: "b"}, Skipped: true},
		{Case: Case{ID: "c"}, Result: domain.Result{StatusCode: 500}},
	}

	out := DomainResults(results)
	require.Len(t, out, 2)
	assert.Equal(t, 200, out[0].StatusCode)
	assert.Equal(t, 500, out[1].StatusCode)
}
