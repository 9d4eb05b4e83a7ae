package suite

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/runner"
)

// Executor runs one request to a terminal state.
type Executor interface {
	Execute(ctx context.Context, spec domain.RequestSpec) (domain.Result, error)
}

// CaseResult pairs a case with its outcome.
type CaseResult struct {
	Case     Case
	Result   domain.Result
	Failures []string
	Skipped  bool
}

// Passed reports whether the case ran and met every expectation.
func (r CaseResult) Passed() bool {
	return !r.Skipped && len(r.Failures) == 0
}

// Options tune a suite run.
type Options struct {
	Parallel int  // cases in flight; <= 1 runs sequentially
	Bail     bool // stop at the first failing case
}

// Runner executes suites against an executor.
type Runner struct {
	exec   Executor
	logger *slog.Logger
}

// NewRunner creates a suite runner.
func NewRunner(exec Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{exec: exec, logger: logger}
}

// Run executes every case and returns results in declaration order. The
// error reports run-level aborts such as context cancellation; case
// failures live in the results.
func (r *Runner) Run(ctx context.Context, s *Suite, opts Options) ([]CaseResult, error) {
	results := make([]CaseResult, len(s.Tests))

	if opts.Parallel > 1 {
		return r.runParallel(ctx, s, opts, results)
	}

	for i, c := range s.Tests {
		if ctx.Err() != nil {
			results[i] = CaseResult{Case: c, Skipped: true}
			continue
		}
		results[i] = r.runCase(ctx, s, c)
		if opts.Bail && !results[i].Passed() {
			for j := i + 1; j < len(s.Tests); j++ {
				results[j] = CaseResult{Case: s.Tests[j], Skipped: true}
			}
			break
		}
	}
	return results, ctx.Err()
}

func (r *Runner) runParallel(parent context.Context, s *Suite, opts Options, results []CaseResult) ([]CaseResult, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	g := new(errgroup.Group)
	g.SetLimit(opts.Parallel)

	for i, c := range s.Tests {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = CaseResult{Case: c, Skipped: true}
				return nil
			}
			results[i] = r.runCase(ctx, s, c)
			if opts.Bail && !results[i].Passed() {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, parent.Err()
}

func (r *Runner) runCase(ctx context.Context, s *Suite, c Case) CaseResult {
	out := CaseResult{Case: c}

	spec, err := s.SpecFor(c)
	if err != nil {
		out.Failures = append(out.Failures, err.Error())
		return out
	}

	res, err := r.exec.Execute(ctx, spec)
	out.Result = res

	var cfgErr *runner.ConfigError
	switch {
	case err == nil:
	case errors.As(err, &cfgErr):
		out.Failures = append(out.Failures, cfgErr.Error())
		return out
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Failures = append(out.Failures, "run canceled")
		return out
	}
	// An exhausted run still carries a terminal result; the expectations
	// decide whether that counts as a failure.

	out.Failures = append(out.Failures, Evaluate(c, res)...)

	if out.Passed() {
		r.logger.Info("case passed",
			"suite", s.Name,
			"case", c.ID,
			"status", res.StatusCode,
			"attempts", res.Attempts,
			"elapsed", res.Elapsed,
		)
	} else {
		r.logger.Warn("case failed",
			"suite", s.Name,
			"case", c.ID,
			"status", res.StatusCode,
			"failures", out.Failures,
		)
	}
	return out
}

// Passed reports whether every case in the run passed.
func Passed(results []CaseResult) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// DomainResults extracts the executed cases' results, in order, for
// summaries and reports. Skipped cases are left out.
func DomainResults(results []CaseResult) []domain.Result {
	out := make([]domain.Result, 0, len(results))
	for _, r := range results {
		if r.Skipped {
			continue
		}
		out = append(out, r.Result)
	}
	return out
}
