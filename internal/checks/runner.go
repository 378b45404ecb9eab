package checks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/logging"
)

// Runner executes a set of checks and produces a report
type Runner struct {
	exec     *cargo.Runner
	logger   logging.Logger
	parallel bool
	jobs     int
}

// NewRunner creates a check runner. With parallel set, up to jobs checks run
// concurrently; otherwise they run in registry order.
func NewRunner(exec *cargo.Runner, logger logging.Logger, parallel bool, jobs int) *Runner {
	if jobs < 1 {
		jobs = 1
	}
	return &Runner{
		exec:     exec,
		logger:   logger.WithComponent("checks"),
		parallel: parallel,
		jobs:     jobs,
	}
}

// Run executes the checks and returns the aggregate report. A failing check
// never aborts the run; every check reports its own result.
func (r *Runner) Run(ctx context.Context, selected []Check) *Report {
	report := &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Parallel:  r.parallel,
		Results:   make([]Result, len(selected)),
	}

	r.logger.Info(ctx, "Starting check run",
		"run_id", report.ID,
		"checks", len(selected),
		"parallel", r.parallel,
	)

	if r.parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.jobs)
		for i, check := range selected {
			i, check := i, check
			g.Go(func() error {
				report.Results[i] = r.runOne(gctx, check)
				return nil
			})
		}
		// Workers never return errors; results carry failure state
		_ = g.Wait()
	} else {
		for i, check := range selected {
			report.Results[i] = r.runOne(ctx, check)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	report.Summary = summarize(report.Results)

	r.logger.Info(ctx, "Check run finished",
		"run_id", report.ID,
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"duration", report.Duration.String(),
	)

	return report
}

func (r *Runner) runOne(ctx context.Context, check Check) Result {
	result := Result{Name: check.Name}

	if ctx.Err() != nil {
		result.Status = StatusSkipped
		result.Error = ctx.Err().Error()
		return result
	}

	r.logger.Debug(ctx, "Running check", "check", check.Name, "command", check.Invocation.String())

	start := time.Now()
	output, err := r.exec.Run(ctx, check.Invocation)
	result.Duration = time.Since(start)
	result.Output = string(output)

	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		result.ExitCode = cargo.ExitCode(err)
		r.logger.Warn(ctx, err, "Check failed", "check", check.Name, "duration", result.Duration.String())
		return result
	}

	result.Status = StatusPassed
	r.logger.Debug(ctx, "Check passed", "check", check.Name, "duration", result.Duration.String())
	return result
}

func summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}
	for _, result := range results {
		switch result.Status {
		case StatusPassed:
			summary.Passed++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}
	return summary
}
