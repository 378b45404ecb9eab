// Package checks defines the named quality gates rustle can run (format
// check, lint, compile check, tests, spell check) and the aggregate runner
// that executes them for a local CI pass.
package checks

import (
	"fmt"
	"time"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
)

// Check is one named quality gate
type Check struct {
	Name       string
	Summary    string
	Invocation cargo.Invocation
}

// Status is the outcome of a single check
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of running one check
type Result struct {
	Name     string        `json:"name" yaml:"name"`
	Status   Status        `json:"status" yaml:"status"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Output   string        `json:"output,omitempty" yaml:"output,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
}

// Summary aggregates result counts for a run
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Report is the complete record of one aggregate run
type Report struct {
	ID        string        `json:"id" yaml:"id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Parallel  bool          `json:"parallel" yaml:"parallel"`
	Results   []Result      `json:"results" yaml:"results"`
	Summary   Summary       `json:"summary" yaml:"summary"`
}

// Failed reports whether any check in the run failed
func (r *Report) Failed() bool {
	return r.Summary.Failed > 0
}

// Registry composes the checks enabled in the configuration, in order
func Registry(cfg *config.Config) ([]Check, error) {
	inv := cargo.NewInvocations(cfg)

	available := map[string]Check{
		"fmt": {
			Name:       "fmt",
			Summary:    "verify source formatting without modifying files",
			Invocation: inv.FmtCheck(),
		},
		"lint": {
			Name:       "lint",
			Summary:    "run clippy with warnings treated as errors",
			Invocation: inv.Lint(),
		},
		"check": {
			Name:       "check",
			Summary:    "type-check all workspace targets",
			Invocation: inv.Check(),
		},
		"test": {
			Name:       "test",
			Summary:    "run the full test suite across all targets and features",
			Invocation: inv.Test(cargo.TestOptions{}),
		},
		"doc": {
			Name:       "doc",
			Summary:    "run documentation tests",
			Invocation: inv.Test(cargo.TestOptions{Doc: true}),
		},
		"spell": {
			Name:       "spell",
			Summary:    "scan for misspellings",
			Invocation: inv.Spell(),
		},
	}

	selected := make([]Check, 0, len(cfg.Checks.Enabled))
	for _, name := range cfg.Checks.Enabled {
		check, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unknown check '%s'", name)
		}
		selected = append(selected, check)
	}

	return selected, nil
}

// ByName returns the named check from the full registry regardless of which
// checks are enabled, for `rustle watch --check <name>`.
func ByName(cfg *config.Config, name string) (Check, error) {
	enabled := cfg.Checks.Enabled
	cfg.Checks.Enabled = []string{name}
	defer func() { cfg.Checks.Enabled = enabled }()

	selected, err := Registry(cfg)
	if err != nil {
		return Check{}, err
	}
	return selected[0], nil
}
