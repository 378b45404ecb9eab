//go:build property

package checks

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSummaryProperties validates report summary aggregation invariants
func TestSummaryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	statusGen := gen.OneConstOf(StatusPassed, StatusFailed, StatusSkipped)

	resultsGen := gen.SliceOf(statusGen.Map(func(status Status) Result {
		return Result{Name: "check", Status: status}
	}))

	properties.Property("summary counts partition the results", prop.ForAll(
		func(results []Result) bool {
			summary := summarize(results)
			return summary.Total == len(results) &&
				summary.Passed+summary.Failed+summary.Skipped == summary.Total
		},
		resultsGen,
	))

	properties.Property("counts match the underlying statuses", prop.ForAll(
		func(results []Result) bool {
			summary := summarize(results)

			passed, failed, skipped := 0, 0, 0
			for _, result := range results {
				switch result.Status {
				case StatusPassed:
					passed++
				case StatusFailed:
					failed++
				case StatusSkipped:
					skipped++
				}
			}

			return summary.Passed == passed && summary.Failed == failed && summary.Skipped == skipped
		},
		resultsGen,
	))

	properties.Property("a report fails exactly when some check failed", prop.ForAll(
		func(results []Result) bool {
			report := &Report{Results: results, Summary: summarize(results)}

			anyFailed := false
			for _, result := range results {
				if result.Status == StatusFailed {
					anyFailed = true
					break
				}
			}

			return report.Failed() == anyFailed
		},
		resultsGen,
	))

	properties.TestingRun(t)
}
