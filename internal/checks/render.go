package checks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// WriteTable renders the report for the terminal
func WriteTable(w io.Writer, report *Report) error {
	titler := cases.Title(language.English)

	fmt.Fprintf(w, "Run %s (%d checks, %s)\n\n", shortID(report.ID), report.Summary.Total, roundDuration(report.Duration))

	nameWidth := 0
	for _, result := range report.Results {
		if len(result.Name) > nameWidth {
			nameWidth = len(result.Name)
		}
	}

	for _, result := range report.Results {
		marker := "✅"
		switch result.Status {
		case StatusFailed:
			marker = "❌"
		case StatusSkipped:
			marker = "⏭️"
		}
		fmt.Fprintf(w, "  %s %-*s %s\n", marker, nameWidth+2, titler.String(result.Name), roundDuration(result.Duration))
	}

	fmt.Fprintf(w, "\nSummary: %d passed, %d failed, %d skipped\n",
		report.Summary.Passed, report.Summary.Failed, report.Summary.Skipped)

	// Full output only for failures; passing checks stay quiet
	for _, result := range report.Results {
		if result.Status != StatusFailed {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", titler.String(result.Name))
		output := strings.TrimRight(result.Output, "\n")
		if output != "" {
			fmt.Fprintln(w, output)
		}
		if result.Error != "" {
			fmt.Fprintln(w, result.Error)
		}
	}

	return nil
}

// WriteJSON renders the report as indented JSON
func WriteJSON(w io.Writer, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteYAML renders the report as YAML
func WriteYAML(w io.Writer, report *Report) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Write renders the report in the requested format (table, json, or yaml)
func Write(w io.Writer, report *Report, format string) error {
	switch format {
	case "", "table":
		return WriteTable(w, report)
	case "json":
		return WriteJSON(w, report)
	case "yaml":
		return WriteYAML(w, report)
	default:
		return fmt.Errorf("unknown format '%s' (expected table, json, or yaml)", format)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func roundDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(100 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Millisecond).String()
	default:
		return d.String()
	}
}
