package errors

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// cargoMessage is one line of `cargo --message-format=json` output.
type cargoMessage struct {
	Reason  string           `json:"reason"`
	Message *compilerMessage `json:"message"`
}

type compilerMessage struct {
	Message  string          `json:"message"`
	Code     *diagnosticCode `json:"code"`
	Level    string          `json:"level"`
	Spans    []span          `json:"spans"`
	Rendered string          `json:"rendered"`
}

type diagnosticCode struct {
	Code string `json:"code"`
}

type span struct {
	FileName    string `json:"file_name"`
	LineStart   int    `json:"line_start"`
	ColumnStart int    `json:"column_start"`
	IsPrimary   bool   `json:"is_primary"`
}

// ParseCargoMessages parses JSON-formatted cargo output into diagnostics.
// Lines that are not compiler messages (build-script output, artifact
// notifications, plain text interleaved by the toolchain) are skipped.
func ParseCargoMessages(output []byte) []Diagnostic {
	var diagnostics []Diagnostic

	scanner := bufio.NewScanner(bytes.NewReader(output))
	// Rendered diagnostics for macro-heavy code can be large
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	now := time.Now()
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var msg cargoMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		if msg.Reason != "compiler-message" || msg.Message == nil {
			continue
		}

		d := Diagnostic{
			Message:   msg.Message.Message,
			Severity:  parseLevel(msg.Message.Level),
			Rendered:  msg.Message.Rendered,
			Timestamp: now,
		}
		if msg.Message.Code != nil {
			d.Code = msg.Message.Code.Code
		}
		if s, ok := primarySpan(msg.Message.Spans); ok {
			d.File = s.FileName
			d.Line = s.LineStart
			d.Column = s.ColumnStart
		}

		diagnostics = append(diagnostics, d)
	}

	return diagnostics
}

func primarySpan(spans []span) (span, bool) {
	for _, s := range spans {
		if s.IsPrimary {
			return s, true
		}
	}
	if len(spans) > 0 {
		return spans[0], true
	}
	return span{}, false
}

func parseLevel(level string) Severity {
	switch {
	case level == "error" || strings.HasPrefix(level, "error:"):
		return SeverityError
	case level == "warning":
		return SeverityWarning
	case level == "help":
		return SeverityHelp
	default:
		return SeverityNote
	}
}

// FormatForTerminal renders diagnostics the way cargo prints them, preferring
// the compiler's own rendered text when available.
func FormatForTerminal(diagnostics []Diagnostic) string {
	var b strings.Builder
	for _, d := range diagnostics {
		if d.Rendered != "" {
			b.WriteString(d.Rendered)
			if !strings.HasSuffix(d.Rendered, "\n") {
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString(d.Error())
		b.WriteString("\n")
	}
	return b.String()
}
