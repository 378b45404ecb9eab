package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		severity Severity
		expected string
	}{
		{SeverityNote, "note"},
		{SeverityHelp, "help"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.severity.String())
		})
	}
}

func TestDiagnosticError(t *testing.T) {
	d := &Diagnostic{
		File:     "src/main.rs",
		Line:     12,
		Column:   13,
		Message:  "cannot find value",
		Code:     "E0425",
		Severity: SeverityError,
	}
	assert.Equal(t, "src/main.rs:12:13: error[E0425]: cannot find value", d.Error())

	d.Code = ""
	assert.Equal(t, "src/main.rs:12:13: error: cannot find value", d.Error())
}

func TestCollectorAddAndQuery(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.HasErrors())
	assert.False(t, c.HasWarnings())

	c.Add(Diagnostic{File: "src/a.rs", Severity: SeverityWarning, Message: "unused"})
	assert.False(t, c.HasErrors())
	assert.True(t, c.HasWarnings())

	c.Add(Diagnostic{File: "src/b.rs", Severity: SeverityError, Message: "type mismatch"})
	assert.True(t, c.HasErrors())

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.False(t, diags[0].Timestamp.IsZero(), "collector should stamp diagnostics")

	byFile := c.ByFile("src/a.rs")
	require.Len(t, byFile, 1)
	assert.Equal(t, "unused", byFile[0].Message)
	assert.Empty(t, c.ByFile("src/missing.rs"))
}

func TestCollectorAddError(t *testing.T) {
	c := NewCollector()
	c.AddError(nil)
	assert.False(t, c.HasErrors())

	c.AddError(errors.New("cargo not found"))
	assert.True(t, c.HasErrors())
}

func TestCollectorClear(t *testing.T) {
	c := NewCollector()
	c.Add(Diagnostic{Severity: SeverityError})
	c.AddError(errors.New("boom"))
	require.True(t, c.HasErrors())

	c.Clear()
	assert.False(t, c.HasErrors())
	assert.Empty(t, c.Diagnostics())
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Add(Diagnostic{File: fmt.Sprintf("src/%d.rs", n), Severity: SeverityWarning})
			c.HasWarnings()
			c.Diagnostics()
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.Diagnostics(), 10)
}

func TestOverlay(t *testing.T) {
	assert.Empty(t, Overlay(nil))

	diagnostics := []Diagnostic{
		{
			File:     "src/main.rs",
			Line:     12,
			Column:   13,
			Message:  "expected `<i32>`, found `&str`",
			Code:     "E0308",
			Severity: SeverityError,
		},
	}

	overlayHTML := Overlay(diagnostics)
	assert.Contains(t, overlayHTML, `id="rustle-error-overlay"`)
	assert.Contains(t, overlayHTML, "src/main.rs:12:13")
	assert.Contains(t, overlayHTML, "E0308")
	// Backticks in messages are safe, angle brackets must be escaped
	assert.Contains(t, overlayHTML, "&lt;i32&gt;")
	assert.NotContains(t, overlayHTML, "<i32>")
}
