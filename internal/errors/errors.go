// Package errors provides the diagnostic model for cargo output: structured
// compiler diagnostics, a thread-safe collector, and rendering for both the
// terminal and the browser error overlay.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// Diagnostic represents a single compiler diagnostic
type Diagnostic struct {
	File      string    `json:"file"`
	Line      int       `json:"line"`
	Column    int       `json:"column"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	Severity  Severity  `json:"severity"`
	Rendered  string    `json:"rendered,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Severity represents the severity of a diagnostic
type Severity int

const (
	SeverityNote Severity = iota
	SeverityHelp
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityHelp:
		return "help"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("%s:%d:%d: %s[%s]: %s", d.File, d.Line, d.Column, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

// Collector collects diagnostics and general errors from a build or check run
type Collector struct {
	diagnostics []Diagnostic
	errors      []error
	mutex       sync.RWMutex
}

// NewCollector creates a new diagnostic collector
func NewCollector() *Collector {
	return &Collector{
		diagnostics: make([]Diagnostic, 0),
		errors:      make([]error, 0),
	}
}

// Add adds a diagnostic to the collector
func (c *Collector) Add(d Diagnostic) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	c.diagnostics = append(c.diagnostics, d)
}

// AddError adds a general error to the collector
func (c *Collector) AddError(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// Diagnostics returns a copy of all collected diagnostics
func (c *Collector) Diagnostics() []Diagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]Diagnostic, len(c.diagnostics))
	copy(result, c.diagnostics)
	return result
}

// HasErrors returns true if any error-level diagnostic or general error was collected
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if len(c.errors) > 0 {
		return true
	}
	for _, d := range c.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if any warning-level diagnostic was collected
func (c *Collector) HasWarnings() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, d := range c.diagnostics {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ByFile returns diagnostics for a specific file
func (c *Collector) ByFile(file string) []Diagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var fileDiags []Diagnostic
	for _, d := range c.diagnostics {
		if d.File == file {
			fileDiags = append(fileDiags, d)
		}
	}
	return fileDiags
}

// Clear clears all collected diagnostics and errors
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = c.diagnostics[:0]
	c.errors = c.errors[:0]
}
