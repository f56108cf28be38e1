// FILE: lixenwraith/mongolog/compat/fasthttp.go
package compat

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/mongolog"
	"github.com/valyala/fasthttp"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter wraps a component-bound mongolog writer to implement fasthttp Logger interface
type FastHTTPAdapter struct {
	writer           *mongolog.ComponentWriter
	id               mongolog.LogID
	logCtx           string
	defaultSeverity  mongolog.Severity
	severityDetector func(string) mongolog.Severity // Function to detect severity from message
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(writer *mongolog.ComponentWriter, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		writer:           writer,
		id:               defaultLogID,
		logCtx:           "fasthttp",
		defaultSeverity:  mongolog.SeverityInfo,
		severityDetector: DetectSeverity, // Default severity detection
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultSeverity sets the severity used when detection finds nothing
func WithDefaultSeverity(severity mongolog.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultSeverity = severity
	}
}

// WithSeverityDetector sets a custom function to detect severity from message content.
// An empty result selects the default severity.
func WithSeverityDetector(detector func(string) mongolog.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.severityDetector = detector
	}
}

// WithFastHTTPLogID sets the id written with every record
func WithFastHTTPLogID(id mongolog.LogID) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.id = id
	}
}

// WithFastHTTPContext sets the ctx field written with every record
func WithFastHTTPContext(logCtx string) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.logCtx = logCtx
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	severity := a.defaultSeverity
	if a.severityDetector != nil {
		if detected := a.severityDetector(msg); detected != "" {
			severity = detected
		}
	}

	a.writer.Write(mongolog.Entry{
		Severity: severity,
		ID:       a.id,
		Context:  a.logCtx,
		Message:  msg,
	})
}

// DetectSeverity attempts to detect severity from message content
func DetectSeverity(msg string) mongolog.Severity {
	msgLower := strings.ToLower(msg)

	// Check for error indicators
	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return mongolog.SeverityError
	}

	// Check for warning indicators
	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return mongolog.SeverityWarn
	}

	// Check for debug indicators
	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return mongolog.SeverityDebug1
	}

	return mongolog.SeverityInfo
}
