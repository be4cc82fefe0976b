// Package diag implements the diagnostic-context plumbing used throughout
// the module's components to collect, downgrade, and propagate
// user-visible failures without relying on panics for ordinary control
// flow.
package diag

import "fmt"

// Severity classifies a Diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single user-facing problem, optionally located in a
// source file.
type Diagnostic struct {
	Severity Severity
	Origin   string // file or logical origin, e.g. a port name or registry URL
	Line     int
	Column   int
	Message  string
	Kind     string // stable machine-readable failure kind, e.g. "scheme-mismatch"
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.Origin, d.Line, d.Column, d.Severity, d.Message)
	}
	if d.Origin != "" {
		return fmt.Sprintf("%s: %s: %s", d.Origin, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Context accumulates diagnostics emitted while performing some unit of
// work. Parsers use it to aggregate multiple errors from one file instead
// of aborting at the first one (§4.2, §7).
type Context struct {
	diags []Diagnostic
}

func (c *Context) Report(d Diagnostic) {
	c.diags = append(c.diags, d)
}

func (c *Context) Errorf(origin string, line, col int, kind, format string, args ...interface{}) {
	c.Report(Diagnostic{Severity: Error, Origin: origin, Line: line, Column: col, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (c *Context) Warnf(origin string, kind, format string, args ...interface{}) {
	c.Report(Diagnostic{Severity: Warning, Origin: origin, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic at Error severity was recorded.
func (c *Context) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (c *Context) Diagnostics() []Diagnostic {
	return c.diags
}

// Attempt buffers diagnostics produced during a speculative sub-operation,
// so the caller can decide to Commit them into the outer Context or Handle
// (silently drop) them after a successful recovery. This mirrors the
// AttemptDiagnosticContext/WarningDiagnosticContext split named in spec §7.
type Attempt struct {
	parent *Context
	local  Context
}

func NewAttempt(parent *Context) *Attempt {
	return &Attempt{parent: parent}
}

func (a *Attempt) Context() *Context { return &a.local }

// Commit copies all buffered diagnostics into the parent context.
func (a *Attempt) Commit() {
	for _, d := range a.local.diags {
		a.parent.Report(d)
	}
}

// Handle discards buffered diagnostics; used when the attempt's failure was
// recovered from some other way.
func (a *Attempt) Handle() {
	a.local.diags = nil
}

// CommitAsWarnings copies buffered diagnostics into the parent context,
// downgrading every Error to Warning. Used where a subsystem wants to
// continue past a partial failure (§7, "WarningDiagnosticContext").
func (a *Attempt) CommitAsWarnings() {
	for _, d := range a.local.diags {
		d.Severity = Warning
		a.parent.Report(d)
	}
}
