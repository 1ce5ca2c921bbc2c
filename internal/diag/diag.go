// Package diag implements the compiler's diagnostic model: typed,
// positioned diagnostics accumulated across a compilation unit, bounded
// by a max-errors cap.
package diag

import "fmt"

// Level is the severity of a Diagnostic.
type Level int

const (
	Info Level = iota
	Warning
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Kind is the diagnostic taxonomy from spec.md §7.
type Kind int

const (
	Lexical Kind = iota
	Syntax
	Semantic
	State
	Import
	Template
	Constraint
	Internal
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	case State:
		return "state"
	case Import:
		return "import"
	case Template:
		return "template"
	case Constraint:
		return "constraint"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Position is a source location.
type Position struct {
	Line   int
	Column int
	Offset int
	File   string
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Kind       Kind
	Level      Level
	Message    string
	Pos        Position
	Context    string // a short excerpt around Pos
	Suggestion string // a suggested fix, if determinable
}

func (d Diagnostic) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", d.Pos, d.Level, d.Message)
	if d.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", d.Suggestion)
	}
	return msg
}

// MaxErrorsDefault bounds unbounded diagnostic accumulation.
const MaxErrorsDefault = 100

// maxErrorsExceeded is returned (wrapped) by Reporter.Report once the
// cap is hit; the pipeline should treat it as fatal.
type maxErrorsExceeded struct{ cap int }

func (e *maxErrorsExceeded) Error() string {
	return fmt.Sprintf("max error cap (%d) exceeded", e.cap)
}

// Reporter accumulates Diagnostics for one compilation unit. It is not
// safe for concurrent use by multiple goroutines — each compilation
// unit owns its own Reporter (spec.md §5).
type Reporter struct {
	MaxErrors   int
	diagnostics []Diagnostic
	errorCount  int
	fatal       bool
}

// NewReporter builds a Reporter with the given error cap. A cap <= 0
// uses MaxErrorsDefault.
func NewReporter(maxErrors int) *Reporter {
	if maxErrors <= 0 {
		maxErrors = MaxErrorsDefault
	}
	return &Reporter{MaxErrors: maxErrors}
}

// Report records a diagnostic. It returns an error (wrapping
// maxErrorsExceeded) once the accumulated error/fatal count exceeds
// the cap, and signals whether the pipeline must halt (Fatal level, or
// the cap was just exceeded).
func (r *Reporter) Report(d Diagnostic) (haltErr error) {
	r.diagnostics = append(r.diagnostics, d)
	switch d.Level {
	case Error, Fatal:
		r.errorCount++
	}
	if d.Level == Fatal {
		r.fatal = true
		return fmt.Errorf("fatal diagnostic: %w", d)
	}
	if r.errorCount > r.MaxErrors {
		r.fatal = true
		return fmt.Errorf("%w: %s", &maxErrorsExceeded{cap: r.MaxErrors}, d.Message)
	}
	return nil
}

// Errorf is a convenience wrapper building a Diagnostic from a format
// string at Error level.
func (r *Reporter) Errorf(kind Kind, pos Position, format string, args ...any) error {
	return r.Report(Diagnostic{Kind: kind, Level: Error, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Warnf is a convenience wrapper at Warning level; warnings never halt
// the pipeline, so Warnf returns nothing.
func (r *Reporter) Warnf(kind Kind, pos Position, format string, args ...any) {
	_ = r.Report(Diagnostic{Kind: kind, Level: Warning, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns all accumulated diagnostics in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// HasErrors reports whether any Error or Fatal diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	return r.errorCount > 0
}

// Fatal reports whether a Fatal diagnostic (or the max-errors cap) has
// halted the pipeline.
func (r *Reporter) Fatal() bool {
	return r.fatal
}

// Count returns the number of diagnostics at or above the given level.
func (r *Reporter) Count(min Level) int {
	n := 0
	for _, d := range r.diagnostics {
		if d.Level >= min {
			n++
		}
	}
	return n
}
