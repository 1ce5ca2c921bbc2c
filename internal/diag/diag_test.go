package diag_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/internal/diag"
)

func TestReporterAccumulates(t *testing.T) {
	c := qt.New(t)
	r := diag.NewReporter(0)
	c.Assert(r.MaxErrors, qt.Equals, diag.MaxErrorsDefault)

	r.Warnf(diag.Syntax, diag.Position{Line: 1, Column: 1}, "just a warning")
	c.Assert(r.HasErrors(), qt.IsFalse)

	err := r.Errorf(diag.Semantic, diag.Position{Line: 2, Column: 3}, "bad thing: %s", "oops")
	c.Assert(err, qt.IsNil)
	c.Assert(r.HasErrors(), qt.IsTrue)
	c.Assert(len(r.Diagnostics()), qt.Equals, 2)
}

func TestReporterMaxErrorsCap(t *testing.T) {
	c := qt.New(t)
	r := diag.NewReporter(2)

	var lastErr error
	for i := 0; i < 5; i++ {
		lastErr = r.Errorf(diag.Semantic, diag.Position{Line: i}, "err %d", i)
		if lastErr != nil {
			break
		}
	}
	c.Assert(lastErr, qt.IsNotNil)
	c.Assert(r.Fatal(), qt.IsTrue)
}

func TestReporterFatalHalts(t *testing.T) {
	c := qt.New(t)
	r := diag.NewReporter(100)
	err := r.Report(diag.Diagnostic{Kind: diag.Internal, Level: diag.Fatal, Message: "boom"})
	c.Assert(err, qt.IsNotNil)
	c.Assert(r.Fatal(), qt.IsTrue)
}

func TestDiagnosticErrorIncludesSuggestion(t *testing.T) {
	c := qt.New(t)
	d := diag.Diagnostic{
		Kind: diag.Syntax, Level: diag.Error,
		Pos:        diag.Position{Line: 1, Column: 1, File: "a.chtl"},
		Message:    "unknown tag divv",
		Suggestion: "div",
	}
	c.Assert(d.Error(), qt.Contains, "did you mean \"div\"")
	c.Assert(d.Error(), qt.Contains, "a.chtl:1:1")
}
