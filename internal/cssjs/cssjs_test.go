package cssjs_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/internal/cssjs"
	"github.com/chtl-lang/chtl/internal/diag"
)

func TestValidateCSSPassesBalancedRulesThrough(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(0)
	out := cssjs.ValidateCSS(rep, "t.css", ".card {\n  color: red;   \n}\n")
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(out, qt.Equals, ".card {\n  color: red;\n}\n")
}

func TestValidateCSSWarnsOnUnclosedBrace(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(0)
	cssjs.ValidateCSS(rep, "t.css", ".card { color: red;")
	c.Assert(rep.Diagnostics(), qt.Not(qt.HasLen), 0)
	c.Assert(rep.HasErrors(), qt.IsFalse) // unclosed brace is a Warning, not fatal
}

func TestValidateJSPassesValidCodeThrough(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(0)
	out := cssjs.ValidateJS(rep, "t.js", "const x = 1;")
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(out, qt.Not(qt.Equals), "")
}

func TestValidateJSReportsSyntaxError(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(0)
	cssjs.ValidateJS(rep, "t.js", "function( {")
	c.Assert(rep.HasErrors(), qt.IsTrue)
}

func TestValidateJSEmptyIsNoop(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(0)
	out := cssjs.ValidateJS(rep, "t.js", "")
	c.Assert(out, qt.Equals, "")
	c.Assert(rep.HasErrors(), qt.IsFalse)
}
