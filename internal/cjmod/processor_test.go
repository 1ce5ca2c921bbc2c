package cjmod_test

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/internal/cjmod"
	"github.com/chtl-lang/chtl/internal/diag"
)

func powRule() (string, string, cjmod.Handler) {
	return "**", "$prefix ** $exp", func(args cjmod.CapturedArgs) (string, error) {
		return fmt.Sprintf("Math.pow(%s,%s)", args["prefix"], args["exp"]), nil
	}
}

// S6 — CJMOD pattern with prefix: `x ** 3` rewrites to `Math.pow(x,3)`.
func TestProcessRewritesOperatorTriggerWithPrefix(t *testing.T) {
	c := qt.New(t)
	reg := cjmod.NewRegistry()
	trigger, pattern, handler := powRule()
	c.Assert(reg.Register(trigger, pattern, handler), qt.IsNil)

	rep := diag.NewReporter(0)
	out := cjmod.Process(rep, "t.chtljs", "let y = x ** 3;", reg)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(out, qt.Equals, "let y = Math.pow(x,3);")
}

func TestProcessRewritesMultipleMatchesRightToLeft(t *testing.T) {
	c := qt.New(t)
	reg := cjmod.NewRegistry()
	trigger, pattern, handler := powRule()
	c.Assert(reg.Register(trigger, pattern, handler), qt.IsNil)

	rep := diag.NewReporter(0)
	out := cjmod.Process(rep, "t.chtljs", "a ** 2; b ** 3;", reg)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(out, qt.Equals, "Math.pow(a,2); Math.pow(b,3);")
}

func TestProcessParenthesizedTriggerCapturesCommaArgs(t *testing.T) {
	c := qt.New(t)
	reg := cjmod.NewRegistry()
	err := reg.Register("query", "query($selector, $scope)", func(args cjmod.CapturedArgs) (string, error) {
		return fmt.Sprintf("document.querySelector(%s)", args["selector"]), nil
	})
	c.Assert(err, qt.IsNil)

	rep := diag.NewReporter(0)
	out := cjmod.Process(rep, "t.chtljs", `vir box = query(".box", root);`, reg)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(out, qt.Equals, `vir box = document.querySelector(".box");`)
}

func TestProcessLeavesUnregisteredSourceUntouched(t *testing.T) {
	c := qt.New(t)
	reg := cjmod.NewRegistry()
	rep := diag.NewReporter(0)
	src := "console.log(x ** 2);"
	out := cjmod.Process(rep, "t.chtljs", src, reg)
	c.Assert(out, qt.Equals, src)
}

func TestProcessHandlerErrorIsReported(t *testing.T) {
	c := qt.New(t)
	reg := cjmod.NewRegistry()
	err := reg.Register("**", "$prefix ** $exp", func(cjmod.CapturedArgs) (string, error) {
		return "", fmt.Errorf("boom")
	})
	c.Assert(err, qt.IsNil)

	rep := diag.NewReporter(0)
	cjmod.Process(rep, "t.chtljs", "x ** 3;", reg)
	c.Assert(rep.HasErrors(), qt.IsTrue)
}

func TestCapturePrefixStopsAtNonIdentifierBoundary(t *testing.T) {
	c := qt.New(t)
	c.Assert(cjmod.CapturePrefix("y = x ** 3", 6), qt.Equals, "x")
	c.Assert(cjmod.CapturePrefix("** 3", 0), qt.Equals, "")
}

func TestScanFindsIdentifierAndOperatorTriggers(t *testing.T) {
	c := qt.New(t)
	reg := cjmod.NewRegistry()
	c.Assert(reg.Register("query", "query($s)", func(cjmod.CapturedArgs) (string, error) { return "", nil }), qt.IsNil)
	c.Assert(reg.Register("**", "$p ** $e", func(cjmod.CapturedArgs) (string, error) { return "", nil }), qt.IsNil)

	results := cjmod.Scan(`query(".a"); x ** 2;`, reg)
	c.Assert(results, qt.HasLen, 2)
	c.Assert(results[0].Keyword, qt.Equals, "query")
	c.Assert(results[0].Arguments, qt.DeepEquals, []string{`".a"`})
	c.Assert(results[1].Keyword, qt.Equals, "**")
	c.Assert(results[1].Arguments, qt.DeepEquals, []string{"2"})
}

func TestRegistryLookupMatchesWildcardTrigger(t *testing.T) {
	c := qt.New(t)
	reg := cjmod.NewRegistry()
	c.Assert(reg.Register("on*", "on* ($handler)", func(cjmod.CapturedArgs) (string, error) { return "", nil }), qt.IsNil)

	_, ok := reg.Lookup("onHover")
	c.Assert(ok, qt.IsTrue)
	_, ok = reg.Lookup("offHover")
	c.Assert(ok, qt.IsFalse)
}
