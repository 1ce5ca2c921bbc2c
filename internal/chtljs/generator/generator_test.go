package generator_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/internal/chtljs/generator"
	"github.com/chtl-lang/chtl/internal/diag"
)

func compile(c *qt.C, src string) (*generator.Generator, string) {
	g := generator.New()
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	js, err := g.Compile(rep, "t.chtljs", src)
	c.Assert(err, qt.IsNil)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	return g, js
}

func TestSelectorClassCodegenArrayWrapsUnlessIndexed(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `{{ .box }}.style.display = "none";`)
	c.Assert(strings.Contains(js, "Array.from(document.getElementsByClassName(\"box\"))"), qt.IsTrue)
}

func TestSelectorClassIndexedSkipsArrayWrap(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `{{ .box }}[0].style.display = "none";`)
	c.Assert(strings.Contains(js, `document.getElementsByClassName("box")[0]`), qt.IsTrue)
	c.Assert(strings.Contains(js, "Array.from"), qt.IsFalse)
}

func TestSelectorIdCodegenIsSingular(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `{{ #root }}.remove();`)
	c.Assert(strings.Contains(js, `document.getElementById("root")`), qt.IsTrue)
}

func TestListenEmitsOneAddEventListenerPerEvent(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `{{ #root }} -> listen { click: fn1, mouseover: fn2 };`)
	c.Assert(strings.Count(js, "addEventListener"), qt.Equals, 2)
	c.Assert(strings.Contains(js, "'click'"), qt.IsTrue)
	c.Assert(strings.Contains(js, "'mouseover'"), qt.IsTrue)
}

func TestListenOnClassSelectorIteratesCollection(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `{{ .box }} -> listen { click: fn1 };`)
	c.Assert(strings.Contains(js, ".forEach(function(__el)"), qt.IsTrue)
}

func TestDelegateRegistersButEmitsNothingInline(t *testing.T) {
	c := qt.New(t)
	g, js := compile(c, `{{ #root }} -> delegate { target: .a, click: fn1 };`)
	c.Assert(strings.Contains(js, "addEventListener"), qt.IsFalse)
	c.Assert(g.Delegates.Empty(), qt.IsFalse)
}

func TestDelegateEmitDelegatesMergesAcrossCompileCalls(t *testing.T) {
	c := qt.New(t)
	g := generator.New()
	rep := diag.NewReporter(diag.MaxErrorsDefault)

	_, err := g.Compile(rep, "a.chtljs", `{{ #root }} -> delegate { target: .a, click: fn1 };`)
	c.Assert(err, qt.IsNil)
	_, err = g.Compile(rep, "b.chtljs", `{{ #root }} -> delegate { target: .b, click: fn2 };`)
	c.Assert(err, qt.IsNil)

	merged := g.EmitDelegates()
	c.Assert(strings.Count(merged, "addEventListener('click'"), qt.Equals, 1)
	c.Assert(strings.Contains(merged, "fn1"), qt.IsTrue)
	c.Assert(strings.Contains(merged, "fn2"), qt.IsTrue)
}

func TestAnimateBuildsKeyframesAndOptions(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `animate({
		target: {{ .box }}[0],
		duration: 300,
		easing: "ease-in",
		begin: { opacity: 0 },
		end: { opacity: 1 },
		loop: infinite,
	});`)
	c.Assert(strings.Contains(js, ".animate(["), qt.IsTrue)
	c.Assert(strings.Contains(js, "opacity: 0"), qt.IsTrue)
	c.Assert(strings.Contains(js, "opacity: 1"), qt.IsTrue)
	c.Assert(strings.Contains(js, "iterations: Infinity"), qt.IsTrue)
	c.Assert(strings.Contains(js, `duration: 300`), qt.IsTrue)
}

func TestAnimateWhenKeyframesCarryOffset(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `animate({
		target: {{ .box }}[0],
		duration: 300,
		when: [[0.5, { opacity: 0.5 }]],
	});`)
	c.Assert(strings.Contains(js, "offset: 0.5"), qt.IsTrue)
}

func TestVirFunctionMemberResolvesToMangledCall(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `vir box = makeView({ show: function() { this.style.display = 'block'; } });
box.show();`)
	c.Assert(strings.Contains(js, "function __vir_box_show()"), qt.IsTrue)
	c.Assert(strings.Contains(js, "__vir_box_show();"), qt.IsTrue)
}

func TestVirLiteralMemberInlinesValue(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `vir box = makeView({ count: 3 });
console.log(box.count);`)
	c.Assert(strings.Contains(js, "console.log(3);"), qt.IsTrue)
}

func TestUnknownTagFallsBackToIdThenClassProbe(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `{{ mystery-widget }}.remove();`)
	c.Assert(strings.Contains(js, "document.getElementById(\"mystery-widget\")"), qt.IsTrue)
	c.Assert(strings.Contains(js, "document.getElementsByClassName(\"mystery-widget\")[0]"), qt.IsTrue)
}

func TestPlainJSPassesThroughVerbatim(t *testing.T) {
	c := qt.New(t)
	_, js := compile(c, `var x = 1; console.log(x);`)
	c.Assert(strings.Contains(js, "var x = 1;"), qt.IsTrue)
	c.Assert(strings.Contains(js, "console.log(x);"), qt.IsTrue)
}
