package parser_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/internal/chtljs/ast"
	"github.com/chtl-lang/chtl/internal/chtljs/lexer"
	"github.com/chtl-lang/chtl/internal/chtljs/parser"
	"github.com/chtl-lang/chtl/internal/diag"
)

func parse(t *testing.T, src string) (*ast.Tree, ast.NodeId, *diag.Reporter) {
	t.Helper()
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	toks := lexer.New(src, "t.chtljs", rep).Tokens()
	tree, root := parser.New(toks, "t.chtljs", rep).Parse()
	return tree, root, rep
}

func TestParseSelectorWithIndex(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `{{ .box }}[0];`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	prog := tree.Node(root)
	c.Assert(prog.Children, qt.HasLen, 1)
	sel := tree.Node(prog.Children[0])
	c.Assert(tree.Kind(prog.Children[0]), qt.Equals, ast.KindSelector)
	c.Assert(sel.SelectorText, qt.Equals, ".box")
	c.Assert(sel.HasIndex, qt.IsTrue)
	c.Assert(sel.Index, qt.Equals, 0)
}

func TestParseListenMergesHandlers(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `{{#go}} -> listen { click: fnGo };`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	prog := tree.Node(root)
	c.Assert(prog.Children, qt.HasLen, 1)
	c.Assert(tree.Kind(prog.Children[0]), qt.Equals, ast.KindListen)
	ln := tree.Node(prog.Children[0])
	c.Assert(ln.Handlers, qt.HasLen, 1)
	c.Assert(ln.Handlers[0].Event, qt.Equals, "click")
}

func TestParseDelegateSplitsTargetFromHandlers(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `{{#root}} -> delegate { target: .a, click: fn1 };`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	prog := tree.Node(root)
	c.Assert(tree.Kind(prog.Children[0]), qt.Equals, ast.KindDelegate)
	del := tree.Node(prog.Children[0])
	c.Assert(del.Targets, qt.HasLen, 1)
	c.Assert(del.Handlers, qt.HasLen, 1)
	c.Assert(del.Handlers[0].Event, qt.Equals, "click")
}

func TestParseDelegateTargetList(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `{{#root}} -> delegate { target: [.a, .b], click: fn1 };`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	del := tree.Node(tree.Node(root).Children[0])
	c.Assert(del.Targets, qt.HasLen, 2)
}

func TestParseAnimateFieldsInterpreted(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `animate({ target: {{.box}}, duration: 300, easing: "ease", loop: 2, direction: "alternate", delay: 10 });`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	anim := tree.Node(tree.Node(root).Children[0])
	c.Assert(tree.Kind(tree.Node(root).Children[0]), qt.Equals, ast.KindAnimate)
	c.Assert(anim.Duration, qt.Equals, 300)
	c.Assert(anim.Easing, qt.Equals, "ease")
	c.Assert(anim.Loop, qt.Equals, 2)
	c.Assert(anim.Direction, qt.Equals, "alternate")
	c.Assert(anim.Delay, qt.Equals, 10)
}

func TestParseAnimateInfiniteLoop(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `animate({ target: {{.box}}, duration: 300, loop: infinite });`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	anim := tree.Node(tree.Node(root).Children[0])
	c.Assert(anim.Loop, qt.Equals, -1)
}

func TestParseAnimateWhenKeyframes(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `animate({ target: {{.box}}, duration: 300, when: [[0.5, { opacity: 1 }]] });`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	anim := tree.Node(tree.Node(root).Children[0])
	c.Assert(anim.When, qt.HasLen, 1)
	c.Assert(anim.When[0].At, qt.Equals, 0.5)
	c.Assert(anim.When[0].Props, qt.HasLen, 1)
	c.Assert(anim.When[0].Props[0].Key, qt.Equals, "opacity")
}

func TestParseVirDeclCapturesCallAndArgs(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `vir box = Query({ selector: {{.box}} });`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	decl := tree.Node(tree.Node(root).Children[0])
	c.Assert(tree.Kind(tree.Node(root).Children[0]), qt.Equals, ast.KindVirDecl)
	c.Assert(decl.Name, qt.Equals, "box")
	c.Assert(decl.FuncName, qt.Equals, "Query")
	c.Assert(decl.Args, qt.HasLen, 1)
}

func TestParseFunctionLiteralHandlerCapturesBody(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `{{#go}} -> listen { click: function(e) { doThing(e); } };`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	ln := tree.Node(tree.Node(root).Children[0])
	fn := tree.Node(ln.Handlers[0].Handler)
	c.Assert(tree.Kind(ln.Handlers[0].Handler), qt.Equals, ast.KindFunctionLiteral)
	c.Assert(fn.Params, qt.DeepEquals, []string{"e"})
}

func TestParsePlainJSDeclarationsPassThroughAsRaw(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `var x = 1; function foo() { return 1; }`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	prog := tree.Node(root)
	c.Assert(prog.Children, qt.HasLen, 2)
	for _, id := range prog.Children {
		c.Assert(tree.Kind(id), qt.Equals, ast.KindRaw)
	}
}

func TestParseIdentifierLedCallReachesExpressionTree(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `console.log(x);`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	prog := tree.Node(root)
	c.Assert(prog.Children, qt.HasLen, 1)
	c.Assert(tree.Kind(prog.Children[0]), qt.Equals, ast.KindCall)
}

func TestParseDelegateMultipleCallsProduceSeparateNodes(t *testing.T) {
	c := qt.New(t)
	tree, root, rep := parse(t, `{{#root}} -> delegate { target: .a, click: fn1 };
{{#root}} -> delegate { target: .b, click: fn2 };`)
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(tree.Node(root).Children, qt.HasLen, 2)
}
