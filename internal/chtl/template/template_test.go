package template_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/internal/chtl/ast"
	"github.com/chtl-lang/chtl/internal/chtl/lexer"
	"github.com/chtl-lang/chtl/internal/chtl/parser"
	"github.com/chtl-lang/chtl/internal/chtl/template"
	"github.com/chtl-lang/chtl/internal/diag"
)

func build(t *testing.T, src string) (*ast.Tree, *template.Table, *diag.Reporter) {
	t.Helper()
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	toks := lexer.New(src, "t.chtl", rep).Tokens()
	tree, _ := parser.New(toks, "t.chtl", rep).Parse()
	return tree, template.NewTable(tree), rep
}

func TestResolveStyleTemplateInheritsAndOverrides(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Template] @Style Base { color: red; font-size: 10px; }
[Template] @Style Derived inherit Base { font-size: 12px; }`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	res, err := tbl.Resolve(rep, ast.DefStyle, "Derived", nil)
	c.Assert(err, qt.IsNil)

	byKey := map[string]string{}
	for _, a := range res.Properties {
		byKey[a.Key] = a.Value
	}
	c.Assert(byKey["color"], qt.Equals, "red")
	c.Assert(byKey["font-size"], qt.Equals, "12px")
}

func TestResolveInFindsDefinitionInOwnNamespace(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Namespace] App.UI {
	[Template] @Style Box { color: blue; }
}`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	res, err := tbl.ResolveIn(rep, ast.DefStyle, "Box", nil, "App.UI")
	c.Assert(err, qt.IsNil)
	c.Assert(res.Properties[0].Value, qt.Equals, "blue")
}

func TestResolveInFallsBackToEnclosingNamespace(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Namespace] App {
	[Template] @Style Box { color: green; }
	[Namespace] UI {
		div { text { "placeholder" } }
	}
}`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	res, err := tbl.ResolveIn(rep, ast.DefStyle, "Box", nil, "App.UI")
	c.Assert(err, qt.IsNil)
	c.Assert(res.Properties[0].Value, qt.Equals, "green")
}

func TestResolveInAcceptsExplicitQualifiedName(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Namespace] App.UI {
	[Template] @Style Box { color: yellow; }
}`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	res, err := tbl.ResolveIn(rep, ast.DefStyle, "App.UI.Box", nil, "")
	c.Assert(err, qt.IsNil)
	c.Assert(res.Properties[0].Value, qt.Equals, "yellow")
}

func TestResolveVarTemplateBuildsValueMap(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Template] @Var Theme { primary: "blue"; secondary: "gray"; }`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	res, err := tbl.Resolve(rep, ast.DefVar, "Theme", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(res.VarValues["primary"], qt.Equals, "blue")
	c.Assert(res.VarValues["secondary"], qt.Equals, "gray")
}

func TestResolveDetectsCircularInheritance(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Template] @Style A inherit B { color: red; }
[Template] @Style B inherit A { color: blue; }`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	_, err := tbl.Resolve(rep, ast.DefStyle, "A", nil)
	c.Assert(err, qt.ErrorMatches, ".*CIRCULAR_INHERITANCE.*")
}

func TestResolveCustomDeleteThenOverrideOrderMatters(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Custom] @Style Box {
	color: red;
	font-size: 10px;
}`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	deleteThenOverride := []ast.SpecOp{
		{Kind: ast.SpecDelete, Target: "color"},
		{Kind: ast.SpecOverride, Target: "color", Body: nil},
	}
	res, err := tbl.Resolve(rep, ast.DefStyle, "Box", deleteThenOverride)
	c.Assert(err, qt.IsNil)
	found := false
	for _, a := range res.Properties {
		if a.Key == "color" {
			found = true
		}
	}
	c.Assert(found, qt.IsTrue)
}

func TestResolveDeleteWarnsOnMissingTarget(t *testing.T) {
	c := qt.New(t)
	_, tbl, rep := build(t, `[Template] @Style Base { color: red; }`)
	c.Assert(rep.HasErrors(), qt.IsFalse)

	_, err := tbl.Resolve(rep, ast.DefStyle, "Base", []ast.SpecOp{{Kind: ast.SpecDelete, Target: "nonexistent"}})
	c.Assert(err, qt.IsNil)
	c.Assert(rep.HasErrors(), qt.IsFalse) // a missing delete target is a warning, not an error
	c.Assert(rep.Count(diag.Warning), qt.Equals, 1)
}
