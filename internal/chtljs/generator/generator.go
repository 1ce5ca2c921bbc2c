// Package generator implements CHTL-JS code generation (spec.md
// §4.J4): selector codegen, listen/delegate/animate emission, and vir
// member resolution to mangled free functions or inlined values.
//
// Generator implements internal/chtl/generator.ScriptCompiler, so a
// single instance is constructed once per compilation by the
// dispatcher (D) and handed to the CHTL generator — its
// DelegateRegistry and ViewRegistry must stay shared across every
// script block of one compilation unit, since delegate calls merge
// across the whole document, not per block (spec.md §5, §8 property
// 6). EmitDelegates must be called exactly once, after every block has
// compiled, and its result appended to the merged JS buffer (spec.md
// §4.D step 5).
package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chtl-lang/chtl/internal/catalogue"
	"github.com/chtl-lang/chtl/internal/chtljs/ast"
	"github.com/chtl-lang/chtl/internal/chtljs/lexer"
	"github.com/chtl-lang/chtl/internal/chtljs/parser"
	"github.com/chtl-lang/chtl/internal/chtljs/registry"
	"github.com/chtl-lang/chtl/internal/diag"
)

// Generator compiles one CHTL-JS script block's source into JS,
// sharing its DelegateRegistry and ViewRegistry across every block of
// a compilation unit.
type Generator struct {
	Delegates *registry.DelegateRegistry
	Views     *registry.ViewRegistry
}

// New returns a Generator with fresh, empty registries.
func New() *Generator {
	return &Generator{Delegates: registry.NewDelegateRegistry(), Views: registry.NewViewRegistry()}
}

// Compile lexes, parses and renders src, registering any delegate
// calls and vir declarations it finds along the way. It implements
// internal/chtl/generator.ScriptCompiler.
func (g *Generator) Compile(rep *diag.Reporter, file string, src string) (string, error) {
	toks := lexer.New(src, file, rep).Tokens()
	tree, root := parser.New(toks, file, rep).Parse()

	var sb strings.Builder
	for _, id := range tree.Node(root).Children {
		g.renderStatement(&sb, tree, id)
	}
	return sb.String(), nil
}

// EmitDelegates renders the consolidated delegate-dispatch code
// accumulated across every Compile call so far. Call once, after
// every script block in the compilation has been compiled.
func (g *Generator) EmitDelegates() string {
	if g.Delegates.Empty() {
		return ""
	}
	return g.Delegates.Emit(selectorSingular)
}

func (g *Generator) renderStatement(sb *strings.Builder, tree *ast.Tree, id ast.NodeId) {
	switch tree.Kind(id) {
	case ast.KindListen:
		g.renderListen(sb, tree, tree.Node(id))
	case ast.KindDelegate:
		g.registerDelegate(tree, tree.Node(id))
	case ast.KindAnimate:
		sb.WriteString(g.renderAnimate(tree, tree.Node(id)))
	case ast.KindVirDecl:
		g.registerView(sb, tree, tree.Node(id))
	case ast.KindRaw:
		raw := tree.Node(id).Raw
		if strings.TrimSpace(raw) != "" {
			sb.WriteString(raw)
			sb.WriteString("\n")
		}
	default:
		if expr := g.renderExpr(tree, id); expr != "" {
			sb.WriteString(expr)
			sb.WriteString(";\n")
		}
	}
}

// renderListen emits one addEventListener per event key, iterating
// over a collection target with forEach when the selector resolves to
// more than one element (spec.md §4.J4).
func (g *Generator) renderListen(sb *strings.Builder, tree *ast.Tree, n *ast.Node) {
	expr, collection := g.selectorOf(tree, n.Target)
	for _, h := range n.Handlers {
		handler := g.renderExpr(tree, h.Handler)
		if collection {
			fmt.Fprintf(sb, "%s.forEach(function(__el){ __el.addEventListener('%s', %s); });\n", expr, h.Event, handler)
		} else {
			fmt.Fprintf(sb, "%s.addEventListener('%s', %s);\n", expr, h.Event, handler)
		}
	}
}

// registerDelegate records every (child, event) pair under the
// delegate's parent selector text; nothing is emitted inline — the
// merged listener is produced once by EmitDelegates.
func (g *Generator) registerDelegate(tree *ast.Tree, n *ast.Node) {
	parentKey := g.selectorLiteral(tree, n.Target)
	for _, childId := range n.Targets {
		child := g.selectorLiteral(tree, childId)
		for _, h := range n.Handlers {
			g.Delegates.Register(parentKey, registry.DelegateEntry{
				ChildSelector: child, Event: h.Event, HandlerCode: g.renderExpr(tree, h.Handler),
			})
		}
	}
}

// renderAnimate emits a Web Animations API call per target, with
// keyframes built from begin/when/end (spec.md §4.J4).
func (g *Generator) renderAnimate(tree *ast.Tree, n *ast.Node) string {
	targets := g.animateTargets(tree, n)

	var kfs []string
	if len(n.Begin) > 0 {
		kfs = append(kfs, g.objectLiteralJS(tree, n.Begin, ""))
	}
	for _, kf := range n.When {
		kfs = append(kfs, g.objectLiteralJS(tree, kf.Props, fmt.Sprintf("offset: %s", formatFloat(kf.At))))
	}
	if len(n.End) > 0 {
		kfs = append(kfs, g.objectLiteralJS(tree, n.End, ""))
	}

	iterations := "1"
	switch {
	case n.Loop < 0:
		iterations = "Infinity"
	case n.Loop > 0:
		iterations = strconv.Itoa(n.Loop)
	}
	direction := n.Direction
	if direction == "" {
		direction = "normal"
	}
	opts := fmt.Sprintf("{ duration: %d, easing: %s, iterations: %s, direction: %s, delay: %d }",
		n.Duration, strconv.Quote(n.Easing), iterations, strconv.Quote(direction), n.Delay)

	var sb strings.Builder
	for _, t := range targets {
		call := fmt.Sprintf("%s.animate([%s], %s)", t, strings.Join(kfs, ", "), opts)
		if n.Callback != ast.NoNode {
			fmt.Fprintf(&sb, "%s.onfinish = %s;\n", call, g.renderExpr(tree, n.Callback))
		} else {
			sb.WriteString(call)
			sb.WriteString(";\n")
		}
	}
	return sb.String()
}

func (g *Generator) animateTargets(tree *ast.Tree, n *ast.Node) []string {
	if len(n.Targets) > 0 {
		out := make([]string, 0, len(n.Targets))
		for _, t := range n.Targets {
			expr, _ := g.selectorOf(tree, t)
			out = append(out, expr)
		}
		return out
	}
	if n.Target == ast.NoNode {
		return nil
	}
	expr, collection := g.selectorOf(tree, n.Target)
	if !collection {
		return []string{expr}
	}
	// A bare class/tag selector used as an animate target animates only
	// the first matched element; the other matches are not animated.
	return []string{expr + "[0]"}
}

// registerView builds a View from a `vir NAME = CALL({ ... })`
// declaration's argument object, emitting a mangled free function for
// every function-valued member (spec.md §4.J3).
func (g *Generator) registerView(sb *strings.Builder, tree *ast.Tree, n *ast.Node) {
	if len(n.Args) == 0 {
		return
	}
	argId := n.Args[0]
	view := registry.NewView(n.Name)
	if tree.Kind(argId) == ast.KindObjectLiteral {
		for _, p := range tree.Node(argId).Props {
			kind, value := g.memberValue(sb, tree, p.Value, n.Name, p.Key)
			view.SetMember(p.Key, registry.Member{Kind: kind, Value: value})
		}
	}
	g.Views.Register(view)
}

func (g *Generator) memberValue(sb *strings.Builder, tree *ast.Tree, id ast.NodeId, viewName, member string) (registry.MemberKind, string) {
	switch tree.Kind(id) {
	case ast.KindFunctionLiteral:
		n := tree.Node(id)
		fname := registry.MangledFunctionName(viewName, member)
		fmt.Fprintf(sb, "function %s(%s) { %s }\n", fname, strings.Join(n.Params, ", "), n.Body)
		return registry.MemberFunction, fname
	case ast.KindObjectLiteral:
		return registry.MemberObject, g.objectLiteralJS(tree, tree.Node(id).Props, "")
	case ast.KindArrayLiteral:
		return registry.MemberArray, g.arrayLiteralJS(tree, id)
	default:
		return registry.MemberLiteral, g.renderExpr(tree, id)
	}
}

// selectorOf reports the DOM-lookup expression for a Selector node,
// and whether it resolves to a collection (so callers iterate it).
// Non-selector targets (a plain identifier referring to some other JS
// value) pass through renderExpr unchanged.
func (g *Generator) selectorOf(tree *ast.Tree, id ast.NodeId) (string, bool) {
	if tree.Kind(id) == ast.KindSelector {
		n := tree.Node(id)
		return selectorExpr(n.SelectorText, n.HasIndex, n.Index)
	}
	return g.renderExpr(tree, id), false
}

// selectorLiteral returns the raw selector text (".a", "#root", ...)
// used as the DelegateRegistry's map key, deferring DOM-lookup codegen
// to EmitDelegates time.
func (g *Generator) selectorLiteral(tree *ast.Tree, id ast.NodeId) string {
	if tree.Kind(id) == ast.KindSelector {
		return tree.Node(id).SelectorText
	}
	return g.renderExpr(tree, id)
}

// selectorExpr implements the selector codegen table (spec.md §4.J4):
// `.x` → getElementsByClassName (array-wrapped unless indexed); `#x` →
// getElementById; a known tag name → getElementsByTagName
// (array-wrapped unless indexed); otherwise a probe that tries id then
// class.
func selectorExpr(sel string, hasIndex bool, index int) (expr string, collection bool) {
	switch {
	case strings.HasPrefix(sel, "."):
		name := sel[1:]
		base := fmt.Sprintf("document.getElementsByClassName(%s)", strconv.Quote(name))
		if hasIndex {
			return fmt.Sprintf("%s[%d]", base, index), false
		}
		return fmt.Sprintf("Array.from(%s)", base), true
	case strings.HasPrefix(sel, "#"):
		return fmt.Sprintf("document.getElementById(%s)", strconv.Quote(sel[1:])), false
	case catalogue.IsKnownTag(sel):
		base := fmt.Sprintf("document.getElementsByTagName(%s)", strconv.Quote(sel))
		if hasIndex {
			return fmt.Sprintf("%s[%d]", base, index), false
		}
		return fmt.Sprintf("Array.from(%s)", base), true
	default:
		return fmt.Sprintf("(document.getElementById(%s) || document.getElementsByClassName(%s)[0])", strconv.Quote(sel), strconv.Quote(sel)), false
	}
}

// selectorSingular is the id-then-class probe used to resolve a
// delegate's parent selector to the single element addEventListener
// attaches to.
func selectorSingular(sel string) string {
	switch {
	case strings.HasPrefix(sel, "."):
		return fmt.Sprintf("document.getElementsByClassName(%s)[0]", strconv.Quote(sel[1:]))
	case strings.HasPrefix(sel, "#"):
		return fmt.Sprintf("document.getElementById(%s)", strconv.Quote(sel[1:]))
	case catalogue.IsKnownTag(sel):
		return fmt.Sprintf("document.getElementsByTagName(%s)[0]", strconv.Quote(sel))
	default:
		return fmt.Sprintf("(document.getElementById(%s) || document.getElementsByClassName(%s)[0])", strconv.Quote(sel), strconv.Quote(sel))
	}
}

func (g *Generator) objectLiteralJS(tree *ast.Tree, props []ast.Property, extra string) string {
	parts := make([]string, 0, len(props)+1)
	for _, p := range props {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Key, g.renderExpr(tree, p.Value)))
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (g *Generator) arrayLiteralJS(tree *ast.Tree, id ast.NodeId) string {
	elems := tree.Node(id).Elements
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		parts = append(parts, g.renderExpr(tree, e))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// renderExpr renders any expression node to JS text, resolving vir
// member accesses to either a mangled free-function name or an
// inlined literal/object/array value (spec.md §4.J3).
func (g *Generator) renderExpr(tree *ast.Tree, id ast.NodeId) string {
	if id == ast.NoNode {
		return ""
	}
	switch tree.Kind(id) {
	case ast.KindIdentifier:
		return tree.Node(id).Name
	case ast.KindLiteral:
		n := tree.Node(id)
		if n.LitKind == ast.LiteralString {
			return strconv.Quote(n.Value)
		}
		return n.Value
	case ast.KindSelector:
		n := tree.Node(id)
		expr, _ := selectorExpr(n.SelectorText, n.HasIndex, n.Index)
		return expr
	case ast.KindMember:
		n := tree.Node(id)
		if tree.Kind(n.Object) == ast.KindIdentifier {
			viewName := tree.Node(n.Object).Name
			if view, ok := g.Views.Lookup(viewName); ok {
				if m, ok := view.Members[n.Property]; ok {
					return m.Value
				}
			}
		}
		return g.renderExpr(tree, n.Object) + "." + n.Property
	case ast.KindCall:
		n := tree.Node(id)
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, g.renderExpr(tree, a))
		}
		return g.renderExpr(tree, n.Callee) + "(" + strings.Join(args, ", ") + ")"
	case ast.KindObjectLiteral:
		return g.objectLiteralJS(tree, tree.Node(id).Props, "")
	case ast.KindArrayLiteral:
		return g.arrayLiteralJS(tree, id)
	case ast.KindFunctionLiteral:
		n := tree.Node(id)
		return fmt.Sprintf("function(%s) { %s }", strings.Join(n.Params, ", "), n.Body)
	case ast.KindRaw:
		return tree.Node(id).Raw
	case ast.KindAssign:
		n := tree.Node(id)
		return g.renderExpr(tree, n.Left) + " = " + g.renderExpr(tree, n.Right)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
