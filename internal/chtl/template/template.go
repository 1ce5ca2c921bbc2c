// Package template implements the CHTL Template/Custom inheritance and
// specialization engine (spec.md §4.C3).
package template

import (
	"fmt"
	"strings"

	radix "github.com/armon/go-radix"
	"github.com/gohugoio/hashstructure"

	"github.com/chtl-lang/chtl/internal/chtl/ast"
	"github.com/chtl-lang/chtl/internal/diag"
)

// Table is the global symbol table of Template/Custom definitions,
// keyed by (DefKind, Name) within one namespace. One Table is built
// per compilation unit; it does not persist across runs (spec.md §3
// "Lifecycles").
type Table struct {
	tree *ast.Tree
	defs map[key]ast.NodeId

	// qualified indexes the same definitions by their full dotted
	// namespace path (e.g. "A.B.Box"), one radix tree per DefKind, so
	// a reference can be resolved either by an explicit qualified name
	// or, for a bare name, by walking the referencing site's enclosing
	// namespaces outward (spec.md §4.C3's "Global namespace map:
	// namespace-path → symbol table", generalizing the lexical
	// @Var-fallback rule spec.md §4.C3 step 4 names to every
	// Template/Custom reference). A radix tree is the natural fit here
	// because namespace resolution is a longest-prefix-style walk, not
	// a single exact-key lookup.
	qualified map[ast.DefKind]*radix.Tree

	// memo caches resolved property/child sets per (definition,
	// spec-ops) pair, hashed with hashstructure so repeated
	// custom-invokes of the same named customization skip re-walking
	// the inherit chain.
	memo map[uint64]Resolved
}

type key struct {
	kind ast.DefKind
	name string
}

// Resolved is the effective node set a custom-invoke site expands to:
// properties (for Style/Var) or children (for Element), after
// inheritance and specialization have been applied.
type Resolved struct {
	Properties []ast.Attr
	Children   []ast.NodeId
	VarValues  map[string]string
}

// NewTable indexes every [Template]/[Custom] definition in tree.
func NewTable(tree *ast.Tree) *Table {
	t := &Table{
		tree: tree,
		defs: map[key]ast.NodeId{},
		qualified: map[ast.DefKind]*radix.Tree{
			ast.DefStyle:   radix.New(),
			ast.DefElement: radix.New(),
			ast.DefVar:     radix.New(),
		},
		memo: map[uint64]Resolved{},
	}
	t.index(tree.Root, nil)
	return t
}

func (t *Table) index(id ast.NodeId, nsPath []string) {
	if id == ast.NoNode {
		return
	}
	n := t.tree.Node(id)
	switch t.tree.Kind(id) {
	case ast.KindProgram:
		for _, c := range n.Children {
			t.index(c, nsPath)
		}
	case ast.KindNamespace:
		childPath := nsPath
		if n.DottedPath != "" {
			childPath = append(append([]string{}, nsPath...), strings.Split(n.DottedPath, ".")...)
		}
		for _, c := range n.Body {
			t.index(c, childPath)
		}
	case ast.KindTemplate, ast.KindCustom:
		if n.Name != "" {
			t.defs[key{n.DefKind, n.Name}] = id
			if tree := t.qualified[n.DefKind]; tree != nil {
				qname := n.Name
				if len(nsPath) > 0 {
					qname = strings.Join(nsPath, ".") + "." + n.Name
				}
				tree.Insert(qname, id)
			}
		}
	}
}

// Lookup returns the definition NodeId for (kind, name) in the global
// flat index, ignoring namespace; it's the fallback LookupQualified
// always ends at.
func (t *Table) Lookup(kind ast.DefKind, name string) (ast.NodeId, bool) {
	id, ok := t.defs[key{kind, name}]
	return id, ok
}

// LookupQualified resolves name against kind's qualified index. A
// dotted name is treated as an explicit qualified reference and
// matched exactly; a bare name is resolved lexically relative to
// from (the dotted path of the namespace the reference occurs in),
// trying from itself, then each enclosing namespace in turn, and
// finally the global (unqualified) scope.
func (t *Table) LookupQualified(kind ast.DefKind, name, from string) (ast.NodeId, bool) {
	tree := t.qualified[kind]
	if tree == nil {
		return t.Lookup(kind, name)
	}
	if strings.Contains(name, ".") {
		if v, ok := tree.Get(name); ok {
			return v.(ast.NodeId), true
		}
		return t.Lookup(kind, name)
	}
	for _, prefix := range fallbackPrefixes(from) {
		qname := name
		if prefix != "" {
			qname = prefix + "." + name
		}
		if v, ok := tree.Get(qname); ok {
			return v.(ast.NodeId), true
		}
	}
	return t.Lookup(kind, name)
}

// fallbackPrefixes returns from's enclosing-namespace paths, most
// specific first, always ending with "" (the global scope).
func fallbackPrefixes(from string) []string {
	if from == "" {
		return []string{""}
	}
	segs := strings.Split(from, ".")
	prefixes := make([]string, 0, len(segs)+1)
	for i := len(segs); i > 0; i-- {
		prefixes = append(prefixes, strings.Join(segs[:i], "."))
	}
	return append(prefixes, "")
}

// Resolve computes the effective property/child set for invoking the
// named definition with the given specialization ops applied on top,
// per the resolution order in spec.md §4.C3.
func (t *Table) Resolve(rep *diag.Reporter, kind ast.DefKind, name string, ops []ast.SpecOp) (Resolved, error) {
	return t.ResolveIn(rep, kind, name, ops, "")
}

// ResolveIn is Resolve with an explicit namespace context: name
// resolves lexically relative to from, falling back outward through
// enclosing namespaces to the global scope (spec.md §4.C3).
func (t *Table) ResolveIn(rep *diag.Reporter, kind ast.DefKind, name string, ops []ast.SpecOp, from string) (Resolved, error) {
	h, hashErr := hashstructure.Hash(struct {
		Kind ast.DefKind
		Name string
		From string
		Ops  []ast.SpecOp
	}{kind, name, from, ops}, nil)
	if hashErr == nil {
		if cached, ok := t.memo[h]; ok {
			return cached, nil
		}
	}

	base, err := t.resolveChain(rep, kind, name, from, map[string]bool{})
	if err != nil {
		return Resolved{}, err
	}
	result := t.applySpecOps(base, ops, rep)
	if kind == ast.DefVar {
		result.VarValues = varMap(result.Properties)
	}

	if hashErr == nil {
		t.memo[h] = result
	}
	return result, nil
}

// varMap folds a Var definition's resolved property list — built and
// specialized the same way Style/Element properties are — into the
// name→value lookup spec.md §4.C3 step 4 describes.
func varMap(props []ast.Attr) map[string]string {
	m := make(map[string]string, len(props))
	for _, a := range props {
		m[a.Key] = a.Value
	}
	return m
}

// resolveChain walks the `inherit` chain from name down to its root
// base, applying each ancestor's own specialization ops along the way
// (base-most first), and detects inheritance cycles.
func (t *Table) resolveChain(rep *diag.Reporter, kind ast.DefKind, name, from string, visiting map[string]bool) (Resolved, error) {
	if visiting[name] {
		return Resolved{}, fmt.Errorf("CIRCULAR_INHERITANCE: %s", name)
	}
	visiting[name] = true

	id, ok := t.LookupQualified(kind, name, from)
	if !ok {
		return Resolved{}, fmt.Errorf("undefined template/custom %q", name)
	}
	n := t.tree.Node(id)

	var base Resolved
	if n.Inherits != "" {
		var err error
		base, err = t.resolveChain(rep, kind, n.Inherits, from, visiting)
		if err != nil {
			return Resolved{}, err
		}
	}

	props := mergeProps(append([]ast.Attr{}, base.Properties...), n.Properties)
	children := append(append([]ast.NodeId{}, base.Children...), n.Body...)
	resolved := Resolved{Properties: props, Children: children}
	if len(n.SpecOps) > 0 {
		resolved = t.applySpecOps(resolved, n.SpecOps, rep)
	}
	return resolved, nil
}

// mergeProps overrides base with override, keyed by property name,
// preserving base's insertion order and appending genuinely new keys.
func mergeProps(base, override []ast.Attr) []ast.Attr {
	idx := make(map[string]int, len(base))
	for i, a := range base {
		idx[a.Key] = i
	}
	for _, a := range override {
		if i, ok := idx[a.Key]; ok {
			base[i] = a
		} else {
			idx[a.Key] = len(base)
			base = append(base, a)
		}
	}
	return base
}

// applySpecOps applies ops in source order over base, per spec.md
// §4.C3 step 3. Order matters: delete-then-replace is not equivalent
// to replace-then-delete, so ops are folded left to right rather than
// grouped by kind.
func (t *Table) applySpecOps(base Resolved, ops []ast.SpecOp, rep *diag.Reporter) Resolved {
	props := append([]ast.Attr{}, base.Properties...)
	children := append([]ast.NodeId{}, base.Children...)

	for _, op := range ops {
		switch op.Kind {
		case ast.SpecDelete:
			found := false
			for i, a := range props {
				if a.Key == op.Target {
					props = append(props[:i], props[i+1:]...)
					found = true
					break
				}
			}
			if !found {
				children, found = t.deleteChild(children, op.Target)
			}
			if !found && rep != nil {
				rep.Warnf(diag.Template, diag.Position{Line: op.Pos.Line, Column: op.Pos.Column, Offset: op.Pos.Offset},
					"delete %q: no matching property or child", op.Target)
			}
		case ast.SpecOverride:
			props = mergeProps(props, []ast.Attr{{Key: op.Target, Value: t.firstTextValue(op.Body)}})
		case ast.SpecReplace:
			children = t.replaceChild(children, op.Target, op.Body)
		case ast.SpecInsertAfter:
			children = t.insertRelative(children, op.Target, op.Body, true)
		case ast.SpecInsertBefore:
			children = t.insertRelative(children, op.Target, op.Body, false)
		case ast.SpecAtTop:
			children = append(append([]ast.NodeId{}, op.Body...), children...)
		case ast.SpecAtBottom:
			children = append(children, op.Body...)
		}
	}
	return Resolved{Properties: props, Children: children, VarValues: base.VarValues}
}

// childMatches reports whether child id is the one a specialization
// op names: an Element by tag, a Custom/Template invoke by name, or a
// Text block by its literal content.
func (t *Table) childMatches(id ast.NodeId, target string) bool {
	n := t.tree.Node(id)
	switch t.tree.Kind(id) {
	case ast.KindElement:
		return n.Tag == target
	case ast.KindCustom, ast.KindTemplate:
		return n.Name == target
	case ast.KindText:
		return n.Text == target
	default:
		return false
	}
}

func (t *Table) firstTextValue(body []ast.NodeId) string {
	for _, id := range body {
		if t.tree.Kind(id) == ast.KindText {
			return t.tree.Node(id).Text
		}
	}
	return ""
}

func (t *Table) deleteChild(children []ast.NodeId, target string) ([]ast.NodeId, bool) {
	for i, c := range children {
		if t.childMatches(c, target) {
			return append(children[:i:i], children[i+1:]...), true
		}
	}
	return children, false
}

func (t *Table) replaceChild(children []ast.NodeId, target string, body []ast.NodeId) []ast.NodeId {
	out := make([]ast.NodeId, 0, len(children))
	for _, c := range children {
		if t.childMatches(c, target) {
			out = append(out, body...)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (t *Table) insertRelative(children []ast.NodeId, target string, body []ast.NodeId, after bool) []ast.NodeId {
	out := make([]ast.NodeId, 0, len(children)+len(body))
	for _, c := range children {
		if !after && t.childMatches(c, target) {
			out = append(out, body...)
		}
		out = append(out, c)
		if after && t.childMatches(c, target) {
			out = append(out, body...)
		}
	}
	return out
}
