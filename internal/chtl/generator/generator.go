// Package generator implements the CHTL generator (spec.md §4.C5):
// walks a resolved ast.Tree and emits HTML, CSS, and JS buffers.
package generator

import (
	"html"
	"sort"
	"strings"

	"github.com/chtl-lang/chtl/internal/catalogue"
	"github.com/chtl-lang/chtl/internal/chtl/ast"
	"github.com/chtl-lang/chtl/internal/chtl/template"
	"github.com/chtl-lang/chtl/internal/diag"
)

// ScriptCompiler hands a script block's raw CHTL-JS source off to the
// CHTL-JS pipeline. The dispatcher wires in the real implementation
// (internal/chtljs/generator); tests can stub it or leave it nil, in
// which case script content passes through unchanged.
type ScriptCompiler interface {
	Compile(rep *diag.Reporter, file string, src string) (string, error)
}

// Result is the three output buffers a compilation unit produces.
type Result struct {
	HTML string
	CSS  string
	JS   string
}

// Generator walks an ast.Tree and renders it against a Table of
// resolved Template/Custom definitions.
type Generator struct {
	tree    *ast.Tree
	tbl     *template.Table
	scripts ScriptCompiler

	// nsStack is the dotted-namespace path of the [Namespace] block
	// currently being walked, so a Template/Custom invoke inside it
	// resolves lexically against its own namespace first, falling
	// back outward through enclosing namespaces to the global scope
	// (spec.md §4.C3).
	nsStack []string

	html strings.Builder
	css  strings.Builder
	js   strings.Builder
}

func (g *Generator) currentNamespace() string {
	return strings.Join(g.nsStack, ".")
}

// New builds a Generator. scripts may be nil.
func New(tree *ast.Tree, tbl *template.Table, scripts ScriptCompiler) *Generator {
	return &Generator{tree: tree, tbl: tbl, scripts: scripts}
}

// Generate renders the whole tree from its Program root.
func (g *Generator) Generate(rep *diag.Reporter, file string) Result {
	g.renderNodes(rep, file, g.tree.Node(g.tree.Root).Children)
	return Result{HTML: g.html.String(), CSS: g.css.String(), JS: g.js.String()}
}

func (g *Generator) renderNodes(rep *diag.Reporter, file string, ids []ast.NodeId) {
	for _, id := range ids {
		g.renderNode(rep, file, id)
	}
}

// renderNode dispatches one child/top-level node to its emission. Only
// kinds that can appear where HTML content is expected are handled
// here; declarations (Template/Custom/Import/Configuration/Use) are
// consumed earlier in the pipeline and produce no direct output.
func (g *Generator) renderNode(rep *diag.Reporter, file string, id ast.NodeId) {
	switch g.tree.Kind(id) {
	case ast.KindElement:
		g.renderElement(rep, file, id)
	case ast.KindText:
		g.renderText(id)
	case ast.KindComment:
		g.renderComment(id)
	case ast.KindOrigin:
		g.renderOrigin(id)
	case ast.KindNamespace:
		n := g.tree.Node(id)
		var segs []string
		if n.DottedPath != "" {
			segs = strings.Split(n.DottedPath, ".")
			g.nsStack = append(g.nsStack, segs...)
		}
		g.renderNodes(rep, file, n.Body)
		if len(segs) > 0 {
			g.nsStack = g.nsStack[:len(g.nsStack)-len(segs)]
		}
	case ast.KindCustom:
		g.renderInvoke(rep, file, id)
	case ast.KindStyleBlock, ast.KindScriptBlock:
		// Element-level extraction handles these; a bare one at
		// top level (no enclosing element) has nowhere to scope to.
	default:
		// Template/Import/Configuration/Constraint/Use: declarations,
		// no direct output.
	}
}

func (g *Generator) renderText(id ast.NodeId) {
	g.html.WriteString(html.EscapeString(g.tree.Node(id).Text))
}

// renderComment re-emits a generator comment verbatim as an HTML
// comment, trimming the single leading space the lexer leaves after
// `--`.
func (g *Generator) renderComment(id ast.NodeId) {
	text := strings.TrimPrefix(g.tree.Node(id).Text, " ")
	g.html.WriteString("<!--")
	g.html.WriteString(text)
	g.html.WriteString("-->")
}

func (g *Generator) renderOrigin(id ast.NodeId) {
	n := g.tree.Node(id)
	switch n.OriginLang {
	case ast.OriginStyle:
		g.css.WriteString(n.Raw)
		g.css.WriteByte('\n')
	case ast.OriginJavaScript:
		g.js.WriteString(n.Raw)
		g.js.WriteByte('\n')
	default:
		g.html.WriteString(n.Raw)
	}
}

// renderInvoke resolves a Custom/Template element-invoke against the
// Table and splices the resulting children in place.
func (g *Generator) renderInvoke(rep *diag.Reporter, file string, id ast.NodeId) {
	n := g.tree.Node(id)
	if n.DefKind != ast.DefElement {
		return
	}
	res, err := g.tbl.ResolveIn(rep, n.DefKind, n.Name, n.SpecOps, g.currentNamespace())
	if err != nil {
		rep.Errorf(diag.Semantic, diag.Position{Line: n.Pos.Line, Column: n.Pos.Column, Offset: n.Pos.Offset, File: file}, "%v", err)
		return
	}
	g.renderNodes(rep, file, res.Children)
}

// renderElement emits one element's opening tag (after auto class/id
// injection and inline-style serialization), its kept children, and
// its closing tag, and hoists the element's nested style rules and
// extracted script into the global CSS/JS buffers.
func (g *Generator) renderElement(rep *diag.Reporter, file string, id ast.NodeId) {
	n := g.tree.Node(id)

	attrs, content := g.splitElementBody(rep, file, n)
	attrs = g.applyStyleAttrs(rep, file, n, attrs)

	g.html.WriteByte('<')
	g.html.WriteString(n.Tag)
	g.writeAttrs(attrs)

	if catalogue.IsVoid(n.Tag) {
		g.html.WriteString(" />")
		return
	}
	g.html.WriteByte('>')
	g.renderNodes(rep, file, content)
	g.html.WriteString("</")
	g.html.WriteString(n.Tag)
	g.html.WriteByte('>')
}

// splitElementBody separates an element's own attributes (as a mutable
// copy) from its content children, pulling StyleBlock/ScriptBlock
// children out of the content list since they're extracted rather than
// rendered in place.
func (g *Generator) splitElementBody(rep *diag.Reporter, file string, n *ast.Node) ([]ast.Attr, []ast.NodeId) {
	attrs := append([]ast.Attr{}, n.Attrs...)
	var content []ast.NodeId
	for _, c := range n.Children {
		switch g.tree.Kind(c) {
		case ast.KindScriptBlock:
			g.extractScript(rep, file, c)
		case ast.KindStyleBlock:
			// handled by applyStyleAttrs, which also hoists nested
			// rules; skip here so it isn't rendered as content.
		default:
			content = append(content, c)
		}
	}
	return attrs, content
}

func (g *Generator) extractScript(rep *diag.Reporter, file string, id ast.NodeId) {
	src := g.tree.Node(id).Script
	out := src
	if g.scripts != nil {
		compiled, err := g.scripts.Compile(rep, file, src)
		if err != nil {
			rep.Errorf(diag.Semantic, diag.Position{File: file}, "script compilation failed: %v", err)
		} else {
			out = compiled
		}
	}
	g.js.WriteString(out)
	g.js.WriteByte('\n')
}

// applyStyleAttrs walks every style block directly on the element,
// resolves its inline properties and @Style invokes, serializes them
// into a `style` attribute, hoists every nested selector rule
// (recursively) to the global CSS buffer, and auto-injects the
// `class`/`id` attribute a nested `.foo`/`#bar`/`&` selector implies
// (spec.md §4.C5 "Auto class/id injection").
func (g *Generator) applyStyleAttrs(rep *diag.Reporter, file string, n *ast.Node, attrs []ast.Attr) []ast.Attr {
	var inline []ast.Attr
	var classes []string
	var wantsID string

	for _, c := range n.Children {
		if g.tree.Kind(c) != ast.KindStyleBlock {
			continue
		}
		sb := g.tree.Node(c)
		inline = append(inline, g.resolveStyleProps(rep, file, sb)...)
		g.collectAndHoist(rep, file, sb, n.Tag, attrs, &classes, &wantsID)
	}

	if len(inline) > 0 {
		attrs = setAttr(attrs, "style", serializeInlineStyle(inline), false)
	}
	if len(classes) > 0 {
		attrs = unionClassAttr(attrs, classes)
	}
	if wantsID != "" {
		attrs = setAttrIfAbsent(attrs, "id", wantsID)
	}
	return attrs
}

// resolveStyleProps merges a style block's bare properties with its
// `@Style NAME;` invokes, the same inheritance-aware resolution a
// Custom/Template @Style invoke uses.
func (g *Generator) resolveStyleProps(rep *diag.Reporter, file string, sb *ast.Node) []ast.Attr {
	var props []ast.Attr
	for _, name := range sb.StyleInvokes {
		res, err := g.tbl.ResolveIn(rep, ast.DefStyle, name, nil, g.currentNamespace())
		if err != nil {
			rep.Errorf(diag.Semantic, diag.Position{File: file}, "%v", err)
			continue
		}
		props = mergeAttrs(props, res.Properties)
	}
	return mergeAttrs(props, sb.Properties)
}

// mergeAttrs overrides base with override, keyed by Key, preserving
// base's insertion order and appending genuinely new keys — the same
// last-one-wins rule internal/chtl/template uses for inherited
// properties.
func mergeAttrs(base, override []ast.Attr) []ast.Attr {
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

// collectAndHoist recursively hoists sb's nested selector rules to the
// CSS buffer and records which class/id the auto-injection rule
// implies for the owning element.
func (g *Generator) collectAndHoist(rep *diag.Reporter, file string, sb *ast.Node, ownerTag string, attrs []ast.Attr, classes *[]string, wantsID *string) {
	for _, nid := range sb.Children {
		nested := g.tree.Node(nid)
		switch nested.Selector {
		case ast.SelectorClass:
			*classes = append(*classes, nested.SelectorName)
			g.writeRule("."+nested.SelectorName, g.resolveStyleProps(rep, file, nested))
		case ast.SelectorID:
			if *wantsID == "" {
				*wantsID = nested.SelectorName
			}
			g.writeRule("#"+nested.SelectorName, g.resolveStyleProps(rep, file, nested))
		case ast.SelectorElement:
			g.writeRule(nested.SelectorName, g.resolveStyleProps(rep, file, nested))
		case ast.SelectorContextual:
			g.writeRule(contextualSelector(attrs, ownerTag), g.resolveStyleProps(rep, file, nested))
		}
		g.collectAndHoist(rep, file, nested, ownerTag, attrs, classes, wantsID)
	}
}

// contextualSelector resolves `&` to the enclosing element's class (if
// it has one), else its id, else its bare tag name.
func contextualSelector(attrs []ast.Attr, tag string) string {
	if v, ok := lookupAttr(attrs, "class"); ok && v != "" {
		return "." + strings.Fields(v)[0]
	}
	if v, ok := lookupAttr(attrs, "id"); ok && v != "" {
		return "#" + v
	}
	return tag
}

func (g *Generator) writeRule(selector string, props []ast.Attr) {
	if len(props) == 0 {
		return
	}
	g.css.WriteString(selector)
	g.css.WriteString(" {\n")
	for _, a := range props {
		g.css.WriteString("  ")
		g.css.WriteString(a.Key)
		g.css.WriteString(": ")
		g.css.WriteString(a.Value)
		g.css.WriteString(";\n")
	}
	g.css.WriteString("}\n")
}

func serializeInlineStyle(props []ast.Attr) string {
	var sb strings.Builder
	for i, a := range props {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(a.Key)
		sb.WriteString(": ")
		sb.WriteString(a.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

func (g *Generator) writeAttrs(attrs []ast.Attr) {
	for _, a := range attrs {
		g.html.WriteByte(' ')
		g.html.WriteString(a.Key)
		g.html.WriteString(`="`)
		g.html.WriteString(html.EscapeString(a.Value))
		g.html.WriteByte('"')
	}
}

func lookupAttr(attrs []ast.Attr, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func setAttr(attrs []ast.Attr, key, value string, quoted bool) []ast.Attr {
	for i, a := range attrs {
		if a.Key == key {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, ast.Attr{Key: key, Value: value, Quoted: quoted})
}

func setAttrIfAbsent(attrs []ast.Attr, key, value string) []ast.Attr {
	if _, ok := lookupAttr(attrs, key); ok {
		return attrs
	}
	return append(attrs, ast.Attr{Key: key, Value: value})
}

// unionClassAttr merges classes into any existing `class` attribute,
// preserving the existing value's classes first and appending new ones
// in sorted order so output is deterministic regardless of nested-rule
// discovery order.
func unionClassAttr(attrs []ast.Attr, classes []string) []ast.Attr {
	sort.Strings(classes)
	existing, hasClass := lookupAttr(attrs, "class")
	seen := map[string]bool{}
	var merged []string
	if hasClass {
		for _, c := range strings.Fields(existing) {
			if !seen[c] {
				seen[c] = true
				merged = append(merged, c)
			}
		}
	}
	for _, c := range classes {
		if !seen[c] {
			seen[c] = true
			merged = append(merged, c)
		}
	}
	return setAttr(attrs, "class", strings.Join(merged, " "), true)
}
