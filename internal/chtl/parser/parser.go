// Package parser implements the CHTL recursive-descent parser
// (spec.md §4.C2), building an internal/chtl/ast.Tree.
package parser

import (
	"github.com/chtl-lang/chtl/internal/catalogue"
	"github.com/chtl-lang/chtl/internal/chtl/ast"
	"github.com/chtl-lang/chtl/internal/chtl/token"
	"github.com/chtl-lang/chtl/internal/diag"
)

// Parser consumes a token slice and builds an ast.Tree. Like the
// teacher's HTML tree-construction parser, it keeps an explicit stack
// of open elements and synchronizes to the next statement boundary on
// a parse error rather than aborting, so one bad element doesn't hide
// every downstream diagnostic.
type Parser struct {
	toks []token.Token
	pos  int
	tree *ast.Tree
	rep  *diag.Reporter
	file string

	// oe is the stack of open Element NodeIds, innermost last — the
	// same shape as the teacher's nodeStack, minus insertion modes
	// (CHTL's grammar doesn't need HTML5's per-tag state machine).
	oe []ast.NodeId
}

// New builds a Parser over toks. rep receives syntax diagnostics.
func New(toks []token.Token, file string, rep *diag.Reporter) *Parser {
	return &Parser{toks: toks, tree: ast.NewTree(), rep: rep, file: file}
}

// Parse consumes the whole token stream and returns the resulting
// tree's root Program node.
func (p *Parser) Parse() (*ast.Tree, ast.NodeId) {
	var top []ast.NodeId
	for !p.atEOF() {
		top = append(top, p.collectComments()...)
		if p.atEOF() {
			break
		}
		id, ok := p.parseTopLevel()
		if ok {
			top = append(top, id)
		}
	}
	root := p.tree.Add(ast.KindProgram, ast.Node{Children: top})
	p.tree.Root = root
	return p.tree, root
}

func (p *Parser) atEOF() bool {
	return p.pos >= len(p.toks) || p.toks[p.pos].Kind == token.EOF
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	if p.pos+off >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos+off]
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) skipComments() {
	for !p.atEOF() && p.peek().Kind.IsComment() {
		p.advance()
	}
}

// collectComments consumes a run of comment tokens, discarding line and
// block comments but turning each generator comment (`--...`) into a
// Comment node so the generator can re-emit it as an HTML `<!-- ... -->`
// at the point it occurred (spec.md §4.C5).
func (p *Parser) collectComments() []ast.NodeId {
	var out []ast.NodeId
	for !p.atEOF() && p.peek().Kind.IsComment() {
		t := p.advance()
		if t.Kind == token.GeneratorComment {
			pos := ast.Position{Line: t.Pos.Line, Column: t.Pos.Column, Offset: t.Pos.Offset}
			out = append(out, p.tree.Add(ast.KindComment, ast.Node{Pos: pos, Text: t.Value}))
		}
	}
	return out
}

func (p *Parser) pos_() ast.Position {
	t := p.peek()
	return ast.Position{Line: t.Pos.Line, Column: t.Pos.Column, Offset: t.Pos.Offset}
}

func (p *Parser) errorf(format string, args ...any) {
	t := p.peek()
	if p.rep != nil {
		p.rep.Errorf(diag.Syntax, diag.Position{Line: t.Pos.Line, Column: t.Pos.Column, Offset: t.Pos.Offset, File: p.file}, format, args...)
	}
}

// syncToStatementBoundary advances past tokens until it has consumed a
// `;` or `}` at nesting depth 0, so one malformed construct doesn't cascade into
// spurious downstream errors.
func (p *Parser) syncToStatementBoundary() {
	depth := 0
	for !p.atEOF() {
		switch p.peek().Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.peek().Kind != k {
		p.errorf("expected %s, got %s %q", k, p.peek().Kind, p.peek().Value)
		return token.Token{}, false
	}
	return p.advance(), true
}

// parseTopLevel dispatches on the current token per the *top-level*
// production (spec.md §4.C2).
func (p *Parser) parseTopLevel() (ast.NodeId, bool) {
	t := p.peek()
	switch {
	case t.Kind == token.KwUse:
		return p.parseUse()
	case t.Kind == token.BlockImport:
		return p.parseImport()
	case t.Kind == token.BlockNamespace:
		return p.parseNamespace()
	case t.Kind == token.BlockConfiguration:
		return p.parseConfiguration()
	case t.Kind == token.BlockTemplate:
		return p.parseTemplateDef()
	case t.Kind == token.BlockCustom:
		return p.parseCustomDef()
	case t.Kind == token.BlockOrigin:
		return p.parseOriginDef()
	case t.Kind == token.KwExcept:
		return p.parseConstraint()
	case t.Kind == token.Identifier:
		return p.parseElement()
	default:
		p.errorf("unexpected token %s %q at top level", t.Kind, t.Value)
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
}

func (p *Parser) parseUse() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `use`
	target, ok := p.expect(token.KwHtml5)
	if !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
	p.expect(token.Semicolon)
	return p.tree.Add(ast.KindUse, ast.Node{Pos: pos, UseTarget: target.Value}), true
}

// parseElement parses *element* = tag-name `{` { attribute | child } `}`.
func (p *Parser) parseElement() (ast.NodeId, bool) {
	pos := p.pos_()
	tagTok := p.advance()
	tag := tagTok.Value

	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}

	id := p.tree.Add(ast.KindElement, ast.Node{Pos: pos, Tag: tag})
	p.oe = append(p.oe, id)

	seenKeys := map[string]bool{}
	var children []ast.NodeId
	var attrs []ast.Attr

	for !p.atEOF() && p.peek().Kind != token.RBrace {
		children = append(children, p.collectComments()...)
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		if p.looksLikeAttribute() {
			a, ok := p.parseAttribute()
			if ok {
				key := catalogue.Canon(a.Key)
				if seenKeys[key] {
					p.errorf("duplicate attribute %q on <%s>", a.Key, tag)
				}
				seenKeys[key] = true
				attrs = append(attrs, a)
			}
			continue
		}
		child, ok := p.parseChild()
		if ok {
			children = append(children, child)
		}
	}
	p.expect(token.RBrace)

	p.oe = p.oe[:len(p.oe)-1]

	if catalogue.IsVoid(tag) && len(children) > 0 {
		p.errorf("void element <%s> must not have children", tag)
		children = nil
	}

	n := p.tree.Node(id)
	n.Attrs = attrs
	n.Children = children
	return id, true
}

// looksLikeAttribute disambiguates `identifier (":"|"=") value ";"`
// from a nested element/block by lookahead — both start with an
// identifier-shaped token.
func (p *Parser) looksLikeAttribute() bool {
	t := p.peek()
	if t.Kind != token.Identifier {
		return false
	}
	next := p.peekAt(1)
	return next.Kind == token.Colon || next.Kind == token.Equals
}

// parseBareProperties parses a `{ KEY: value; ... }` block with no
// selectors — the body shape of a Template @Style/@Var definition.
func (p *Parser) parseBareProperties() []ast.Attr {
	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return nil
	}
	var props []ast.Attr
	for !p.atEOF() && p.peek().Kind != token.RBrace {
		p.skipComments()
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		if p.looksLikeAttribute() {
			a, ok := p.parseAttribute()
			if ok {
				props = append(props, a)
			}
			continue
		}
		p.errorf("unexpected token %s in property block", p.peek().Kind)
		p.syncToStatementBoundary()
	}
	p.expect(token.RBrace)
	return props
}

func (p *Parser) parseAttribute() (ast.Attr, bool) {
	keyTok := p.advance()
	p.advance() // `:` or `=`, already confirmed by looksLikeAttribute
	valTok := p.advance()
	quoted := valTok.Kind == token.StringLiteral
	p.expect(token.Semicolon)
	return ast.Attr{Key: keyTok.Value, Value: valTok.Value, Quoted: quoted, Pos: ast.Position{Line: keyTok.Pos.Line, Column: keyTok.Pos.Column, Offset: keyTok.Pos.Offset}}, true
}

// parseChild dispatches on the current token per the *child*
// production: element | text-block | style-block | script-block |
// custom-invoke | template-invoke | origin-invoke.
func (p *Parser) parseChild() (ast.NodeId, bool) {
	t := p.peek()
	switch {
	case t.Kind == token.KwText:
		return p.parseTextBlock()
	case t.Kind == token.KwStyle:
		return p.parseStyleBlock()
	case t.Kind == token.KwScript:
		return p.parseScriptBlock()
	case t.Kind.IsTypeSigil():
		return p.parseInvoke()
	case t.Kind == token.BlockOrigin:
		return p.parseOriginDef()
	case t.Kind == token.KwExcept:
		return p.parseConstraint()
	case t.Kind == token.Identifier:
		return p.parseElement()
	default:
		p.errorf("unexpected token %s %q inside element body", t.Kind, t.Value)
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
}

// parseTextBlock parses `text { "literal" | unquoted }`.
func (p *Parser) parseTextBlock() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `text`
	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
	var sb []byte
	quoted := false
	for !p.atEOF() && p.peek().Kind != token.RBrace {
		t := p.advance()
		if t.Kind == token.StringLiteral {
			quoted = true
		}
		if len(sb) > 0 {
			sb = append(sb, ' ')
		}
		sb = append(sb, t.Value...)
	}
	p.expect(token.RBrace)
	return p.tree.Add(ast.KindText, ast.Node{Pos: pos, Text: string(sb), TextQuoted: quoted}), true
}

// parseStyleBlock parses a `style { ... }` block: either a bare
// property map (inline, no selector) or a set of nested rules with
// class/id/element/contextual selectors.
func (p *Parser) parseStyleBlock() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `style`
	return p.parseStyleBody(pos, ast.SelectorInline, "")
}

func (p *Parser) parseStyleBody(pos ast.Position, kind ast.SelectorKind, selName string) (ast.NodeId, bool) {
	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}

	var props []ast.Attr
	var invokes []string
	var nested []ast.NodeId

	for !p.atEOF() && p.peek().Kind != token.RBrace {
		p.skipComments()
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		if sk, name, ok := p.trySelectorPrefix(); ok {
			// Nested rules hoist to the global CSS buffer at generation
			// time (spec.md §4.C5 "Style extraction"); the parser keeps
			// them as StyleBlock children of the enclosing block.
			nestedId, ok2 := p.parseStyleBody(p.pos_(), sk, name)
			if ok2 {
				nested = append(nested, nestedId)
			}
			continue
		}
		if p.peek().Kind.IsTypeSigil() && p.peek().Kind == token.SigilStyle {
			p.advance()
			nameTok, ok := p.expect(token.Identifier)
			p.expect(token.Semicolon)
			if ok {
				invokes = append(invokes, nameTok.Value)
			}
			continue
		}
		if p.looksLikeAttribute() {
			a, ok := p.parseAttribute()
			if ok {
				props = append(props, a)
			}
			continue
		}
		p.errorf("unexpected token %s %q inside style block", p.peek().Kind, p.peek().Value)
		p.syncToStatementBoundary()
	}
	p.expect(token.RBrace)

	return p.tree.Add(ast.KindStyleBlock, ast.Node{
		Pos: pos, Selector: kind, SelectorName: selName,
		Properties: props, StyleInvokes: invokes, Children: nested,
	}), true
}

// trySelectorPrefix recognizes `.name {`, `#name {`, `tag {` or `& {`
// as the start of a nested rule, composing the Dot/Hash punctuation
// with the following identifier — this is the parser-side selector
// composition the lexer defers (internal/chtl/lexer).
func (p *Parser) trySelectorPrefix() (ast.SelectorKind, string, bool) {
	switch p.peek().Kind {
	case token.Dot:
		if p.peekAt(1).Kind == token.Identifier && p.peekAt(2).Kind == token.LBrace {
			p.advance()
			name := p.advance().Value
			return ast.SelectorClass, name, true
		}
	case token.Hash:
		if p.peekAt(1).Kind == token.Identifier && p.peekAt(2).Kind == token.LBrace {
			p.advance()
			name := p.advance().Value
			return ast.SelectorID, name, true
		}
	case token.Ampersand:
		if p.peekAt(1).Kind == token.LBrace {
			p.advance()
			return ast.SelectorContextual, "", true
		}
	case token.Identifier:
		if p.peekAt(1).Kind == token.LBrace && catalogue.IsKnownTag(p.peek().Value) {
			name := p.advance().Value
			return ast.SelectorElement, name, true
		}
	}
	return ast.SelectorInline, "", false
}

// parseScriptBlock captures `script { ... }` as raw CHTL-JS source,
// handed off whole to the chtljs lexer/parser (spec.md §4.C5 "Script
// extraction").
func (p *Parser) parseScriptBlock() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `script`
	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
	start := p.pos
	depth := 1
	for !p.atEOF() && depth > 0 {
		switch p.peek().Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
			if depth == 0 {
				break
			}
		}
		if depth == 0 {
			break
		}
		p.advance()
	}
	end := p.pos
	p.expect(token.RBrace)

	var sb []byte
	for i := start; i < end; i++ {
		if i > start {
			sb = append(sb, ' ')
		}
		sb = append(sb, p.toks[i].Value...)
	}
	return p.tree.Add(ast.KindScriptBlock, ast.Node{Pos: pos, Script: string(sb)}), true
}

// parseInvoke parses `custom-invoke` = `@Element` name `;` (or with a
// block for inline specialization). @Style and @Var invocations inside
// an element body follow the same shape.
func (p *Parser) parseInvoke() (ast.NodeId, bool) {
	pos := p.pos_()
	sigil := p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}

	var ops []ast.SpecOp
	if p.peek().Kind == token.LBrace {
		ops = p.parseSpecOps()
	} else {
		p.expect(token.Semicolon)
	}

	def := ast.DefElement
	switch sigil.Kind {
	case token.SigilStyle:
		def = ast.DefStyle
	case token.SigilVar:
		def = ast.DefVar
	}

	return p.tree.Add(ast.KindCustom, ast.Node{
		Pos: pos, DefKind: def, Name: nameTok.Value, SpecOps: ops,
	}), true
}

// parseSpecOps parses the specialization-operation block on an inline
// custom-invoke (spec.md §4.C3 resolution step 3).
func (p *Parser) parseSpecOps() []ast.SpecOp {
	p.expect(token.LBrace)
	var ops []ast.SpecOp
	for !p.atEOF() && p.peek().Kind != token.RBrace {
		p.skipComments()
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		pos := p.pos_()
		switch p.peek().Kind {
		case token.KwDelete:
			p.advance()
			nameTok := p.advance()
			p.expect(token.Semicolon)
			ops = append(ops, ast.SpecOp{Kind: ast.SpecDelete, Target: nameTok.Value, Pos: pos})
		case token.KwReplace:
			p.advance()
			nameTok := p.advance()
			body := p.parseSpecBody()
			ops = append(ops, ast.SpecOp{Kind: ast.SpecReplace, Target: nameTok.Value, Body: body, Pos: pos})
		case token.KwInsert:
			p.advance()
			kind := ast.SpecInsertAfter
			if p.peek().Kind == token.KwBefore {
				kind = ast.SpecInsertBefore
				p.advance()
			} else if p.peek().Kind == token.KwAfter {
				p.advance()
			}
			nameTok := p.advance()
			body := p.parseSpecBody()
			ops = append(ops, ast.SpecOp{Kind: kind, Target: nameTok.Value, Body: body, Pos: pos})
		case token.KwAt:
			p.advance()
			kind := ast.SpecAtTop
			if p.peek().Kind == token.KwBottom {
				kind = ast.SpecAtBottom
			}
			p.advance() // `top`/`bottom`
			body := p.parseSpecBody()
			ops = append(ops, ast.SpecOp{Kind: kind, Body: body, Pos: pos})
		case token.Identifier:
			if p.looksLikeAttribute() {
				a, ok := p.parseAttribute()
				if ok {
					id := p.tree.Add(ast.KindText, ast.Node{Pos: pos, Text: a.Value, TextQuoted: a.Quoted})
					ops = append(ops, ast.SpecOp{Kind: ast.SpecOverride, Target: a.Key, Body: []ast.NodeId{id}, Pos: pos})
				}
				continue
			}
			p.errorf("unexpected token %q in specialization body", p.peek().Value)
			p.syncToStatementBoundary()
		default:
			p.errorf("unexpected token %s in specialization body", p.peek().Kind)
			p.syncToStatementBoundary()
		}
	}
	p.expect(token.RBrace)
	return ops
}

func (p *Parser) parseSpecBody() []ast.NodeId {
	if p.peek().Kind != token.LBrace {
		p.expect(token.Semicolon)
		return nil
	}
	p.advance()
	var body []ast.NodeId
	for !p.atEOF() && p.peek().Kind != token.RBrace {
		p.skipComments()
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		child, ok := p.parseChild()
		if ok {
			body = append(body, child)
		}
	}
	p.expect(token.RBrace)
	return body
}

// parseTemplateDef and parseCustomDef share the common `[Template]`/
// `[Custom]` @Kind NAME [inherit X] { body } shape.
func (p *Parser) parseTemplateDef() (ast.NodeId, bool) {
	return p.parseDefBlock(ast.KindTemplate)
}

func (p *Parser) parseCustomDef() (ast.NodeId, bool) {
	return p.parseDefBlock(ast.KindCustom)
}

func (p *Parser) parseDefBlock(kind ast.Kind) (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `[Template]`/`[Custom]`
	sigil := p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}

	inherits := ""
	if p.peek().Kind == token.KwInherit {
		p.advance()
		inherits = p.advance().Value
	}

	var ops []ast.SpecOp
	if p.peek().Kind != token.LBrace {
		p.errorf("expected %s, got %s", token.LBrace, p.peek().Kind)
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
	def := ast.DefElement
	switch sigil.Kind {
	case token.SigilStyle:
		def = ast.DefStyle
	case token.SigilVar:
		def = ast.DefVar
	}

	if kind == ast.KindCustom {
		ops = p.parseSpecOps()
	} else if def == ast.DefElement {
		body := p.parseSpecBody()
		return p.tree.Add(ast.KindTemplate, ast.Node{
			Pos: pos, DefKind: def, Name: nameTok.Value, Inherits: inherits, Body: body,
		}), true
	} else {
		props := p.parseBareProperties()
		return p.tree.Add(ast.KindTemplate, ast.Node{
			Pos: pos, DefKind: def, Name: nameTok.Value, Inherits: inherits, Properties: props,
		}), true
	}

	return p.tree.Add(ast.KindCustom, ast.Node{
		Pos: pos, DefKind: def, Name: nameTok.Value, Inherits: inherits, SpecOps: ops,
	}), true
}

// parseOriginDef parses `[Origin] @Lang [NAME] { raw content }`.
func (p *Parser) parseOriginDef() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `[Origin]`
	sigil := p.advance()
	lang := ast.OriginCustom
	switch sigil.Kind {
	case token.SigilHtml:
		lang = ast.OriginHTML
	case token.SigilStyle:
		lang = ast.OriginStyle
	case token.SigilJavaScript:
		lang = ast.OriginJavaScript
	}

	alias := ""
	if p.peek().Kind == token.Identifier {
		alias = p.advance().Value
	}

	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
	start := p.pos
	depth := 1
	for !p.atEOF() && depth > 0 {
		switch p.peek().Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
			if depth == 0 {
				break
			}
		}
		if depth == 0 {
			break
		}
		p.advance()
	}
	end := p.pos
	p.expect(token.RBrace)

	var sb []byte
	for i := start; i < end; i++ {
		if i > start {
			sb = append(sb, ' ')
		}
		sb = append(sb, p.toks[i].Value...)
	}

	return p.tree.Add(ast.KindOrigin, ast.Node{Pos: pos, OriginLang: lang, Alias: alias, Raw: string(sb)}), true
}

// parseImport parses `[Import] @Kind target [as ALIAS];`.
func (p *Parser) parseImport() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `[Import]`
	sigil := p.advance()

	kind := ast.ImportChtl
	switch sigil.Kind {
	case token.SigilHtml:
		kind = ast.ImportHTML
	case token.SigilStyle:
		kind = ast.ImportStyle
	case token.SigilJavaScript:
		kind = ast.ImportJavaScript
	case token.SigilCJmod:
		kind = ast.ImportCJmod
	case token.SigilConfig:
		kind = ast.ImportConfig
	case token.BlockTemplate:
		kind = ast.ImportTemplate
	case token.BlockCustom:
		kind = ast.ImportCustom
	case token.BlockOrigin:
		kind = ast.ImportOrigin
	}

	target := ""
	if kind == ast.ImportTemplate || kind == ast.ImportCustom || kind == ast.ImportOrigin {
		target = p.advance().Value // inner @Kind spelling, e.g. @Style Name
		if p.peek().Kind == token.Identifier {
			target = p.advance().Value
		}
	}

	pathTok := p.advance()
	source := pathTok.Value

	alias := ""
	if p.peek().Kind == token.KwFrom {
		p.advance()
		source = p.advance().Value
	}
	if p.peek().Kind == token.KwAs {
		p.advance()
		alias = p.advance().Value
	}
	p.expect(token.Semicolon)

	return p.tree.Add(ast.KindImport, ast.Node{
		Pos: pos, ImportKind: kind, ImportTarget: target, SourcePath: source, ImportAlias: alias,
	}), true
}

// parseNamespace parses `[Namespace] dotted.path { top-level* }`.
func (p *Parser) parseNamespace() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `[Namespace]`
	path := p.parseDottedPath()
	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
	var body []ast.NodeId
	for !p.atEOF() && p.peek().Kind != token.RBrace {
		body = append(body, p.collectComments()...)
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		id, ok := p.parseTopLevel()
		if ok {
			body = append(body, id)
		}
	}
	p.expect(token.RBrace)
	return p.tree.Add(ast.KindNamespace, ast.Node{Pos: pos, DottedPath: path, Body: body}), true
}

// parseDottedPath consumes `ident (. ident)*`, the `Mod.Sub` submodule
// path shape (spec.md §4.C4 "Official prefix").
func (p *Parser) parseDottedPath() string {
	path := p.advance().Value
	for p.peek().Kind == token.Dot && p.peekAt(1).Kind == token.Identifier {
		p.advance()
		path += "." + p.advance().Value
	}
	return path
}

// parseConfiguration parses `[Configuration] { key = value; ... }`.
func (p *Parser) parseConfiguration() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `[Configuration]`
	if _, ok := p.expect(token.LBrace); !ok {
		p.syncToStatementBoundary()
		return ast.NoNode, false
	}
	opts := map[string]string{}
	for !p.atEOF() && p.peek().Kind != token.RBrace {
		p.skipComments()
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		if p.looksLikeAttribute() {
			a, ok := p.parseAttribute()
			if ok {
				opts[a.Key] = a.Value
			}
			continue
		}
		p.errorf("unexpected token %s in configuration block", p.peek().Kind)
		p.syncToStatementBoundary()
	}
	p.expect(token.RBrace)
	return p.tree.Add(ast.KindConfiguration, ast.Node{Pos: pos, Options: opts}), true
}

// parseConstraint parses `except name {, name} ;`.
func (p *Parser) parseConstraint() (ast.NodeId, bool) {
	pos := p.pos_()
	p.advance() // `except`
	var names []string
	for {
		t := p.advance()
		names = append(names, t.Value)
		if p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.Semicolon)

	var tags, types []string
	for _, n := range names {
		if catalogue.IsKnownTag(n) {
			tags = append(tags, n)
		} else {
			types = append(types, n)
		}
	}
	return p.tree.Add(ast.KindConstraint, ast.Node{
		Pos: pos, ProhibitedTags: tags, ProhibitedTypes: types, ConstraintScoped: len(p.oe) > 0,
	}), true
}
