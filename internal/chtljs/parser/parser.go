// Package parser implements the CHTL-JS parser (spec.md §4.J2): a
// JS-like primary/member/call expression grammar, plus the enhanced
// selector, listen, delegate, animate and vir constructs layered on
// top of it.
//
// Ordinary JavaScript declarations and control flow (var/let/const,
// if/for/while, function declarations) are not parsed into a full JS
// AST — that is out of scope for a source-to-source sugar layer whose
// only job is to rewrite CHTL-JS constructs and otherwise leave JS
// untouched. Such statements are captured as balanced-brace/paren raw
// text (the same span-capture idiom internal/chtl/parser uses for
// script and origin blocks) and re-emitted verbatim by the generator.
// An identifier-led expression or call statement (`box.show();`,
// `console.log(x)`) is parsed structurally instead, so a `vir` member
// access reachable through ordinary-looking code still resolves.
package parser

import (
	"strconv"

	"github.com/chtl-lang/chtl/internal/chtljs/ast"
	"github.com/chtl-lang/chtl/internal/chtljs/token"
	"github.com/chtl-lang/chtl/internal/diag"
)

// Parser consumes a token slice and builds an ast.Tree.
type Parser struct {
	toks []token.Token
	pos  int
	tree *ast.Tree
	rep  *diag.Reporter
	file string
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
		p.skipComments()
		if p.atEOF() {
			break
		}
		id := p.parseStatement()
		if id != ast.NoNode {
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

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.peek().Kind != k {
		p.errorf("expected %s, got %s %q", k, p.peek().Kind, p.peek().Value)
		return token.Token{}, false
	}
	return p.advance(), true
}

func (p *Parser) joinRange(start, end int) string {
	var sb []byte
	for i := start; i < end; i++ {
		if i > start {
			sb = append(sb, ' ')
		}
		sb = append(sb, p.toks[i].Value...)
	}
	return string(sb)
}

// jsStatementKeywords are bare words that start a plain JS statement
// form (declarations, control flow) rather than an expression — these
// stay on the raw-passthrough path since the sugar grammar has no use
// for their contents.
var jsStatementKeywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true,
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "default": true, "break": true,
	"continue": true, "return": true, "throw": true, "try": true,
	"catch": true, "finally": true, "class": true, "new": true,
	"delete": true, "typeof": true, "instanceof": true, "yield": true,
	"async": true, "await": true, "export": true, "import": true,
}

// parseStatement dispatches on whether the current token can start
// one of the recognized sugar constructs; everything else falls back
// to raw passthrough.
//
// An identifier-led statement gets one more chance first: it may be a
// member/call chain reaching a `vir` binding (e.g. `box.show();`) or
// an enhanced selector already assigned to a variable, and those need
// to reach the expression tree for member resolution to apply. Plain
// JS statement forms (var/if/function/...) are never misread this way
// since they lex as the same Identifier token but are excluded by
// jsStatementKeywords.
func (p *Parser) parseStatement() ast.NodeId {
	switch p.peek().Kind {
	case token.KwVir:
		return p.parseVirDecl()
	case token.EnhancedSelector, token.KwAnimate:
		id := p.parseExpressionOrAssign()
		if p.peek().Kind == token.Semicolon {
			p.advance()
		}
		return id
	case token.Identifier:
		if !jsStatementKeywords[p.peek().Value] {
			if id, ok := p.tryParseExpressionStatement(); ok {
				return id
			}
		}
		return p.parseRawStatement()
	default:
		return p.parseRawStatement()
	}
}

// parseExpressionOrAssign parses `lhs = rhs`, right-associatively, or
// falls through to a bare expression when no `=` follows. Assignment
// is the one binary form the sugar grammar models, since a selector or
// vir member can appear on either side (e.g. `{{.box}}.style.x = y`).
func (p *Parser) parseExpressionOrAssign() ast.NodeId {
	pos := p.pos_()
	lhs := p.parseExpression()
	if p.peek().Kind != token.Equals {
		return lhs
	}
	p.advance()
	rhs := p.parseExpressionOrAssign()
	return p.tree.Add(ast.KindAssign, ast.Node{Pos: pos, Left: lhs, Right: rhs})
}

// tryParseExpressionStatement parses an expression and reports success
// only if it is immediately followed by a statement terminator — so a
// malformed or unsupported construct falls back to raw passthrough
// instead of corrupting the token stream.
func (p *Parser) tryParseExpressionStatement() (ast.NodeId, bool) {
	save := p.pos
	id := p.parseExpressionOrAssign()
	switch p.peek().Kind {
	case token.Semicolon:
		p.advance()
		return id, true
	case token.EOF, token.RBrace:
		return id, true
	default:
		p.pos = save
		return ast.NoNode, false
	}
}

// parseRawStatement captures tokens up to the next top-level `;` or
// the close of a top-level `{ ... }` block, whichever comes first.
func (p *Parser) parseRawStatement() ast.NodeId {
	pos := p.pos_()
	start := p.pos
	depth := 0
	for !p.atEOF() {
		switch p.peek().Kind {
		case token.LBrace, token.LBracket, token.LParen:
			depth++
			p.advance()
		case token.RBrace, token.RBracket, token.RParen:
			if depth == 0 {
				goto done
			}
			closedBrace := p.peek().Kind == token.RBrace
			depth--
			p.advance()
			if depth == 0 && closedBrace {
				goto done
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				goto done
			}
			p.advance()
		default:
			p.advance()
		}
	}
done:
	return p.tree.Add(ast.KindRaw, ast.Node{Pos: pos, Raw: p.joinRange(start, p.pos)})
}

// parseExpression parses a primary expression followed by any chain
// of member/call/arrow-sugar postfixes.
func (p *Parser) parseExpression() ast.NodeId {
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePrimary() ast.NodeId {
	pos := p.pos_()
	t := p.peek()
	switch t.Kind {
	case token.EnhancedSelector:
		p.advance()
		hasIndex := false
		index := 0
		if p.peek().Kind == token.LBracket && p.peekAt(1).Kind == token.Number && p.peekAt(2).Kind == token.RBracket {
			p.advance()
			idxTok := p.advance()
			p.advance()
			hasIndex = true
			index, _ = strconv.Atoi(idxTok.Value)
		}
		return p.tree.Add(ast.KindSelector, ast.Node{Pos: pos, SelectorText: t.Value, HasIndex: hasIndex, Index: index})
	case token.KwAnimate:
		return p.parseAnimateCall()
	case token.StringLiteral:
		p.advance()
		return p.tree.Add(ast.KindLiteral, ast.Node{Pos: pos, LitKind: ast.LiteralString, Value: t.Value})
	case token.Number:
		p.advance()
		return p.tree.Add(ast.KindLiteral, ast.Node{Pos: pos, LitKind: ast.LiteralNumber, Value: t.Value})
	case token.UnquotedLiteral:
		p.advance()
		return p.tree.Add(ast.KindLiteral, ast.Node{Pos: pos, LitKind: ast.LiteralUnquoted, Value: t.Value})
	case token.LBrace:
		return p.parseObjectLiteral()
	case token.LBracket:
		return p.parseArrayLiteral()
	case token.Dot, token.Hash:
		// A bare `.name`/`#name` in primary position is unambiguous — a
		// valid JS expression never starts with a leading `.`, so this
		// can only be the shorthand selector form used e.g. as a
		// delegate `target` (spec.md §4.J2 S5: `target: .a`). Ordinary
		// member access (`a.b`) is a postfix and never reaches here.
		if p.peekAt(1).Kind == token.Identifier {
			prefix := "."
			if t.Kind == token.Hash {
				prefix = "#"
			}
			p.advance()
			name := p.advance().Value
			return p.tree.Add(ast.KindSelector, ast.Node{Pos: pos, SelectorText: prefix + name})
		}
		p.errorf("unexpected token %s in expression", t.Kind)
		p.advance()
		return p.tree.Add(ast.KindRaw, ast.Node{Pos: pos, Raw: t.Value})
	case token.LParen:
		p.advance()
		inner := p.parseExpression()
		p.expect(token.RParen)
		return inner
	case token.Identifier:
		if t.Value == "function" && p.peekAt(1).Kind == token.LParen {
			return p.parseFunctionLiteral()
		}
		p.advance()
		return p.tree.Add(ast.KindIdentifier, ast.Node{Pos: pos, Name: t.Value})
	default:
		p.errorf("unexpected token %s %q in expression", t.Kind, t.Value)
		p.advance()
		return p.tree.Add(ast.KindRaw, ast.Node{Pos: pos, Raw: t.Value})
	}
}

func (p *Parser) parsePostfix(expr ast.NodeId) ast.NodeId {
	for {
		switch p.peek().Kind {
		case token.Dot:
			if p.peekAt(1).Kind != token.Identifier {
				return expr
			}
			pos := p.pos_()
			p.advance()
			prop := p.advance().Value
			expr = p.tree.Add(ast.KindMember, ast.Node{Pos: pos, Object: expr, Property: prop})
		case token.LParen:
			pos := p.pos_()
			args := p.parseArgs()
			expr = p.tree.Add(ast.KindCall, ast.Node{Pos: pos, Callee: expr, Args: args})
		case token.Arrow:
			p.advance()
			switch p.peek().Kind {
			case token.KwListen:
				expr = p.parseListen(expr)
			case token.KwDelegate:
				expr = p.parseDelegate(expr)
			default:
				p.errorf("expected %s or %s after ->, got %s", token.KwListen, token.KwDelegate, p.peek().Kind)
				return expr
			}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() []ast.NodeId {
	p.expect(token.LParen)
	var args []ast.NodeId
	for !p.atEOF() && p.peek().Kind != token.RParen {
		args = append(args, p.parseExpression())
		if p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	return args
}

// parseObjectLiteral parses `{ key: value, ... }`. Keys are any bare
// word (including sugar keywords used as plain field names, e.g.
// `loop`, `delay`).
func (p *Parser) parseObjectLiteral() ast.NodeId {
	pos := p.pos_()
	p.expect(token.LBrace)
	var props []ast.Property
	for !p.atEOF() && p.peek().Kind != token.RBrace {
		p.skipComments()
		if p.atEOF() || p.peek().Kind == token.RBrace {
			break
		}
		keyPos := p.pos_()
		keyTok := p.advance()
		p.expect(token.Colon)
		val := p.parseExpression()
		props = append(props, ast.Property{Key: keyTok.Value, Value: val, Pos: keyPos})
		if p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
	}
	p.expect(token.RBrace)
	return p.tree.Add(ast.KindObjectLiteral, ast.Node{Pos: pos, Props: props})
}

func (p *Parser) parseArrayLiteral() ast.NodeId {
	pos := p.pos_()
	p.expect(token.LBracket)
	var elems []ast.NodeId
	for !p.atEOF() && p.peek().Kind != token.RBracket {
		elems = append(elems, p.parseExpression())
		if p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBracket)
	return p.tree.Add(ast.KindArrayLiteral, ast.Node{Pos: pos, Elements: elems})
}

func (p *Parser) parseFunctionLiteral() ast.NodeId {
	pos := p.pos_()
	p.advance() // `function`
	p.expect(token.LParen)
	var params []string
	for !p.atEOF() && p.peek().Kind != token.RParen {
		if p.peek().Kind == token.Identifier {
			params = append(params, p.advance().Value)
		}
		if p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	p.expect(token.LBrace)
	start := p.pos
	depth := 1
	for !p.atEOF() && depth > 0 {
		switch p.peek().Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
			if depth == 0 {
				goto closed
			}
		}
		p.advance()
	}
closed:
	end := p.pos
	p.expect(token.RBrace)
	return p.tree.Add(ast.KindFunctionLiteral, ast.Node{Pos: pos, Params: params, Body: p.joinRange(start, end)})
}

// parseListen parses the `listen { event: handler, ... }` tail of
// `target -> listen { ... }`; the `listen` keyword has already been
// peeked but not consumed.
func (p *Parser) parseListen(target ast.NodeId) ast.NodeId {
	pos := p.pos_()
	p.advance() // `listen`
	obj := p.parseObjectLiteral()
	if p.peek().Kind == token.Semicolon {
		p.advance()
	}
	return p.tree.Add(ast.KindListen, ast.Node{Pos: pos, Target: target, Handlers: handlersFromObject(p.tree, obj)})
}

// parseDelegate parses the `delegate { target: ..., event: handler, ... }`
// tail of `parent -> delegate { ... }`.
func (p *Parser) parseDelegate(target ast.NodeId) ast.NodeId {
	pos := p.pos_()
	p.advance() // `delegate`
	obj := p.parseObjectLiteral()
	n := p.tree.Node(obj)

	var targets []ast.NodeId
	var handlers []ast.EventHandler
	for _, pr := range n.Props {
		if pr.Key == "target" {
			if p.tree.Kind(pr.Value) == ast.KindArrayLiteral {
				targets = append(targets, p.tree.Node(pr.Value).Elements...)
			} else {
				targets = append(targets, pr.Value)
			}
			continue
		}
		handlers = append(handlers, ast.EventHandler{Event: pr.Key, Handler: pr.Value})
	}
	if p.peek().Kind == token.Semicolon {
		p.advance()
	}
	return p.tree.Add(ast.KindDelegate, ast.Node{Pos: pos, Target: target, Targets: targets, Handlers: handlers})
}

func handlersFromObject(tree *ast.Tree, objId ast.NodeId) []ast.EventHandler {
	n := tree.Node(objId)
	var hs []ast.EventHandler
	for _, pr := range n.Props {
		hs = append(hs, ast.EventHandler{Event: pr.Key, Handler: pr.Value})
	}
	return hs
}

// parseAnimateCall parses `animate( { ... } )`, interpreting the
// object literal's fields into the structured Animate shape (spec.md
// §4.J2).
func (p *Parser) parseAnimateCall() ast.NodeId {
	pos := p.pos_()
	p.advance() // `animate`
	p.expect(token.LParen)
	obj := p.parseObjectLiteral()
	p.expect(token.RParen)
	if p.peek().Kind == token.Semicolon {
		p.advance()
	}
	return animateFromObject(p.tree, pos, obj)
}

func animateFromObject(tree *ast.Tree, pos ast.Position, objId ast.NodeId) ast.NodeId {
	n := tree.Node(objId)
	a := ast.Node{Pos: pos, Loop: 1, Direction: "normal"}
	for _, pr := range n.Props {
		switch pr.Key {
		case "target":
			if tree.Kind(pr.Value) == ast.KindArrayLiteral {
				a.Targets = tree.Node(pr.Value).Elements
			} else {
				a.Target = pr.Value
			}
		case "duration":
			a.Duration = intLiteral(tree, pr.Value)
		case "easing":
			a.Easing = stringLiteral(tree, pr.Value)
		case "begin":
			a.Begin = objectProps(tree, pr.Value)
		case "end":
			a.End = objectProps(tree, pr.Value)
		case "when":
			a.When = keyframesFromArray(tree, pr.Value)
		case "loop":
			a.Loop = loopCount(tree, pr.Value)
		case "direction":
			a.Direction = stringLiteral(tree, pr.Value)
		case "delay":
			a.Delay = intLiteral(tree, pr.Value)
		case "callback":
			a.Callback = pr.Value
		}
	}
	return tree.Add(ast.KindAnimate, a)
}

func stringLiteral(tree *ast.Tree, id ast.NodeId) string {
	if tree.Kind(id) == ast.KindLiteral {
		return tree.Node(id).Value
	}
	if tree.Kind(id) == ast.KindIdentifier {
		return tree.Node(id).Name
	}
	return ""
}

func intLiteral(tree *ast.Tree, id ast.NodeId) int {
	if tree.Kind(id) == ast.KindLiteral {
		v, _ := strconv.Atoi(tree.Node(id).Value)
		return v
	}
	return 0
}

func floatLiteral(tree *ast.Tree, id ast.NodeId) float64 {
	if tree.Kind(id) == ast.KindLiteral {
		v, _ := strconv.ParseFloat(tree.Node(id).Value, 64)
		return v
	}
	return 0
}

// loopCount interprets `loop: N` as N repetitions and the bare word
// `infinite` (lexed as an Identifier, since it is not a keyword) as
// unbounded looping, represented as -1.
func loopCount(tree *ast.Tree, id ast.NodeId) int {
	if tree.Kind(id) == ast.KindIdentifier && tree.Node(id).Name == "infinite" {
		return -1
	}
	return intLiteral(tree, id)
}

func objectProps(tree *ast.Tree, id ast.NodeId) []ast.Property {
	if tree.Kind(id) == ast.KindObjectLiteral {
		return tree.Node(id).Props
	}
	return nil
}

func keyframesFromArray(tree *ast.Tree, id ast.NodeId) []ast.Keyframe {
	if tree.Kind(id) != ast.KindArrayLiteral {
		return nil
	}
	var kfs []ast.Keyframe
	for _, el := range tree.Node(id).Elements {
		switch tree.Kind(el) {
		case ast.KindArrayLiteral:
			pair := tree.Node(el).Elements
			if len(pair) == 2 {
				kfs = append(kfs, ast.Keyframe{At: floatLiteral(tree, pair[0]), Props: objectProps(tree, pair[1])})
			}
		case ast.KindObjectLiteral:
			var at float64
			var props []ast.Property
			for _, pr := range tree.Node(el).Props {
				switch pr.Key {
				case "at":
					at = floatLiteral(tree, pr.Value)
				case "props":
					props = objectProps(tree, pr.Value)
				}
			}
			kfs = append(kfs, ast.Keyframe{At: at, Props: props})
		}
	}
	return kfs
}

// parseVirDecl parses `vir NAME = CALL( OBJECT )`.
func (p *Parser) parseVirDecl() ast.NodeId {
	pos := p.pos_()
	p.advance() // `vir`
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return p.parseRawStatement()
	}
	p.expect(token.Equals)
	calleeTok, ok := p.expect(token.Identifier)
	if !ok {
		return p.parseRawStatement()
	}
	p.expect(token.LParen)
	argObj := p.parseObjectLiteral()
	p.expect(token.RParen)
	if p.peek().Kind == token.Semicolon {
		p.advance()
	}
	return p.tree.Add(ast.KindVirDecl, ast.Node{
		Pos: pos, Name: nameTok.Value, FuncName: calleeTok.Value, Args: []ast.NodeId{argObj},
	})
}
