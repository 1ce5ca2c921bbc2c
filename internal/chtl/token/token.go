// Package token defines the CHTL lexer's token kinds (spec.md §4.C1).
package token

// Kind is a CHTL token kind. Ranges mirror the original implementation's
// contiguous-enum grouping (original_source/CHTL/CHTL/CHTLLexer/CHTLToken.cpp)
// but are exposed as named constants plus Is*() predicates rather than
// an inheritable range, per spec.md §9.
type Kind int

const (
	Invalid Kind = iota
	EOF

	Identifier
	StringLiteral
	UnquotedLiteral
	Number

	// Punctuation
	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen
	Semicolon
	Colon
	Equals
	Comma
	Dot
	Hash
	Ampersand

	// Comments
	LineComment
	BlockComment
	GeneratorComment // `--...`, preserved verbatim into HTML as <!-- -->

	// Block openers: `[Name]`
	BlockTemplate
	BlockCustom
	BlockOrigin
	BlockImport
	BlockNamespace
	BlockConfiguration

	// Type sigils: `@Name`
	SigilStyle
	SigilElement
	SigilVar
	SigilHtml
	SigilJavaScript
	SigilChtl
	SigilCJmod
	SigilConfig

	// Keywords
	KwText
	KwStyle
	KwScript
	KwInherit
	KwDelete
	KwInsert
	KwAfter
	KwBefore
	KwReplace
	KwAt
	KwTop
	KwBottom
	KwFrom
	KwAs
	KwExcept
	KwUse
	KwHtml5
)

var names = map[Kind]string{
	Invalid: "INVALID", EOF: "EOF",
	Identifier: "IDENTIFIER", StringLiteral: "STRING_LITERAL",
	UnquotedLiteral: "UNQUOTED_LITERAL", Number: "NUMBER",
	LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	LParen: "(", RParen: ")", Semicolon: ";", Colon: ":",
	Equals: "=", Comma: ",", Dot: ".", Hash: "#", Ampersand: "&",
	LineComment: "LINE_COMMENT", BlockComment: "BLOCK_COMMENT",
	GeneratorComment:   "GENERATOR_COMMENT",
	BlockTemplate:      "[Template]",
	BlockCustom:        "[Custom]",
	BlockOrigin:        "[Origin]",
	BlockImport:        "[Import]",
	BlockNamespace:     "[Namespace]",
	BlockConfiguration: "[Configuration]",
	SigilStyle:         "@Style", SigilElement: "@Element", SigilVar: "@Var",
	SigilHtml: "@Html", SigilJavaScript: "@JavaScript", SigilChtl: "@Chtl",
	SigilCJmod: "@CJmod", SigilConfig: "@Config",
	KwText: "text", KwStyle: "style", KwScript: "script", KwInherit: "inherit",
	KwDelete: "delete", KwInsert: "insert", KwAfter: "after", KwBefore: "before",
	KwReplace: "replace", KwAt: "at", KwTop: "top", KwBottom: "bottom",
	KwFrom: "from", KwAs: "as", KwExcept: "except", KwUse: "use", KwHtml5: "html5",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// keywords maps the bare-word spelling to its Kind. Note "at"/"top"/
// "bottom" are three separate keyword tokens, not one — the parser
// recombines `at top`/`at bottom` from the token stream (spec.md §4.C2,
// supplement 2 in SPEC_FULL.md).
var keywords = map[string]Kind{
	"text": KwText, "style": KwStyle, "script": KwScript, "inherit": KwInherit,
	"delete": KwDelete, "insert": KwInsert, "after": KwAfter, "before": KwBefore,
	"replace": KwReplace, "at": KwAt, "top": KwTop, "bottom": KwBottom,
	"from": KwFrom, "as": KwAs, "except": KwExcept, "use": KwUse, "html5": KwHtml5,
}

var blockOpeners = map[string]Kind{
	"[Template]": BlockTemplate, "[Custom]": BlockCustom, "[Origin]": BlockOrigin,
	"[Import]": BlockImport, "[Namespace]": BlockNamespace, "[Configuration]": BlockConfiguration,
}

var sigils = map[string]Kind{
	"@Style": SigilStyle, "@Element": SigilElement, "@Var": SigilVar,
	"@Html": SigilHtml, "@JavaScript": SigilJavaScript, "@Chtl": SigilChtl,
	"@CJmod": SigilCJmod, "@Config": SigilConfig,
}

// LookupKeyword returns the Kind for a bare identifier if it is a
// reserved keyword, and ok=false otherwise.
func LookupKeyword(s string) (Kind, bool) {
	k, ok := keywords[s]
	return k, ok
}

// LookupBlockOpener returns the Kind for a full `[Name]` spelling.
func LookupBlockOpener(s string) (Kind, bool) {
	k, ok := blockOpeners[s]
	return k, ok
}

// LookupSigil returns the Kind for a full `@Name` spelling.
func LookupSigil(s string) (Kind, bool) {
	k, ok := sigils[s]
	return k, ok
}

// IsKeyword reports whether k is one of the bare-word keywords.
func (k Kind) IsKeyword() bool { return k >= KwText && k <= KwHtml5 }

// IsTypeSigil reports whether k is an `@Name` sigil.
func (k Kind) IsTypeSigil() bool { return k >= SigilStyle && k <= SigilConfig }

// IsBlockOpener reports whether k is a `[Name]` block opener.
func (k Kind) IsBlockOpener() bool { return k >= BlockTemplate && k <= BlockConfiguration }

// IsLiteral reports whether k carries a literal value.
func (k Kind) IsLiteral() bool {
	return k == StringLiteral || k == UnquotedLiteral || k == Number
}

// IsComment reports whether k is one of the comment kinds.
func (k Kind) IsComment() bool {
	return k == LineComment || k == BlockComment || k == GeneratorComment
}

// Position is a source location, line/column 1-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is one lexical unit.
type Token struct {
	Kind  Kind
	Value string
	Pos   Position
}
