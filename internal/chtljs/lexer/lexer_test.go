package lexer_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/internal/chtljs/lexer"
	"github.com/chtl-lang/chtl/internal/chtljs/token"
	"github.com/chtl-lang/chtl/internal/diag"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexEnhancedSelectorCapturedVerbatim(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`{{ .box }}`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{token.EnhancedSelector, token.EOF})
	c.Assert(toks[0].Value, qt.Equals, ".box")
}

func TestLexEnhancedSelectorWithIndexSuffix(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`{{ .box }}[0]`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{
		token.EnhancedSelector, token.LBracket, token.Number, token.RBracket, token.EOF,
	})
}

func TestLexUnterminatedEnhancedSelectorReportsDiagnostic(t *testing.T) {
	c := qt.New(t)
	r := diag.NewReporter(diag.MaxErrorsDefault)
	lexer.New(`{{ .box `, "t.chtljs", r).Tokens()
	c.Assert(r.HasErrors(), qt.IsTrue)
}

func TestLexArrowIsOneToken(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`box->addEventListener`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{
		token.Identifier, token.Arrow, token.Identifier, token.EOF,
	})
}

func TestLexAmpersandIsSeparateFromArrow(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`&->click`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{
		token.Ampersand, token.Arrow, token.Identifier, token.EOF,
	})
}

func TestLexDotIsPlainPunctuationOutsideSelector(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`a.b.c`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{
		token.Identifier, token.Dot, token.Identifier, token.Dot, token.Identifier, token.EOF,
	})
}

func TestLexHashIsGenericPunctuation(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`.a #b`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{
		token.Dot, token.Identifier, token.Hash, token.Identifier, token.EOF,
	})
}

func TestLexKeywords(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`listen delegate animate vir`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{
		token.KwListen, token.KwDelegate, token.KwAnimate, token.KwVir, token.EOF,
	})
}

func TestLexGeneratorComment(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New("-- note\nlisten", "t.chtljs", nil).Tokens()
	c.Assert(toks[0].Kind, qt.Equals, token.GeneratorComment)
	c.Assert(toks[0].Value, qt.Equals, " note")
}

func TestLexLineAndBlockComments(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New("// line\n/* block */ vir", "t.chtljs", nil).Tokens()
	c.Assert(toks[0].Kind, qt.Equals, token.LineComment)
	c.Assert(toks[1].Kind, qt.Equals, token.BlockComment)
	c.Assert(toks[2].Kind, qt.Equals, token.KwVir)
}

func TestLexStringEscapes(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`"line\nbreak"`, "t.chtljs", nil).Tokens()
	c.Assert(toks[0].Value, qt.Equals, "line\nbreak")
}

func TestLexUnterminatedStringReportsDiagnostic(t *testing.T) {
	c := qt.New(t)
	r := diag.NewReporter(diag.MaxErrorsDefault)
	lexer.New(`"never closes`, "t.chtljs", r).Tokens()
	c.Assert(r.HasErrors(), qt.IsTrue)
}

func TestLexNumber(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`1.5`, "t.chtljs", nil).Tokens()
	c.Assert(toks[0].Kind, qt.Equals, token.Number)
	c.Assert(toks[0].Value, qt.Equals, "1.5")
}

func TestLexObjectLiteralPunctuation(t *testing.T) {
	c := qt.New(t)
	toks := lexer.New(`{ duration: 300, loop: true }`, "t.chtljs", nil).Tokens()
	c.Assert(kinds(toks), qt.DeepEquals, []token.Kind{
		token.LBrace, token.Identifier, token.Colon, token.Number, token.Comma,
		token.Identifier, token.Colon, token.Identifier, token.RBrace, token.EOF,
	})
}
