// Package cssjs implements the ambient CSS/JS pass-through stage
// spec.md §4.D step 4 calls for after the CHTL/CHTL-JS merge: "light"
// validators that catch a malformed merge (unbalanced braces, a stray
// token) without running a full bundler or preprocessor over output
// this compiler itself already generated correctly-scoped.
package cssjs

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/chtl-lang/chtl/internal/diag"
)

// ValidateCSS tokenizes the merged CSS buffer with tdewolff's CSS
// lexer to catch an unbalanced brace left over from a bad hoist or
// @Style resolution, then trims incidental trailing whitespace per
// line. It never rewrites selectors or property values — this is a
// pass-through check, not a CSS compiler.
func ValidateCSS(rep *diag.Reporter, file, src string) string {
	l := css.NewLexer(parse.NewInputString(src))
	depth := 0
	for {
		tt, _ := l.Next()
		if tt == css.ErrorToken {
			break
		}
		switch tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
			if depth < 0 {
				rep.Warnf(diag.Syntax, diag.Position{File: file}, "css: unmatched '}' in merged stylesheet")
				depth = 0
			}
		}
	}
	if err := l.Err(); err != nil && err.Error() != "EOF" {
		rep.Warnf(diag.Syntax, diag.Position{File: file}, "css: %v", err)
	}
	if depth != 0 {
		rep.Warnf(diag.Syntax, diag.Position{File: file}, "css: %d unclosed '{' in merged stylesheet", depth)
	}
	return trimTrailingWhitespace(src)
}

func trimTrailingWhitespace(src string) string {
	lines := strings.Split(src, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t\r")
	}
	return strings.Join(lines, "\n")
}
