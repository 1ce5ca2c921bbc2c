// Package scanner implements the unified slicing scanner (spec.md
// §4.S): it partitions mixed CHTL/CHTL-JS/CSS/JS source into an
// ordered, non-overlapping, loss-less sequence of typed Fragments.
//
// The algorithm advances a window of WindowSize bytes at a time. Each
// candidate boundary is validated: it must not land inside a string
// literal or a block comment, and — when brace depth is greater than
// zero — the bytes immediately following the boundary (looked ahead up
// to LookaheadCap bytes) must not begin a CHTL or CHTL-JS syntactic
// unit, so a boundary never splits one. An invalid boundary is pushed
// forward by up to LookaheadCap bytes and re-checked until valid or
// end of source.
//
// Precise sub-slicing of a CHTL-JS fragment's `{{selector}}->member`
// shape into a selector token and a member token is the CHTL-JS
// lexer's job (internal/chtljs/lexer), not the scanner's — the scanner
// only needs to avoid cutting a fragment boundary in the middle of
// such a unit.
package scanner

import (
	"strings"
)

const (
	// WindowSize is the default scan-ahead window, in bytes.
	WindowSize = 1024
	// LookaheadCap bounds both the syntactic-unit lookahead and the
	// boundary-retry extension step.
	LookaheadCap = 100
)

// syntacticUnitPrefixes lists byte sequences that must never be split
// by a fragment boundary when brace depth is nonzero.
var syntacticUnitPrefixes = []string{
	"[Template]", "[Custom]", "[Origin]", "[Import]", "[Namespace]", "[Configuration]",
	"{{", "}}", "&->", "->",
	"listen", "delegate", "animate", "vir ",
	"@Style", "@Element", "@Var", "@Html", "@JavaScript", "@Chtl", "@CJmod", "@Config",
}

// chtlMarkers and chtljsMarkers drive the keyword-probe kind decision.
var chtlMarkers = []string{
	"[Template]", "[Custom]", "[Origin]", "[Import]", "[Namespace]", "[Configuration]",
}

var chtljsMarkers = []string{"{{", "&->", "listen", "delegate", "animate", "vir "}

var jsMarkers = []string{"function", "=>", "const ", "let ", "var "}

// state is the scanner's running, single-pass tracked state. Tracking
// it incrementally (rather than re-deriving it from source[0:pos] on
// every boundary retry) keeps Scan linear in len(source).
type state struct {
	inString    bool
	quote       byte
	escaped     bool
	inLineCmt   bool
	inBlockCmt  bool
	braceDepth  int
	line        int
	col         int
}

func newState() *state { return &state{line: 1, col: 1} }

// advance folds byte b (at source position pos) into the state.
func (s *state) advance(source string, pos int) {
	b := source[pos]

	if s.inLineCmt {
		if b == '\n' {
			s.inLineCmt = false
		}
	} else if s.inBlockCmt {
		if b == '/' && pos > 0 && source[pos-1] == '*' {
			s.inBlockCmt = false
		}
	} else if s.inString {
		if s.escaped {
			s.escaped = false
		} else if b == '\\' {
			s.escaped = true
		} else if b == s.quote {
			s.inString = false
		}
	} else {
		switch {
		case b == '"' || b == '\'':
			s.inString = true
			s.quote = b
		case b == '/' && pos+1 < len(source) && source[pos+1] == '/':
			s.inLineCmt = true
		case b == '/' && pos+1 < len(source) && source[pos+1] == '*':
			s.inBlockCmt = true
		case b == '{':
			s.braceDepth++
		case b == '}':
			if s.braceDepth > 0 {
				s.braceDepth--
			}
		}
	}

	if b == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

// validBoundary reports whether pos is a safe place to cut a fragment,
// given the state accumulated over source[0:pos].
func (s *state) validBoundary(source string, pos int) bool {
	if s.inString || s.inBlockCmt {
		return false
	}
	if s.braceDepth > 0 {
		end := pos + LookaheadCap
		if end > len(source) {
			end = len(source)
		}
		ahead := source[pos:end]
		trimmed := strings.TrimLeft(ahead, " \t\r\n")
		for _, unit := range syntacticUnitPrefixes {
			if strings.HasPrefix(trimmed, unit) {
				return false
			}
		}
	}
	return true
}

// Diagnostic describes a non-fatal problem the scanner itself noticed
// (spec.md §4.S "Failure" case — an unterminated string spanning the
// remainder of source).
type Diagnostic struct {
	Message string
	Offset  int
	Line    int
	Column  int
}

// Scan partitions source into an ordered, non-overlapping sequence of
// Fragments. It never returns an error for well-formed input; an
// unterminated string/comment degrades to a single trailing fragment
// plus a Diagnostic, per spec.md §4.S.
func Scan(source string) ([]Fragment, []Diagnostic) {
	return ScanFile(source, "")
}

// ScanFile is Scan with a source file name argument. The name is not
// used: Fragment and Diagnostic track only line/column/offset, so
// callers that need the file name keep it alongside the results.
func ScanFile(source string, _ string) ([]Fragment, []Diagnostic) {
	n := len(source)
	if n == 0 {
		return nil, nil
	}

	var frags []Fragment
	var diags []Diagnostic

	st := newState()
	segStart := 0
	segLine, segCol := 1, 1
	candidate := WindowSize
	if candidate > n {
		candidate = n
	}

	pos := 0
	for pos < n {
		st.advance(source, pos)
		pos++

		if pos < n && pos < candidate {
			continue
		}

		if pos >= n {
			// Flush whatever remains as the final fragment.
			frags = append(frags, makeFragment(source[segStart:pos], segStart, pos, segLine, segCol))
			if st.inString {
				diags = append(diags, Diagnostic{
					Message: "unterminated string literal at end of source",
					Offset:  segStart,
					Line:    segLine,
					Column:  segCol,
				})
			}
			if st.inBlockCmt {
				diags = append(diags, Diagnostic{
					Message: "unterminated block comment at end of source",
					Offset:  segStart,
					Line:    segLine,
					Column:  segCol,
				})
			}
			break
		}

		if st.validBoundary(source, pos) {
			frags = append(frags, makeFragment(source[segStart:pos], segStart, pos, segLine, segCol))
			segStart = pos
			segLine, segCol = st.line, st.col
			candidate = pos + WindowSize
			if candidate > n {
				candidate = n
			}
		} else {
			candidate = pos + LookaheadCap
			if candidate > n {
				candidate = n
			}
		}
	}

	return frags, diags
}

func makeFragment(content string, start, end, line, col int) Fragment {
	return Fragment{
		Kind:    classify(content),
		Content: content,
		Start:   start,
		End:     end,
		Line:    line,
		Column:  col,
	}
}

// classify applies the keyword-probe heuristic from spec.md §4.S.
func classify(content string) Kind {
	for _, m := range chtlMarkers {
		if strings.Contains(content, m) {
			return CHTL
		}
	}
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "text") || strings.HasPrefix(trimmed, "style") {
		return CHTL
	}
	for _, m := range chtljsMarkers {
		if strings.Contains(content, m) {
			return CHTLJS
		}
	}
	hasJS := false
	for _, m := range jsMarkers {
		if strings.Contains(content, m) {
			hasJS = true
			break
		}
	}
	if hasJS {
		return JS
	}
	if strings.Contains(content, "{") && strings.Contains(content, ":") && strings.Contains(content, ";") {
		return CSS
	}
	if strings.Contains(content, "<") && strings.Contains(content, ">") {
		return HTML
	}
	return Unknown
}

// Concat re-joins Fragments back into their original source, used by
// the "Scanner partition" property test (spec.md §8 property 1).
func Concat(frags []Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.Content)
	}
	return b.String()
}
