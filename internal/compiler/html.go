package compiler

import (
	"strings"
)

// assembleDocument implements spec.md §6's "Generated HTML shape":
// when the generated output contains no `<html` or `<body` tag, wrap the generated tree in the standard preamble with
// `<style>`/`<script>` in their usual slots. When it does, the
// generator's output already contains those tags verbatim — splice the
// merged CSS/JS into the existing `</head>`/`</body>` instead of
// wrapping a second time.
func assembleDocument(generatedHTML, css, js string, pretty bool) string {
	style := ""
	if css != "" {
		style = "<style>" + css + "</style>"
	}
	script := ""
	if js != "" {
		script = "<script>" + js + "</script>"
	}

	if hasOwnDocumentStructure(generatedHTML) {
		out := generatedHTML
		if style != "" {
			out = spliceBeforeClosingTag(out, "head", style)
		}
		if script != "" {
			out = spliceBeforeClosingTag(out, "body", script)
		}
		if pretty {
			return prettyPrint(out)
		}
		return out
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=utf-8>")
	b.WriteString(style)
	b.WriteString("</head><body>")
	b.WriteString(generatedHTML)
	b.WriteString(script)
	b.WriteString("</body></html>")
	if pretty {
		return prettyPrint(b.String())
	}
	return b.String()
}

// hasOwnDocumentStructure reports whether the generated tree already
// contains an `<html` or `<body` tag; `<head` alone is not checked.
func hasOwnDocumentStructure(html string) bool {
	lower := strings.ToLower(html)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

// spliceBeforeClosingTag inserts insert immediately before the first
// case-insensitive `</tag>`, or appends it at the end if tag never
// closes (a void/self-contained document fragment).
func spliceBeforeClosingTag(html, tag, insert string) string {
	lower := strings.ToLower(html)
	closing := "</" + tag + ">"
	idx := strings.Index(lower, closing)
	if idx < 0 {
		return html + insert
	}
	return html[:idx] + insert + html[idx:]
}

// prettyPrint applies a minimal, allocation-light reflow: one tag per
// line, indented by nesting depth. It is not a full HTML formatter —
// spec.md's `pretty_print` option asks only for readability, not
// canonical indentation — and it deliberately never reflows `<style>`/
// `<script>` contents, which are opaque CSS/JS text.
func prettyPrint(doc string) string {
	var b strings.Builder
	depth := 0
	i := 0
	for i < len(doc) {
		start := strings.IndexByte(doc[i:], '<')
		if start < 0 {
			b.WriteString(doc[i:])
			break
		}
		start += i
		if start > i {
			b.WriteString(doc[i:start])
		}
		end := strings.IndexByte(doc[start:], '>')
		if end < 0 {
			b.WriteString(doc[start:])
			break
		}
		end += start + 1
		tag := doc[start:end]

		closing := strings.HasPrefix(tag, "</")
		selfClosing := strings.HasSuffix(tag, "/>") || strings.HasPrefix(tag, "<!")

		if closing && depth > 0 {
			depth--
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(tag)
		if !closing && !selfClosing {
			depth++
		}
		i = end
		if !closing {
			lowerTag := strings.ToLower(tag)
			for _, raw := range []string{"script", "style"} {
				if strings.HasPrefix(lowerTag, "<"+raw) {
					if stop := strings.Index(strings.ToLower(doc[i:]), "</"+raw); stop > 0 {
						b.WriteString(doc[i : i+stop])
						i += stop
					}
				}
			}
		}
	}
	return b.String()
}
