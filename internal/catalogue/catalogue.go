// Package catalogue holds the static HTML tag-kind and CSS
// property-kind tables the rest of the compiler consults, plus name
// canonicalization helpers used by diagnostics and the generator.
package catalogue

import (
	"strings"

	"github.com/gobuffalo/flect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TagKind classifies an HTML element by structural behavior.
type TagKind int

const (
	TagUnknown TagKind = iota
	TagVoid            // no children, no closing tag (br, img, ...)
	TagBlock
	TagInline
)

// voidTags have no content model; the generator self-closes them and
// the parser rejects a body for them (spec.md §3 invariant 4).
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var blockTags = map[string]bool{
	"html": true, "head": true, "body": true, "div": true, "section": true,
	"article": true, "aside": true, "header": true, "footer": true, "nav": true,
	"main": true, "p": true, "ul": true, "ol": true, "li": true, "table": true,
	"thead": true, "tbody": true, "tr": true, "td": true, "th": true,
	"form": true, "fieldset": true, "figure": true, "figcaption": true,
	"blockquote": true, "pre": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "style": true, "script": true,
	"title": true, "dialog": true, "details": true, "summary": true,
}

var inlineTags = map[string]bool{
	"span": true, "a": true, "b": true, "i": true, "em": true, "strong": true,
	"small": true, "label": true, "button": true, "select": true, "option": true,
	"textarea": true, "code": true, "sub": true, "sup": true, "mark": true,
	"time": true, "abbr": true, "cite": true, "q": true, "u": true, "s": true,
	"svg": true, "canvas": true, "audio": true, "video": true, "iframe": true,
}

// allTags is the union, used for nearest-match suggestions.
var allTags = func() []string {
	tags := make([]string, 0, len(voidTags)+len(blockTags)+len(inlineTags))
	for t := range voidTags {
		tags = append(tags, t)
	}
	for t := range blockTags {
		tags = append(tags, t)
	}
	for t := range inlineTags {
		tags = append(tags, t)
	}
	return tags
}()

var caseFold = cases.Fold()

// Canon lower-cases and case-folds a tag/attribute/property name the
// way the lexer and generator expect identifiers to be compared.
func Canon(name string) string {
	return caseFold.String(strings.TrimSpace(name))
}

// TagKindOf classifies a canonicalized tag name.
func TagKindOf(tag string) TagKind {
	tag = Canon(tag)
	switch {
	case voidTags[tag]:
		return TagVoid
	case blockTags[tag]:
		return TagBlock
	case inlineTags[tag]:
		return TagInline
	default:
		return TagUnknown
	}
}

// IsVoid reports whether tag must not have children.
func IsVoid(tag string) bool {
	return TagKindOf(tag) == TagVoid
}

// IsKnownTag reports whether tag appears in the catalogue at all.
func IsKnownTag(tag string) bool {
	return TagKindOf(tag) != TagUnknown
}

// PropertyKind classifies a CSS property by its value shape, enough
// for the light pass-through stage and for auto-injection heuristics;
// it is not a full CSS property schema.
type PropertyKind int

const (
	PropUnknown PropertyKind = iota
	PropColor
	PropLength
	PropLayout
	PropFont
	PropOther
)

var propertyKinds = map[string]PropertyKind{
	"color": PropColor, "background-color": PropColor, "border-color": PropColor,
	"outline-color": PropColor, "fill": PropColor, "stroke": PropColor,
	"width": PropLength, "height": PropLength, "margin": PropLength,
	"padding": PropLength, "top": PropLength, "left": PropLength,
	"right": PropLength, "bottom": PropLength, "gap": PropLength,
	"display": PropLayout, "position": PropLayout, "flex": PropLayout,
	"flex-direction": PropLayout, "justify-content": PropLayout,
	"align-items": PropLayout, "grid-template-columns": PropLayout,
	"font-size": PropFont, "font-family": PropFont, "font-weight": PropFont,
	"line-height": PropFont,
}

// PropertyKindOf classifies a canonicalized CSS property name.
func PropertyKindOf(prop string) PropertyKind {
	if k, ok := propertyKinds[Canon(prop)]; ok {
		return k
	}
	return PropOther
}

// NearestTag returns the catalogue tag name with the smallest edit
// distance to name, used by diag.Diagnostic.Suggestion when an unknown
// tag is used. It returns "" if name is already empty.
func NearestTag(name string) string {
	name = Canon(name)
	if name == "" {
		return ""
	}
	best := ""
	bestDist := -1
	for _, t := range allTags {
		d := levenshtein(name, t)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = t
		}
	}
	// Don't suggest wildly different names.
	if bestDist > 3 {
		return ""
	}
	return best
}

// Singularize/Pluralize expose flect for callers that canonicalize
// name-group spellings (e.g. matching a Configuration NAME_GROUP
// override regardless of singular/plural phrasing).
func Singularize(s string) string { return flect.Singularize(s) }
func Pluralize(s string) string   { return flect.Pluralize(s) }

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

// DefaultLanguage is the language tag used for any future locale-aware
// diagnostic formatting.
var DefaultLanguage = language.English
