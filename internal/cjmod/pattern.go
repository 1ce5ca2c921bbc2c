package cjmod

import "strings"

// placeholder is one `$name`, `$name?` (optional), or `...` (variadic
// tail) token of a registered pattern string, e.g. "$prefix ** $exp".
type placeholder struct {
	name     string
	optional bool
	variadic bool
}

// parsePattern tokenizes pattern and locates trigger among its tokens,
// returning the placeholder tokens appearing strictly before and
// strictly after it. Patterns come in two shapes:
//
//   - call form, e.g. "query($selector, $scope)" — the trigger is
//     immediately followed by a parenthesized, comma-separated
//     placeholder list, mirroring how Scan itself captures a `(...)`
//     invocation's arguments.
//   - operator/tail form, e.g. "$prefix ** $exp" — tokens are
//     whitespace separated, matching Scan's space-delimited tail
//     capture.
//
// A pattern where trigger does not appear as a literal token treats
// the whole pattern as "after" tokens (the bare-operator-trigger case,
// where the trigger itself is consumed by Scan rather than appearing
// as a pattern word).
func parsePattern(pattern, trigger string) (before, after []placeholder) {
	if idx := strings.Index(pattern, trigger+"("); idx >= 0 {
		argStart := idx + len(trigger) + 1
		argEnd := strings.LastIndex(pattern, ")")
		if argEnd > argStart {
			for _, tok := range strings.Split(pattern[argStart:argEnd], ",") {
				if p, ok := toPlaceholder(strings.TrimSpace(tok)); ok {
					after = append(after, p)
				}
			}
		}
		return nil, after
	}

	fields := strings.Fields(pattern)
	triggerIdx := -1
	for i, f := range fields {
		if f == trigger {
			triggerIdx = i
			break
		}
	}

	var pre, post []string
	if triggerIdx >= 0 {
		pre = fields[:triggerIdx]
		post = fields[triggerIdx+1:]
	} else {
		post = fields
	}
	for _, tok := range pre {
		if p, ok := toPlaceholder(tok); ok {
			before = append(before, p)
		}
	}
	for _, tok := range post {
		if p, ok := toPlaceholder(tok); ok {
			after = append(after, p)
		}
	}
	return before, after
}

func toPlaceholder(tok string) (placeholder, bool) {
	switch {
	case tok == "...":
		return placeholder{name: "...", variadic: true}, true
	case strings.HasPrefix(tok, "$"):
		name := strings.TrimPrefix(tok, "$")
		optional := strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		return placeholder{name: name, optional: optional}, true
	default:
		return placeholder{}, false
	}
}

// bindArgs builds a rule invocation's CapturedArgs from its pattern's
// placeholder layout, the prefix text captured before the trigger, and
// the raw argument strings Scan collected after it. Every argument is
// also bound under its 0-based positional key ("$0", "$1", ...) so a
// handler for a pattern with no named placeholders can still read its
// arguments.
func bindArgs(before, after []placeholder, prefix string, args []string) CapturedArgs {
	captured := CapturedArgs{}
	if len(before) > 0 && prefix != "" {
		captured[before[0].name] = prefix
	}

	i := 0
	for _, p := range after {
		if p.variadic {
			captured["..."] = strings.Join(args[i:], ", ")
			i = len(args)
			continue
		}
		if i < len(args) {
			captured[p.name] = args[i]
		}
		i++
	}
	for idx, a := range args {
		captured[positionalKey(idx)] = a
	}
	return captured
}

func positionalKey(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "$" + string(digits[i])
	}
	// Patterns with >=10 positional arguments are not expected in
	// practice; fall back to a decimal render without strconv to keep
	// this file dependency-free.
	var buf []byte
	n := i
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return "$" + string(buf)
}
