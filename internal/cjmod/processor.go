package cjmod

import (
	"sort"

	"github.com/chtl-lang/chtl/internal/diag"
)

// Process rewrites every registered-rule invocation in src to its
// handler's JS replacement, applying matches right to left so an
// earlier match's byte offsets stay valid while a later one in the
// same pass is rewritten (CJMODProcessor::Process's
// `rbegin()/rend()` loop).
func Process(rep *diag.Reporter, file, src string, registry *Registry) string {
	if registry.Empty() {
		return src
	}

	matches := Scan(src, registry)
	if len(matches) == 0 {
		return src
	}

	// Scan already yields matches in source order; iterate in reverse
	// so each splice leaves every not-yet-processed match's offsets
	// untouched, the Go equivalent of the original's reverse iterator
	// loop over a vector built in forward order.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })

	out := src
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		rule, ok := registry.Lookup(m.Keyword)
		if !ok {
			continue
		}

		prefix := CapturePrefix(out, m.Start)
		before, after := parsePattern(rule.Pattern, rule.Trigger)
		args := bindArgs(before, after, prefix, m.Arguments)

		replacement, err := rule.Handler(args)
		if err != nil {
			rep.Errorf(diag.Semantic, diag.Position{File: file}, "cjmod: rule %q for trigger %q failed: %v", rule.Pattern, rule.Trigger, err)
			continue
		}

		spliceStart := m.Start
		if len(before) > 0 && prefix != "" {
			for spliceStart > 0 && isSpace(out[spliceStart-1]) {
				spliceStart--
			}
			spliceStart -= len(prefix)
		}

		out = out[:spliceStart] + replacement + out[m.End:]
	}

	return out
}
