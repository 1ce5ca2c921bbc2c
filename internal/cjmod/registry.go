// Package cjmod implements the CJMOD pattern runtime (spec.md §4 "M",
// SPEC_FULL.md supplement 3): a registry of trigger-keyword → pattern
// rules, a dual-pointer scanner that finds rule invocations inside
// CHTL-JS source, and a right-to-left replacement pass that rewrites
// them to plain JS before J1 ever sees the result.
//
// The algorithm is grounded line-for-line on
// original_source/CJMOD/src/CJMODProcessor.cpp and
// CJMODPatternRegistry.cpp, with one deliberate extension: the
// original's DualPointerScan only recognizes alpha-led identifier
// keywords, which cannot trigger on an operator rule like S6's `**`.
// Registry keeps both kinds of trigger in the same table and Scan
// tries an operator match before falling back to the identifier-run
// scan, so both `query(...)` and `**`-style rules work the same way.
package cjmod

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"
)

// CapturedArgs maps a pattern's placeholder name to the literal source
// text captured for it (original_source/CJMOD/include/CJMOD/API_raw.h
// CapturedArgs), plus "$0".."$n" positional fallbacks for patterns with
// no placeholders, so a bare `(arg1, arg2)` still reaches the handler.
type CapturedArgs map[string]string

// Handler receives a rule invocation's captured arguments and returns
// the JS replacement text.
type Handler func(CapturedArgs) (string, error)

// Rule is one registered trigger → pattern → handler mapping.
type Rule struct {
	Trigger  string
	Pattern  string
	Handler  Handler
	glob     glob.Glob
	operator bool // trigger is not an identifier (e.g. "**", "->")
}

// Registry is the instance-per-compilation-unit replacement for the
// original's process-global CJMODPatternRegistry singleton (spec.md §9
// "Singleton registries").
type Registry struct {
	rules map[string]*Rule
	// operators holds only the non-identifier triggers, longest first,
	// so Scan can try the longest possible operator match at a
	// candidate position before a shorter one shadows it.
	operators []*Rule
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: map[string]*Rule{}}
}

// Register compiles trigger as a glob (so a module's [Export] manifest
// can declare a wildcard trigger such as "on*") and records pattern and
// handler under it. A later Register for the same literal trigger
// replaces the earlier rule, mirroring
// `m_Patterns[triggerKeyword] = {pattern, handler}` in
// CJMODPatternRegistry::Register.
func (r *Registry) Register(trigger, pattern string, handler Handler) error {
	g, err := glob.Compile(trigger)
	if err != nil {
		return fmt.Errorf("cjmod: invalid trigger pattern %q: %w", trigger, err)
	}
	rule := &Rule{Trigger: trigger, Pattern: pattern, Handler: handler, glob: g, operator: isOperatorTrigger(trigger)}
	r.rules[trigger] = rule
	if rule.operator {
		r.operators = append(r.operators, rule)
		sort.Slice(r.operators, func(i, j int) bool { return len(r.operators[i].Trigger) > len(r.operators[j].Trigger) })
	}
	return nil
}

// Lookup finds the rule registered for an exact keyword scanned off
// source (CJMODPatternRegistry::GetPatternInfo). It also matches
// wildcard triggers registered via Register, so a module that exports
// `on*` answers a scanned `onHover` keyword.
func (r *Registry) Lookup(keyword string) (*Rule, bool) {
	if rule, ok := r.rules[keyword]; ok {
		return rule, true
	}
	for _, rule := range r.rules {
		if !rule.operator && rule.glob.Match(keyword) {
			return rule, true
		}
	}
	return nil, false
}

// MatchOperator returns the longest registered operator trigger that
// occurs at content[pos:], if any.
func (r *Registry) MatchOperator(content string, pos int) (*Rule, bool) {
	for _, rule := range r.operators {
		end := pos + len(rule.Trigger)
		if end <= len(content) && content[pos:end] == rule.Trigger {
			return rule, true
		}
	}
	return nil, false
}

// Empty reports whether no rule has been registered.
func (r *Registry) Empty() bool {
	return len(r.rules) == 0
}

// isOperatorTrigger reports whether trigger must be found by literal
// substring matching (MatchOperator) rather than by the identifier-run
// word scan: true for a symbol trigger like "**" or "->", false for an
// identifier-led trigger, wildcard or not (e.g. "query", "on*"), which
// Scan finds by first scanning an alnum run and then asking Lookup.
func isOperatorTrigger(s string) bool {
	return s == "" || !(isAlpha(s[0]) || s[0] == '_')
}
