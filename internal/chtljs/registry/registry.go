// Package registry implements the per-compilation-unit DelegateRegistry
// and ViewRegistry (spec.md §4.J3). Both are plain instantiable types
// rather than process-global singletons, per spec.md §9's singleton-
// registry replacement guidance — each J4 generator owns its own pair,
// built by generator.New; the J2 parser never sees them.
package registry

import (
	"fmt"
	"strings"
)

// DelegateEntry is one `delegate` call's contribution for a single
// child selector / event pair.
type DelegateEntry struct {
	ChildSelector string
	Event         string
	HandlerCode   string
}

// DelegateRegistry merges every `delegate` call into one listener per
// (parent-selector, event-type) pair (spec.md §4.J3, §8 property 6).
type DelegateRegistry struct {
	byParent map[string][]DelegateEntry
	order    []string
}

// NewDelegateRegistry returns an empty registry.
func NewDelegateRegistry() *DelegateRegistry {
	return &DelegateRegistry{byParent: map[string][]DelegateEntry{}}
}

// Register records one delegated child/event/handler triple under
// parentSelector, preserving per-parent per-event registration order
// (spec.md §5 ordering guarantees).
func (r *DelegateRegistry) Register(parentSelector string, entry DelegateEntry) {
	if _, ok := r.byParent[parentSelector]; !ok {
		r.order = append(r.order, parentSelector)
	}
	r.byParent[parentSelector] = append(r.byParent[parentSelector], entry)
}

// Emit produces the consolidated JS for every merged delegate listener.
// resolveSelector turns a parent selector's literal text into the
// generator's DOM-lookup expression for it (spec.md §4.J4); the
// registry stays agnostic of selector codegen so J3 doesn't have to
// import J4.
func (r *DelegateRegistry) Emit(resolveSelector func(selector string) string) string {
	var sb strings.Builder
	for _, parent := range r.order {
		entries := r.byParent[parent]
		var eventOrder []string
		grouped := map[string][]DelegateEntry{}
		for _, e := range entries {
			if _, ok := grouped[e.Event]; !ok {
				eventOrder = append(eventOrder, e.Event)
			}
			grouped[e.Event] = append(grouped[e.Event], e)
		}
		for _, ev := range eventOrder {
			fmt.Fprintf(&sb, "%s.addEventListener('%s', function(event) {\n", resolveSelector(parent), ev)
			for _, e := range grouped[ev] {
				fmt.Fprintf(&sb, "  if (event.target.matches(%q)) { (%s)(event); }\n", e.ChildSelector, e.HandlerCode)
			}
			sb.WriteString("});\n")
		}
	}
	return sb.String()
}

// Empty reports whether no delegate call was ever registered.
func (r *DelegateRegistry) Empty() bool {
	return len(r.order) == 0
}

// MemberKind discriminates a View member's value shape (spec.md
// §4.J3, mirroring Ast.h's MemberType).
type MemberKind int

const (
	MemberFunction MemberKind = iota
	MemberObject
	MemberArray
	MemberLiteral
)

// Member is one resolved field of a `vir` object: either a reference
// to a generated free function, or a value inlined verbatim.
type Member struct {
	Kind  MemberKind
	Value string // rendered JS: generated function name for Function, literal/object/array source otherwise
}

// View is the compile-time proxy for one `vir NAME = CALL(...)`
// declaration.
type View struct {
	Name        string
	Members     map[string]Member
	MemberOrder []string
}

// NewView returns an empty View named name.
func NewView(name string) *View {
	return &View{Name: name, Members: map[string]Member{}}
}

// SetMember records member, preserving first-seen insertion order.
func (v *View) SetMember(name string, m Member) {
	if _, ok := v.Members[name]; !ok {
		v.MemberOrder = append(v.MemberOrder, name)
	}
	v.Members[name] = m
}

// ViewRegistry maps each `vir` name to its View.
type ViewRegistry struct {
	views map[string]*View
}

// NewViewRegistry returns an empty registry.
func NewViewRegistry() *ViewRegistry {
	return &ViewRegistry{views: map[string]*View{}}
}

// Register records view under its own name.
func (r *ViewRegistry) Register(view *View) {
	r.views[view.Name] = view
}

// Lookup returns the View registered for name, if any.
func (r *ViewRegistry) Lookup(name string) (*View, bool) {
	v, ok := r.views[name]
	return v, ok
}

// MangledFunctionName is the free-function name the generator emits
// for `name.member` accesses where member resolves to MemberFunction
// (spec.md §4.J3).
func MangledFunctionName(viewName, member string) string {
	return fmt.Sprintf("__vir_%s_%s", viewName, member)
}
