package compiler

import (
	chtljsgen "github.com/chtl-lang/chtl/internal/chtljs/generator"
	"github.com/chtl-lang/chtl/internal/cjmod"
	"github.com/chtl-lang/chtl/internal/diag"
)

// scriptPipeline implements internal/chtl/generator.ScriptCompiler. It
// is the single collaborator the dispatcher hands to the CHTL
// generator for every script block in one compilation unit, so the
// underlying chtljsgen.Generator's DelegateRegistry/ViewRegistry stay
// shared across the whole document (spec.md §5) and so CJMOD pattern
// rewriting (M) always runs ahead of the CHTL-JS lexer (J1), the same
// control-flow order spec.md §2's pipeline diagram describes: "J1→J2
// (invoking M where CJMOD patterns match)".
type scriptPipeline struct {
	gen      *chtljsgen.Generator
	registry *cjmod.Registry
}

func newScriptPipeline(registry *cjmod.Registry) *scriptPipeline {
	if registry == nil {
		registry = cjmod.NewRegistry()
	}
	return &scriptPipeline{gen: chtljsgen.New(), registry: registry}
}

// Compile rewrites any registered CJMOD trigger spans in src before
// handing the result to the CHTL-JS pipeline.
func (s *scriptPipeline) Compile(rep *diag.Reporter, file, src string) (string, error) {
	rewritten := cjmod.Process(rep, file, src, s.registry)
	return s.gen.Compile(rep, file, rewritten)
}

// emitDelegates renders the consolidated delegate-dispatch code
// accumulated across every script block compiled so far. Call once,
// after the whole document's script blocks have been extracted.
func (s *scriptPipeline) emitDelegates() string {
	return s.gen.EmitDelegates()
}
