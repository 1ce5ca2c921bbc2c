// Package compiler implements the Compiler Dispatcher (spec.md §4.D):
// it runs the full pipeline — unified scan, import merge, CHTL/CHTL-JS
// compilation, CJMOD pattern rewriting, CSS/JS pass-through validation,
// and final HTML assembly — over one compilation unit, and fans a
// batch of units out across goroutines for pkg/chtl's CompileFiles.
package compiler

import (
	"github.com/spf13/afero"

	"github.com/chtl-lang/chtl/internal/chtl/generator"
	"github.com/chtl-lang/chtl/internal/chtl/importer"
	"github.com/chtl-lang/chtl/internal/chtl/lexer"
	"github.com/chtl-lang/chtl/internal/chtl/parser"
	"github.com/chtl-lang/chtl/internal/chtl/template"
	"github.com/chtl-lang/chtl/internal/cjmod"
	"github.com/chtl-lang/chtl/internal/cssjs"
	"github.com/chtl-lang/chtl/internal/diag"
	"github.com/chtl-lang/chtl/internal/module"
	"github.com/chtl-lang/chtl/internal/scanner"
)

// Result is the external compile-entry-point return shape (spec.md
// §6): `{ success, html, css, js, errors }`.
type Result struct {
	Success bool
	HTML    string
	CSS     string
	JS      string
	Errors  []diag.Diagnostic
}

// Dispatcher owns the collaborators one or more compilations share: a
// filesystem, the import resolver built over it, and the module
// manager caching opened `.cmod`/`.cjmod` archives. These are safe to
// reuse across concurrent compilations (spec.md §5's "Module Manager's
// module index is read-only after initialization"); only the
// per-compilation diag.Reporter, CJMOD registry, and CHTL-JS registries
// are unit-scoped.
type Dispatcher struct {
	fs       afero.Fs
	resolver *importer.Resolver
	modules  *module.Manager
}

// New builds a Dispatcher. fs roots every relative import path; roots
// lists the search path in priority order (spec.md §4.C4), typically
// importer.DefaultRoots plus any Options.IncludePaths the caller adds.
// moduleCacheDir is where the Module Manager extracts opened `.cmod`
// archives.
func New(fs afero.Fs, roots []string, moduleCacheDir string) *Dispatcher {
	return &Dispatcher{
		fs:       fs,
		resolver: importer.NewResolver(fs, roots...),
		modules:  module.NewManager(moduleCacheDir),
	}
}

// Compile runs the full pipeline over one compilation unit's source.
func (d *Dispatcher) Compile(file, src string, opts Options) Result {
	log := newLog(opts.DebugMode)
	log.infof("compiling %s", file)

	maxErrors := opts.MaxErrors
	rep := diag.NewReporter(maxErrors)

	// Step 1: the unified scanner partitions source into typed
	// fragments. Only the scanner's own diagnostics (e.g. an unterminated
	// string) are used: they are folded into the unit's reporter as
	// warnings. The fragments are discarded; standalone CSS/JS fragments
	// are not fed to the CSS or JS pass.
	_, scanDiags := scanner.ScanFile(src, file)
	for _, sd := range scanDiags {
		rep.Warnf(diag.Lexical, diag.Position{File: file, Line: sd.Line, Column: sd.Column, Offset: sd.Offset}, "%s", sd.Message)
	}

	registry := cjmod.NewRegistry()

	// Step 2 (import merge): resolve every [Import] — transitively —
	// and concatenate resolved CHTL source ahead of src, so one single
	// lex/parse/Table-build pass below sees every Template/Custom
	// definition the unit depends on.
	merged := resolveAndConcat(rep, d.resolver, d.modules, registry, file, src)

	toks := lexer.New(merged, file, rep).Tokens()
	tree, _ := parser.New(toks, file, rep).Parse()
	tbl := template.NewTable(tree)

	// Steps 2-3: C1-C5 walk the tree; script blocks are handed to the
	// CHTL-JS pipeline (J1-J4), with CJMOD (M) rewriting matched
	// trigger spans first.
	scripts := newScriptPipeline(registry)
	gen := generator.New(tree, tbl, scripts)
	out := gen.Generate(rep, file)

	// Step 3 (merge): the CHTL-JS generator's own delegate-dispatch
	// code is appended to the merged JS buffer exactly once, after
	// every script block has compiled.
	js := out.JS
	if delegates := scripts.emitDelegates(); delegates != "" {
		js += delegates + "\n"
	}

	// Step 4: light CSS/JS pass-through validation over the merged
	// buffers.
	css := cssjs.ValidateCSS(rep, file, out.CSS)
	js = cssjs.ValidateJS(rep, file, js)

	// Step 5: final HTML assembly.
	html := assembleDocument(out.HTML, css, js, opts.PrettyPrint)

	if rep.HasErrors() {
		log.infof("%s: %d error(s)", file, rep.Count(diag.Error))
	} else {
		log.debugf("%s: compiled cleanly", file)
	}

	return Result{
		Success: !rep.HasErrors(),
		HTML:    html,
		CSS:     css,
		JS:      js,
		Errors:  rep.Diagnostics(),
	}
}
