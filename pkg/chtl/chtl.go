// Package chtl is the public entry point for the CHTL compiler
// (spec.md §6): `Compile`, `CompileFile`, and `CompileFiles`, backed by
// the Compiler Dispatcher in internal/compiler.
package chtl

import (
	"context"

	"github.com/spf13/afero"

	"github.com/chtl-lang/chtl/internal/chtl/importer"
	"github.com/chtl-lang/chtl/internal/compiler"
	"github.com/chtl-lang/chtl/internal/diag"
)

// Options is the compile-entry-point options surface spec.md §6 names:
// pretty_print, debug_mode, strict_mode, include_paths (extra search
// roots for the Import Resolver), plus the max-error cap spec.md §7
// requires every entry point to honor.
type Options struct {
	PrettyPrint   bool
	DebugMode     bool
	StrictMode    bool
	IncludePaths  []string
	MaxErrors     int
	OfficialModuleDir string
	ModuleCacheDir    string
}

// DefaultOptions matches internal/compiler.DefaultOptions, with a
// max-error cap of 100 per spec.md §7.
func DefaultOptions() Options {
	return Options{MaxErrors: 100, OfficialModuleDir: "./module"}
}

func (o Options) toInternal() compiler.Options {
	return compiler.Options{
		PrettyPrint:       o.PrettyPrint,
		DebugMode:         o.DebugMode,
		StrictMode:        o.StrictMode,
		IncludePaths:      o.IncludePaths,
		MaxErrors:         o.MaxErrors,
		OfficialModuleDir: o.OfficialModuleDir,
	}
}

// Result is the compile-entry-point return shape spec.md §6 names:
// `{ success, html, css, js, errors }`.
type Result struct {
	Success bool
	HTML    string
	CSS     string
	JS      string
	Errors  []diag.Diagnostic
}

func fromInternal(r compiler.Result) Result {
	return Result{Success: r.Success, HTML: r.HTML, CSS: r.CSS, JS: r.JS, Errors: r.Errors}
}

func newDispatcher(fs afero.Fs, opts Options) *compiler.Dispatcher {
	roots := importer.DefaultRoots(opts.OfficialModuleDir)
	roots = append(roots, opts.IncludePaths...)
	return compiler.New(fs, roots, opts.ModuleCacheDir)
}

// Compile compiles source as a single compilation unit named
// "source.chtl"; use CompileNamed to choose the name used for
// diagnostic positions and relative-import resolution.
func Compile(source string, opts Options) Result {
	return CompileNamed("source.chtl", source, opts)
}

// CompileNamed is Compile with an explicit unit name, for callers that
// want diagnostics and relative imports to resolve against a specific
// virtual path without writing the source to disk first.
func CompileNamed(file, source string, opts Options) Result {
	fs := afero.NewOsFs()
	d := newDispatcher(fs, opts)
	return fromInternal(d.Compile(file, source, opts.toInternal()))
}

// CompileFile reads path from the OS filesystem and compiles it as a
// single unit, resolving its imports relative to the same filesystem.
func CompileFile(path string, opts Options) (Result, error) {
	fs := afero.NewOsFs()
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return Result{}, err
	}
	d := newDispatcher(fs, opts)
	return fromInternal(d.Compile(path, string(src), opts.toInternal())), nil
}

// CompileFiles compiles every path concurrently, each as its own
// independent compilation unit (spec.md §5), returning results in the
// same order as paths.
func CompileFiles(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	fs := afero.NewOsFs()
	d := newDispatcher(fs, opts)
	internalResults, err := d.CompileFiles(ctx, paths, opts.toInternal())
	results := make([]Result, len(internalResults))
	for i, r := range internalResults {
		results[i] = fromInternal(r)
	}
	return results, err
}
