package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/chtl-lang/chtl/internal/chtl/ast"
	"github.com/chtl-lang/chtl/internal/chtl/importer"
	"github.com/chtl-lang/chtl/internal/chtl/lexer"
	"github.com/chtl-lang/chtl/internal/chtl/parser"
	"github.com/chtl-lang/chtl/internal/cjmod"
	"github.com/chtl-lang/chtl/internal/diag"
	"github.com/chtl-lang/chtl/internal/module"
)

// resolveAndConcat implements the dispatcher's import-merge strategy:
// rather than splicing another file's ast.Tree (whose NodeIds are only
// valid within their own arena, per internal/chtl/ast's design), it
// resolves every `[Import]` in src, recursively resolves each
// resolved file's own imports, and textually concatenates the results
// ahead of src — so template.NewTable and the generator ever see only
// one arena, built from one parse of the fully merged source.
//
// A `@CJmod` import is handled differently: its archive is opened via
// the Module Manager and its native handlers registered into registry
// directly, since a CJMOD payload contributes pattern rules, not CHTL
// source text. `.cmod`/`.cjmod` archives are opened against the real
// OS filesystem (internal/module works in terms of os/archive/zip, the
// same way a package manager's own cache does); plain `.chtl` source
// is read through the Resolver's injected afero.Fs, so tests can mount
// it entirely in memory.
func resolveAndConcat(rep *diag.Reporter, resolver *importer.Resolver, mods *module.Manager, registry *cjmod.Registry, file, src string) string {
	visited := map[string]bool{}
	return concatOnce(rep, resolver, mods, registry, file, src, visited)
}

func concatOnce(rep *diag.Reporter, resolver *importer.Resolver, mods *module.Manager, registry *cjmod.Registry, file, src string, visited map[string]bool) string {
	toks := lexer.New(src, file, rep).Tokens()
	tree, root := parser.New(toks, file, rep).Parse()

	var prefix strings.Builder
	for _, id := range collectImports(tree, root) {
		n := tree.Node(id)
		resolved := resolver.Resolve(rep, n)
		if resolved.Skipped {
			continue
		}

		switch n.ImportKind {
		case ast.ImportCJmod:
			for _, p := range pathsOf(resolved) {
				loadCJmod(rep, mods, registry, p)
			}
		case ast.ImportHTML, ast.ImportStyle, ast.ImportJavaScript:
			for _, p := range pathsOf(resolved) {
				writeOriginWrapper(&prefix, resolver, n, p)
			}
		default:
			// @Chtl, @Config, and the targeted [Template]/[Custom]/[Origin]
			// imports all pull in a whole CHTL source file.
			for _, p := range pathsOf(resolved) {
				if visited[p] {
					continue
				}
				visited[p] = true
				content, err := readChtlSource(resolver, mods, p)
				if err != nil {
					rep.Errorf(diag.Import, diag.Position{File: file}, "import %q: %v", p, err)
					continue
				}
				prefix.WriteString(concatOnce(rep, resolver, mods, registry, p, content, visited))
				prefix.WriteByte('\n')
			}
		}
	}

	prefix.WriteString(src)
	return prefix.String()
}

func pathsOf(r importer.Resolved) []string {
	if len(r.Paths) > 0 {
		return r.Paths
	}
	if r.CanonicalPath != "" {
		return []string{r.CanonicalPath}
	}
	return nil
}

// collectImports walks Program/Namespace bodies (imports may appear at
// top level or nested in a namespace) collecting KindImport nodes in
// source order.
func collectImports(tree *ast.Tree, root ast.NodeId) []ast.NodeId {
	var out []ast.NodeId
	var walk func(id ast.NodeId)
	walk = func(id ast.NodeId) {
		n := tree.Node(id)
		switch tree.Kind(id) {
		case ast.KindProgram:
			for _, c := range n.Children {
				walk(c)
			}
		case ast.KindNamespace:
			for _, c := range n.Body {
				walk(c)
			}
		case ast.KindImport:
			out = append(out, id)
		}
	}
	walk(root)
	return out
}

// readChtlSource reads a resolved import path's CHTL source, whether
// it's a bare .chtl file (through the Resolver's afero.Fs) or the main
// source file inside an opened .cmod archive (through the Manager).
func readChtlSource(resolver *importer.Resolver, mods *module.Manager, p string) (string, error) {
	if strings.HasSuffix(p, ".cmod") {
		mod, err := mods.Open(nil, p)
		if err != nil {
			return "", err
		}
		return mod.Source, nil
	}
	data, err := resolver.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOriginWrapper wraps a raw @Html/@Style/@JavaScript import's
// file content as an `[Origin]` block under its required alias, so it
// merges into the document the same way a literal Origin block would
// (spec.md §4.C4's raw-import aliasing).
func writeOriginWrapper(out *strings.Builder, resolver *importer.Resolver, n *ast.Node, p string) {
	data, err := resolver.ReadFile(p)
	if err != nil {
		return
	}
	sigil := map[ast.ImportKind]string{
		ast.ImportHTML:       "@Html",
		ast.ImportStyle:      "@Style",
		ast.ImportJavaScript: "@JavaScript",
	}[n.ImportKind]
	fmt.Fprintf(out, "[Origin] %s %s {\n%s\n}\n", sigil, n.ImportAlias, string(data))
}

// loadCJmod opens a .cjmod archive and registers its exported native
// handlers into registry. Export names double as call-form triggers
// (`name(...)`) absent a richer pattern manifest for native modules.
func loadCJmod(rep *diag.Reporter, mods *module.Manager, registry *cjmod.Registry, p string) {
	mod, err := mods.Open(rep, p)
	if err != nil {
		rep.Errorf(diag.Import, diag.Position{File: p}, "@CJmod import: %v", err)
		return
	}
	native, err := cjmod.LoadNative(context.Background(), mod.Native)
	if err != nil {
		rep.Errorf(diag.Import, diag.Position{File: p}, "@CJmod import: %v", err)
		return
	}
	triggers := map[string]string{}
	for _, exp := range mod.Manifest.Exports {
		for _, name := range exp.Names {
			triggers[name] = name + "(...)"
		}
	}
	if err := native.RegisterExports(registry, triggers); err != nil {
		rep.Errorf(diag.Import, diag.Position{File: p}, "@CJmod import: %v", err)
	}
}
