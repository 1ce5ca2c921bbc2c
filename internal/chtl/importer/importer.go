// Package importer implements the CHTL import resolver (spec.md
// §4.C4): path classification, multi-root search, wildcard expansion,
// official-prefix/submodule resolution, and duplicate detection.
package importer

import (
	"path"
	"strconv"
	"strings"

	"github.com/bep/lazycache"
	"github.com/bep/overlayfs"
	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	"github.com/chtl-lang/chtl/internal/chtl/ast"
	"github.com/chtl-lang/chtl/internal/diag"
)

// PathClass is the path-shape classification from spec.md §4.C4.
type PathClass int

const (
	ClassNameOnly PathClass = iota
	ClassSpecificName
	ClassSpecificPath
	ClassDirectory
	ClassWildcard
)

// candidateExtsByKind is tried, in order, for a name-only or specific-name
// import that doesn't resolve on the first candidate.
var candidateExtsByKind = map[ast.ImportKind][]string{
	ast.ImportChtl:       {".chtl", ".cmod"},
	ast.ImportHTML:       {".html"},
	ast.ImportStyle:      {".css"},
	ast.ImportJavaScript: {".js"},
	ast.ImportCJmod:      {".cjmod"},
}

// ClassifyPath determines a raw import path's PathClass per spec.md
// §4.C4. Classification reads only the literal path text — it never
// touches the filesystem.
func ClassifyPath(raw string) PathClass {
	if strings.HasSuffix(raw, ".*") || strings.HasSuffix(raw, "/*") {
		return ClassWildcard
	}
	if strings.HasSuffix(raw, "/") {
		return ClassDirectory
	}
	if strings.ContainsAny(raw, "/\\") {
		return ClassSpecificPath
	}
	if path.Ext(raw) != "" {
		return ClassSpecificName
	}
	return ClassNameOnly
}

// Resolver resolves CHTL import statements against a layered
// filesystem of search roots, in the priority order spec.md §4.C4
// defines: official module directory, then ./module, then the
// current directory.
type Resolver struct {
	fs   afero.Fs
	glob *lazycache.Cache[string, glob.Glob]

	// seen maps a canonicalized path to the first import statement
	// that resolved it, for duplicate detection.
	seen map[string]string
}

// NewResolver builds a Resolver over the given search roots, highest
// priority first. Each root is mounted read-only via overlayfs.New
// so a name present in an earlier root shadows the same name in a
// later one, the same semantics Hugo's own overlay mounts use for
// theme/project precedence.
func NewResolver(fsys afero.Fs, roots ...string) *Resolver {
	var fsLayers []afero.Fs
	for _, r := range roots {
		fsLayers = append(fsLayers, afero.NewBasePathFs(fsys, r))
	}
	merged := overlayfs.New(overlayfs.Options{Fss: fsLayers})
	return &Resolver{
		fs:   merged,
		glob: lazycache.New[string, glob.Glob](lazycache.Options[string, glob.Glob]{MaxEntries: 256}),
		seen: map[string]string{},
	}
}

// DefaultRoots returns the official-module/project-module/cwd search
// order spec.md §4.C4 specifies.
func DefaultRoots(officialModuleDir string) []string {
	return []string{officialModuleDir, "./module", "."}
}

// Resolved is the outcome of resolving one Import node.
type Resolved struct {
	CanonicalPath string
	Paths         []string // >1 only for wildcard expansion
	Skipped       bool     // raw/Html/Style/JavaScript import missing `as ALIAS`
}

// Resolve resolves a single Import node against the Resolver's roots.
func (r *Resolver) Resolve(rep *diag.Reporter, imp *ast.Node) Resolved {
	pos := diag.Position{Line: imp.Pos.Line, Column: imp.Pos.Column, Offset: imp.Pos.Offset}

	if needsAlias(imp.ImportKind) && imp.ImportAlias == "" {
		rep.Warnf(diag.Import, pos, "import %q requires an `as ALIAS` clause; skipped", imp.SourcePath)
		return Resolved{Skipped: true}
	}

	raw := imp.SourcePath
	if strings.HasPrefix(raw, "chtl::") {
		return r.resolveOfficial(rep, pos, imp, strings.TrimPrefix(raw, "chtl::"))
	}

	switch ClassifyPath(raw) {
	case ClassWildcard:
		return r.resolveWildcard(rep, pos, imp.ImportKind, raw)
	case ClassDirectory:
		rep.Errorf(diag.Import, pos, "import path %q is a directory, not a file", raw)
		return Resolved{}
	case ClassSpecificPath:
		return r.resolveLiteral(rep, pos, raw)
	default:
		return r.resolveSearched(rep, pos, imp.ImportKind, raw)
	}
}

func needsAlias(kind ast.ImportKind) bool {
	switch kind {
	case ast.ImportHTML, ast.ImportStyle, ast.ImportJavaScript:
		return true
	default:
		return false
	}
}

// resolveOfficial resolves a `chtl::NAME` path exclusively against the
// official module directory, applying the `Mod.Sub` → `Mod/src/Sub`
// submodule expansion once `Mod` is located.
func (r *Resolver) resolveOfficial(rep *diag.Reporter, pos diag.Position, imp *ast.Node, name string) Resolved {
	modPath := submodulePath(name)
	full := path.Join("official", modPath)
	if !r.exists(full) {
		rep.Errorf(diag.Import, pos, "official module %q not found", name)
		return Resolved{}
	}
	return r.dedupe(rep, pos, full)
}

// submodulePath expands `Mod.Sub` or `Mod/Sub` into `Mod/src/Sub`.
func submodulePath(name string) string {
	sep := "."
	if strings.Contains(name, "/") {
		sep = "/"
	}
	parts := strings.SplitN(name, sep, 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return path.Join(parts[0], "src", parts[1])
}

func (r *Resolver) resolveLiteral(rep *diag.Reporter, pos diag.Position, raw string) Resolved {
	if !r.exists(raw) {
		rep.Errorf(diag.Import, pos, "import path %q not found", raw)
		return Resolved{}
	}
	return r.dedupe(rep, pos, raw)
}

// resolveSearched walks the configured search roots for a name-only or
// specific-name import, trying each candidate extension for the
// import kind until one exists.
func (r *Resolver) resolveSearched(rep *diag.Reporter, pos diag.Position, kind ast.ImportKind, raw string) Resolved {
	candidates := []string{raw}
	if path.Ext(raw) == "" {
		for _, ext := range candidateExtsByKind[kind] {
			candidates = append(candidates, raw+ext)
		}
	}
	for _, c := range candidates {
		if r.exists(c) {
			return r.dedupe(rep, pos, c)
		}
	}
	rep.Errorf(diag.Import, pos, "import %q not found in any search root", raw)
	return Resolved{}
}

// resolveWildcard expands `dir/*` (every file directly under dir) or
// `name.*` (a specific name under any extension) to every matching
// file. The glob pattern is matched against the basename only, so the
// directory component never has to appear in the pattern itself.
func (r *Resolver) resolveWildcard(rep *diag.Reporter, pos diag.Position, kind ast.ImportKind, raw string) Resolved {
	dir, pattern := path.Split(raw)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}

	g, err := r.glob.GetOrCreate(raw, func() (glob.Glob, error) {
		return glob.Compile(pattern)
	})
	if err != nil {
		rep.Errorf(diag.Import, pos, "invalid wildcard import pattern %q: %v", raw, err)
		return Resolved{}
	}

	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		rep.Errorf(diag.Import, pos, "wildcard import directory %q not found", dir)
		return Resolved{}
	}

	// A bare `*` (the `dir/*` form) carries no extension information of
	// its own, so narrow it to the import kind's candidate extensions;
	// an explicit pattern like `name.*` or `*.css` is honored as-is.
	exts, narrow := candidateExtsByKind[kind]
	narrow = narrow && pattern == "*"

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !g.Match(e.Name()) {
			continue
		}
		if narrow && !hasAnyExt(e.Name(), exts) {
			continue
		}
		paths = append(paths, path.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		rep.Warnf(diag.Import, pos, "wildcard import %q matched no files", raw)
	}
	return Resolved{Paths: paths}
}

func hasAnyExt(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (r *Resolver) exists(p string) bool {
	ok, err := afero.Exists(r.fs, p)
	return err == nil && ok
}

// ReadFile reads p (a CanonicalPath/Paths entry a prior Resolve call
// returned) through the same layered root filesystem resolution used,
// so callers never need their own copy of the search-root mounting
// logic just to fetch a resolved import's content.
func (r *Resolver) ReadFile(p string) ([]byte, error) {
	return afero.ReadFile(r.fs, p)
}

// dedupe canonicalizes p and records it against the already-imported
// set, warning when a later import statement canonicalizes to a path
// already resolved by an earlier one (spec.md §4.C4 "Duplicate
// detection"). It keys on an xxhash digest of the cleaned path rather
// than the raw string, so two differently spelled imports of the same
// file (`foo` vs `./foo.chtl`) collide.
func (r *Resolver) dedupe(rep *diag.Reporter, pos diag.Position, p string) Resolved {
	canon := path.Clean(p)
	key := canonKey(canon)
	if prior, ok := r.seen[key]; ok {
		rep.Warnf(diag.Import, pos, "import %q duplicates already-imported %q", canon, prior)
	}
	r.seen[key] = canon
	return Resolved{CanonicalPath: canon, Paths: []string{canon}}
}

func canonKey(canon string) string {
	return strconv.FormatUint(xxhash.Sum64String(canon), 16)
}
