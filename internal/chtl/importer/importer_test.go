package importer_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/spf13/afero"

	"github.com/chtl-lang/chtl/internal/chtl/ast"
	"github.com/chtl-lang/chtl/internal/chtl/importer"
	"github.com/chtl-lang/chtl/internal/diag"
)

func TestClassifyPath(t *testing.T) {
	c := qt.New(t)
	cases := map[string]importer.PathClass{
		"Foo":        importer.ClassNameOnly,
		"foo.chtl":   importer.ClassSpecificName,
		"./foo.chtl": importer.ClassSpecificPath,
		"sub/foo":    importer.ClassSpecificPath,
		"dir/":       importer.ClassDirectory,
		"dir/*":      importer.ClassWildcard,
		"dir.*":      importer.ClassWildcard,
	}
	for raw, want := range cases {
		c.Assert(importer.ClassifyPath(raw), qt.Equals, want, qt.Commentf("path %q", raw))
	}
}

func newFixtureFs() afero.Fs {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "module/theme.chtl", []byte("div{}"), 0o644)
	_ = afero.WriteFile(fs, "module/a.css", []byte("a{}"), 0o644)
	_ = afero.WriteFile(fs, "module/b.css", []byte("b{}"), 0o644)
	return fs
}

func TestResolveSearchedTriesCandidateExtensions(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	r := importer.NewResolver(newFixtureFs(), "module")
	res := r.Resolve(rep, &ast.Node{ImportKind: ast.ImportChtl, SourcePath: "theme"})
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(res.CanonicalPath, qt.Equals, "theme.chtl")
}

func TestResolveRequiresAliasForRawImports(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	r := importer.NewResolver(newFixtureFs(), "module")
	res := r.Resolve(rep, &ast.Node{ImportKind: ast.ImportStyle, SourcePath: "a.css"})
	c.Assert(res.Skipped, qt.IsTrue)
	c.Assert(rep.Count(diag.Warning), qt.Equals, 1)
}

func TestResolveWildcardExpandsMatchingFiles(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	r := importer.NewResolver(newFixtureFs(), "module")
	res := r.Resolve(rep, &ast.Node{ImportKind: ast.ImportStyle, SourcePath: "/*", ImportAlias: "Styles"})
	c.Assert(rep.HasErrors(), qt.IsFalse)
	c.Assert(len(res.Paths), qt.Equals, 2)
}

func TestResolveDuplicateCanonicalPathWarns(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	r := importer.NewResolver(newFixtureFs(), "module")
	r.Resolve(rep, &ast.Node{ImportKind: ast.ImportStyle, SourcePath: "a.css", ImportAlias: "A"})
	r.Resolve(rep, &ast.Node{ImportKind: ast.ImportStyle, SourcePath: "./a.css", ImportAlias: "A2"})
	c.Assert(rep.Count(diag.Warning), qt.Equals, 1)
}

func TestResolveDirectoryPathIsError(t *testing.T) {
	c := qt.New(t)
	rep := diag.NewReporter(diag.MaxErrorsDefault)
	r := importer.NewResolver(newFixtureFs(), "module")
	r.Resolve(rep, &ast.Node{ImportKind: ast.ImportChtl, SourcePath: "sub/"})
	c.Assert(rep.HasErrors(), qt.IsTrue)
}
