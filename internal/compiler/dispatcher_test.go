package compiler_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fortytw2/leaktest"
	qt "github.com/frankban/quicktest"
	"github.com/rogpeppe/go-internal/txtar"
	"github.com/spf13/afero"

	"github.com/chtl-lang/chtl/internal/compiler"
)

func TestCompileSimpleDocumentWrapsStandardPreamble(t *testing.T) {
	c := qt.New(t)
	fs := afero.NewMemMapFs()
	d := compiler.New(fs, []string{"."}, "")

	res := d.Compile("t.chtl", `div { id: "main"; text { "hi" } }`, compiler.DefaultOptions())
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, "<!DOCTYPE html>"), qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, `<div id="main">hi</div>`), qt.IsTrue)
}

func TestCompileHoistsStyleAndScriptIntoDocument(t *testing.T) {
	c := qt.New(t)
	fs := afero.NewMemMapFs()
	d := compiler.New(fs, []string{"."}, "")

	src := `div {
		style { .card { color: red; } }
		script { console.log(1); }
	}`
	res := d.Compile("t.chtl", src, compiler.DefaultOptions())
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, "<style>"), qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, ".card"), qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, "<script>"), qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, "console"), qt.IsTrue)
}

func TestCompileRespectsExplicitDocumentStructure(t *testing.T) {
	c := qt.New(t)
	fs := afero.NewMemMapFs()
	d := compiler.New(fs, []string{"."}, "")

	src := `html { head {} body { div { style { .x { color: red; } } } } }`
	res := d.Compile("t.chtl", src, compiler.DefaultOptions())
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(strings.Count(res.HTML, "<html"), qt.Equals, 1)
	c.Assert(strings.Contains(res.HTML, "<style>.x"), qt.IsTrue)
}

// multiFileFixture unpacks a txtar archive (one "-- path --" section per
// file, the same fixture format Go's own stdlib tests use for
// multi-file testdata) into fs, returning the content of its first
// file — the entry point a test compiles.
func multiFileFixture(t *testing.T, fs afero.Fs, archive string) string {
	t.Helper()
	ar := txtar.Parse([]byte(archive))
	c := qt.New(t)
	c.Assert(len(ar.Files) > 0, qt.IsTrue)
	for _, f := range ar.Files {
		c.Assert(afero.WriteFile(fs, f.Name, f.Data, 0o644), qt.IsNil)
	}
	return string(ar.Files[0].Data)
}

func TestCompileMergesImportedTemplate(t *testing.T) {
	c := qt.New(t)
	fs := afero.NewMemMapFs()
	src := multiFileFixture(t, fs, `-- t.chtl --
[Import] @Chtl "box.chtl";
div { @Element Box; }
-- box.chtl --
[Template] @Element Box { span { text { "boxed" } } }
`)

	d := compiler.New(fs, []string{"."}, "")
	res := d.Compile("t.chtl", src, compiler.DefaultOptions())
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, "<span>boxed</span>"), qt.IsTrue)
}

func TestCompileReportsUndefinedTemplateAsError(t *testing.T) {
	c := qt.New(t)
	fs := afero.NewMemMapFs()
	d := compiler.New(fs, []string{"."}, "")

	res := d.Compile("t.chtl", `div { @Element Missing; }`, compiler.DefaultOptions())
	c.Assert(res.Success, qt.IsFalse)
	c.Assert(len(res.Errors) > 0, qt.IsTrue)
}

func TestCompileFilesRunsEachUnitIndependently(t *testing.T) {
	defer leaktest.Check(t)()
	c := qt.New(t)
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "a.chtl", []byte(`div { text { "a" } }`), 0o644)
	_ = afero.WriteFile(fs, "b.chtl", []byte(`span { text { "b" } }`), 0o644)

	d := compiler.New(fs, []string{"."}, "")
	results, err := d.CompileFiles(context.Background(), []string{"a.chtl", "b.chtl"}, compiler.DefaultOptions())
	c.Assert(err, qt.IsNil)
	c.Assert(len(results), qt.Equals, 2)
	c.Assert(strings.Contains(results[0].HTML, ">a<"), qt.IsTrue)
	c.Assert(strings.Contains(results[1].HTML, ">b<"), qt.IsTrue)
}

func TestCompilePrettyPrintIndentsNesting(t *testing.T) {
	c := qt.New(t)
	fs := afero.NewMemMapFs()
	d := compiler.New(fs, []string{"."}, "")

	opts := compiler.DefaultOptions()
	opts.PrettyPrint = true
	res := d.Compile("t.chtl", `div { span { text { "hi" } } }`, opts)
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, "\n"), qt.IsTrue)
}
