package chtl_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/chtl-lang/chtl/pkg/chtl"
)

func TestCompileReturnsGeneratedHTML(t *testing.T) {
	c := qt.New(t)
	res := chtl.Compile(`div { id: "main"; text { "hi" } }`, chtl.DefaultOptions())
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, `<div id="main">hi</div>`), qt.IsTrue)
}

func TestCompileReportsUndefinedTemplateAsError(t *testing.T) {
	c := qt.New(t)
	res := chtl.Compile(`div { @Element Missing; }`, chtl.DefaultOptions())
	c.Assert(res.Success, qt.IsFalse)
	c.Assert(len(res.Errors) > 0, qt.IsTrue)
}

func TestCompileFileReadsFromDisk(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "page.chtl")
	c.Assert(os.WriteFile(path, []byte(`span { text { "from disk" } }`), 0o644), qt.IsNil)

	res, err := chtl.CompileFile(path, chtl.DefaultOptions())
	c.Assert(err, qt.IsNil)
	c.Assert(res.Success, qt.IsTrue)
	c.Assert(strings.Contains(res.HTML, "from disk"), qt.IsTrue)
}

func TestCompileFilesRunsEachUnitIndependently(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.chtl")
	b := filepath.Join(dir, "b.chtl")
	c.Assert(os.WriteFile(a, []byte(`div { text { "a" } }`), 0o644), qt.IsNil)
	c.Assert(os.WriteFile(b, []byte(`span { text { "b" } }`), 0o644), qt.IsNil)

	results, err := chtl.CompileFiles(context.Background(), []string{a, b}, chtl.DefaultOptions())
	c.Assert(err, qt.IsNil)
	c.Assert(len(results), qt.Equals, 2)
	c.Assert(strings.Contains(results[0].HTML, ">a<"), qt.IsTrue)
	c.Assert(strings.Contains(results[1].HTML, ">b<"), qt.IsTrue)
}
