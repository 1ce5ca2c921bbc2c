package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func runCmd(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	root := newRootCmd()
	var out, errb bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetArgs(args)

	err := root.Execute()
	if err != nil {
		if ec, ok := err.(exitCode); ok {
			return out.String(), errb.String(), int(ec)
		}
		return out.String(), errb.String(), 2
	}
	return out.String(), errb.String(), lastExit
}

func TestRunCompileWritesHTMLToStdout(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "page.chtl")
	c.Assert(os.WriteFile(path, []byte(`div { text { "hi" } }`), 0o644), qt.IsNil)

	out, _, code := runCmd(t, path)
	c.Assert(code, qt.Equals, 0)
	c.Assert(strings.Contains(out, ">hi<"), qt.IsTrue)
}

func TestRunCompileExitsTwoWithNoFiles(t *testing.T) {
	c := qt.New(t)
	_, _, code := runCmd(t)
	c.Assert(code, qt.Equals, 2)
}

func TestRunCompileExitsOneOnCompileFailure(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.chtl")
	c.Assert(os.WriteFile(path, []byte(`div { @Element Missing; }`), 0o644), qt.IsNil)

	_, errOut, code := runCmd(t, path)
	c.Assert(code, qt.Equals, 1)
	c.Assert(strings.Contains(errOut, "Missing"), qt.IsTrue)
}

func TestRunCompileVersionFlag(t *testing.T) {
	c := qt.New(t)
	out, _, code := runCmd(t, "--version")
	c.Assert(code, qt.Equals, 0)
	c.Assert(strings.Contains(out, "chtlc"), qt.IsTrue)
}
