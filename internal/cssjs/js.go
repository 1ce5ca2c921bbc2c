package cssjs

import (
	"github.com/evanw/esbuild/pkg/api"

	"github.com/chtl-lang/chtl/internal/diag"
)

// ValidateJS runs the merged JS buffer (the concatenated script output
// of the unit; scanner fragments are not part of it) through esbuild
// in parse-only mode: no bundling, no minification, just a full parse
// that surfaces a brace/paren/bracket imbalance or other syntax defect
// the merge step might have introduced. Valid input comes back with
// only esbuild's own minor whitespace/semicolon normalization applied.
func ValidateJS(rep *diag.Reporter, file, src string) string {
	if src == "" {
		return src
	}
	result := api.Transform(src, api.TransformOptions{
		Loader:        api.LoaderJS,
		Target:        api.ESNext,
		LegalComments: api.LegalCommentsNone,
	})
	for _, msg := range result.Errors {
		rep.Errorf(diag.Syntax, jsPosition(file, msg), "js: %s", msg.Text)
	}
	for _, msg := range result.Warnings {
		rep.Warnf(diag.Syntax, jsPosition(file, msg), "js: %s", msg.Text)
	}
	if len(result.Errors) > 0 {
		return src
	}
	return string(result.Code)
}

func jsPosition(file string, msg api.Message) diag.Position {
	if msg.Location == nil {
		return diag.Position{File: file}
	}
	return diag.Position{File: file, Line: msg.Location.Line, Column: msg.Location.Column}
}
