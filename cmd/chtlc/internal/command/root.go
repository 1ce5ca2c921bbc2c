// Package command implements chtlc's cobra command tree.
package command

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"

	"github.com/chtl-lang/chtl/internal/diag"
	"github.com/chtl-lang/chtl/pkg/chtl"
)

var version = "dev" // set by -ldflags at release build time

var flags struct {
	pretty       bool
	debug        bool
	strict       bool
	includePaths []string
	maxErrors    int
	moduleDir    string
	out          string
	showVersion  bool
}

// Execute parses args and runs the compile command, returning the
// process exit code spec.md §6 defines: 0 success, 1 compilation
// error, 2 bad invocation.
func Execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if code, ok := err.(exitCode); ok {
			return int(code)
		}
		fmt.Fprintln(os.Stderr, color.RedString("chtlc: %v", err))
		return 2
	}
	return lastExit
}

// exitCode lets RunE communicate a specific exit status (1 vs 2)
// through cobra's error-returning convention without cobra itself
// printing a duplicate usage message for a compile failure.
type exitCode int

func (e exitCode) Error() string { return "" }

// lastExit is what Execute returns when RunE returns nil, which happens
// only on success (0); a failed compile returns an exitCode error
// instead, since cobra's RunE contract has no success-with-nonzero-exit
// path of its own.
var lastExit int

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chtlc [flags] [files...]",
		Short:         "Compile CHTL source into HTML, CSS, and JavaScript",
		Long:          "chtlc compiles one or more .chtl source files and writes the generated HTML (with merged CSS/JS) to stdout or a destination directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompile,
	}
	root.Flags().BoolVar(&flags.pretty, "pretty", false, "pretty-print generated HTML")
	root.Flags().BoolVar(&flags.debug, "debug", false, "enable debug logging and diagnostic dumps")
	root.Flags().BoolVar(&flags.strict, "strict", false, "treat warnings as errors")
	root.Flags().StringSliceVar(&flags.includePaths, "include", nil, "extra Import Resolver search roots")
	root.Flags().IntVar(&flags.maxErrors, "max-errors", 100, "maximum diagnostics to accumulate before aborting")
	root.Flags().StringVar(&flags.moduleDir, "module-dir", "./module", "official module search directory")
	root.Flags().StringVarP(&flags.out, "out", "o", "", "write generated HTML to this path instead of stdout (one file only)")
	root.Flags().BoolVarP(&flags.showVersion, "version", "V", false, "print the chtlc version")
	return root
}

func runCompile(cmd *cobra.Command, args []string) error {
	if flags.showVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "chtlc %s\n", version)
		lastExit = 0
		return nil
	}
	if len(args) == 0 {
		lastExit = 2
		return exitCode(2)
	}

	color.NoColor = color.NoColor || !isatty.IsTerminal(os.Stdout.Fd())

	opts := chtl.DefaultOptions()
	opts.PrettyPrint = flags.pretty
	opts.DebugMode = flags.debug
	opts.StrictMode = flags.strict
	opts.IncludePaths = flags.includePaths
	opts.MaxErrors = flags.maxErrors
	opts.OfficialModuleDir = flags.moduleDir

	results, err := chtl.CompileFiles(context.Background(), args, opts)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("chtlc: %v", err))
		lastExit = 2
		return exitCode(2)
	}

	anyFailed := false
	for i, res := range results {
		file := args[i]
		if flags.debug {
			fmt.Fprintln(cmd.ErrOrStderr(), litter.Sdump(res.Errors))
		}
		if len(res.Errors) > 0 {
			printDiagnostics(cmd, file, res.Errors)
		}
		if !res.Success || (flags.strict && len(res.Errors) > 0) {
			anyFailed = true
			continue
		}
		if err := writeResult(cmd, file, res); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("chtlc: %s: %v", file, err))
			anyFailed = true
		}
	}

	if anyFailed {
		lastExit = 1
		return exitCode(1)
	}
	lastExit = 0
	return nil
}

func writeResult(cmd *cobra.Command, file string, res chtl.Result) error {
	if flags.out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.HTML)
		return nil
	}
	return os.WriteFile(flags.out, []byte(res.HTML), 0o644)
}

// printDiagnostics renders one file's accumulated diagnostics as a
// table (file, line:column, level, kind, message), the same tabular
// shape a linter's batch output takes.
func printDiagnostics(cmd *cobra.Command, file string, diags []diag.Diagnostic) {
	table := tablewriter.NewWriter(cmd.ErrOrStderr())
	table.SetHeader([]string{"file", "line:col", "level", "kind", "message"})
	for _, d := range diags {
		level := d.Level.String()
		if !color.NoColor {
			level = colorForLevel(d.Level)(level)
		}
		table.Append([]string{
			file,
			fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column),
			level,
			d.Kind.String(),
			d.Message,
		})
	}
	table.Render()
}

func colorForLevel(level diag.Level) func(string, ...any) string {
	switch level {
	case diag.Fatal, diag.Error:
		return color.RedString
	case diag.Warning:
		return color.YellowString
	default:
		return color.CyanString
	}
}
