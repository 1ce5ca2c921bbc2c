// Command chtlc is the CHTL compiler's command-line driver: a thin
// cobra wrapper over pkg/chtl, in the shape of Hugo's own commands
// package (a root command whose RunE does the real work, flags bound
// to package-level vars).
package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/chtl-lang/chtl/cmd/chtlc/internal/command"
)

func main() {
	// Hugo's own main.go tunes GOMAXPROCS the same way when running in
	// a container with a fractional CPU quota; a CHTL batch compile
	// over many files benefits from the same correction.
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
		fmt.Fprintf(os.Stderr, "chtlc: GOMAXPROCS: %v\n", err)
	}

	os.Exit(command.Execute(os.Args[1:]))
}
