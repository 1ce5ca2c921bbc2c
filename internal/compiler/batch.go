package compiler

import (
	"context"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// CompileFiles compiles every path concurrently, each as its own
// independent compilation unit with its own diag.Reporter and CHTL-JS
// registries (spec.md §5: registries are per-compilation-unit, never
// process-global), returning results in the same order as paths. The
// Dispatcher's resolver and module manager are shared read-only
// collaborators, safe for concurrent use once built.
func (d *Dispatcher) CompileFiles(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	results := make([]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			src, err := afero.ReadFile(d.fs, p)
			if err != nil {
				results[i] = Result{Success: false}
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = d.Compile(p, string(src), opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
