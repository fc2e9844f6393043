// Package driver coordinates compilation of multiple independent Amyr
// source units. Each unit gets its own lexer, parser, and borrow
// checker — nothing is shared across units — so they run concurrently
// through an errgroup rather than a shared worker-pool queue.
package driver

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"amyr/internal/ast"
	"amyr/internal/borrow"
	"amyr/internal/parser"
)

// Unit is one named compilation input (a file path, or "<repl>").
type Unit struct {
	Name   string
	Source string
}

// Result is everything CompileAll produces for a single unit: its parsed
// tree (nil on a parse error), the parse error if any, and the borrow
// violations found when parsing succeeded.
type Result struct {
	Name       string
	Tree       ast.Expr
	ParseErr   *parser.Error
	Violations []borrow.Violation
}

// CompileAll parses and borrow-checks every unit concurrently, bounded by
// ctx, and returns one Result per unit in the same order units were
// given — concurrency changes wall-clock time, never output order.
func CompileAll(ctx context.Context, units []Unit) ([]Result, error) {
	results := make([]Result, len(units))

	g, ctx := errgroup.WithContext(ctx)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			p := parser.New(u.Source)
			tree, perr := p.ParseProgram()
			r := Result{Name: u.Name, ParseErr: perr}
			if perr == nil {
				r.Tree = tree
				_, violations := borrow.Check(tree)
				r.Violations = violations
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary formats a CompileAll result list as a sorted, human-readable
// report, one line per unit.
func Summary(results []Result) string {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := ""
	for _, r := range sorted {
		switch {
		case r.ParseErr != nil:
			out += fmt.Sprintf("%s: %s\n", r.Name, r.ParseErr.Error())
		case len(r.Violations) > 0:
			out += fmt.Sprintf("%s: %d borrow violation(s)\n", r.Name, len(r.Violations))
			for _, v := range r.Violations {
				out += fmt.Sprintf("  Line %d: %s\n", v.Line, v.Message)
			}
		default:
			out += fmt.Sprintf("%s: ok\n", r.Name)
		}
	}
	return out
}
