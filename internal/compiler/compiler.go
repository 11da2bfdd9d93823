// Package compiler orchestrates the per-function pipeline (§5): lower
// an elaborated internal/syntax.FuncDef through internal/build,
// internal/ssa, internal/opt, internal/micro, and internal/regalloc to
// produce a register-allocated microcode stream. It is the one package
// in this module that runs more than one function's compilation
// concurrently — nothing from §4.1-§4.7 reads another function's IR, so
// internal/compiler.Program fans the whole-program compile out over
// golang.org/x/sync/errgroup, the same dependency cmd/compile's own
// per-package build scheduler uses for this exact "independent units,
// first error wins" shape.
package compiler

import (
	"github.com/rahularya50/lispc/internal/build"
	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/micro"
	"github.com/rahularya50/lispc/internal/opt"
	"github.com/rahularya50/lispc/internal/regalloc"
	"github.com/rahularya50/lispc/internal/ssa"
	"github.com/rahularya50/lispc/internal/syntax"

	"golang.org/x/sync/errgroup"
)

// PhysicalRegisters is the microcode target's physical register count
// (§4.7: "the microcode target uses k = 2").
const PhysicalRegisters = regalloc.PhysicalCount

// Options controls which optional passes the pipeline runs.
type Options struct {
	FoldConstants bool
}

// Function runs the full C1-C7 pipeline over a single elaborated
// function definition, returning its register-allocated microcode.
// diag.UnimplementedOperation surfaces here if the function uses an
// arithmetic operator or literal the microcode lowering does not
// support (§7).
func Function(fd *syntax.FuncDef, opts Options) (fn *micro.Func, err error) {
	initial, err := build.Function(fd)
	if err != nil {
		return nil, err
	}

	ssaFn := ssa.Build(initial)
	opt.Run(ssaFn, opts.FoldConstants)

	microFn, err := micro.Lower(ssaFn)
	if err != nil {
		return nil, err
	}

	regalloc.Allocate(microFn, PhysicalRegisters)
	return microFn, nil
}

// Result pairs a function name with its compiled form, so Program can
// collect the concurrently compiled functions by name.
type Result struct {
	Name string
	Func *micro.Func
}

// Program compiles every function in prog concurrently, one goroutine
// per function via errgroup.Group — safe because §5's "block arenas,
// register counters, and block counters remain exclusively owned
// per-*ir.Func" holds for the whole pipeline, not just C1-C7. Every
// function's compilation runs to completion; once all have finished,
// the first error (of any function) is returned. Diag error
// kinds survive through errgroup untouched, so the CLI driver's
// errors.As dispatch still works on Program's return value.
func Program(prog *syntax.Program, opts Options) (map[string]*micro.Func, error) {
	if _, ok := prog.Funcs["main"]; !ok {
		return nil, diag.NewSemanticError("no main function defined")
	}

	var g errgroup.Group
	results := make(chan Result, len(prog.Funcs))
	for name, fd := range prog.Funcs {
		name, fd := name, fd
		g.Go(func() error {
			fn, err := Function(fd, opts)
			if err != nil {
				return err
			}
			results <- Result{Name: name, Func: fn}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	out := make(map[string]*micro.Func, len(prog.Funcs))
	for r := range results {
		out[r.Name] = r.Func
	}
	return out, nil
}
