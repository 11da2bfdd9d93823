// Command lispc compiles a single Lisp-surface source file down to a
// register-allocated microcode stream for its main function (§6.3).
// Grounded in style on cmd/asm's and cmd/compile's own driver
// conventions: stdlib flag for configuration, fmt.Fprintf(os.Stderr,
// ...) diagnostics gated on exit code, golang.org/x/term to decide
// whether to colorize.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rahularya50/lispc/internal/compiler"
	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/profile"
	"github.com/rahularya50/lispc/internal/render"
	"github.com/rahularya50/lispc/internal/sexpr"
	"github.com/rahularya50/lispc/internal/syntax"

	"golang.org/x/term"
)

const profilePkgPrefix = "github.com/rahularya50/lispc/internal/"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) (code int) {
	fs := flag.NewFlagSet("lispc", flag.ContinueOnError)
	target := fs.String("target", "", "path to the source file to compile (required)")
	foldConstants := fs.Bool("fold-constants", false, "run the constant-folding optimizer pass")
	cpuProfile := fs.String("cpuprofile", "", "write a CPU profile to `path`")
	profileSummary := fs.Bool("profile-summary", false, "print per-function self time from the CPU profile (requires -cpuprofile)")
	jsonOutput := fs.Bool("json", false, "render main's microcode as JSON instead of text")
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 5
	}
	if *target == "" {
		fmt.Fprintln(stderr, "lispc: -target is required")
		return 5
	}
	if *profileSummary && *cpuProfile == "" {
		fmt.Fprintln(stderr, "lispc: -profile-summary requires -cpuprofile")
		return 5
	}

	diagnose := diagnoser(stderr)

	defer func() {
		if r := recover(); r != nil {
			violation, ok := r.(*diag.IrInvariantViolation)
			if !ok {
				panic(r)
			}
			diagnose("internal", violation.Error())
			code = 3
		}
	}()

	if *cpuProfile != "" {
		stop, err := profile.StartCPU(*cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "lispc: %v\n", err)
			return 5
		}
		defer stop()
	}

	snapshot, err := compileMain(*target, *foldConstants)
	if err != nil {
		kind, exitCode := classify(err)
		diagnose(kind, err.Error())
		return exitCode
	}

	if *jsonOutput {
		data, err := render.JSON(*snapshot)
		if err != nil {
			fmt.Fprintf(stderr, "lispc: %v\n", err)
			return 5
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprint(stdout, render.Text(*snapshot))
	}

	if *profileSummary {
		if err := profile.Summarize(*cpuProfile, profilePkgPrefix, stderr); err != nil {
			fmt.Fprintf(stderr, "lispc: %v\n", err)
		}
	}

	return 0
}

func compileMain(path string, foldConstants bool) (*render.Function, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	forms, err := sexpr.Parse(string(src))
	if err != nil {
		return nil, err
	}
	prog, err := syntax.Analyze(forms)
	if err != nil {
		return nil, err
	}
	funcs, err := compiler.Program(prog, compiler.Options{FoldConstants: foldConstants})
	if err != nil {
		return nil, err
	}
	snapshot := render.Snapshot("main", funcs["main"])
	return &snapshot, nil
}

// classify maps an error to its diagnostic kind label and exit code
// (§6.3, §7).
func classify(err error) (kind string, code int) {
	var parseErr *diag.ParseError
	var semErr *diag.SemanticError
	var unimpl *diag.UnimplementedOperation
	switch {
	case errors.As(err, &parseErr):
		return "parse", 1
	case errors.As(err, &semErr):
		return "semantic", 2
	case errors.As(err, &unimpl):
		return "unimplemented", 4
	default:
		return "io", 5
	}
}

func diagnoser(stderr *os.File) func(kind, msg string) {
	color := term.IsTerminal(int(stderr.Fd()))
	return func(kind, msg string) {
		if color {
			fmt.Fprintf(stderr, "\x1b[31m%s:\x1b[0m %s\n", kind, msg)
		} else {
			fmt.Fprintf(stderr, "%s: %s\n", kind, msg)
		}
	}
}
