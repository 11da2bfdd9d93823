package opt

import (
	"github.com/rahularya50/lispc/internal/ssa"
)

// def records what a single register's defining phi or instruction
// itself reads, so DCE can walk the use-def chain backward from the
// registers a function's terminators actually observe.
type def struct {
	uses []ssa.Register
}

// DCE implements §4.5.5: mark every register transitively reachable
// from a terminator use, then drop every phi and instruction whose
// destination was never marked. Grounded on
// original_source/src/optimizations/dead_code_elimination.rs's
// mark-and-sweep over the def-use graph.
func DCE(fn *ssa.Func) {
	defs := map[ssa.Register]def{}
	for _, b := range fn.Blocks() {
		for _, phi := range b.Phis {
			var uses []ssa.Register
			for _, pred := range phi.SortedPreds() {
				uses = append(uses, phi.Srcs[pred])
			}
			defs[phi.Dest] = def{uses: uses}
		}
		for _, inst := range b.Instructions {
			defs[inst.Lhs] = def{uses: inst.Rhs.Uses()}
		}
	}

	marked := map[ssa.Register]bool{}
	var worklist []ssa.Register
	for _, b := range fn.Blocks() {
		worklist = append(worklist, b.Terminator.Uses()...)
	}
	for len(worklist) > 0 {
		r := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if marked[r] {
			continue
		}
		marked[r] = true
		if d, ok := defs[r]; ok {
			worklist = append(worklist, d.uses...)
		}
	}

	for _, b := range fn.Blocks() {
		keptPhis := b.Phis[:0]
		for _, phi := range b.Phis {
			if marked[phi.Dest] {
				keptPhis = append(keptPhis, phi)
			}
		}
		b.Phis = keptPhis

		keptInsts := b.Instructions[:0]
		for _, inst := range b.Instructions {
			if marked[inst.Lhs] {
				keptInsts = append(keptInsts, inst)
			}
		}
		b.Instructions = keptInsts
	}
}
