package opt

import (
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/ssa"
)

// PropagateCopies implements §4.5.4: every `dest = move src`
// instruction unions dest into src's equivalence class; every register
// use anywhere in the function is then rewritten to its class
// representative, and a phi whose sources all collapse to the same
// representative is demoted to a move at its block's head (for the
// next round to fold away in turn). Grounded on
// original_source/src/optimizations/copy_propagation.rs's union-find
// over move chains.
func PropagateCopies(fn *ssa.Func) {
	parent := map[ssa.Register]ssa.Register{}
	find := func(r ssa.Register) ssa.Register {
		for {
			p, ok := parent[r]
			if !ok {
				return r
			}
			r = p
		}
	}

	for _, b := range fn.Blocks() {
		for _, inst := range b.Instructions {
			if inst.Rhs.Kind == ssa.MoveRHS {
				parent[inst.Lhs] = find(inst.Rhs.Arg1)
			}
		}
	}

	for _, b := range fn.Blocks() {
		for i := range b.Instructions {
			b.Instructions[i].Rhs = b.Instructions[i].Rhs.Rewrite(find)
		}
		for i := range b.Phis {
			for pred, r := range b.Phis[i].Srcs {
				b.Phis[i].Srcs[pred] = find(r)
			}
		}
		switch b.Terminator.Kind {
		case ir.BranchIfZero:
			b.Terminator.Pred = find(b.Terminator.Pred)
		case ir.Return:
			if b.Terminator.Value != nil {
				v := find(*b.Terminator.Value)
				b.Terminator.Value = &v
			}
		}
	}

	for _, b := range fn.Blocks() {
		var kept []ssa.Phi
		var prepend []ssa.Instruction
		for _, phi := range b.Phis {
			rep, allSame := samePhiSource(phi)
			if allSame {
				prepend = append(prepend, ssa.Instruction{Lhs: phi.Dest, Rhs: ssa.Move(rep)})
			} else {
				kept = append(kept, phi)
			}
		}
		b.Phis = kept
		if len(prepend) > 0 {
			b.Instructions = append(prepend, b.Instructions...)
		}
	}
}

func samePhiSource(phi ssa.Phi) (ssa.Register, bool) {
	var rep ssa.Register
	first := true
	for _, v := range phi.Srcs {
		if first {
			rep, first = v, false
		} else if v != rep {
			return ssa.Register{}, false
		}
	}
	if first {
		return ssa.Register{}, false
	}
	return rep, true
}
