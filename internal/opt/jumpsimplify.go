package opt

import (
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/ssa"
)

// SimplifyJumps implements §4.5.2: a branch whose two targets are the
// same block carries no information and is rewritten to an
// unconditional jump, exposing the predicate as dead for DCE to pick
// up next round. Grounded on
// original_source/src/optimizations/simplify_jumps.rs.
func SimplifyJumps(fn *ssa.Func) {
	for _, b := range fn.Blocks() {
		if b.Terminator.Kind == ir.BranchIfZero && b.Terminator.Conseq == b.Terminator.Alt {
			b.Terminator = ir.GotoTerm[ssa.Register](b.Terminator.Conseq)
		}
	}
}
