// Package opt implements the C5 optimizer: five rounds of dead-code
// elimination, empty-block removal, jump simplification, optional
// constant folding, and copy propagation over an SSA function, each
// round finished by a dead-block sweep. Grounded on
// original_source/src/optimizations/{dead_code_elimination,
// block_merging, simplify_jumps, constant_propagation,
// copy_propagation}.rs, translated from per-file Rc<RefCell<Block>>
// mutation into in-place edits over the ir.Func arena.
package opt

import (
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/ssa"
)

// Run executes the fixed five-round optimizer pipeline described in
// §4.5. DCE runs once before the loop to delete the phis SSA
// construction places optimistically (§4.4 step 2) whose sources
// turn out never to be needed.
func Run(fn *ssa.Func, foldConstants bool) {
	DCE(fn)
	for i := 0; i < 5; i++ {
		DCE(fn)
		RemoveEmptyBlocks(fn)
		SimplifyJumps(fn)
		if foldConstants {
			FoldConstants(fn)
		}
		PropagateCopies(fn)
		fn.Sweep()
		Reconcile(fn)
	}
}

// Reconcile recomputes every block's predecessor set from its
// terminator and drops any phi source entry that no longer names a
// live predecessor. Passes that redirect edges (empty-block removal,
// constant-fold branch collapse) leave this as their one piece of
// bookkeeping; recomputing it from scratch here is simpler and less
// error-prone than threading incremental add/remove calls through each
// pass individually.
func Reconcile(fn *ssa.Func) {
	ir.RebuildPreds(fn)
	for _, b := range fn.Blocks() {
		for i := range b.Phis {
			for pred := range b.Phis[i].Srcs {
				if _, ok := b.Preds[pred]; !ok {
					delete(b.Phis[i].Srcs, pred)
				}
			}
		}
	}
}
