package opt

import (
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/ssa"
)

// RemoveEmptyBlocks implements §4.5.1: a block with no phis, no
// instructions, and an unconditional jump is a pure passthrough. Every
// predecessor that can safely skip it — redirecting straight to its
// destination would not desynchronize a phi at that destination — gets
// its terminator rewritten to jump there directly. Grounded on
// original_source/src/optimizations/block_merging.rs's predecessor
// splicing; here as an in-place edit over the same arena rather than a
// rebuild.
func RemoveEmptyBlocks(fn *ssa.Func) {
	visited := map[ir.BlockID]bool{}
	for _, b := range fn.Blocks() {
		if visited[b.ID] {
			continue
		}
		visited[b.ID] = true
		if !b.Empty() || b.Terminator.Kind != ir.Goto {
			continue
		}

		d := fn.MustBlock(b.Terminator.Dest)
		if d.ID == b.ID {
			continue
		}

		for _, predID := range b.SortedPreds() {
			if predID == b.ID {
				continue
			}
			if phiConflict(d, predID, b.ID) {
				continue
			}
			p := fn.MustBlock(predID)
			redirectTerm(&p.Terminator, b.ID, d.ID)
			for i := range d.Phis {
				if val, ok := d.Phis[i].Srcs[b.ID]; ok {
					d.Phis[i].Srcs[predID] = val
				}
			}
		}

		if b.ID == fn.StartID {
			fn.StartID = d.ID
		}
	}
	Reconcile(fn)
}

// phiConflict reports whether redirecting predID's edge from bID
// straight to d would make one of d's phis see two different values
// for the same (now-merged) incoming edge.
func phiConflict(d *ssa.Block, predID, bID ir.BlockID) bool {
	for _, phi := range d.Phis {
		valP, hasP := phi.Srcs[predID]
		valB, hasB := phi.Srcs[bID]
		if hasP && hasB && valP != valB {
			return true
		}
	}
	return false
}

func redirectTerm(t *ssa.Terminator, from, to ir.BlockID) {
	switch t.Kind {
	case ir.BranchIfZero:
		if t.Conseq == from {
			t.Conseq = to
		}
		if t.Alt == from {
			t.Alt = to
		}
	case ir.Goto:
		if t.Dest == from {
			t.Dest = to
		}
	}
}
