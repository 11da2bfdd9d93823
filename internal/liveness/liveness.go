// Package liveness computes per-(register, block) live ranges over any
// ir.Func configuration whose lvalue and rvalue types coincide — every
// configuration from SSA construction onward satisfies this. It is
// grounded on original_source/src/backend/register_liveness.rs's
// backward-scan-then-worklist algorithm, written in the same style as
// the teacher's dominance and SSA passes: plain maps and slices, one
// function per concern, no external graph library.
package liveness

import "github.com/rahularya50/lispc/internal/ir"

// PosKind orders the five kinds of program point a liveness range can
// start or end at.
type PosKind int

const (
	Before PosKind = iota
	PhiPos
	InstPos
	JumpPos
	After
)

// Position is one point within a block: before everything, at a
// particular phi or instruction slot, at the terminator, or after
// everything (live-out). SrcBlock only means something when Kind is
// PhiPos and the position names a specific phi consumer: the edge from
// that predecessor is the only one the register is live across.
type Position struct {
	Kind     PosKind
	Index    int
	SrcBlock ir.BlockID
}

// Less reports whether p sorts strictly before q in the
// Before < Phi(i) < Instruction(j) < Jump < After ordering.
func (p Position) Less(q Position) bool {
	if p.Kind != q.Kind {
		return p.Kind < q.Kind
	}
	return p.Index < q.Index
}

// RegisterLiveness is one register's live range within one block:
// live at every point p with Since <= p <= Until.
type RegisterLiveness struct {
	Since Position
	Until Position
}

// LiveAt reports whether the register is live at pos within this
// block.
func (lv RegisterLiveness) LiveAt(pos Position) bool {
	return !pos.Less(lv.Since) && !lv.Until.Less(pos)
}

type rhsUses[Reg any] interface {
	Uses() []Reg
}

// Analyze implements §4.6: for every register the function defines or
// uses, compute its RegisterLiveness in every block it is live in.
func Analyze[Reg comparable, H rhsUses[Reg]](fn *ir.Func[Reg, Reg, H]) map[Reg]map[ir.BlockID]RegisterLiveness {
	result := map[Reg]map[ir.BlockID]RegisterLiveness{}
	for _, r := range collectRegisters(fn) {
		result[r] = analyzeOne(fn, r)
	}
	return result
}

func collectRegisters[Reg comparable, H rhsUses[Reg]](fn *ir.Func[Reg, Reg, H]) []Reg {
	seen := map[Reg]bool{}
	var out []Reg
	add := func(r Reg) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, b := range fn.Blocks() {
		for _, phi := range b.Phis {
			add(phi.Dest)
			for _, pred := range phi.SortedPreds() {
				add(phi.Srcs[pred])
			}
		}
		for _, inst := range b.Instructions {
			add(inst.Lhs)
			for _, u := range inst.Rhs.Uses() {
				add(u)
			}
		}
		for _, u := range b.Terminator.Uses() {
			add(u)
		}
	}
	return out
}

// analyzeOne implements the algorithm of §4.6: a seed pass finds, per
// block, the last (in program order) use of r — scanning the
// terminator, then instructions in reverse, then phis in reverse, and
// stopping at the first hit — then a worklist propagates "this
// register is live-out of you" backward through the predecessor graph
// until every block along the way has a since/until pair.
func analyzeOne[Reg comparable, H rhsUses[Reg]](fn *ir.Func[Reg, Reg, H], r Reg) map[ir.BlockID]RegisterLiveness {
	type visit struct {
		id      ir.BlockID
		liveOut bool
	}
	liveness := map[ir.BlockID]RegisterLiveness{}
	processed := map[ir.BlockID]bool{}
	var worklist []visit

	for _, b := range fn.Blocks() {
		until, consumerPred, kind, ok := lastUse(b, r)
		if !ok {
			continue
		}
		if kind == PhiPos {
			// r is consumed only along the edge from consumerPred; it
			// never needs to be live inside b itself for this use.
			worklist = append(worklist, visit{consumerPred, true})
		} else {
			liveness[b.ID] = RegisterLiveness{Until: until}
			worklist = append(worklist, visit{b.ID, false})
		}
	}

	for len(worklist) > 0 {
		v := worklist[0]
		worklist = worklist[1:]
		id := v.id

		lv := liveness[id]
		if v.liveOut || lv.Until.Kind == Before {
			// A live-out visit extends the range to the block's end,
			// even past a local use already recorded.
			lv.Until = Position{Kind: After}
		}
		if processed[id] {
			liveness[id] = lv
			continue
		}
		processed[id] = true

		b := fn.MustBlock(id)
		since, found := firstDef(b, r)
		lv.Since = since
		liveness[id] = lv

		if !found {
			for _, pred := range b.SortedPreds() {
				worklist = append(worklist, visit{pred, true})
			}
		}
	}

	return liveness
}

func lastUse[Reg comparable, H rhsUses[Reg]](b *ir.Block[Reg, Reg, H], r Reg) (Position, ir.BlockID, PosKind, bool) {
	for _, u := range b.Terminator.Uses() {
		if u == r {
			return Position{Kind: JumpPos}, 0, JumpPos, true
		}
	}
	for i := len(b.Instructions) - 1; i >= 0; i-- {
		for _, u := range b.Instructions[i].Rhs.Uses() {
			if u == r {
				return Position{Kind: InstPos, Index: i}, 0, InstPos, true
			}
		}
	}
	for i := len(b.Phis) - 1; i >= 0; i-- {
		for _, pred := range b.Phis[i].SortedPreds() {
			if b.Phis[i].Srcs[pred] == r {
				return Position{Kind: PhiPos, Index: i, SrcBlock: pred}, pred, PhiPos, true
			}
		}
	}
	return Position{}, 0, Before, false
}

func firstDef[Reg comparable, H rhsUses[Reg]](b *ir.Block[Reg, Reg, H], r Reg) (Position, bool) {
	for i, phi := range b.Phis {
		if phi.Dest == r {
			return Position{Kind: PhiPos, Index: i}, true
		}
	}
	for i, inst := range b.Instructions {
		if inst.Lhs == r {
			return Position{Kind: InstPos, Index: i}, true
		}
	}
	return Position{Kind: Before}, false
}
