package regalloc

import (
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/liveness"
	"github.com/rahularya50/lispc/internal/micro"
)

// Allocate runs the full C7 pipeline over fn in place: it first
// deconstructs SSA (§6.2's output has no phi concept, so every phi is
// replaced by a copy at the end of each predecessor), then builds the
// interference graph from liveness over the phi-free function, orders
// and colors it, spills the lowest-population classes, and rewrites
// every block so its registers are physical indices in [0, k) with
// spilled values round-tripped through per-virtual-register spill
// slots.
func Allocate(fn *micro.Func, k int) {
	eliminatePhis(fn)

	live := liveness.Analyze[micro.Register, micro.RHS](fn)
	graph := BuildInterference(live)
	order := graph.Order()
	color := graph.Color(order)
	spilled := SelectSpills(color, k)
	physical := assignPhysical(color, spilled)

	slots := map[micro.Register]int{}
	nextSlot := 0
	slotFor := func(r micro.Register) int {
		if s, ok := slots[r]; ok {
			return s
		}
		s := nextSlot
		nextSlot++
		slots[r] = s
		return s
	}

	for _, b := range fn.Blocks() {
		b.Instructions = rewriteInstructions(b.Instructions, color, spilled, physical, slotFor, k)
		rewriteTerminator(b, color, spilled, physical, slotFor, k)
	}
}

// eliminatePhis replaces every phi with a copy inserted at the end of
// each predecessor (before its terminator), targeting the phi's own
// destination register directly. Exactly one of those copies executes
// on any given run, so the destination holds the right value by the
// time control reaches the phi's block, and the phi itself is no
// longer needed.
func eliminatePhis(fn *micro.Func) {
	for _, b := range fn.Blocks() {
		for _, phi := range b.Phis {
			for _, pred := range phi.SortedPreds() {
				p := fn.MustBlock(pred)
				p.Instructions = append(p.Instructions, micro.Instruction{
					Lhs: phi.Dest,
					Rhs: micro.RHS{Kind: micro.UnaryALURHS, UnaryOp: micro.Copy, Arg1: phi.Srcs[pred]},
				})
			}
		}
		b.Phis = nil
	}
}

// rewriteInstructions rewrites one block's instruction list: a use of
// a spilled register is preceded by a load into a fresh scratch
// physical register (cycling through [0, k) so an instruction with
// several spilled operands gets distinct scratch registers rather than
// clobbering one shared slot), and a definition of a spilled register
// is followed by a store from its assigned scratch register.
func rewriteInstructions(
	insts []micro.Instruction,
	color map[micro.Register]int,
	spilled map[int]bool,
	physical map[int]int,
	slotFor func(micro.Register) int,
	k int,
) []micro.Instruction {
	out := make([]micro.Instruction, 0, len(insts))
	for _, inst := range insts {
		scratch := 0
		var pre []micro.Instruction

		remap := func(r micro.Register) micro.Register {
			c := color[r]
			if !spilled[c] {
				return micro.Register{Index: physical[c]}
			}
			s := micro.Register{Index: scratch % k}
			scratch++
			pre = append(pre, micro.Instruction{Lhs: s, Rhs: micro.RHS{Kind: micro.LoadSpillRHS, Slot: slotFor(r)}})
			return s
		}
		rhs := inst.Rhs.Rewrite(remap)

		lhsColor := color[inst.Lhs]
		var lhs micro.Register
		var post []micro.Instruction
		if spilled[lhsColor] {
			lhs = micro.Register{Index: scratch % k}
			post = append(post, micro.Instruction{
				Rhs: micro.RHS{Kind: micro.StoreSpillRHS, Slot: slotFor(inst.Lhs), Arg1: lhs},
			})
		} else {
			lhs = micro.Register{Index: physical[lhsColor]}
		}

		out = append(out, pre...)
		out = append(out, micro.Instruction{Lhs: lhs, Rhs: rhs})
		out = append(out, post...)
	}
	return out
}

func rewriteTerminator(
	b *micro.Block,
	color map[micro.Register]int,
	spilled map[int]bool,
	physical map[int]int,
	slotFor func(micro.Register) int,
	k int,
) {
	loadIfSpilled := func(r micro.Register) micro.Register {
		c := color[r]
		if !spilled[c] {
			return micro.Register{Index: physical[c]}
		}
		s := micro.Register{Index: 0}
		b.Instructions = append(b.Instructions, micro.Instruction{Lhs: s, Rhs: micro.RHS{Kind: micro.LoadSpillRHS, Slot: slotFor(r)}})
		return s
	}

	switch b.Terminator.Kind {
	case ir.BranchIfZero:
		b.Terminator.Pred = loadIfSpilled(b.Terminator.Pred)
	case ir.Return:
		if b.Terminator.Value != nil {
			v := loadIfSpilled(*b.Terminator.Value)
			b.Terminator.Value = &v
		}
	}
}
