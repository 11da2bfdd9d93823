// Package ir holds the control-flow-graph data model shared by every
// stage of the pipeline: the variable-based initial form, SSA, the
// microcode rhs form, and the register-allocated form. A single generic
// definition is parameterized by four types per original_source's
// CfgConfig trait (src/ir/ssa_forms.rs): the lvalue type L, the rvalue
// type R, the instruction-rhs type H, and (implicitly) the block
// identity, which here is always a stable integer BlockID rather than a
// pointer — see func.go's arena comment for why.
//
// No operation in this package may observe what H actually means; it
// only shuffles lhs/rhs/phis/preds/terminators around. Semantic
// interpretation of H belongs to the package that owns a concrete
// configuration (internal/build, internal/ssa, internal/micro).
package ir

import "sort"

// BlockID names a block within the owning Func's arena. Block identity
// is by ID, not by pointer: predecessor sets and phi source keys are
// IDs, so the cyclic graphs that loops produce (a block's predecessor
// can itself be a successor) need no weak references or reference
// counting.
type BlockID int

// JumpKind selects which variant of Terminator is populated.
type JumpKind int

const (
	Unset JumpKind = iota
	BranchIfZero
	Goto
	Return
)

func (k JumpKind) String() string {
	switch k {
	case Unset:
		return "unset"
	case BranchIfZero:
		return "branch-if-zero"
	case Goto:
		return "goto"
	case Return:
		return "return"
	default:
		return "?"
	}
}

// Terminator is the sum type BranchIfZero(pred, conseq, alt) | Goto(dest)
// | Return(value?). Every block has exactly one.
type Terminator[R any] struct {
	Kind   JumpKind
	Pred   R // BranchIfZero
	Conseq BlockID
	Alt    BlockID
	Dest   BlockID // Goto
	Value  *R      // Return; nil for a bare return
}

func BranchIfZeroTerm[R any](pred R, conseq, alt BlockID) Terminator[R] {
	return Terminator[R]{Kind: BranchIfZero, Pred: pred, Conseq: conseq, Alt: alt}
}

func GotoTerm[R any](dest BlockID) Terminator[R] {
	return Terminator[R]{Kind: Goto, Dest: dest}
}

func ReturnTerm[R any](value *R) Terminator[R] {
	return Terminator[R]{Kind: Return, Value: value}
}

// Successors lists the block(s) control may transfer to, in a fixed
// order (conseq before alt for branches).
func (t Terminator[R]) Successors() []BlockID {
	switch t.Kind {
	case BranchIfZero:
		return []BlockID{t.Conseq, t.Alt}
	case Goto:
		return []BlockID{t.Dest}
	case Return:
		return nil
	default:
		return nil
	}
}

// Uses lists the registers the terminator itself reads, in order.
func (t Terminator[R]) Uses() []R {
	switch t.Kind {
	case BranchIfZero:
		return []R{t.Pred}
	case Return:
		if t.Value != nil {
			return []R{*t.Value}
		}
		return nil
	default:
		return nil
	}
}

// Phi is a pseudo-instruction selecting dest's value from one of
// several predecessor-tagged sources. Srcs must have exactly one entry
// per predecessor of the owning block once SSA construction and every
// optimizer pass has finished; it may be incomplete mid-construction
// (see internal/ssa's backfill step).
type Phi[L, R any] struct {
	Dest L
	Srcs map[BlockID]R
}

// SortedPreds returns Srcs's keys in ascending order, for deterministic
// iteration (display, lowering, tests).
func (p Phi[L, R]) SortedPreds() []BlockID {
	out := make([]BlockID, 0, len(p.Srcs))
	for id := range p.Srcs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Instruction is a single `lhs = rhs` assignment.
type Instruction[L, H any] struct {
	Lhs L
	Rhs H
}

// Block is one node of the CFG: a set of predecessors, an ordered list
// of phis, an ordered list of instructions, and exactly one terminator.
type Block[L, R, H any] struct {
	ID          BlockID
	DebugIndex  int
	Preds       map[BlockID]struct{}
	Phis        []Phi[L, R]
	Instructions []Instruction[L, H]
	Terminator  Terminator[R]
}

// SortedPreds returns the predecessor set in ascending order.
func (b *Block[L, R, H]) SortedPreds() []BlockID {
	out := make([]BlockID, 0, len(b.Preds))
	for id := range b.Preds {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Empty reports whether the block has no phis or instructions, making
// it a candidate for the optimizer's empty-block removal pass.
func (b *Block[L, R, H]) Empty() bool {
	return len(b.Phis) == 0 && len(b.Instructions) == 0
}
