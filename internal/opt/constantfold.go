package opt

import (
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/ssa"
	"github.com/rahularya50/lispc/internal/syntax"
)

// latticeKind is the three-point constant-propagation lattice: bottom
// (not yet known), a concrete constant, or top (provably non-constant).
type latticeKind int

const (
	bottomKind latticeKind = iota
	constKind
	topKind
)

type lattice struct {
	kind latticeKind
	val  int64
}

var top = lattice{kind: topKind}

func constant(v int64) lattice { return lattice{kind: constKind, val: v} }

func meet(a, b lattice) lattice {
	switch {
	case a.kind == bottomKind:
		return b
	case b.kind == bottomKind:
		return a
	case a.kind == topKind || b.kind == topKind:
		return top
	case a.val == b.val:
		return a
	default:
		return top
	}
}

// FoldConstants implements §4.5.3: a forward dataflow pass computes,
// for every register, whether it always holds the same known value
// along every reachable path; registers that do are replaced with
// direct literal loads, and branches on a known predicate collapse to
// an unconditional jump. Grounded on
// original_source/src/optimizations/constant_propagation.rs's
// worklist-style sparse conditional constant propagation, simplified
// to a full re-walk on any change rather than tracking edge
// executability directly.
func FoldConstants(fn *ssa.Func) {
	vals := map[ssa.Register]lattice{}
	changed := true
	for changed {
		changed = false
		visited := map[ir.BlockID]bool{}
		walkConstants(fn, fn.StartID, vals, visited, &changed)
	}

	for _, b := range fn.Blocks() {
		var kept []ssa.Phi
		var prepend []ssa.Instruction
		for _, phi := range b.Phis {
			if v := vals[phi.Dest]; v.kind == constKind {
				prepend = append(prepend, ssa.Instruction{Lhs: phi.Dest, Rhs: ssa.Literal(v.val)})
			} else {
				kept = append(kept, phi)
			}
		}
		b.Phis = kept

		for i, inst := range b.Instructions {
			if v := vals[inst.Lhs]; v.kind == constKind {
				b.Instructions[i].Rhs = ssa.Literal(v.val)
			}
		}
		if len(prepend) > 0 {
			b.Instructions = append(prepend, b.Instructions...)
		}

		if b.Terminator.Kind == ir.BranchIfZero {
			if v := vals[b.Terminator.Pred]; v.kind == constKind {
				if v.val == 0 {
					b.Terminator = ir.GotoTerm[ssa.Register](b.Terminator.Conseq)
				} else {
					b.Terminator = ir.GotoTerm[ssa.Register](b.Terminator.Alt)
				}
			}
		}
	}

	Reconcile(fn)
}

func walkConstants(fn *ssa.Func, id ir.BlockID, vals map[ssa.Register]lattice, visited map[ir.BlockID]bool, changed *bool) {
	if visited[id] {
		return
	}
	visited[id] = true
	b := fn.MustBlock(id)

	for _, phi := range b.Phis {
		var m lattice
		first := true
		for _, pred := range phi.SortedPreds() {
			v := vals[phi.Srcs[pred]]
			if first {
				m, first = v, false
			} else {
				m = meet(m, v)
			}
		}
		if !first && m != vals[phi.Dest] {
			vals[phi.Dest] = m
			*changed = true
		}
	}

	for _, inst := range b.Instructions {
		v := evalRHS(inst.Rhs, vals)
		if v != vals[inst.Lhs] {
			vals[inst.Lhs] = v
			*changed = true
		}
	}

	switch b.Terminator.Kind {
	case ir.BranchIfZero:
		pv := vals[b.Terminator.Pred]
		if pv.kind == constKind {
			if pv.val == 0 {
				walkConstants(fn, b.Terminator.Conseq, vals, visited, changed)
			} else {
				walkConstants(fn, b.Terminator.Alt, vals, visited, changed)
			}
		} else {
			walkConstants(fn, b.Terminator.Conseq, vals, visited, changed)
			walkConstants(fn, b.Terminator.Alt, vals, visited, changed)
		}
	case ir.Goto:
		walkConstants(fn, b.Terminator.Dest, vals, visited, changed)
	}
}

func evalRHS(rhs ssa.RHS, vals map[ssa.Register]lattice) lattice {
	switch rhs.Kind {
	case ssa.LiteralRHS:
		return constant(rhs.Literal)
	case ssa.ArithRHS:
		a, b := vals[rhs.Arg1], vals[rhs.Arg2]
		if a.kind == constKind && b.kind == constKind {
			if v, ok := evalArith(rhs.Op, a.val, b.val); ok {
				return constant(v)
			}
			return top
		}
		if a.kind == topKind || b.kind == topKind {
			return top
		}
		return lattice{kind: bottomKind}
	case ssa.UnaryRHS:
		a := vals[rhs.Arg1]
		switch a.kind {
		case constKind:
			return constant(^a.val)
		case topKind:
			return top
		default:
			return lattice{kind: bottomKind}
		}
	case ssa.MoveRHS:
		return vals[rhs.Arg1]
	default:
		return top
	}
}

func evalArith(op syntax.Op, a, b int64) (int64, bool) {
	switch op {
	case syntax.Add:
		return a + b, true
	case syntax.Sub:
		return a - b, true
	case syntax.Mul:
		return a * b, true
	case syntax.Div:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	default:
		return 0, false
	}
}
