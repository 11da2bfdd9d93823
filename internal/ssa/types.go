// Package ssa constructs static single assignment form over the
// Initial CFG that internal/build produces, and defines the SSA form
// that the optimizer passes (in their own package, internal/opt)
// operate on. Construction is grounded on
// original_source/src/ir/ssa_transform.rs's defining_blocks_for_variables
// and ssa_phis (phi placement), generalized with a rename/backfill pass
// that file never finished ("TODO: actually bring it into SSA form!" in
// src/ir/mod.rs).
package ssa

import (
	"fmt"

	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/syntax"
)

// Register is the SSA configuration's lvalue and rvalue type: a fresh
// register minted at every definition site, including every phi
// destination.
type Register struct {
	Index int
}

func (r Register) String() string { return fmt.Sprintf("%%%d", r.Index) }

// RHSKind selects which variant of RHS is populated.
type RHSKind int

const (
	ArithRHS RHSKind = iota
	UnaryRHS
	LiteralRHS
	MoveRHS
	InputRHS
	MemReadRHS
)

// RHS is the SSA configuration's instruction-rhs type: the same six
// variants as internal/build.RHS, translated from Var to Register.
type RHS struct {
	Kind    RHSKind
	Op      syntax.Op
	UnaryOp syntax.UnaryOp
	Arg1    Register
	Arg2    Register
	Literal int64
}

// Uses lists the registers this rhs reads, in a fixed order.
func (r RHS) Uses() []Register {
	switch r.Kind {
	case ArithRHS:
		return []Register{r.Arg1, r.Arg2}
	case UnaryRHS, MoveRHS, MemReadRHS:
		return []Register{r.Arg1}
	default:
		return nil
	}
}

// Rewrite returns a copy of r with every register use passed through f.
func (r RHS) Rewrite(f func(Register) Register) RHS {
	switch r.Kind {
	case ArithRHS:
		r.Arg1, r.Arg2 = f(r.Arg1), f(r.Arg2)
	case UnaryRHS, MoveRHS, MemReadRHS:
		r.Arg1 = f(r.Arg1)
	}
	return r
}

// IsConstant reports whether the rhs is already a literal load, and
// its value if so.
func (r RHS) IsConstant() (int64, bool) {
	if r.Kind == LiteralRHS {
		return r.Literal, true
	}
	return 0, false
}

func (r RHS) String() string {
	switch r.Kind {
	case ArithRHS:
		return fmt.Sprintf("%v %s %v", r.Arg1, r.Op, r.Arg2)
	case UnaryRHS:
		return fmt.Sprintf("not %v", r.Arg1)
	case LiteralRHS:
		return fmt.Sprintf("%d", r.Literal)
	case MoveRHS:
		return fmt.Sprintf("%v", r.Arg1)
	case InputRHS:
		return "input"
	case MemReadRHS:
		return fmt.Sprintf("mem[%v]", r.Arg1)
	default:
		return "?"
	}
}

// Func, Block, Instruction, and Terminator are the SSA configuration
// instantiated over Register and RHS.
type (
	Func        = ir.Func[Register, Register, RHS]
	Block       = ir.Block[Register, Register, RHS]
	Instruction = ir.Instruction[Register, RHS]
	Terminator  = ir.Terminator[Register]
	Phi         = ir.Phi[Register, Register]
)

// Literal builds a literal-load rhs, used by the optimizer when
// demoting a folded value to a load at a block head.
func Literal(v int64) RHS { return RHS{Kind: LiteralRHS, Literal: v} }

// Move builds a move rhs.
func Move(src Register) RHS { return RHS{Kind: MoveRHS, Arg1: src} }
