// Package build lowers an elaborated internal/syntax.FuncDef into the
// Initial CFG configuration: the variable-based, pre-SSA control-flow
// graph that internal/ssa consumes. It plays the role original_source's
// src/ir/gen.rs (Frame, gen_expr) plays, generalized to the full
// surface grammar — that file's own Frame only ever got as far as
// arithmetic, if/else and a single unfinished loop case before trailing
// off into `Expr::Break => todo!()`; the scope-stack shape is kept, the
// loop/break/continue/return/input handling is this package's own,
// built the way internal/gc/ssa.go's ssaState threads a stack of loop
// exit blocks through AST-to-SSA translation.
package build

import (
	"fmt"

	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/syntax"
)

// Var is the Initial configuration's lvalue and rvalue type: a single
// namespace of fresh indices shared by named source variables and the
// anonymous temporaries that hold sub-expression results. This plays
// the role original_source's VirtualRegister does; §3's "variable name
// (symbolic, from the source)" is the configuration's flavor, not a
// constraint that literal source spelling survives into the IR.
type Var struct {
	Index int
}

func (v Var) String() string { return fmt.Sprintf("var%d", v.Index) }

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

// RHS is the Initial configuration's instruction-rhs type: arithmetic,
// unary, a literal load, a move, a hardware input read, or a memory
// read, over Vars. The surface grammar never produces a memory read
// (there is no source-level memory operation) but the variant exists
// because §3 describes the Initial configuration's rhs as ranging over
// it, and internal/ssa's lowering mapper needs a total translation from
// every variant it could in principle see.
type RHS struct {
	Kind     RHSKind
	Op       syntax.Op
	UnaryOp  syntax.UnaryOp
	Arg1     Var // Arith, Unary, Move(src)
	Arg2     Var // Arith
	Literal  int64
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

// Func, Block, Instruction, and Terminator are the Initial configuration
// instantiated over Var and RHS.
type (
	Func        = ir.Func[Var, Var, RHS]
	Block       = ir.Block[Var, Var, RHS]
	Instruction = ir.Instruction[Var, RHS]
	Terminator  = ir.Terminator[Var]
)
