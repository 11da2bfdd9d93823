package micro

import (
	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/ssa"
	"github.com/rahularya50/lispc/internal/syntax"
)

// Lower rewrites optimized SSA into microcode rhs form via the C2
// lowering framework. Each SSA register keeps its numeric index
// unchanged (ssa.Register and micro.Register are both dense from 1,
// minted off the same counter the source function already carries) so
// a single operation can expand into an instruction sequence — the
// bitwise-not lowering below needs three scratch registers — by simply
// minting fresh indices off the destination function's counter, which
// Lower seeds from the source counter and therefore can never collide
// with an existing index.
//
// An operation the target ALU cannot express directly (multiplication,
// division, or an integer literal other than 0 or 1) is reported as an
// error rather than silently emitted or panicked on, mirroring
// original_source/src/backend/microcode/lower.rs's todo!() sites but
// surfaced as a property of the input program rather than a compiler
// bug.
func Lower(fn *ssa.Func) (*Func, error) {
	inputCount := 0
	var lowerErr error

	lvalue := func(v ssa.Register) Register { return Register{Index: v.Index} }
	rvalue := lvalue

	inst := func(dst *Func, in ir.Instruction[ssa.Register, ssa.RHS]) []ir.Instruction[Register, RHS] {
		instrs, err := lowerRHS(dst, in.Lhs, in.Rhs, &inputCount)
		if err != nil && lowerErr == nil {
			lowerErr = err
		}
		return instrs
	}

	jump := func(dst *Func, t ir.Terminator[ssa.Register]) ([]ir.Instruction[Register, RHS], ir.Terminator[Register]) {
		if t.Kind == ir.Return && t.Value != nil {
			store := ir.Instruction[Register, RHS]{
				Lhs: Register{Index: dst.NewRegIndex()},
				Rhs: RHS{Kind: StoreRegisterRHS, RegIndex: 0, Arg1: lvalue(*t.Value)},
			}
			return []ir.Instruction[Register, RHS]{store}, ir.ReturnTerm[Register](nil)
		}
		out := ir.Terminator[Register]{Kind: t.Kind, Conseq: t.Conseq, Alt: t.Alt, Dest: t.Dest}
		if t.Kind == ir.BranchIfZero {
			out.Pred = lvalue(t.Pred)
		}
		return nil, out
	}

	out := ir.Lower(fn, inst, jump, lvalue, rvalue)
	if lowerErr != nil {
		return nil, lowerErr
	}
	return out, nil
}

func lowerRHS(dst *Func, lhs ssa.Register, rhs ssa.RHS, inputCount *int) ([]ir.Instruction[Register, RHS], error) {
	result := Register{Index: lhs.Index}

	switch rhs.Kind {
	case ssa.ArithRHS:
		op, ok := binaryOp(rhs.Op)
		if !ok {
			return nil, diag.NewUnimplementedOperation("operator %s has no microcode lowering", rhs.Op)
		}
		return one(result, RHS{
			Kind: BinaryALURHS, BinaryOp: op,
			Arg1: Register{Index: rhs.Arg1.Index}, Arg2: Register{Index: rhs.Arg2.Index},
		}), nil

	case ssa.UnaryRHS:
		// Bitwise complement: load 1, decrement twice to produce an
		// all-ones word, then xor it with the operand.
		one1 := Register{Index: dst.NewRegIndex()}
		allOnes1 := Register{Index: dst.NewRegIndex()}
		allOnes := Register{Index: dst.NewRegIndex()}
		return []ir.Instruction[Register, RHS]{
			{Lhs: one1, Rhs: RHS{Kind: LoadOneImmediateRHS}},
			{Lhs: allOnes1, Rhs: RHS{Kind: UnaryALURHS, UnaryOp: Dec1, Arg1: one1}},
			{Lhs: allOnes, Rhs: RHS{Kind: UnaryALURHS, UnaryOp: Dec1, Arg1: allOnes1}},
			{Lhs: result, Rhs: RHS{Kind: BinaryALURHS, BinaryOp: Xor, Arg1: Register{Index: rhs.Arg1.Index}, Arg2: allOnes}},
		}, nil

	case ssa.LiteralRHS:
		switch rhs.Literal {
		case 1:
			return one(result, RHS{Kind: LoadOneImmediateRHS}), nil
		case 0:
			one1 := Register{Index: dst.NewRegIndex()}
			return []ir.Instruction[Register, RHS]{
				{Lhs: one1, Rhs: RHS{Kind: LoadOneImmediateRHS}},
				{Lhs: result, Rhs: RHS{Kind: UnaryALURHS, UnaryOp: Dec1, Arg1: one1}},
			}, nil
		default:
			return nil, diag.NewUnimplementedOperation("literal %d has no microcode lowering (only 0 and 1 load directly)", rhs.Literal)
		}

	case ssa.MoveRHS:
		return one(result, RHS{Kind: UnaryALURHS, UnaryOp: Copy, Arg1: Register{Index: rhs.Arg1.Index}}), nil

	case ssa.InputRHS:
		idx := *inputCount
		*inputCount++
		return one(result, RHS{Kind: LoadRegisterRHS, RegIndex: uint8(idx)}), nil

	case ssa.MemReadRHS:
		return one(result, RHS{Kind: LoadMemoryRHS, Arg1: Register{Index: rhs.Arg1.Index}}), nil

	default:
		diag.Violatef("rhs kind %d has no microcode lowering", rhs.Kind)
		return nil, nil
	}
}

func one(lhs Register, rhs RHS) []ir.Instruction[Register, RHS] {
	return []ir.Instruction[Register, RHS]{{Lhs: lhs, Rhs: rhs}}
}

func binaryOp(op syntax.Op) (BinaryALUOp, bool) {
	switch op {
	case syntax.Add:
		return Add, true
	case syntax.Sub:
		return Sub, true
	default:
		return 0, false
	}
}
