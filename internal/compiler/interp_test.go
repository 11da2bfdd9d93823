package compiler

import (
	"fmt"

	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/micro"
)

// interpret executes a register-allocated microcode function against a
// sequence of hardware input values, returning the value stored to
// output register 0 by the time the function returns (testable
// property §8.6: optimization must preserve this value for an
// arbitrary integer input sequence). It is deliberately a direct,
// unoptimized evaluator of micro.RHS's few variants — a small,
// obviously-correct reference semantics to check the compiler's own
// optimizing pipeline against, in the same spirit as
// cmd/internal/ssa's test interpreters.
func interpret(fn *micro.Func, inputs []int64) (int64, error) {
	regs := map[micro.Register]int64{}
	spill := map[int]int64{}
	mem := map[int64]int64{}
	var output int64
	var haveOutput bool

	id := fn.StartID
	steps := 0
	for {
		steps++
		if steps > 1_000_000 {
			return 0, fmt.Errorf("interpreter: step budget exceeded (infinite loop?)")
		}
		b := fn.MustBlock(id)
		if len(b.Phis) != 0 {
			return 0, fmt.Errorf("interpreter: block %d still has phis (regalloc.Allocate must eliminate them)", id)
		}
		for _, inst := range b.Instructions {
			v, err := evalRHS(inst.Rhs, regs, spill, mem, inputs, &output, &haveOutput)
			if err != nil {
				return 0, err
			}
			if hasResultReg(inst.Rhs.Kind) {
				regs[inst.Lhs] = v
			}
		}
		switch b.Terminator.Kind {
		case ir.BranchIfZero:
			if regs[b.Terminator.Pred] == 0 {
				id = b.Terminator.Conseq
			} else {
				id = b.Terminator.Alt
			}
		case ir.Goto:
			id = b.Terminator.Dest
		case ir.Return:
			if !haveOutput {
				return 0, nil
			}
			return output, nil
		default:
			return 0, fmt.Errorf("interpreter: block %d has no terminator", id)
		}
	}
}

func hasResultReg(k micro.RHSKind) bool {
	return k != micro.StoreMemoryRHS && k != micro.StoreRegisterRHS && k != micro.StoreSpillRHS
}

func evalRHS(
	rhs micro.RHS,
	regs map[micro.Register]int64,
	spill map[int]int64,
	mem map[int64]int64,
	inputs []int64,
	output *int64,
	haveOutput *bool,
) (int64, error) {
	switch rhs.Kind {
	case micro.UnaryALURHS:
		return evalUnary(rhs.UnaryOp, regs[rhs.Arg1]), nil
	case micro.BinaryALURHS:
		return evalBinary(rhs.BinaryOp, regs[rhs.Arg1], regs[rhs.Arg2]), nil
	case micro.LoadOneImmediateRHS:
		return 1, nil
	case micro.LoadMemoryRHS:
		return mem[regs[rhs.Arg1]], nil
	case micro.StoreMemoryRHS:
		mem[regs[rhs.Arg1]] = regs[rhs.Arg2]
		return 0, nil
	case micro.LoadRegisterRHS:
		if int(rhs.RegIndex) >= len(inputs) {
			return 0, nil
		}
		return inputs[rhs.RegIndex], nil
	case micro.StoreRegisterRHS:
		if rhs.RegIndex == 0 {
			*output = regs[rhs.Arg1]
			*haveOutput = true
		}
		return 0, nil
	case micro.LoadSpillRHS:
		return spill[rhs.Slot], nil
	case micro.StoreSpillRHS:
		spill[rhs.Slot] = regs[rhs.Arg1]
		return 0, nil
	default:
		return 0, fmt.Errorf("interpreter: unhandled rhs kind %d", rhs.Kind)
	}
}

func evalUnary(op micro.UnaryALUOp, a int64) int64 {
	switch op {
	case micro.Copy:
		return a
	case micro.Inc1:
		return a + 1
	case micro.Inc4:
		return a + 4
	case micro.Dec1:
		return a - 1
	case micro.Dec4:
		return a - 4
	default:
		return 0
	}
}

func evalBinary(op micro.BinaryALUOp, a, b int64) int64 {
	switch op {
	case micro.Add:
		return a + b
	case micro.Sub:
		return a - b
	case micro.Slt:
		if a < b {
			return 1
		}
		return 0
	case micro.Sltu:
		if uint64(a) < uint64(b) {
			return 1
		}
		return 0
	case micro.And:
		return a & b
	case micro.Or:
		return a | b
	case micro.Xor:
		return a ^ b
	default:
		return 0
	}
}
