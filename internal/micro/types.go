// Package micro lowers optimized SSA into microcode rhs form: the
// small fixed instruction set the register allocator and the eventual
// emitter both target. Grounded on
// original_source/src/backend/microcode/{instructions.rs,lower.rs},
// which define exactly this ALU/load/store opcode set.
package micro

import (
	"fmt"

	"github.com/rahularya50/lispc/internal/ir"
)

// Register is the microcode configuration's lvalue and rvalue type.
// Before register allocation these are still "virtual" in the sense
// that there is no bound on how many are live at once; allocation
// (internal/regalloc) rewrites a function's registers down to the
// machine's physical set.
type Register struct {
	Index int
}

func (r Register) String() string { return fmt.Sprintf("r%d", r.Index) }

// RHSKind selects which variant of RHS is populated.
type RHSKind int

const (
	UnaryALURHS RHSKind = iota
	BinaryALURHS
	LoadOneImmediateRHS
	LoadMemoryRHS
	StoreMemoryRHS
	LoadRegisterRHS
	StoreRegisterRHS
	LoadSpillRHS
	StoreSpillRHS
)

// UnaryALUOp is the target's single-operand ALU opcode set.
type UnaryALUOp int

const (
	Copy UnaryALUOp = iota
	Inc1
	Inc4
	Dec1
	Dec4
)

func (o UnaryALUOp) String() string {
	switch o {
	case Copy:
		return "copy"
	case Inc1:
		return "inc1"
	case Inc4:
		return "inc4"
	case Dec1:
		return "dec1"
	case Dec4:
		return "dec4"
	default:
		return "?"
	}
}

// BinaryALUOp is the target's two-operand ALU opcode set. Only Add,
// Sub, and Xor are ever emitted by Lower (our surface language has no
// bitwise and/or/compare operators), but the others are kept for
// fidelity to the target ISA.
type BinaryALUOp int

const (
	Add BinaryALUOp = iota
	Sub
	Slt
	Sltu
	And
	Or
	Xor
)

func (o BinaryALUOp) String() string {
	switch o {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Slt:
		return "slt"
	case Sltu:
		return "sltu"
	case And:
		return "and"
	case Or:
		return "or"
	case Xor:
		return "xor"
	default:
		return "?"
	}
}

// RHS is the microcode configuration's instruction-rhs type: one ALU
// op, an immediate load, a memory access, a hardware register/input
// transfer, or (post allocation only) a spill-slot transfer.
type RHS struct {
	Kind     RHSKind
	UnaryOp  UnaryALUOp
	BinaryOp BinaryALUOp
	Arg1     Register
	Arg2     Register
	RegIndex uint8 // LoadRegister/StoreRegister hardware index
	Slot     int   // LoadSpill/StoreSpill slot index
}

// Uses lists the registers this rhs reads.
func (r RHS) Uses() []Register {
	switch r.Kind {
	case UnaryALURHS:
		return []Register{r.Arg1}
	case BinaryALURHS:
		return []Register{r.Arg1, r.Arg2}
	case LoadMemoryRHS:
		return []Register{r.Arg1}
	case StoreMemoryRHS:
		return []Register{r.Arg1, r.Arg2}
	case StoreRegisterRHS, StoreSpillRHS:
		return []Register{r.Arg1}
	default:
		return nil
	}
}

// Rewrite returns a copy of r with every register use passed through
// f, used by internal/regalloc to splice in scratch registers around
// a spilled operand.
func (r RHS) Rewrite(f func(Register) Register) RHS {
	switch r.Kind {
	case UnaryALURHS:
		r.Arg1 = f(r.Arg1)
	case BinaryALURHS:
		r.Arg1, r.Arg2 = f(r.Arg1), f(r.Arg2)
	case LoadMemoryRHS:
		r.Arg1 = f(r.Arg1)
	case StoreMemoryRHS:
		r.Arg1, r.Arg2 = f(r.Arg1), f(r.Arg2)
	case StoreRegisterRHS, StoreSpillRHS:
		r.Arg1 = f(r.Arg1)
	}
	return r
}

func (r RHS) String() string {
	switch r.Kind {
	case UnaryALURHS:
		return fmt.Sprintf("%s %v", r.UnaryOp, r.Arg1)
	case BinaryALURHS:
		return fmt.Sprintf("%v %s %v", r.Arg1, r.BinaryOp, r.Arg2)
	case LoadOneImmediateRHS:
		return "load-one"
	case LoadMemoryRHS:
		return fmt.Sprintf("mem[%v]", r.Arg1)
	case StoreMemoryRHS:
		return fmt.Sprintf("mem[%v] <- %v", r.Arg1, r.Arg2)
	case LoadRegisterRHS:
		return fmt.Sprintf("input[%d]", r.RegIndex)
	case StoreRegisterRHS:
		return fmt.Sprintf("output[%d] <- %v", r.RegIndex, r.Arg1)
	case LoadSpillRHS:
		return fmt.Sprintf("spill[%d]", r.Slot)
	case StoreSpillRHS:
		return fmt.Sprintf("spill[%d] <- %v", r.Slot, r.Arg1)
	default:
		return "?"
	}
}

// Func, Block, Instruction, Terminator, and Phi are the microcode
// configuration. internal/ir is left entirely unaware of what they
// mean.
type (
	Func        = ir.Func[Register, Register, RHS]
	Block       = ir.Block[Register, Register, RHS]
	Instruction = ir.Instruction[Register, RHS]
	Terminator  = ir.Terminator[Register]
	Phi         = ir.Phi[Register, Register]
)
