// Package render formats a register-allocated microcode function (§6.2's
// external interface: per block, its debug index, instructions, and
// terminator) as either the default text form or JSON. internal/ir's
// Func keeps its arena private, so a renderer needs its own flat,
// exported snapshot rather than a direct json.Marshal of the IR — the
// same reason original_source prints via an explicit Display impl
// (src/ir/mod.rs) rather than deriving one.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/micro"
)

// Instruction is one `lhs = rhs` pair in the allocated stream, lhs being
// a physical register index (or absent, for a bare store).
type Instruction struct {
	Lhs    *int   `json:"lhs,omitempty"`
	Rhs    string `json:"rhs"`
}

// Terminator is the allocated function's block-ending control transfer.
type Terminator struct {
	Kind   string `json:"kind"`
	Pred   *int   `json:"pred,omitempty"`
	Conseq *int   `json:"conseq,omitempty"`
	Alt    *int   `json:"alt,omitempty"`
	Dest   *int   `json:"dest,omitempty"`
	Value  *int   `json:"value,omitempty"`
}

// Block is one rendered block of the allocated function.
type Block struct {
	DebugIndex   int           `json:"debugIndex"`
	Instructions []Instruction `json:"instructions"`
	Terminator   Terminator    `json:"terminator"`
}

// Function is the full rendered microcode stream for one function.
type Function struct {
	Name   string  `json:"name"`
	Blocks []Block `json:"blocks"`
}

// Snapshot builds the exported rendering of an allocated function,
// walking blocks in ascending BlockID order (via Func.Blocks). A
// lowered block keeps its source block's debug index, so that order
// need not be ascending in debug index; terminator targets are
// rendered as debug indices, the same numbers the blocks carry.
func Snapshot(name string, fn *micro.Func) Function {
	out := Function{Name: name}
	debug := map[ir.BlockID]int{}
	for _, b := range fn.Blocks() {
		debug[b.ID] = b.DebugIndex
	}
	for _, b := range fn.Blocks() {
		rb := Block{DebugIndex: b.DebugIndex}
		for _, inst := range b.Instructions {
			ri := Instruction{Rhs: inst.Rhs.String()}
			if hasResult(inst.Rhs.Kind) {
				idx := inst.Lhs.Index
				ri.Lhs = &idx
			}
			rb.Instructions = append(rb.Instructions, ri)
		}
		rb.Terminator = renderTerm(b.Terminator)
		for _, target := range []*int{rb.Terminator.Conseq, rb.Terminator.Alt, rb.Terminator.Dest} {
			if target != nil {
				*target = debug[ir.BlockID(*target)]
			}
		}
		out.Blocks = append(out.Blocks, rb)
	}
	return out
}

// hasResult reports whether an instruction of this rhs kind defines a
// usable lhs (a bare store writes only as a side effect, per
// §4.7's spill-rewriting output contract).
func hasResult(k micro.RHSKind) bool {
	return k != micro.StoreMemoryRHS && k != micro.StoreRegisterRHS && k != micro.StoreSpillRHS
}

func renderTerm(t micro.Terminator) Terminator {
	rt := Terminator{Kind: t.Kind.String()}
	switch t.Kind {
	case ir.BranchIfZero:
		pred := t.Pred.Index
		conseq := int(t.Conseq)
		alt := int(t.Alt)
		rt.Pred, rt.Conseq, rt.Alt = &pred, &conseq, &alt
	case ir.Goto:
		dest := int(t.Dest)
		rt.Dest = &dest
	case ir.Return:
		if t.Value != nil {
			v := t.Value.Index
			rt.Value = &v
		}
	}
	return rt
}

// Text renders a function in the plain, human-readable form the CLI
// prints to stdout by default.
func Text(fn Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s:\n", fn.Name)
	for _, b := range fn.Blocks {
		fmt.Fprintf(&sb, "block%d:\n", b.DebugIndex)
		for _, inst := range b.Instructions {
			if inst.Lhs != nil {
				fmt.Fprintf(&sb, "  r%d = %s\n", *inst.Lhs, inst.Rhs)
			} else {
				fmt.Fprintf(&sb, "  %s\n", inst.Rhs)
			}
		}
		fmt.Fprintf(&sb, "  %s\n", termText(b.Terminator))
	}
	return sb.String()
}

func termText(t Terminator) string {
	switch t.Kind {
	case "branch-if-zero":
		return fmt.Sprintf("branch-if-zero r%d -> block%d else block%d", *t.Pred, *t.Conseq, *t.Alt)
	case "goto":
		return fmt.Sprintf("goto block%d", *t.Dest)
	case "return":
		if t.Value != nil {
			return fmt.Sprintf("return r%d", *t.Value)
		}
		return "return"
	default:
		return "?"
	}
}

// JSON renders a function as indented JSON, for golden-file tests and
// downstream tooling (§6.3's --json flag).
func JSON(fn Function) ([]byte, error) {
	return json.MarshalIndent(fn, "", "  ")
}
