package ssa

import (
	"sort"

	"github.com/rahularya50/lispc/internal/build"
	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/dom"
	"github.com/rahularya50/lispc/internal/ir"
)

// Build runs the full C4 pipeline over an Initial-configuration
// function: defining-block collection, iterated-dominance-frontier phi
// placement, a dominator-tree rename pass, and phi backfill.
func Build(initial *build.Func) *Func {
	info := dom.Analyze(initial)

	fn, blockMap := allocateShell(initial)
	placements := placePhis(initial, info, fn)
	regToVar := map[Register]build.Var{}

	rn := renamer{
		src:        initial,
		dst:        fn,
		blockMap:   blockMap,
		placements: placements,
		regToVar:   regToVar,
		finalScope: map[ir.BlockID]*scope{},
	}
	rn.run(info)

	ir.RebuildPreds(fn)
	backfillPhis(initial, fn, blockMap, regToVar, rn.finalScope)

	return fn
}

// backfillPhis implements step 5: for every edge src -> dest in the
// original CFG, resolve each of dest's placed phis against src's
// recorded final symbol table. A phi left incomplete on any edge (the
// variable never reached a definition along that path) is speculative
// and is dropped in its entirety, per §4.4 step 5.
func backfillPhis(
	initial *build.Func,
	fn *Func,
	blockMap map[ir.BlockID]ir.BlockID,
	regToVar map[Register]build.Var,
	finalScope map[ir.BlockID]*scope,
) {
	for _, srcBlock := range initial.Blocks() {
		sc := finalScope[srcBlock.ID]
		for _, destID := range srcBlock.Terminator.Successors() {
			ssaDest := fn.MustBlock(blockMap[destID])
			for i := range ssaDest.Phis {
				v := regToVar[ssaDest.Phis[i].Dest]
				if reg, ok := sc.lookup(v); ok {
					ssaDest.Phis[i].Srcs[blockMap[srcBlock.ID]] = reg
				}
			}
		}
	}

	for _, b := range fn.Blocks() {
		kept := b.Phis[:0]
		for _, phi := range b.Phis {
			if len(phi.Srcs) == len(b.Preds) {
				kept = append(kept, phi)
			}
		}
		b.Phis = kept
	}
}

// placePhis implements steps 1-2: collect each variable's defining
// blocks, then iterate the dominance frontier per variable, minting a
// fresh SSA register for every (variable, block) phi placement. Keyed
// by *source* block ID. Registers are minted off fn.NewRegIndex() — the
// same counter the rename pass mints instruction lhs from below — so
// phi destinations and instruction lhs share one monotonic index space
// and no two definitions ever collide (§8.3's SSA-uniqueness
// invariant), the same discipline internal/micro/lower.go relies on
// when it seeds a destination function's counter from its source's.
func placePhis(initial *build.Func, info *dom.Info, fn *Func) map[ir.BlockID]map[build.Var]Register {
	defs := map[build.Var]map[ir.BlockID]struct{}{}
	for _, b := range initial.Blocks() {
		for _, inst := range b.Instructions {
			if defs[inst.Lhs] == nil {
				defs[inst.Lhs] = map[ir.BlockID]struct{}{}
			}
			defs[inst.Lhs][b.ID] = struct{}{}
		}
	}

	placements := map[ir.BlockID]map[build.Var]Register{}
	placed := map[build.Var]map[ir.BlockID]struct{}{}

	for v, defBlocks := range defs {
		placed[v] = map[ir.BlockID]struct{}{}
		var worklist []ir.BlockID
		for b := range defBlocks {
			worklist = append(worklist, b)
		}
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, f := range info.SortedFrontier(b) {
				if _, ok := placed[v][f]; ok {
					continue
				}
				placed[v][f] = struct{}{}
				if placements[f] == nil {
					placements[f] = map[build.Var]Register{}
				}
				placements[f][v] = Register{Index: fn.NewRegIndex()}
				worklist = append(worklist, f)
			}
		}
	}
	return placements
}

// allocateShell mints one empty SSA block per source block, preserving
// the start block, and returns the source-ID-to-SSA-ID map.
func allocateShell(initial *build.Func) (*Func, map[ir.BlockID]ir.BlockID) {
	fn := ir.NewFunc[Register, Register, RHS]()
	blockMap := make(map[ir.BlockID]ir.BlockID, initial.NumBlocks())
	for _, b := range initial.Blocks() {
		if b.ID == initial.StartID {
			blockMap[b.ID] = fn.StartID
			continue
		}
		blockMap[b.ID] = fn.NewBlock().ID
	}
	return fn, blockMap
}

// scope is a dominator-tree-shaped symbol table: variable to its
// current live SSA register, with lookups falling back to the idom
// block's scope. Its lifetime is exactly one dominator-tree recursion.
type scope struct {
	regs   map[build.Var]Register
	parent *scope
}

func (s *scope) lookup(v build.Var) (Register, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if r, ok := cur.regs[v]; ok {
			return r, true
		}
	}
	return Register{}, false
}

type renamer struct {
	src        *build.Func
	dst        *Func
	blockMap   map[ir.BlockID]ir.BlockID
	placements map[ir.BlockID]map[build.Var]Register
	regToVar   map[Register]build.Var
	finalScope map[ir.BlockID]*scope
}

func (rn renamer) run(info *dom.Info) {
	rn.visit(info, rn.src.StartID, &scope{regs: map[build.Var]Register{}})
}

func (rn renamer) freshReg() Register {
	idx := rn.dst.NewRegIndex()
	return Register{Index: idx}
}

func (rn renamer) visit(info *dom.Info, srcID ir.BlockID, parent *scope) {
	srcBlock := rn.src.MustBlock(srcID)
	dstBlock := rn.dst.MustBlock(rn.blockMap[srcID])
	local := &scope{regs: map[build.Var]Register{}, parent: parent}

	for _, v := range varsByRegIndex(rn.placements[srcID]) {
		reg := rn.placements[srcID][v]
		dstBlock.Phis = append(dstBlock.Phis, Phi{Dest: reg, Srcs: map[ir.BlockID]Register{}})
		rn.regToVar[reg] = v
		local.regs[v] = reg
	}

	for _, inst := range srcBlock.Instructions {
		rhs := rn.rewriteRHS(inst.Rhs, local)
		reg := rn.freshReg()
		dstBlock.Instructions = append(dstBlock.Instructions, Instruction{Lhs: reg, Rhs: rhs})
		local.regs[inst.Lhs] = reg
	}

	dstBlock.Terminator = rn.rewriteTerm(srcBlock.Terminator, local)

	rn.finalScope[srcID] = local

	for _, child := range info.Children[srcID] {
		rn.visit(info, child, local)
	}
}

// varsByRegIndex orders a block's placed-phi variables by their minted
// register index, so phi lists are stable across runs (map iteration
// order is not).
func varsByRegIndex(m map[build.Var]Register) []build.Var {
	out := make([]build.Var, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return m[out[i]].Index < m[out[j]].Index })
	return out
}

func (rn renamer) rewriteVar(v build.Var, sc *scope) Register {
	r, ok := sc.lookup(v)
	if !ok {
		diag.Violatef("use of variable %v has no reaching definition during SSA renaming", v)
	}
	return r
}

func (rn renamer) rewriteRHS(rhs build.RHS, sc *scope) RHS {
	out := RHS{Kind: RHSKind(rhs.Kind), Op: rhs.Op, UnaryOp: rhs.UnaryOp, Literal: rhs.Literal}
	switch build.RHSKind(rhs.Kind) {
	case build.ArithRHS:
		out.Arg1 = rn.rewriteVar(rhs.Arg1, sc)
		out.Arg2 = rn.rewriteVar(rhs.Arg2, sc)
	case build.UnaryRHS, build.MoveRHS, build.MemReadRHS:
		out.Arg1 = rn.rewriteVar(rhs.Arg1, sc)
	}
	return out
}

func (rn renamer) rewriteTerm(t build.Terminator, sc *scope) Terminator {
	out := Terminator{Kind: t.Kind}
	switch t.Kind {
	case ir.BranchIfZero:
		out.Pred = rn.rewriteVar(t.Pred, sc)
		out.Conseq = rn.blockMap[t.Conseq]
		out.Alt = rn.blockMap[t.Alt]
	case ir.Goto:
		out.Dest = rn.blockMap[t.Dest]
	case ir.Return:
		if t.Value != nil {
			v := rn.rewriteVar(*t.Value, sc)
			out.Value = &v
		}
	}
	return out
}
