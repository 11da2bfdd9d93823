package ir

// InstMapper rewrites one source instruction into zero or more
// destination instructions, allocating fresh lvalues in dst as needed.
type InstMapper[L1, H1, L2, R2, H2 any] func(dst *Func[L2, R2, H2], in Instruction[L1, H1]) []Instruction[L2, H2]

// JumpMapper rewrites a source terminator into a prelude of destination
// instructions plus a new terminator. Block-ID fields of the returned
// terminator (Conseq/Alt/Dest) are still in source ID-space; Lower
// remaps them afterward via the block map built in step 1, so mappers
// do not need visibility into block identity at all.
type JumpMapper[R1, L2, R2, H2 any] func(dst *Func[L2, R2, H2], term Terminator[R1]) ([]Instruction[L2, H2], Terminator[R2])

// Lower implements the C2 contract: given a function over configuration
// 1 and four mappers, produces a function over configuration 2 with the
// same block graph shape. Every source block maps bijectively to a
// destination block; predecessor relations, phi topology, and
// terminator destinations are preserved address-for-address (here,
// ID-for-ID) under that bijection.
func Lower[L1, R1, H1, L2, R2, H2 any](
	src *Func[L1, R1, H1],
	inst InstMapper[L1, H1, L2, R2, H2],
	jump JumpMapper[R1, L2, R2, H2],
	lvalue func(L1) L2,
	rvalue func(R1) R2,
) *Func[L2, R2, H2] {
	dst := NewFunc[L2, R2, H2]()
	dst.RegCounter = src.RegCounter

	srcBlocks := src.Blocks()
	blockMap := make(map[BlockID]BlockID, len(srcBlocks))
	for _, b := range srcBlocks {
		if b.ID == src.StartID {
			blockMap[b.ID] = dst.StartID
			continue
		}
		blockMap[b.ID] = dst.NewBlock().ID
	}

	for _, b := range srcBlocks {
		db := dst.MustBlock(blockMap[b.ID])
		db.DebugIndex = b.DebugIndex

		for _, phi := range b.Phis {
			srcs := make(map[BlockID]R2, len(phi.Srcs))
			for pred, r := range phi.Srcs {
				srcs[blockMap[pred]] = rvalue(r)
			}
			db.Phis = append(db.Phis, Phi[L2, R2]{Dest: lvalue(phi.Dest), Srcs: srcs})
		}

		for _, in := range b.Instructions {
			db.Instructions = append(db.Instructions, inst(dst, in)...)
		}

		prelude, term := jump(dst, b.Terminator)
		db.Instructions = append(db.Instructions, prelude...)
		db.Terminator = remapTerm(term, blockMap)
	}

	RebuildPreds(dst)
	return dst
}

func remapTerm[R any](t Terminator[R], blockMap map[BlockID]BlockID) Terminator[R] {
	switch t.Kind {
	case BranchIfZero:
		t.Conseq = blockMap[t.Conseq]
		t.Alt = blockMap[t.Alt]
	case Goto:
		t.Dest = blockMap[t.Dest]
	}
	return t
}

// RebuildPreds recomputes every block's predecessor set from the
// terminators currently in place, rather than trusting whatever Preds
// already holds. Used after Lower and after SSA construction's rename
// pass, both of which finish with fully-formed terminators before Preds
// has been touched.
func RebuildPreds[L, R, H any](f *Func[L, R, H]) {
	for _, b := range f.Blocks() {
		b.Preds = map[BlockID]struct{}{}
	}
	for _, b := range f.Blocks() {
		for _, succ := range b.Terminator.Successors() {
			f.MustBlock(succ).Preds[b.ID] = struct{}{}
		}
	}
}
