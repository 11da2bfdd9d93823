package ir

import "sort"

// Func owns an arena of blocks, a distinguished start block, and the
// monotonically increasing counters used to mint fresh block IDs and
// fresh lvalues/rvalues. original_source kept blocks as
// Rc<RefCell<Block>> with Weak back-edges so that predecessor sets and
// phi sources could point "backwards" without creating a reference
// cycle Rust's borrow checker would reject. An arena indexed by a
// stable BlockID sidesteps the whole problem: every edge, forward or
// back, is just an int, and a block disappears by being removed from
// the map, not by its last strong reference dropping.
type Func[L, R, H any] struct {
	StartID BlockID

	blocks       map[BlockID]*Block[L, R, H]
	nextBlockID  BlockID
	RegCounter   int
}

// NewFunc allocates a function with a single empty start block.
func NewFunc[L, R, H any]() *Func[L, R, H] {
	f := &Func[L, R, H]{blocks: map[BlockID]*Block[L, R, H]{}}
	f.StartID = f.NewBlock().ID
	return f
}

// NewBlock mints a fresh block with the next stable ID and debug index
// and adds it to the arena.
func (f *Func[L, R, H]) NewBlock() *Block[L, R, H] {
	id := f.nextBlockID
	f.nextBlockID++
	b := &Block[L, R, H]{
		ID:         id,
		DebugIndex: int(id),
		Preds:      map[BlockID]struct{}{},
	}
	f.blocks[id] = b
	return b
}

// NewRegIndex mints the next register index. The configuration package
// (internal/build, internal/ssa, ...) wraps the returned int in its own
// concrete lvalue/rvalue type.
func (f *Func[L, R, H]) NewRegIndex() int {
	f.RegCounter++
	return f.RegCounter
}

// Block looks up a block by ID.
func (f *Func[L, R, H]) Block(id BlockID) (*Block[L, R, H], bool) {
	b, ok := f.blocks[id]
	return b, ok
}

// MustBlock looks up a block by ID, panicking with an IrInvariantViolation
// if it is missing — used at call sites where a lookup miss is a
// programmer error per §4.2's failure semantics.
func (f *Func[L, R, H]) MustBlock(id BlockID) *Block[L, R, H] {
	b, ok := f.blocks[id]
	if !ok {
		panicMissingBlock(id)
	}
	return b
}

// Start returns the start block.
func (f *Func[L, R, H]) Start() *Block[L, R, H] {
	return f.MustBlock(f.StartID)
}

// DeleteBlock removes a block from the arena outright. Callers are
// responsible for first rewriting any edges that pointed to it.
func (f *Func[L, R, H]) DeleteBlock(id BlockID) {
	delete(f.blocks, id)
}

// Blocks returns every live block in ascending ID order. Order is
// deterministic so passes iterating over "all blocks" behave
// reproducibly; it is not the reverse-postorder traversal dominance
// analysis needs (see internal/dom for that).
func (f *Func[L, R, H]) Blocks() []*Block[L, R, H] {
	ids := make([]BlockID, 0, len(f.blocks))
	for id := range f.blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Block[L, R, H], len(ids))
	for i, id := range ids {
		out[i] = f.blocks[id]
	}
	return out
}

// NumBlocks reports the current arena size.
func (f *Func[L, R, H]) NumBlocks() int {
	return len(f.blocks)
}

// Sweep drops every block unreachable from the start block, following
// terminator successors. It is run after each optimizer round and
// before liveness/register allocation, mirroring original_source's
// clear_dead_blocks.
func (f *Func[L, R, H]) Sweep() {
	reachable := map[BlockID]struct{}{}
	stack := []BlockID{f.StartID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := reachable[id]; seen {
			continue
		}
		reachable[id] = struct{}{}
		b, ok := f.blocks[id]
		if !ok {
			continue
		}
		stack = append(stack, b.Terminator.Successors()...)
	}
	for id := range f.blocks {
		if _, ok := reachable[id]; !ok {
			delete(f.blocks, id)
		}
	}
}
