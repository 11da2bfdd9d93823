package ir

import "testing"

// A minimal concrete configuration for exercising the generic
// arena/terminator machinery without pulling in any real
// configuration package.
type testVal struct{ n int }

func TestNewFuncHasSingleStartBlock(t *testing.T) {
	f := NewFunc[testVal, testVal, testVal]()
	if f.NumBlocks() != 1 {
		t.Fatalf("got %d blocks, want 1", f.NumBlocks())
	}
	if f.Start().ID != f.StartID {
		t.Errorf("Start().ID = %v, want %v", f.Start().ID, f.StartID)
	}
}

func TestNewBlockDistinctIDs(t *testing.T) {
	f := NewFunc[testVal, testVal, testVal]()
	a := f.NewBlock()
	b := f.NewBlock()
	if a.ID == b.ID {
		t.Fatalf("NewBlock returned duplicate IDs: %v", a.ID)
	}
	if f.NumBlocks() != 3 {
		t.Fatalf("got %d blocks, want 3", f.NumBlocks())
	}
}

func TestSweepDropsUnreachableBlocks(t *testing.T) {
	f := NewFunc[testVal, testVal, testVal]()
	start := f.Start()
	reachable := f.NewBlock()
	dead := f.NewBlock()
	_ = dead

	start.Terminator = GotoTerm[testVal](reachable.ID)
	reachable.Terminator = ReturnTerm[testVal](nil)
	// dead.Terminator left Unset: it has no successors, so it would
	// never keep anything else alive, but it must itself be swept.

	f.Sweep()

	if f.NumBlocks() != 2 {
		t.Fatalf("got %d blocks after sweep, want 2", f.NumBlocks())
	}
	if _, ok := f.Block(dead.ID); ok {
		t.Errorf("dead block %v survived Sweep", dead.ID)
	}
	if _, ok := f.Block(reachable.ID); !ok {
		t.Errorf("reachable block %v was swept", reachable.ID)
	}
}

func TestSweepFollowsBranchBothArms(t *testing.T) {
	f := NewFunc[testVal, testVal, testVal]()
	start := f.Start()
	conseq := f.NewBlock()
	alt := f.NewBlock()
	conseq.Terminator = ReturnTerm[testVal](nil)
	alt.Terminator = ReturnTerm[testVal](nil)
	start.Terminator = BranchIfZeroTerm(testVal{}, conseq.ID, alt.ID)

	f.Sweep()

	if f.NumBlocks() != 3 {
		t.Fatalf("got %d blocks after sweep, want 3 (both arms reachable)", f.NumBlocks())
	}
}

func TestRebuildPredsMatchesTerminators(t *testing.T) {
	f := NewFunc[testVal, testVal, testVal]()
	start := f.Start()
	a := f.NewBlock()
	b := f.NewBlock()
	start.Terminator = BranchIfZeroTerm(testVal{}, a.ID, b.ID)
	a.Terminator = GotoTerm[testVal](b.ID)
	b.Terminator = ReturnTerm[testVal](nil)

	// Pollute Preds with stale entries to confirm RebuildPreds
	// recomputes from scratch rather than trusting what's there.
	b.Preds[a.ID] = struct{}{}
	b.Preds[999] = struct{}{}

	RebuildPreds(f)

	got := b.SortedPreds()
	if len(got) != 2 {
		t.Fatalf("b's preds = %v, want exactly 2 entries", got)
	}
	for _, id := range got {
		if id != start.ID && id != a.ID {
			t.Errorf("unexpected stale pred %v survived RebuildPreds", id)
		}
	}
}

func TestBlockEmpty(t *testing.T) {
	f := NewFunc[testVal, testVal, testVal]()
	b := f.NewBlock()
	if !b.Empty() {
		t.Fatal("freshly minted block should be Empty")
	}
	b.Instructions = append(b.Instructions, Instruction[testVal, testVal]{Lhs: testVal{1}, Rhs: testVal{2}})
	if b.Empty() {
		t.Fatal("block with an instruction should not be Empty")
	}
}

func TestPhiSortedPreds(t *testing.T) {
	p := Phi[testVal, testVal]{Srcs: map[BlockID]testVal{5: {1}, 1: {2}, 3: {3}}}
	got := p.SortedPreds()
	want := []BlockID{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTerminatorSuccessorsAndUses(t *testing.T) {
	branch := BranchIfZeroTerm(testVal{7}, BlockID(1), BlockID(2))
	if succs := branch.Successors(); len(succs) != 2 || succs[0] != 1 || succs[1] != 2 {
		t.Errorf("branch.Successors() = %v, want [1 2]", succs)
	}
	if uses := branch.Uses(); len(uses) != 1 || uses[0] != (testVal{7}) {
		t.Errorf("branch.Uses() = %v, want [{7}]", uses)
	}

	v := testVal{9}
	ret := ReturnTerm(&v)
	if succs := ret.Successors(); succs != nil {
		t.Errorf("ret.Successors() = %v, want nil", succs)
	}
	if uses := ret.Uses(); len(uses) != 1 || uses[0] != v {
		t.Errorf("ret.Uses() = %v, want [%v]", uses, v)
	}

	bareRet := ReturnTerm[testVal](nil)
	if uses := bareRet.Uses(); uses != nil {
		t.Errorf("bareRet.Uses() = %v, want nil", uses)
	}
}

func TestLowerPreservesBlockShapeAndRemapsTerminators(t *testing.T) {
	src := NewFunc[testVal, testVal, testVal]()
	start := src.Start()
	succ := src.NewBlock()
	start.Terminator = GotoTerm[testVal](succ.ID)
	start.Instructions = append(start.Instructions, Instruction[testVal, testVal]{Lhs: testVal{1}, Rhs: testVal{2}})
	succ.Terminator = ReturnTerm(&testVal{3})

	dst := Lower[testVal, testVal, testVal, testVal, testVal, testVal](
		src,
		func(d *Func[testVal, testVal, testVal], in Instruction[testVal, testVal]) []Instruction[testVal, testVal] {
			return []Instruction[testVal, testVal]{{Lhs: in.Lhs, Rhs: testVal{in.Rhs.n * 10}}}
		},
		func(d *Func[testVal, testVal, testVal], term Terminator[testVal]) ([]Instruction[testVal, testVal], Terminator[testVal]) {
			return nil, term
		},
		func(l testVal) testVal { return l },
		func(r testVal) testVal { return r },
	)

	if dst.NumBlocks() != src.NumBlocks() {
		t.Fatalf("got %d blocks, want %d (same shape as source)", dst.NumBlocks(), src.NumBlocks())
	}

	newStart := dst.Start()
	if len(newStart.Instructions) != 1 || newStart.Instructions[0].Rhs.n != 20 {
		t.Fatalf("start block instructions = %+v, want a single rewritten instruction", newStart.Instructions)
	}
	if newStart.Terminator.Kind != Goto {
		t.Fatalf("start terminator kind = %v, want Goto", newStart.Terminator.Kind)
	}
	// The Goto's Dest must point at the *new* successor block, not the
	// source's BlockID — Lower's whole job is this remap.
	newSucc := dst.MustBlock(newStart.Terminator.Dest)
	if newSucc.Terminator.Kind != Return || newSucc.Terminator.Value == nil || newSucc.Terminator.Value.n != 3 {
		t.Fatalf("successor terminator = %+v, want Return(3)", newSucc.Terminator)
	}
}
