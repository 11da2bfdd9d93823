// Package dom computes dominance information over an ir.Func: a
// reverse-postorder numbering, immediate dominators via the
// Cooper-Harvey-Kennedy iterative algorithm, the inverted dominator
// tree, and dominance frontiers. It is grounded on
// original_source/src/ir/dominance.rs, cross-checked against
// golang.org/x/tools/go/ssa/lift.go's buildDomFrontier (which cites the
// same Cooper, Harvey & Kennedy paper) for the standard formulation of
// the intersect step.
//
// Dominance only operates on block-graph shape (preds, terminator
// successors), so it is generic over the CFG configuration: the same
// code serves the variable-IR function (before SSA construction) and
// SSA functions alike.
package dom

import (
	"sort"

	"github.com/rahularya50/lispc/internal/ir"
)

// Info holds every output of one dominance analysis. All four outputs
// are keyed by block ID and are valid only for the Func they were
// computed from, and only until its block graph next changes.
type Info struct {
	Postorder []ir.BlockID
	postIndex map[ir.BlockID]int
	preds     map[ir.BlockID][]ir.BlockID

	IDom     map[ir.BlockID]ir.BlockID
	Children map[ir.BlockID][]ir.BlockID
	Frontier map[ir.BlockID]map[ir.BlockID]struct{}
}

// Analyze runs the full dominance pipeline from f's start block.
// Unreachable blocks are simply never visited, matching §4.3's "dead
// blocks are not enumerated".
func Analyze[L, R, H any](f *ir.Func[L, R, H]) *Info {
	info := &Info{
		postIndex: map[ir.BlockID]int{},
		preds:     map[ir.BlockID][]ir.BlockID{},
		IDom:      map[ir.BlockID]ir.BlockID{},
		Children:  map[ir.BlockID][]ir.BlockID{},
		Frontier:  map[ir.BlockID]map[ir.BlockID]struct{}{},
	}
	postorderDFS(f, info)
	info.computeIDoms()
	info.computeChildren(f.StartID)
	info.computeFrontiers()
	return info
}

// postorderDFS does a postorder traversal from the start block,
// recording postorder indices and, as a side effect, each visited
// block's predecessor list (edges discovered while walking successors,
// independent of whatever Preds the blocks themselves happen to carry).
func postorderDFS[L, R, H any](f *ir.Func[L, R, H], info *Info) {
	visited := map[ir.BlockID]struct{}{}
	var visit func(id ir.BlockID)
	visit = func(id ir.BlockID) {
		if _, ok := visited[id]; ok {
			return
		}
		visited[id] = struct{}{}
		b, ok := f.Block(id)
		if !ok {
			return
		}
		for _, succ := range b.Terminator.Successors() {
			info.preds[succ] = append(info.preds[succ], id)
			visit(succ)
		}
		info.postIndex[id] = len(info.Postorder)
		info.Postorder = append(info.Postorder, id)
	}
	visit(f.StartID)
}

// intersect walks two nodes up the dominator tree until they meet,
// climbing whichever currently has the lower postorder index (i.e. is
// further from the root) at each step.
func (info *Info) intersect(a, b ir.BlockID) ir.BlockID {
	for a != b {
		for info.postIndex[a] < info.postIndex[b] {
			a = info.IDom[a]
		}
		for info.postIndex[b] < info.postIndex[a] {
			b = info.IDom[b]
		}
	}
	return a
}

func (info *Info) computeIDoms() {
	start := info.Postorder[len(info.Postorder)-1]
	info.IDom[start] = start

	rpo := make([]ir.BlockID, len(info.Postorder))
	for i, id := range info.Postorder {
		rpo[len(info.Postorder)-1-i] = id
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == start {
				continue
			}
			preds := sortedPreds(info.preds[b])
			var newIdom ir.BlockID
			found := false
			for _, p := range preds {
				if _, ok := info.IDom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = info.intersect(p, newIdom)
			}
			if !found {
				continue
			}
			if cur, ok := info.IDom[b]; !ok || cur != newIdom {
				info.IDom[b] = newIdom
				changed = true
			}
		}
	}
}

func (info *Info) computeChildren(start ir.BlockID) {
	for b, d := range info.IDom {
		if b == start {
			continue
		}
		info.Children[d] = append(info.Children[d], b)
	}
	for d := range info.Children {
		sort.Slice(info.Children[d], func(i, j int) bool { return info.Children[d][i] < info.Children[d][j] })
	}
}

func (info *Info) computeFrontiers() {
	for b, preds := range info.preds {
		if len(preds) < 2 {
			continue
		}
		for _, p := range preds {
			runner := p
			for runner != info.IDom[b] {
				if info.Frontier[runner] == nil {
					info.Frontier[runner] = map[ir.BlockID]struct{}{}
				}
				info.Frontier[runner][b] = struct{}{}
				runner = info.IDom[runner]
			}
		}
	}
}

// Dominates reports whether a dominates b (reflexively: a dominates
// itself).
func (info *Info) Dominates(a, b ir.BlockID) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		parent, ok := info.IDom[cur]
		if !ok || parent == cur {
			return cur == a
		}
		cur = parent
	}
}

// SortedFrontier returns the dominance frontier of b in ascending ID
// order.
func (info *Info) SortedFrontier(b ir.BlockID) []ir.BlockID {
	set := info.Frontier[b]
	out := make([]ir.BlockID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedPreds(preds []ir.BlockID) []ir.BlockID {
	out := append([]ir.BlockID(nil), preds...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
