// Package regalloc implements the C7 register allocator over a
// function already lowered to microcode rhs form: interference graph
// construction, maximum-cardinality-search ordering, greedy coloring,
// spill selection, and spill rewriting. Grounded on spec §4.7 and
// original_source/src/backend/register_coloring.rs, in the teacher's
// plain-map-and-slice style rather
// than an external graph-coloring library.
package regalloc

import (
	"sort"

	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/liveness"
	"github.com/rahularya50/lispc/internal/micro"
)

// PhysicalCount is the microcode target's physical register count.
const PhysicalCount = 2

// Graph is an undirected interference graph over microcode registers.
type Graph struct {
	neighbors map[micro.Register]map[micro.Register]struct{}
}

func newGraph() *Graph {
	return &Graph{neighbors: map[micro.Register]map[micro.Register]struct{}{}}
}

func (g *Graph) addNode(r micro.Register) {
	if g.neighbors[r] == nil {
		g.neighbors[r] = map[micro.Register]struct{}{}
	}
}

func (g *Graph) addEdge(a, b micro.Register) {
	g.addNode(a)
	g.addNode(b)
	g.neighbors[a][b] = struct{}{}
	g.neighbors[b][a] = struct{}{}
}

// BuildInterference implements §4.7's interference rule: two registers
// interfere when their lifetimes overlap in some shared block, with a
// special case when both lifetimes end at a phi consumer in that
// block — then they interfere only if they arrive from the same
// predecessor (distinct incoming edges may safely share a register).
func BuildInterference(live map[micro.Register]map[ir.BlockID]liveness.RegisterLiveness) *Graph {
	g := newGraph()
	regs := make([]micro.Register, 0, len(live))
	for r := range live {
		regs = append(regs, r)
		g.addNode(r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Index < regs[j].Index })

	for i := 0; i < len(regs); i++ {
		for j := i + 1; j < len(regs); j++ {
			r1, r2 := regs[i], regs[j]
			for blockID, lv1 := range live[r1] {
				lv2, ok := live[r2][blockID]
				if ok && interferes(lv1, lv2) {
					g.addEdge(r1, r2)
					break
				}
			}
		}
	}
	return g
}

func interferes(a, b liveness.RegisterLiveness) bool {
	if a.Until.Kind == liveness.PhiPos && b.Until.Kind == liveness.PhiPos {
		return a.Until.SrcBlock == b.Until.SrcBlock
	}
	return a.Since.Less(b.Until) && b.Since.Less(a.Until)
}

// Order implements maximum cardinality search: repeatedly take the
// unordered vertex with the most already-ordered neighbors, breaking
// ties by ascending register index.
func (g *Graph) Order() []micro.Register {
	all := make([]micro.Register, 0, len(g.neighbors))
	for r := range g.neighbors {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Index < all[j].Index })

	weight := map[micro.Register]int{}
	placed := map[micro.Register]bool{}
	ordered := make([]micro.Register, 0, len(all))

	for len(ordered) < len(all) {
		var best micro.Register
		bestWeight := -1
		found := false
		for _, r := range all {
			if placed[r] {
				continue
			}
			if !found || weight[r] > bestWeight {
				best, bestWeight, found = r, weight[r], true
			}
		}
		placed[best] = true
		ordered = append(ordered, best)
		for n := range g.neighbors[best] {
			weight[n]++
		}
	}
	return ordered
}

// Color implements greedy coloring in the given order: each vertex
// gets the smallest non-negative color unused by an already-colored
// neighbor.
func (g *Graph) Color(order []micro.Register) map[micro.Register]int {
	color := map[micro.Register]int{}
	for _, r := range order {
		used := map[int]bool{}
		for n := range g.neighbors[r] {
			if c, ok := color[n]; ok {
				used[c] = true
			}
		}
		c := 0
		for used[c] {
			c++
		}
		color[r] = c
	}
	return color
}

// SelectSpills implements §4.7's spill selection: count vertices per
// color, and spill the len(colors)-k lowest-population colors,
// keeping the heaviest classes resident in registers.
func SelectSpills(color map[micro.Register]int, k int) map[int]bool {
	counts := map[int]int{}
	for _, c := range color {
		counts[c]++
	}
	colors := make([]int, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		return colors[i] < colors[j]
	})

	spilled := map[int]bool{}
	numSpill := len(colors) - k
	if numSpill > 0 {
		for _, c := range colors[len(colors)-numSpill:] {
			spilled[c] = true
		}
	}
	return spilled
}

// assignPhysical renumbers every kept (non-spilled) color to a
// contiguous physical register index starting at 0.
func assignPhysical(color map[micro.Register]int, spilled map[int]bool) map[int]int {
	kept := map[int]bool{}
	for _, c := range color {
		if !spilled[c] {
			kept[c] = true
		}
	}
	colors := make([]int, 0, len(kept))
	for c := range kept {
		colors = append(colors, c)
	}
	sort.Ints(colors)

	physical := make(map[int]int, len(colors))
	for i, c := range colors {
		physical[c] = i
	}
	return physical
}
