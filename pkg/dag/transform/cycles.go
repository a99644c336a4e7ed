package transform

import (
	"fmt"

	"github.com/matzehuels/forkline/pkg/dag"
)

// BackEdge is a parent reference that closes a cycle: Parent was still on the
// depth-first stack when Child listed it.
type BackEdge struct {
	Child  string
	Parent string
}

func (e BackEdge) String() string { return fmt.Sprintf("%s->%s", e.Child, e.Parent) }

// dfsColor marks the state of a commit in an iterative depth-first walk.
type dfsColor uint8

const (
	white dfsColor = iota
	gray
	black
)

// frame is one entry of the explicit DFS stack: the commit and the index of
// the next parent to visit.
type frame struct {
	sha  string
	next int
}

// walkParents performs an iterative post-order depth-first search over the
// parent relation, starting from every commit in insertion order.
//
// emit is called for each commit after all of its loaded parents. A parent
// met while still on the stack is reported to back and never re-entered.
// Dangling parents are skipped.
func walkParents(g *dag.Graph, emit func(sha string), back func(BackEdge)) {
	color := make(map[string]dfsColor, g.Len())
	for _, start := range g.SHAs() {
		if color[start] != white {
			continue
		}
		color[start] = gray
		stack := []frame{{sha: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			parents := g.Parents(top.sha)
			if top.next == len(parents) {
				color[top.sha] = black
				emit(top.sha)
				stack = stack[:len(stack)-1]
				continue
			}
			p := parents[top.next]
			top.next++
			if !g.Has(p) {
				continue
			}
			switch color[p] {
			case white:
				color[p] = gray
				stack = append(stack, frame{sha: p})
			case gray:
				back(BackEdge{Child: top.sha, Parent: p})
			}
		}
	}
}

// BackEdges returns every parent reference that closes a cycle, in the order
// the walk of [Sequence] meets them. An acyclic history returns nil.
func BackEdges(g *dag.Graph) []BackEdge {
	var out []BackEdge
	walkParents(g, func(string) {}, func(e BackEdge) { out = append(out, e) })
	return out
}
