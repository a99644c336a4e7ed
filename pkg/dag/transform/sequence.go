package transform

import "github.com/matzehuels/forkline/pkg/dag"

// Sequence returns every loaded commit in ancestors-first topological order:
// each commit appears after all of its loaded parents.
//
// The walk starts from commits in insertion order and visits parents in
// parent order, so the result is deterministic for a given graph. Dangling
// parents are ignored. If the history is corrupt and contains a cycle, the
// closing references are returned as back edges and the order is still
// complete: every commit appears exactly once.
func Sequence(g *dag.Graph) (order []string, backEdges []BackEdge) {
	order = make([]string, 0, g.Len())
	walkParents(g,
		func(sha string) { order = append(order, sha) },
		func(e BackEdge) { backEdges = append(backEdges, e) },
	)
	return order, backEdges
}
