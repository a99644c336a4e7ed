package transform

import "github.com/matzehuels/forkline/pkg/dag"

// MainLine returns the trunk of the history: tip followed by the chain of
// first parents, newest first.
//
// An empty tip selects the first commit of the graph, which for newest-first
// pages is the head of the requested branch. The walk stops at a root, at a
// first parent that is not loaded, at a commit it already visited (cycle) or
// after [dag.Graph.Len] steps. An unknown tip returns nil.
func MainLine(g *dag.Graph, tip string) []string {
	if tip == "" {
		shas := g.SHAs()
		if len(shas) == 0 {
			return nil
		}
		tip = shas[0]
	}
	if !g.Has(tip) {
		return nil
	}

	line := []string{tip}
	seen := map[string]bool{tip: true}
	for cur := tip; len(line) < g.Len(); {
		p, ok := g.FirstParent(cur)
		if !ok || seen[p] {
			break
		}
		seen[p] = true
		line = append(line, p)
		cur = p
	}
	return line
}
