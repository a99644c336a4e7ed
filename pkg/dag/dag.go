package dag

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrGraphHasCycle is returned by [Graph.Validate] when the parent relation
	// contains a cycle. Commit histories are acyclic by construction, so a cycle
	// means the input is corrupt. Cycles are detected using an iterative
	// depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrUnknownCommit is wrapped by callers that resolve a sha which is not
	// loaded in the graph.
	ErrUnknownCommit = errors.New("unknown commit")
)

// Metadata stores arbitrary key-value pairs attached to a commit.
// It carries passthrough data the layout stages never interpret (labels,
// provider-specific fields).
type Metadata map[string]any

// Commit is one record of a commit history page.
//
// Parents are ordered: index 0 is the continuation (first) parent, every
// further entry is a merged-in parent. A parent may reference a commit that
// has not been loaded yet; such references are kept and reported by
// [Graph.Dangling] until a later page supplies the commit.
type Commit struct {
	SHA       string    `json:"sha" bson:"sha"`
	Parents   []string  `json:"parents,omitempty" bson:"parents,omitempty"`
	Author    string    `json:"author,omitempty" bson:"author,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Message   string    `json:"message,omitempty" bson:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero" bson:"timestamp,omitempty"`
	URL       string    `json:"url,omitempty" bson:"url,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Meta      Metadata  `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Graph is an immutable commit graph keyed by sha.
//
// Children are derived back-references recomputed from every parent list
// whenever the graph is built or extended. Graphs are never modified after
// construction: [Graph.Extend] returns a new graph, so a graph that was
// handed to a layout pass stays valid while the next page is merged.
//
// The zero value is not usable - use [Build] to create a graph.
// Graph is safe for concurrent reads.
type Graph struct {
	commits  map[string]*Commit
	order    []string            // insertion order
	children map[string][]string // sha -> child shas, insertion order
	dangling []string            // unresolved parent shas, first-seen order
}

// Build creates a graph from a sequence of commit records.
//
// Records with an empty sha are skipped. When the same sha appears more than
// once the first record wins. Parent shas that do not resolve to a record are
// kept on the commit and reported by [Graph.Dangling].
func Build(commits []Commit) *Graph {
	g := &Graph{
		commits: make(map[string]*Commit, len(commits)),
	}
	g.add(commits)
	g.index()
	return g
}

// Extend returns a new graph holding the commits of g followed by commits.
//
// The receiver is not modified. Children are recomputed from scratch, so an
// edge whose parent arrives in a later page resolves automatically.
// Calling Extend on a nil graph is equivalent to [Build].
func (g *Graph) Extend(commits []Commit) *Graph {
	if g == nil {
		return Build(commits)
	}
	next := &Graph{
		commits: make(map[string]*Commit, len(g.commits)+len(commits)),
		order:   make([]string, 0, len(g.order)+len(commits)),
	}
	for _, sha := range g.order {
		next.commits[sha] = g.commits[sha]
		next.order = append(next.order, sha)
	}
	next.add(commits)
	next.index()
	return next
}

func (g *Graph) add(commits []Commit) {
	for _, c := range commits {
		if c.SHA == "" {
			continue
		}
		if _, exists := g.commits[c.SHA]; exists {
			continue
		}
		rec := c
		rec.Parents = slices.Clone(c.Parents)
		if rec.Meta == nil {
			rec.Meta = Metadata{}
		}
		g.commits[rec.SHA] = &rec
		g.order = append(g.order, rec.SHA)
	}
}

// index rebuilds the children and dangling indices by a full pass over every
// parent list.
func (g *Graph) index() {
	g.children = make(map[string][]string, len(g.commits))
	g.dangling = nil
	seenDangling := make(map[string]bool)
	for _, sha := range g.order {
		for _, p := range g.commits[sha].Parents {
			if _, ok := g.commits[p]; !ok {
				if !seenDangling[p] {
					seenDangling[p] = true
					g.dangling = append(g.dangling, p)
				}
				continue
			}
			if !slices.Contains(g.children[p], sha) {
				g.children[p] = append(g.children[p], sha)
			}
		}
	}
}

// Commit returns the record for sha and true, or the zero value and false
// when the sha is unknown. The returned Parents slice must not be modified.
func (g *Graph) Commit(sha string) (Commit, bool) {
	c, ok := g.commits[sha]
	if !ok {
		return Commit{}, false
	}
	return *c, true
}

// Has reports whether sha is a known commit.
func (g *Graph) Has(sha string) bool {
	_, ok := g.commits[sha]
	return ok
}

// Len returns the number of unique commits.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// SHAs returns every known sha in insertion order.
func (g *Graph) SHAs() []string { return slices.Clone(g.order) }

// Parents returns the ordered parent shas of a commit, including parents
// that are not loaded. Returns nil for unknown commits.
func (g *Graph) Parents(sha string) []string {
	if c, ok := g.commits[sha]; ok {
		return c.Parents
	}
	return nil
}

// ResolvedParents returns the parents of a commit that are present in the
// graph, preserving parent order.
func (g *Graph) ResolvedParents(sha string) []string {
	var out []string
	for _, p := range g.Parents(sha) {
		if g.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// FirstParent returns the continuation parent of a commit and whether it is
// loaded. It returns ("", false) for roots and unknown commits.
func (g *Graph) FirstParent(sha string) (string, bool) {
	ps := g.Parents(sha)
	if len(ps) == 0 {
		return "", false
	}
	return ps[0], g.Has(ps[0])
}

// Children returns the shas of commits that list sha as a parent, in
// insertion order. The returned slice should not be modified.
func (g *Graph) Children(sha string) []string { return g.children[sha] }

// IsMerge reports whether the commit has two or more parents.
func (g *Graph) IsMerge(sha string) bool { return len(g.Parents(sha)) > 1 }

// IsFork reports whether the commit has two or more loaded children,
// i.e. history branched off at this commit.
func (g *Graph) IsFork(sha string) bool { return len(g.children[sha]) > 1 }

// Tips returns commits without loaded children in insertion order.
// These are branch heads of the loaded history.
func (g *Graph) Tips() []string {
	var tips []string
	for _, sha := range g.order {
		if len(g.children[sha]) == 0 {
			tips = append(tips, sha)
		}
	}
	return tips
}

// Roots returns commits without loaded parents in insertion order. A commit
// whose parents are all dangling counts as a root of the loaded history.
func (g *Graph) Roots() []string {
	var roots []string
	for _, sha := range g.order {
		if len(g.ResolvedParents(sha)) == 0 {
			roots = append(roots, sha)
		}
	}
	return roots
}

// Dangling returns parent shas referenced by a loaded commit but not loaded
// themselves, in the order they were first referenced.
func (g *Graph) Dangling() []string { return slices.Clone(g.dangling) }

// Validate reports [ErrGraphHasCycle] when the parent relation is cyclic.
// Dangling parents are not an error.
//
// Cycle detection runs in O(N+E) time with an explicit stack, so arbitrarily
// long histories cannot overflow the goroutine stack.
func (g *Graph) Validate() error {
	const (
		white = iota
		gray
		black
	)

	type frame struct {
		sha  string
		next int
	}

	color := make(map[string]int, len(g.commits))
	for _, start := range g.order {
		if color[start] != white {
			continue
		}
		color[start] = gray
		stack := []frame{{sha: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			parents := g.commits[top.sha].Parents
			if top.next == len(parents) {
				color[top.sha] = black
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
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of shas.
// The returned map maps each sha to its index in the slice.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
