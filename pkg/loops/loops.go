package loops

import (
	"fmt"
	"slices"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/errors"
)

// Step is one entry of a loop's annotated path.
type Step struct {
	SHA string `json:"sha" bson:"sha"`
	// IsFork marks commits on the forked branch.
	IsFork bool `json:"is_fork" bson:"is_fork"`
	// InLoop marks commits on either side of this loop. Commits that only sit
	// inside the topological window belong to another, nested loop.
	InLoop bool `json:"in_loop" bson:"in_loop"`
	// Level is the nesting depth used for the horizontal offset of the commit
	// inside the bubble. Anchors are level 0.
	Level int `json:"level" bson:"level"`
}

// Loop describes one fork/merge bubble closed by a merge on the main line.
type Loop struct {
	MergeSHA string `json:"merge_sha" bson:"merge_sha"`
	// ForkSHA is the main-line commit the forked branch started from. Empty
	// when the branch runs past the loaded history.
	ForkSHA string `json:"fork_sha,omitempty" bson:"fork_sha,omitempty"`
	// MainPath holds the main-line commits strictly between merge and fork,
	// newest first.
	MainPath []string `json:"main_path" bson:"main_path"`
	// ForkPath holds the forked branch from the merged-in parent down to (but
	// excluding) the fork point, newest first.
	ForkPath []string `json:"fork_path" bson:"fork_path"`
	// Path is the annotated walk from the merge anchor to the fork anchor.
	Path    []Step `json:"path" bson:"path"`
	Color   string `json:"color" bson:"color"`
	Partial bool   `json:"partial,omitempty" bson:"partial,omitempty"`
}

// Skip records a merge whose loop was abandoned.
type Skip struct {
	MergeSHA string
	Err      error
}

func (s Skip) Error() string { return fmt.Sprintf("loop at %s: %v", s.MergeSHA, s.Err) }

// Result is the outcome of one [Annotate] call.
type Result struct {
	// Loops are ordered by merge, newest first.
	Loops []Loop
	// Skipped lists merges whose walks hit a cycle or the walk bound.
	Skipped []Skip
}

// Loop returns the loop closed by merge.
func (r Result) Loop(merge string) (Loop, bool) {
	for _, l := range r.Loops {
		if l.MergeSHA == merge {
			return l, true
		}
	}
	return Loop{}, false
}

// ByMerge indexes the loops by merge sha.
func (r Result) ByMerge() map[string]Loop {
	m := make(map[string]Loop, len(r.Loops))
	for _, l := range r.Loops {
		m[l.MergeSHA] = l
	}
	return m
}

// Options configures [Annotate].
type Options struct {
	// Colors supplies one color per loop. Nil uses a [RandomColors] seeded
	// with [DefaultSeed].
	Colors ColorGenerator
}

// Annotate computes a loop for every merge on mainLine, newest first.
//
// order must be the ancestors-first topological order of g (see
// transform.Sequence). Only the first merged-in parent of an octopus merge
// forms a loop. Loops are never fatal: a walk that revisits a commit or
// exceeds the size of the graph abandons its loop and is reported in
// [Result.Skipped].
func Annotate(g *dag.Graph, mainLine, order []string, opts Options) Result {
	colors := opts.Colors
	if colors == nil {
		colors = NewRandomColors(DefaultSeed)
	}

	w := walker{
		g:        g,
		mainLine: mainLine,
		onMain:   dag.PosMap(mainLine),
		order:    order,
		orderPos: dag.PosMap(order),
	}

	var res Result
	for i, sha := range mainLine {
		if !g.IsMerge(sha) {
			continue
		}
		loop, err := w.annotate(i)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{MergeSHA: sha, Err: err})
			continue
		}
		loop.Color = colors.Next()
		res.Loops = append(res.Loops, loop)
	}
	return res
}

type walker struct {
	g        *dag.Graph
	mainLine []string
	onMain   map[string]int
	order    []string
	orderPos map[string]int
}

// annotate builds the loop closed by the merge at mainLine[i].
func (w walker) annotate(i int) (Loop, error) {
	merge := w.mainLine[i]
	loop := Loop{MergeSHA: merge}
	anchor := Step{SHA: merge, InLoop: true}

	second := w.g.Parents(merge)[1]
	if !w.g.Has(second) {
		loop.Partial = true
		loop.Path = []Step{anchor}
		return loop, nil
	}

	if err := w.forkPath(&loop, second); err != nil {
		return Loop{}, err
	}

	if loop.Partial {
		loop.MainPath = slices.Clone(w.mainLine[i+1:])
	} else {
		j := w.onMain[loop.ForkSHA]
		if j <= i {
			return Loop{}, errors.New(errors.ErrCodeCycleDetected,
				"fork point %s is not older than merge %s", loop.ForkSHA, merge)
		}
		loop.MainPath = slices.Clone(w.mainLine[i+1 : j])
	}

	path, err := w.annotatedPath(loop)
	if err != nil {
		return Loop{}, err
	}
	loop.Path = append([]Step{anchor}, path...)
	return loop, nil
}

// forkPath follows first parents from start until it meets the main line.
// Running off the loaded history marks the loop partial.
func (w walker) forkPath(loop *Loop, start string) error {
	bound := w.g.Len()
	seen := make(map[string]bool)
	for cur := start; ; {
		if _, ok := w.onMain[cur]; ok {
			loop.ForkSHA = cur
			return nil
		}
		if seen[cur] {
			return errors.New(errors.ErrCodeCycleDetected, "fork path revisits %s", cur)
		}
		if len(loop.ForkPath) >= bound {
			return errors.New(errors.ErrCodeWalkLimit, "fork path exceeds %d commits", bound)
		}
		seen[cur] = true
		loop.ForkPath = append(loop.ForkPath, cur)

		next, ok := w.g.FirstParent(cur)
		if !ok {
			loop.Partial = true
			return nil
		}
		cur = next
	}
}

// annotatedPath walks the topological window from the merge towards the fork
// point, newest first, and assigns levels.
func (w walker) annotatedPath(loop Loop) ([]Step, error) {
	start, ok := w.orderPos[loop.MergeSHA]
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "merge %s missing from topological order", loop.MergeSHA)
	}

	onFork := toSet(loop.ForkPath)
	onMain := toSet(loop.MainPath)

	var (
		path   []Step
		level  = 1
		closed bool
	)
	for k := start - 1; k >= 0; k-- {
		sha := w.order[k]
		if sha == loop.ForkSHA {
			closed = true
			break
		}
		switch {
		case onFork[sha]:
			path = append(path, Step{SHA: sha, IsFork: true, InLoop: true, Level: level})
		case onMain[sha]:
			// A main-line commit that both opens and closes a nested loop
			// keeps its level: increment first, then decrement.
			if w.g.IsFork(sha) {
				level++
			}
			if w.g.IsMerge(sha) && level > 1 {
				level--
			}
			path = append(path, Step{SHA: sha, InLoop: true, Level: level})
		default:
			level++
			path = append(path, Step{SHA: sha, Level: level})
		}
	}

	if loop.Partial {
		return path, nil
	}
	if !closed {
		return nil, errors.New(errors.ErrCodeCycleDetected,
			"fork point %s not reached below merge %s", loop.ForkSHA, loop.MergeSHA)
	}
	return append(path, Step{SHA: loop.ForkSHA, InLoop: true}), nil
}

func toSet(shas []string) map[string]bool {
	m := make(map[string]bool, len(shas))
	for _, s := range shas {
		m[s] = true
	}
	return m
}
