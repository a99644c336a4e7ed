package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/dag/transform"
	"github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/lanes"
	"github.com/matzehuels/forkline/pkg/layout"
	"github.com/matzehuels/forkline/pkg/loops"
	"github.com/matzehuels/forkline/pkg/observability"
)

// =============================================================================
// Layout Pass
// =============================================================================

// Run executes one layout pass without caching.
//
// Cycle-closing parent links and loops whose walk fails do not fail the
// pass; they are logged at warn level and reported in the result. The
// context is checked between stages.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	hooks := observability.Layout()

	if in.Graph == nil {
		in.Graph = dag.Build(nil)
	}

	start := time.Now()
	res := &Result{}
	hooks.OnPassStart(ctx, in.Graph.Len())

	err := run(ctx, in, opts, res)
	res.Stats.Total = time.Since(start)
	hooks.OnPassComplete(ctx, observability.PassStats{
		Commits:   res.Stats.Commits,
		Loops:     res.Stats.Loops,
		Skipped:   len(res.Skipped),
		BackEdges: len(res.BackEdges),
		Columns:   res.Stats.Columns,
		Duration:  res.Stats.Total,
	}, err)
	if err != nil {
		return nil, err
	}

	logger.Debug("layout pass",
		"commits", res.Stats.Commits,
		"loops", res.Stats.Loops,
		"columns", res.Stats.Columns,
		"sequence", res.Stats.SequenceTime,
		"mainline", res.Stats.MainLineTime,
		"loops_time", res.Stats.LoopsTime,
		"lanes", res.Stats.LanesTime,
		"compile", res.Stats.CompileTime)
	return res, nil
}

func run(ctx context.Context, in Input, opts Options, res *Result) error {
	g := in.Graph
	logger := opts.Logger

	stage := func(name string, d *time.Duration, fn func()) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := time.Now()
		fn()
		*d = time.Since(t)
		observability.Layout().OnStage(ctx, name, *d)
		return nil
	}

	tip, err := resolveTip(in, opts.Tip)
	if err != nil {
		return err
	}

	var order []string
	if err := stage("sequence", &res.Stats.SequenceTime, func() {
		order, res.BackEdges = transform.Sequence(g)
	}); err != nil {
		return err
	}
	for _, e := range res.BackEdges {
		logger.Warn("ignoring parent link that closes a cycle", "commit", e.Child, "parent", e.Parent)
	}

	var mainLine []string
	if err := stage("mainline", &res.Stats.MainLineTime, func() {
		mainLine = transform.MainLine(g, tip)
	}); err != nil {
		return err
	}
	if len(mainLine) > 0 {
		res.Tip = mainLine[0]
	}

	var annotated loops.Result
	if err := stage("loops", &res.Stats.LoopsTime, func() {
		annotated = loops.Annotate(g, mainLine, order, loops.Options{Colors: loops.NewRandomColors(opts.Seed)})
	}); err != nil {
		return err
	}
	res.Skipped = annotated.Skipped
	for _, s := range annotated.Skipped {
		logger.Warn("skipping loop", "merge", s.MergeSHA, "err", s.Err)
	}

	var assigned lanes.Assignment
	if err := stage("lanes", &res.Stats.LanesTime, func() {
		assigned = lanes.Assign(g, mainLine, order)
	}); err != nil {
		return err
	}

	if err := stage("compile", &res.Stats.CompileTime, func() {
		res.Layout = layout.Compile(layout.Input{
			Graph:       g,
			MainLine:    mainLine,
			Loops:       annotated,
			Lanes:       assigned,
			Branches:    in.Branches,
			Runs:        in.Runs,
			Artifacts:   in.Artifacts,
			TrunkColor:  opts.TrunkColor,
			LanePalette: opts.LanePalette,
			Seed:        opts.Seed,
		})
	}); err != nil {
		return err
	}

	res.Stats.Commits = len(res.Layout.Commits)
	res.Stats.Edges = len(res.Layout.Edges)
	res.Stats.Loops = len(res.Layout.Loops)
	res.Stats.Columns = res.Layout.Columns
	if err := UnresolvedParents(res.Layout); err != nil {
		logger.Debug("history is truncated", "err", err)
	}
	return nil
}

// resolveTip maps a branch name or sha to a loaded commit.
func resolveTip(in Input, tip string) (string, error) {
	g := in.Graph
	if g.Len() == 0 {
		return "", nil
	}
	if tip == "" {
		for _, b := range in.Branches {
			if b.Head && g.Has(b.TipSHA) {
				return b.TipSHA, nil
			}
		}
		return "", nil
	}
	for _, b := range in.Branches {
		if b.Name == tip {
			if !g.Has(b.TipSHA) {
				return "", errors.Wrap(errors.ErrCodeNotFound, dag.ErrUnknownCommit, "tip of branch %q (%s) is not loaded", tip, b.TipSHA)
			}
			return b.TipSHA, nil
		}
	}
	if g.Has(tip) {
		return tip, nil
	}
	return "", errors.Wrap(errors.ErrCodeNotFound, dag.ErrUnknownCommit, "tip %q is neither a branch nor a loaded commit", tip)
}

// UnresolvedParents reports the parents l references but does not contain,
// or nil when the loaded history is complete.
func UnresolvedParents(l graph.Layout) error {
	n := len(l.Truncated)
	if n == 0 {
		return nil
	}
	shown := l.Truncated[:min(n, 3)]
	short := make([]string, len(shown))
	for i, sha := range shown {
		short[i] = graph.ShortSHA(sha)
	}
	more := ""
	if n > len(shown) {
		more = ", ..."
	}
	return errors.New(errors.ErrCodeUnresolvedParent, "%d parents not loaded (%s%s)", n, strings.Join(short, ", "), more)
}

// StatsOf derives the counters of a layout, for results read from a cache.
func StatsOf(l graph.Layout) Stats {
	return Stats{
		Commits: len(l.Commits),
		Edges:   len(l.Edges),
		Loops:   len(l.Loops),
		Columns: l.Columns,
	}
}
