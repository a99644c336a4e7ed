package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/lanes"
	"github.com/matzehuels/forkline/pkg/loops"
)

// DefaultLanePalette colors commits off the main line that are not on the
// fork side of any loop, by column.
var DefaultLanePalette = []string{
	"#3b82f6", "#10b981", "#a855f7", "#eab308", "#ec4899", "#14b8a6", "#f43f5e", "#6366f1",
}

// DateLabelFormat formats the day/month gutter label.
const DateLabelFormat = "02/01"

// Input collects the results of the earlier stages of a pass.
type Input struct {
	Graph    *dag.Graph
	MainLine []string
	Loops    loops.Result
	Lanes    lanes.Assignment

	Branches  []graph.Branch
	Runs      []graph.Run
	Artifacts []graph.Artifact

	// TrunkColor defaults to graph.DefaultTrunkColor.
	TrunkColor string
	// LanePalette defaults to DefaultLanePalette.
	LanePalette []string
	// Seed is recorded on the layout for reproducibility.
	Seed uint64
}

// Compile merges the stage results into a renderer-ready layout.
//
// Commits appear in row order. Each commit-to-parent edge is classified as
// straight (same column), merge (a merged-in parent) or fork (the first
// parent sits in another column). Edges to parents that are not loaded are
// omitted and the parents are listed in Layout.Truncated. A nil graph yields
// an empty layout.
func Compile(in Input) graph.Layout {
	trunk := in.TrunkColor
	if trunk == "" {
		trunk = graph.DefaultTrunkColor
	}
	palette := in.LanePalette
	if len(palette) == 0 {
		palette = DefaultLanePalette
	}

	out := graph.Layout{
		Commits:    []graph.Node{},
		Edges:      []graph.Edge{},
		TrunkColor: trunk,
		Seed:       in.Seed,
	}
	g := in.Graph
	if g == nil || g.Len() == 0 {
		return out
	}

	out.MainLine = slices.Clone(in.MainLine)
	out.Columns = in.Lanes.Columns
	out.Truncated = g.Dangling()

	onMain := make(map[string]bool, len(in.MainLine))
	for _, sha := range in.MainLine {
		onMain[sha] = true
	}
	side := forkSides(in.Loops)
	labels := branchLabels(in.Branches)
	runs := groupBySHA(in.Runs, func(r graph.Run) string { return r.HeadSHA })
	artifacts := groupBySHA(in.Artifacts, func(a graph.Artifact) string { return a.HeadSHA })

	colors := make(map[string]string, len(in.Lanes.Rows))
	prevDay := ""
	for _, sha := range in.Lanes.Rows {
		c, ok := g.Commit(sha)
		if !ok {
			continue
		}
		pos := in.Lanes.Positions[sha]

		n := graph.Node{
			SHA:       sha,
			ShortSHA:  graph.ShortSHA(sha),
			Row:       pos.Row,
			Column:    pos.Column,
			MainLine:  onMain[sha],
			Merge:     g.IsMerge(sha),
			Fork:      g.IsFork(sha),
			Author:    c.Author,
			Email:     c.Email,
			Message:   c.Message,
			Timestamp: c.Timestamp,
			URL:       c.URL,
			AvatarURL: c.AvatarURL,
			Runs:      runs[sha],
			Artifacts: artifacts[sha],
		}
		if len(c.Meta) > 0 {
			n.Meta = map[string]any(c.Meta)
		}

		s := side[sha]
		switch {
		case n.MainLine:
			n.Color = trunk
		case s.forkSide:
			n.ForkSide = true
			n.Color = s.color
		default:
			n.Color = palette[(pos.Column-1+len(palette))%len(palette)]
		}
		if !n.MainLine {
			n.Level = s.level
		}

		if names, ok := labels[sha]; ok {
			n.Branches = names
			n.Label = formatLabel(names)
		}

		if !c.Timestamp.IsZero() {
			day := c.Timestamp.Format("2006-01-02")
			if day != prevDay {
				n.DateLabel = c.Timestamp.Format(DateLabelFormat)
				prevDay = day
			}
		}

		colors[sha] = n.Color
		out.Commits = append(out.Commits, n)
	}

	for _, n := range out.Commits {
		for i, p := range g.Parents(n.SHA) {
			if !g.Has(p) {
				continue
			}
			e := graph.Edge{From: n.SHA, To: p}
			switch {
			case i > 0:
				e.Kind = graph.EdgeMerge
				e.Color = colors[p]
			case in.Lanes.Positions[p].Column == n.Column:
				e.Kind = graph.EdgeStraight
				e.Color = n.Color
			default:
				e.Kind = graph.EdgeFork
				e.Color = n.Color
			}
			out.Edges = append(out.Edges, e)
		}
	}

	for _, l := range in.Loops.Loops {
		out.Loops = append(out.Loops, summarize(l))
	}
	return out
}

// sideInfo is what the loops say about a commit off the main line.
type sideInfo struct {
	forkSide bool
	level    int
	color    string
}

// forkSides collects, per commit, the deepest level any loop gives it and
// the color of the newest loop whose fork path contains it.
func forkSides(res loops.Result) map[string]sideInfo {
	m := make(map[string]sideInfo)
	for _, l := range res.Loops {
		for _, step := range l.Path {
			if step.Level == 0 {
				continue
			}
			s := m[step.SHA]
			s.level = max(s.level, step.Level)
			m[step.SHA] = s
		}
		for _, sha := range l.ForkPath {
			s := m[sha]
			if !s.forkSide {
				s.forkSide = true
				s.color = l.Color
				m[sha] = s
			}
		}
	}
	return m
}

// branchLabels maps tip sha to branch names, HEAD first.
func branchLabels(branches []graph.Branch) map[string][]string {
	m := make(map[string][]string)
	for _, b := range branches {
		if b.TipSHA == "" {
			continue
		}
		if b.Head {
			m[b.TipSHA] = append([]string{graph.HeadLabel, b.Name}, m[b.TipSHA]...)
			continue
		}
		m[b.TipSHA] = append(m[b.TipSHA], b.Name)
	}
	return m
}

func formatLabel(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("[%s]", n)
	}
	return strings.Join(parts, " ")
}

func groupBySHA[T any](items []T, key func(T) string) map[string][]T {
	m := make(map[string][]T)
	for _, it := range items {
		m[key(it)] = append(m[key(it)], it)
	}
	return m
}

func summarize(l loops.Loop) graph.Loop {
	out := graph.Loop{
		MergeSHA: l.MergeSHA,
		ForkSHA:  l.ForkSHA,
		Color:    l.Color,
		Partial:  l.Partial,
		MainPath: slices.Clone(l.MainPath),
		ForkPath: slices.Clone(l.ForkPath),
		Path:     make([]graph.LoopStep, len(l.Path)),
	}
	for i, s := range l.Path {
		out.Path[i] = graph.LoopStep{SHA: s.SHA, Level: s.Level, IsFork: s.IsFork, InLoop: s.InLoop}
	}
	return out
}
