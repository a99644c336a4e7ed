package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/forkline/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds author, day label and loop level to node labels.
	// When false, labels carry the short sha and branch names only.
	Detailed bool
}

// Grid spacing in inches between columns and rows.
const (
	colSpacing = 0.6
	rowSpacing = 0.5
)

// ToDOT converts a layout to Graphviz DOT. Node positions are pinned to the
// lane grid (pos="x,y!"), so the output is meant for neato -n or fdp, which
// honor fixed positions; dot itself re-ranks the nodes.
//
// Merge edges are dashed, fork edges are bold and straight edges are plain.
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=10, width=0.3, fixedsize=false];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	for _, n := range l.Commits {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.SHA, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, detailed bool) []string {
	label := n.ShortSHA
	if n.Label != "" {
		label += "\n" + n.Label
	}
	if detailed {
		var extra []string
		if n.Author != "" {
			extra = append(extra, n.Author)
		}
		if n.DateLabel != "" {
			extra = append(extra, n.DateLabel)
		}
		if n.Level > 0 {
			extra = append(extra, fmt.Sprintf("level %d", n.Level))
		}
		if len(extra) > 0 {
			label += "\n" + strings.Join(extra, "\n")
		}
	}

	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", n.Color),
		fmt.Sprintf("pos=\"%.2f,%.2f!\"", float64(n.Column)*colSpacing, float64(-n.Row)*rowSpacing),
	}
	if n.Merge {
		attrs = append(attrs, "shape=doublecircle")
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	attrs := []string{fmt.Sprintf("color=%q", e.Color)}
	switch e.Kind {
	case graph.EdgeMerge:
		attrs = append(attrs, "style=dashed")
	case graph.EdgeFork:
		attrs = append(attrs, "style=bold")
	}
	return attrs
}

// Validate parses dot with the Graphviz parser and reports syntax errors.
func Validate(dot string) error {
	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	return g.Close()
}
