// Package layout compiles the stage results of a pass into the positioned
// commit graph a renderer consumes.
//
// # Overview
//
// A pass runs four stages over a [dag.Graph]:
//
//  1. transform.Sequence orders the commits ancestors first
//  2. transform.MainLine walks first parents from the tip
//  3. loops.Annotate computes one loop per merge on the main line
//  4. lanes.Assign gives every commit a row and a column
//
// [Compile] merges those results into a graph.Layout. It adds what the
// stages do not know about: colors, branch labels, the day/month gutter label
// and the CI runs and artifacts of each commit.
//
// # Colors
//
// Main-line commits take the trunk color. Commits on the fork side of a loop
// take the color of the newest loop containing them. Everything else cycles
// through [DefaultLanePalette] by column.
//
// # Edges
//
// Every commit-to-parent link becomes one edge:
//
//	graph.EdgeStraight  // first parent, same column
//	graph.EdgeFork      // first parent, different column
//	graph.EdgeMerge     // merged-in parent, drawn in the parent's color
//
// Parents outside the loaded history produce no edge; they are listed in
// graph.Layout.Truncated so a caller knows more history exists.
//
// [dag.Graph]: github.com/matzehuels/forkline/pkg/dag.Graph
package layout
