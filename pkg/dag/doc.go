// Package dag provides the commit graph that every forkline layout stage
// reads from.
//
// # Overview
//
// forkline draws a commit history the way git log --graph does: the trunk
// runs straight down column 0 and every branch that forked off and merged back
// appears as a side lane next to it. This package holds the input to that
// computation: commits keyed by sha, their ordered parent lists, and the
// derived child back-references.
//
// # Basic Usage
//
// Build a graph from a page of commit records with [Build], and merge further
// pages with [Graph.Extend]:
//
//	g := dag.Build(page1)
//	g = g.Extend(page2)
//
// Query the structure with [Graph.Parents], [Graph.Children],
// [Graph.FirstParent], [Graph.IsMerge], [Graph.IsFork] and related methods.
//
// # Paging and Dangling Parents
//
// Histories are loaded newest first, a page at a time, so the oldest commits of
// a page usually reference parents that are not loaded yet. Such parents are
// dangling: the reference stays on the commit, [Graph.Dangling] lists it, and
// it resolves on its own once a later page supplies the commit. Layout stages
// treat a dangling parent as the edge of the known history, never as an error.
//
// # Immutability
//
// A graph never changes after construction. [Graph.Extend] returns a new graph,
// which lets a layout pass keep reading a graph while the next page is merged
// into its successor.
//
// # Metadata
//
// Commits carry passthrough fields (author, message, timestamp, URLs) and a
// free-form [Metadata] map. Layout stages copy them to their output without
// interpreting them.
//
// # Related Packages
//
// The [transform] subpackage orders the graph topologically and extracts the
// main line.
//
// [transform]: github.com/matzehuels/forkline/pkg/dag/transform
package dag
