// Package transform derives the orderings every forkline layout stage is
// built on.
//
// # Overview
//
// A commit graph as loaded from a provider is just a set of records. Before
// lanes and loops can be computed, two views of it are needed:
//
//   - A topological order, so that every commit is processed after its parents
//   - The main line, the trunk that is drawn straight down column 0
//
// # Topological Sequencing
//
// [Sequence] performs a depth-first walk over the parent relation and emits
// each commit once all of its loaded parents have been emitted. The walk keeps
// an explicit stack: histories with hundreds of thousands of commits are
// ordinary, and a recursive walk would grow the goroutine stack with them.
//
// # Main Line
//
// [MainLine] follows first parents from a tip. Git records the branch that was
// checked out when a merge was made as the first parent, so this chain is the
// history of the branch as its users saw it.
//
// # Cycle Reporting
//
// Commit histories are acyclic by construction, but imported data sometimes is
// not. [Sequence] and [BackEdges] report the references that close a cycle
// instead of failing, and [MainLine] stops at the first revisited commit. The
// pipeline logs these reports; the layout continues without the offending
// edges.
//
// # Usage
//
//	order, back := transform.Sequence(g)
//	trunk := transform.MainLine(g, "")
package transform
