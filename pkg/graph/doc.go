// Package graph provides the wire formats of forkline: the history document
// a layout pass reads and the layout it produces.
//
// This package defines the canonical serialization used for JSON files, API
// requests and responses, caching, and BSON storage.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [History], [Layout]: serialization types (this package)
//   - pkg/dag.Graph: internal commit graph built from [History.Commits]
//   - pkg/layout: compiles the internal stages into a [Layout]
//
// # Core Types
//
//   - [History]: commits plus branch tips, CI runs and artifacts
//   - [Layout]: positioned commits, typed edges and loop summaries
//   - [Node], [Edge], [Loop]: layout elements
//
// # Constants
//
// This package is the single source of truth for layout constants:
//
//	graph.EdgeStraight       // "straight"
//	graph.EdgeFork           // "fork"
//	graph.EdgeMerge          // "merge"
//	graph.DefaultTrunkColor  // "#f97316"
//
// # History Serialization
//
// Histories use a flat JSON document. Commits are listed newest first, the
// order in which git log and the GitHub API return them:
//
//	{
//	  "commits": [
//	    {"sha": "c2", "parents": ["c1", "f1"], "message": "Merge f1"},
//	    {"sha": "f1", "parents": ["c0"]},
//	    {"sha": "c1", "parents": ["c0"]},
//	    {"sha": "c0"}
//	  ],
//	  "branches": [{"name": "main", "tip_sha": "c2", "head": true}]
//	}
//
// # Layout Serialization
//
// Layouts serialize to indented JSON with [MarshalLayout] and to BSON with
// [MarshalLayoutBSON]. Both decoders verify that every edge references a commit
// of the layout.
package graph
