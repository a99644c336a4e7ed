// Package pkg provides the core libraries of forkline, a layout engine for
// git commit graphs.
//
// # Overview
//
// Forkline turns a commit history into a renderer-ready layout: every commit
// gets a row and a column, the main line runs down column 0, and every merge
// on the main line gets a colored loop describing the side branch it brought
// in. The pkg directory is organized into four areas:
//
//  1. Layout stages: [dag], [dag/transform], [loops], [lanes], [layout]
//  2. Orchestration: [pipeline], [session]
//  3. Inputs and outputs: [source], [graph], [render/nodelink]
//  4. Infrastructure: [cache], [config], [errors], [observability]
//
// # Architecture
//
// The data flow of a layout pass:
//
//	history document / git repository / GitHub API dump
//	         ↓
//	    [source] pages of commits
//	         ↓
//	    [dag] immutable commit graph
//	         ↓
//	    [dag/transform] ancestors-first order, main line
//	         ↓
//	    [loops] one annotated loop per merge
//	         ↓
//	    [lanes] rows and columns
//	         ↓
//	    [layout] colors, labels and typed edges
//	         ↓
//	    JSON / BSON / DOT
//
// # Quick Start
//
//	h, _ := graph.ReadHistoryFile("history.json")
//	res, _ := pipeline.Run(ctx, pipeline.FromHistory(h), pipeline.Options{Tip: "main"})
//	_ = graph.WriteLayoutFile(res.Layout, "layout.json")
//
// # Main Packages
//
// ## Layout Stages
//
// [dag] - Immutable commit graph. Parents that are not loaded yet are kept as
// dangling references; [dag.Graph.Extend] adds a page of older commits.
//
// [dag/transform] - [transform.Sequence] orders commits ancestors first and
// reports parent links that close a cycle; [transform.MainLine] follows first
// parents from the tip.
//
// [loops] - One loop per merge on the main line: the main-line path and fork
// path between the merge and its fork point, with nesting levels.
//
// [lanes] - Row and column assignment. Column 0 belongs to the main line;
// side branches reuse columns once their previous occupant ended.
//
// [layout] - Compiles the stage results into a [graph.Layout].
//
// ## Orchestration
//
// [pipeline] - Runs the stages with caching and de-duplication of concurrent
// passes. Used by the CLI, the HTTP server and sessions.
//
// [session] - Keeps a render surface in sync with a history that grows page
// by page, discarding stale passes.
//
// ## Inputs and Outputs
//
// [source] - Paged history inputs: in-memory documents, local repositories
// (go-git) and saved GitHub REST responses (go-github).
//
// [graph] - Serialization types for histories and layouts.
//
// [render/nodelink] - Graphviz DOT export of a layout.
//
// ## Infrastructure
//
// [cache] - Layout cache backends: null, file and Redis.
//
// [config] - TOML and YAML configuration.
//
// [errors] - Coded errors shared by all packages.
//
// [observability] - Hooks for passes, sessions, cache and HTTP, with a
// Prometheus implementation in observability/prom.
package pkg
