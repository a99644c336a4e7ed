// Package pipeline runs layout passes for the CLI, the HTTP server and
// sessions.
//
// A pass chains the stages of a commit-graph layout:
//
//  1. Sequence: ancestors-first order, cycle-closing parent links dropped
//  2. MainLine: first-parent walk from the tip
//  3. Loops: one annotated loop per merge on the main line
//  4. Lanes: row and column for every commit
//  5. Compile: colors, labels and typed edges
//
// [Run] executes the stages directly. [Runner] adds a layout cache keyed by
// the history content and collapses concurrent passes over the same input
// into one.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.FromHistory(h), pipeline.Options{Tip: "main"})
//	if err != nil {
//	    return err
//	}
//	data, err := pipeline.Encode(res.Layout, graph.FormatJSON)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkline/pkg/cache"
	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/dag/transform"
	"github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/loops"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultSeed seeds the loop color generator.
const DefaultSeed = loops.DefaultSeed

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	graph.FormatJSON: true,
	graph.FormatBSON: true,
	graph.FormatDOT:  true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures a layout pass. It is the JSON body of the layout API
// minus the history.
type Options struct {
	// Tip is a branch name or commit sha. Empty selects the HEAD branch, or
	// the first commit of the history when no branch is marked HEAD.
	Tip         string   `json:"tip,omitempty"`
	// Seed seeds the loop colors. Zero means unset and selects DefaultSeed,
	// so 0 itself is not a usable seed.
	Seed        uint64   `json:"seed,omitempty"`
	TrunkColor  string   `json:"trunk_color,omitempty"`
	LanePalette []string `json:"lane_palette,omitempty"`

	// NoCache bypasses the layout cache for reads and writes.
	NoCache bool `json:"no_cache,omitempty"`

	Logger *log.Logger `json:"-"`
}

// SetDefaults fills unset fields. A zero Seed becomes DefaultSeed.
func (o *Options) SetDefaults() {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.TrunkColor == "" {
		o.TrunkColor = graph.DefaultTrunkColor
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after SetDefaults.
func (o *Options) Validate() error {
	if o.Tip != "" {
		if err := errors.ValidateSHA(o.Tip); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "tip")
		}
	}
	if err := errors.ValidateColor(o.TrunkColor); err != nil {
		return err
	}
	for _, c := range o.LanePalette {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	return nil
}

// LayoutKeyOpts returns the cache key options of o.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Tip:         o.Tip,
		Seed:        o.Seed,
		TrunkColor:  o.TrunkColor,
		LanePalette: o.LanePalette,
	}
}

// ValidateFormat checks that format is an output format.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, bson, dot)", format)
	}
	return nil
}

// =============================================================================
// Input and Result
// =============================================================================

// Input is the history a pass lays out.
type Input struct {
	Graph     *dag.Graph
	Branches  []graph.Branch
	Runs      []graph.Run
	Artifacts []graph.Artifact
}

// FromHistory builds the input of a history document.
func FromHistory(h graph.History) Input {
	return Input{
		Graph:     h.Graph(),
		Branches:  h.Branches,
		Runs:      h.Runs,
		Artifacts: h.Artifacts,
	}
}

// History converts the input back to a history document. Commits keep
// their insertion order.
func (in Input) History() graph.History {
	h := graph.History{Branches: in.Branches, Runs: in.Runs, Artifacts: in.Artifacts}
	if in.Graph == nil {
		return h
	}
	for _, sha := range in.Graph.SHAs() {
		c, _ := in.Graph.Commit(sha)
		h.Commits = append(h.Commits, c)
	}
	return h
}

// Hash is the content hash of the input, the base of its cache key.
func (in Input) Hash() (string, error) {
	data, err := graph.MarshalHistory(in.History())
	if err != nil {
		return "", fmt.Errorf("hash history: %w", err)
	}
	return cache.Hash(data), nil
}

// Result is the outcome of a pass.
type Result struct {
	Layout graph.Layout

	// Tip is the resolved tip sha.
	Tip string

	// BackEdges and Skipped report what the pass ignored. Both are empty
	// when the layout came from the cache.
	BackEdges []transform.BackEdge
	Skipped   []loops.Skip

	HistoryHash string
	CacheHit    bool
	Stats       Stats
}

// Stats contains pass statistics.
type Stats struct {
	Commits int
	Edges   int
	Loops   int
	Columns int

	SequenceTime time.Duration
	MainLineTime time.Duration
	LoopsTime    time.Duration
	LanesTime    time.Duration
	CompileTime  time.Duration
	Total        time.Duration
}
