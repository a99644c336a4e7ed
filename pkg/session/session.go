// Package session keeps a render surface in sync with a growing history.
//
// A [Session] owns the commit graph loaded so far. Every page of older
// history extends the graph and triggers a full layout pass; the result
// replaces the content of the attached [Surface] wholesale.
//
// # Ordering
//
// Passes run outside the session lock, so pages can be computed while the
// previous result is still being applied. Applying is serialized: a pass
// writes to the surface only after the previous Apply returned. A result is
// discarded instead of applied when
//
//   - the surface it was computed for was detached or replaced
//     ([errors.ErrCodeSurfaceDetached]), or
//   - a pass for a later page was applied first ([errors.ErrCodeStalePass]).
//
// Each attachment gets a fresh token, so a surface that is detached and
// attached again never receives results computed for its earlier life.
//
// # Usage
//
//	s := session.New(runner, pipeline.Options{Tip: "main"})
//	s.Attach(surface)
//	err := s.Run(ctx, src)
//
// [errors.ErrCodeSurfaceDetached]: github.com/matzehuels/forkline/pkg/errors.ErrCodeSurfaceDetached
// [errors.ErrCodeStalePass]: github.com/matzehuels/forkline/pkg/errors.ErrCodeStalePass
package session

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/observability"
	"github.com/matzehuels/forkline/pkg/pipeline"
	"github.com/matzehuels/forkline/pkg/source"
)

// Surface is the render target of a session.
type Surface interface {
	// Apply replaces everything the surface shows with l.
	Apply(ctx context.Context, l graph.Layout) error
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(ctx context.Context, l graph.Layout) error

func (f SurfaceFunc) Apply(ctx context.Context, l graph.Layout) error { return f(ctx, l) }

// Session accumulates history pages and applies layouts to a surface.
type Session struct {
	opts pipeline.Options
	pass func(ctx context.Context, in pipeline.Input, opts pipeline.Options) (*pipeline.Result, error)

	// applyMu serializes Apply calls and attachment changes.
	applyMu sync.Mutex

	mu         sync.Mutex
	graph      *dag.Graph
	branches   []graph.Branch
	runs       []graph.Run
	artifacts  []graph.Artifact
	generation uint64
	applied    uint64
	surface    Surface
	token      string
	last       *pipeline.Result
}

// New creates a session running passes on runner.
func New(runner *pipeline.Runner, opts pipeline.Options) *Session {
	return &Session{
		opts:  opts,
		pass:  runner.Execute,
		graph: dag.Build(nil),
	}
}

// Attach makes surf the render target and returns its attachment token.
// It waits for an Apply in progress to finish.
func (s *Session) Attach(surf Surface) string {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surf
	s.token = uuid.NewString()
	return s.token
}

// Detach removes the render target. Passes in flight are discarded.
func (s *Session) Detach() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = nil
	s.token = ""
}

// Token returns the current attachment token, empty when detached.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Graph returns the history loaded so far. The graph is immutable.
func (s *Session) Graph() *dag.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Generation returns the number of pages added.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Last returns the most recently applied result, or nil.
func (s *Session) Last() *pipeline.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// AddPage extends the history with page, lays it out and applies the
// layout to the attached surface.
//
// The page is kept even when the result is discarded, so the next pass
// includes it.
func (s *Session) AddPage(ctx context.Context, page source.Page) (*pipeline.Result, error) {
	s.mu.Lock()
	s.graph = s.graph.Extend(page.Commits)
	s.branches = mergeBranches(s.branches, page.Branches)
	s.runs = append(s.runs, page.Runs...)
	s.artifacts = append(s.artifacts, page.Artifacts...)
	s.generation++
	gen, token := s.generation, s.token
	in := pipeline.Input{
		Graph:     s.graph,
		Branches:  slices.Clone(s.branches),
		Runs:      slices.Clone(s.runs),
		Artifacts: slices.Clone(s.artifacts),
	}
	s.mu.Unlock()

	hooks := observability.Session()
	hooks.OnPageLoaded(ctx, len(page.Commits))

	res, err := s.pass(ctx, in, s.opts)
	if err != nil {
		return nil, err
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	surf := s.surface
	switch {
	case surf == nil || s.token != token:
		s.mu.Unlock()
		hooks.OnPassDiscarded(ctx, "detached")
		return nil, errors.New(errors.ErrCodeSurfaceDetached, "surface detached during pass %d", gen)
	case s.applied > gen:
		applied := s.applied
		s.mu.Unlock()
		hooks.OnPassDiscarded(ctx, "stale")
		return nil, errors.New(errors.ErrCodeStalePass, "pass %d superseded by pass %d", gen, applied)
	}
	s.mu.Unlock()

	if err := surf.Apply(ctx, res.Layout); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.applied = gen
	s.last = res
	s.mu.Unlock()
	hooks.OnPassApplied(ctx, gen)
	return res, nil
}

// Run adds pages from src until it is exhausted. Stale results are skipped;
// a detached surface or any other error stops the run.
func (s *Session) Run(ctx context.Context, src source.Source) error {
	for {
		page, err := src.Next(ctx)
		if stderrors.Is(err, source.ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := s.AddPage(ctx, page); err != nil && !errors.Is(err, errors.ErrCodeStalePass) {
			return err
		}
	}
}

// mergeBranches adds incoming branches, replacing earlier entries with the
// same name.
func mergeBranches(have, incoming []graph.Branch) []graph.Branch {
	for _, b := range incoming {
		i := slices.IndexFunc(have, func(h graph.Branch) bool { return h.Name == b.Name })
		if i >= 0 {
			have[i] = b
			continue
		}
		have = append(have, b)
	}
	return have
}
