// Package source loads commit history in pages.
//
// A [Source] yields pages of commits, newest first, until it returns
// [ErrExhausted]. Each page continues where the previous one stopped, so
// parents referenced by one page usually arrive with a later one. Callers
// either accumulate pages themselves (pkg/session recomputes the layout after
// every page) or call [Drain] to collect a whole history.
//
// # Implementations
//
//   - [FromHistory]: pages over an in-memory history document
//   - source/git: walks a local repository with go-git
//   - source/github: decodes GitHub REST API responses
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/graph"
)

// DefaultPageSize is the number of commits per page, the GitHub API maximum.
const DefaultPageSize = 100

// ErrExhausted is returned by Next when no pages are left.
var ErrExhausted = errors.New("source exhausted")

// Page is one chunk of history.
type Page struct {
	// Number counts pages from 1.
	Number  int
	Commits []dag.Commit

	// Branches, Runs and Artifacts may arrive with any page; the first page
	// usually carries all of them.
	Branches  []graph.Branch
	Runs      []graph.Run
	Artifacts []graph.Artifact
}

// Source yields history pages.
type Source interface {
	// Name identifies the source in logs and cache keys.
	Name() string

	// Next returns the next page, or ErrExhausted.
	Next(ctx context.Context) (Page, error)
}

// Drain reads pages from src until it is exhausted or maxPages pages were
// read. A maxPages of zero reads everything.
func Drain(ctx context.Context, src Source, maxPages int) (graph.History, error) {
	var h graph.History
	for n := 0; maxPages == 0 || n < maxPages; n++ {
		page, err := src.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			return graph.History{}, fmt.Errorf("%s page %d: %w", src.Name(), n+1, err)
		}
		h.Commits = append(h.Commits, page.Commits...)
		h.Branches = append(h.Branches, page.Branches...)
		h.Runs = append(h.Runs, page.Runs...)
		h.Artifacts = append(h.Artifacts, page.Artifacts...)
	}
	return h, nil
}

// Limit returns a source that stops after maxPages pages. A maxPages of
// zero or less returns src unchanged.
func Limit(src Source, maxPages int) Source {
	if maxPages <= 0 {
		return src
	}
	return &limited{Source: src, max: maxPages}
}

type limited struct {
	Source
	max, read int
}

func (l *limited) Next(ctx context.Context) (Page, error) {
	if l.read >= l.max {
		return Page{}, ErrExhausted
	}
	p, err := l.Source.Next(ctx)
	if err == nil {
		l.read++
	}
	return p, err
}

// HistorySource pages over a history document.
type HistorySource struct {
	name     string
	h        graph.History
	pageSize int
	next     int
	page     int
}

// FromHistory returns a source yielding h.Commits in pages of pageSize
// (DefaultPageSize when pageSize <= 0). Branches, runs and artifacts come
// with the first page.
func FromHistory(name string, h graph.History, pageSize int) *HistorySource {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &HistorySource{name: name, h: h, pageSize: pageSize}
}

func (s *HistorySource) Name() string { return s.name }

func (s *HistorySource) Next(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if s.next >= len(s.h.Commits) && s.page > 0 {
		return Page{}, ErrExhausted
	}

	end := min(s.next+s.pageSize, len(s.h.Commits))
	s.page++
	p := Page{Number: s.page, Commits: s.h.Commits[s.next:end]}
	if s.page == 1 {
		p.Branches = s.h.Branches
		p.Runs = s.h.Runs
		p.Artifacts = s.h.Artifacts
	}
	s.next = end
	return p, nil
}

var _ Source = (*HistorySource)(nil)
