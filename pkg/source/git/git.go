// Package git reads commit history from a local repository with go-git.
//
// The log is walked from a ref (HEAD by default) in committer-time order and
// returned in pages of source.DefaultPageSize commits. Local branches become
// branch labels; the checked-out branch is marked as HEAD.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/matzehuels/forkline/pkg/dag"
	forkerrs "github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/source"
)

// Options configures Open.
type Options struct {
	// Ref is a branch, tag or commit hash to start from. Defaults to HEAD.
	Ref string
	// PageSize defaults to source.DefaultPageSize.
	PageSize int
}

// Source pages through the log of a repository.
type Source struct {
	repo     *gogit.Repository
	path     string
	pageSize int
	start    plumbing.Hash

	iter object.CommitIter
	page int
	done bool
}

// Open opens the repository at path, searching parent directories for the
// .git directory.
func Open(path string, opts Options) (*Source, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, forkerrs.Wrap(forkerrs.ErrCodeNotFound, err, "no git repository at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	start, err := resolve(repo, opts.Ref)
	if err != nil {
		return nil, err
	}
	size := opts.PageSize
	if size <= 0 {
		size = source.DefaultPageSize
	}
	abs, _ := filepath.Abs(path)
	return &Source{repo: repo, path: abs, pageSize: size, start: start}, nil
}

// Start returns the full hash of the commit the log is read from.
func (s *Source) Start() string { return s.start.String() }

// Name implements source.Source.
func (s *Source) Name() string { return "git:" + s.path }

// Next implements source.Source. Branches come with the first page.
func (s *Source) Next(ctx context.Context) (source.Page, error) {
	if err := ctx.Err(); err != nil {
		return source.Page{}, err
	}
	if s.done {
		return source.Page{}, source.ErrExhausted
	}

	var page source.Page
	if s.iter == nil {
		iter, err := s.repo.Log(&gogit.LogOptions{From: s.start, Order: gogit.LogOrderCommitterTime})
		if err != nil {
			return source.Page{}, fmt.Errorf("git log: %w", err)
		}
		s.iter = iter
		if page.Branches, err = s.branches(); err != nil {
			return source.Page{}, err
		}
	}

	for len(page.Commits) < s.pageSize {
		c, err := s.iter.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.iter.Close()
			break
		}
		if err != nil {
			return source.Page{}, fmt.Errorf("git log: %w", err)
		}
		page.Commits = append(page.Commits, convert(c))
	}

	if len(page.Commits) == 0 && s.page > 0 {
		return source.Page{}, source.ErrExhausted
	}
	s.page++
	page.Number = s.page
	return page, nil
}

// Close releases the log iterator.
func (s *Source) Close() error {
	if s.iter != nil {
		s.iter.Close()
	}
	return nil
}

func (s *Source) branches() ([]graph.Branch, error) {
	head, err := s.repo.Head()
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}

	refs, err := s.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	var out []graph.Branch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		out = append(out, graph.Branch{
			Name:   ref.Name().Short(),
			TipSHA: ref.Hash().String(),
			Head:   head != nil && head.Name() == ref.Name(),
		})
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	return out, nil
}

func resolve(repo *gogit.Repository, ref string) (plumbing.Hash, error) {
	if ref == "" {
		head, err := repo.Head()
		if err != nil {
			return plumbing.ZeroHash, forkerrs.Wrap(forkerrs.ErrCodeNotFound, err, "repository has no HEAD commit")
		}
		return head.Hash(), nil
	}
	h, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, forkerrs.Wrap(forkerrs.ErrCodeNotFound, err, "cannot resolve %q", ref)
	}
	return *h, nil
}

func convert(c *object.Commit) dag.Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = p.String()
	}
	return dag.Commit{
		SHA:       c.Hash.String(),
		Parents:   parents,
		Author:    c.Author.Name,
		Email:     c.Author.Email,
		Message:   c.Message,
		Timestamp: c.Committer.When.UTC(),
	}
}

var _ source.Source = (*Source)(nil)
