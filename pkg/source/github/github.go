// Package github turns GitHub REST API responses into history pages.
//
// The inputs are the JSON bodies of the list endpoints, as saved by
//
//	gh api --paginate repos/OWNER/REPO/commits?sha=main > commits.json
//	gh api --paginate repos/OWNER/REPO/branches > branches.json
//	gh api --paginate repos/OWNER/REPO/actions/runs > runs.json
//	gh api --paginate repos/OWNER/REPO/actions/artifacts > artifacts.json
//
// --paginate concatenates one JSON value per API page; every decoder here
// reads such streams. Bodies are decoded into the go-github types, so the
// field mapping is the one the API client uses.
package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	gh "github.com/google/go-github/v62/github"

	"github.com/matzehuels/forkline/pkg/dag"
	forkerrs "github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/source"
)

// Files names the saved API responses. Only Commits is required.
type Files struct {
	Commits   string
	Branches  string
	Runs      string
	Artifacts string
}

// Options configures Open.
type Options struct {
	// HeadBranch is labeled HEAD, usually the default branch.
	HeadBranch string
	// PageSize defaults to source.DefaultPageSize.
	PageSize int
}

// Open decodes the files and returns a source paging over the commits.
func Open(files Files, opts Options) (*source.HistorySource, error) {
	var h graph.History

	rcs, err := decodeFile[[]*gh.RepositoryCommit](files.Commits)
	if err != nil {
		return nil, err
	}
	for _, page := range rcs {
		h.Commits = append(h.Commits, Commits(page)...)
	}

	if files.Branches != "" {
		pages, err := decodeFile[[]*gh.Branch](files.Branches)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			h.Branches = append(h.Branches, Branches(page, opts.HeadBranch)...)
		}
	}
	if files.Runs != "" {
		pages, err := decodeFile[*gh.WorkflowRuns](files.Runs)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			h.Runs = append(h.Runs, Runs(page)...)
		}
	}
	if files.Artifacts != "" {
		pages, err := decodeFile[*gh.ArtifactList](files.Artifacts)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			h.Artifacts = append(h.Artifacts, Artifacts(page)...)
		}
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return source.FromHistory("github:"+files.Commits, h, opts.PageSize), nil
}

// Commits converts a page of the commits endpoint.
func Commits(rcs []*gh.RepositoryCommit) []dag.Commit {
	out := make([]dag.Commit, 0, len(rcs))
	for _, rc := range rcs {
		if rc.GetSHA() == "" {
			continue
		}
		parents := make([]string, 0, len(rc.Parents))
		for _, p := range rc.Parents {
			parents = append(parents, p.GetSHA())
		}
		author := rc.GetCommit().GetAuthor()
		c := dag.Commit{
			SHA:       rc.GetSHA(),
			Parents:   parents,
			Author:    author.GetName(),
			Email:     author.GetEmail(),
			Message:   rc.GetCommit().GetMessage(),
			Timestamp: author.GetDate().Time,
			URL:       rc.GetHTMLURL(),
			AvatarURL: rc.GetAuthor().GetAvatarURL(),
		}
		if login := rc.GetAuthor().GetLogin(); login != "" {
			c.Meta = dag.Metadata{"login": login}
		}
		out = append(out, c)
	}
	return out
}

// Branches converts a page of the branches endpoint. The branch named head
// is marked as HEAD.
func Branches(bs []*gh.Branch, head string) []graph.Branch {
	out := make([]graph.Branch, 0, len(bs))
	for _, b := range bs {
		out = append(out, graph.Branch{
			Name:   b.GetName(),
			TipSHA: b.GetCommit().GetSHA(),
			Head:   head != "" && b.GetName() == head,
		})
	}
	return out
}

// Runs converts a page of the workflow runs endpoint.
func Runs(wr *gh.WorkflowRuns) []graph.Run {
	if wr == nil {
		return nil
	}
	out := make([]graph.Run, 0, len(wr.WorkflowRuns))
	for _, r := range wr.WorkflowRuns {
		out = append(out, graph.Run{
			ID:         r.GetID(),
			Name:       r.GetName(),
			HeadSHA:    r.GetHeadSHA(),
			Status:     r.GetStatus(),
			Conclusion: r.GetConclusion(),
			URL:        r.GetHTMLURL(),
		})
	}
	return out
}

// Artifacts converts a page of the artifacts endpoint. Artifacts without a
// workflow run have no commit to attach to and are dropped.
func Artifacts(al *gh.ArtifactList) []graph.Artifact {
	if al == nil {
		return nil
	}
	out := make([]graph.Artifact, 0, len(al.Artifacts))
	for _, a := range al.Artifacts {
		sha := a.GetWorkflowRun().GetHeadSHA()
		if sha == "" {
			continue
		}
		out = append(out, graph.Artifact{
			ID:        a.GetID(),
			Name:      a.GetName(),
			HeadSHA:   sha,
			SizeBytes: a.GetSizeInBytes(),
			URL:       a.GetArchiveDownloadURL(),
			Expired:   a.GetExpired(),
		})
	}
	return out
}

// Decode reads a stream of JSON values of type T, one per API page.
func Decode[T any](r io.Reader) ([]T, error) {
	dec := json.NewDecoder(r)
	var pages []T
	for {
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return pages, nil
		}
		if err != nil {
			return nil, forkerrs.Wrap(forkerrs.ErrCodeInvalidFormat, err, "decode page %d", len(pages)+1)
		}
		pages = append(pages, v)
	}
}

func decodeFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, forkerrs.Wrap(forkerrs.ErrCodeFileNotFound, err, "%s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pages, err := Decode[T](f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}
