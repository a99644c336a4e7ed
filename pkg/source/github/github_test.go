package github

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	forkerrs "github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/source"
)

// Two pages as written by gh api --paginate.
const commitsJSON = `[
  {
    "sha": "c2",
    "html_url": "https://github.com/o/r/commit/c2",
    "commit": {
      "message": "Merge pull request #1",
      "author": {"name": "Ada", "email": "ada@example.com", "date": "2025-03-15T10:00:00Z"}
    },
    "author": {"login": "ada", "avatar_url": "https://avatars.example.com/ada"},
    "parents": [{"sha": "c1"}, {"sha": "f1"}]
  },
  {"sha": "f1", "commit": {"message": "feature"}, "parents": [{"sha": "c0"}]}
]
[
  {"sha": "c1", "commit": {"message": "fix"}, "parents": [{"sha": "c0"}]},
  {"sha": "c0", "commit": {"message": "init"}, "parents": []}
]`

const branchesJSON = `[
  {"name": "main", "commit": {"sha": "c2"}},
  {"name": "feature", "commit": {"sha": "f1"}}
]`

const runsJSON = `{"total_count": 2, "workflow_runs": [
  {"id": 11, "name": "ci", "head_sha": "c2", "status": "completed", "conclusion": "success", "html_url": "https://github.com/o/r/actions/runs/11"},
  {"id": 12, "name": "ci", "head_sha": "f1", "status": "in_progress"}
]}`

const artifactsJSON = `{"total_count": 2, "artifacts": [
  {"id": 21, "name": "dist", "size_in_bytes": 2048, "archive_download_url": "https://api.github.com/a/21", "workflow_run": {"id": 11, "head_sha": "c2"}},
  {"id": 22, "name": "orphan", "expired": true}
]}`

func writeFiles(t *testing.T) Files {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	return Files{
		Commits:   write("commits.json", commitsJSON),
		Branches:  write("branches.json", branchesJSON),
		Runs:      write("runs.json", runsJSON),
		Artifacts: write("artifacts.json", artifactsJSON),
	}
}

func TestOpen(t *testing.T) {
	src, err := Open(writeFiles(t), Options{HeadBranch: "main"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h, err := source.Drain(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}

	if len(h.Commits) != 4 {
		t.Fatalf("commits = %d, want 4", len(h.Commits))
	}
	c2 := h.Commits[0]
	if c2.SHA != "c2" || len(c2.Parents) != 2 || c2.Parents[1] != "f1" {
		t.Errorf("c2 = %+v", c2)
	}
	if c2.Author != "Ada" || c2.Email != "ada@example.com" || c2.AvatarURL == "" || c2.Meta["login"] != "ada" {
		t.Errorf("c2 author fields = %+v", c2)
	}
	if !c2.Timestamp.Equal(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("c2 timestamp = %v", c2.Timestamp)
	}
	if h.Commits[3].SHA != "c0" || len(h.Commits[3].Parents) != 0 {
		t.Errorf("c0 = %+v", h.Commits[3])
	}

	if len(h.Branches) != 2 || !h.Branches[0].Head || h.Branches[1].Head || h.Branches[1].TipSHA != "f1" {
		t.Errorf("branches = %+v", h.Branches)
	}
	if len(h.Runs) != 2 || h.Runs[0].Conclusion != "success" || h.Runs[1].HeadSHA != "f1" {
		t.Errorf("runs = %+v", h.Runs)
	}
	if len(h.Artifacts) != 1 || h.Artifacts[0].HeadSHA != "c2" || h.Artifacts[0].SizeBytes != 2048 {
		t.Errorf("artifacts = %+v", h.Artifacts)
	}
	if got := h.Graph().Dangling(); len(got) != 0 {
		t.Errorf("Dangling = %v", got)
	}
}

func TestOpen_Paging(t *testing.T) {
	files := writeFiles(t)
	src, err := Open(Files{Commits: files.Commits}, Options{PageSize: 3})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p, err := src.Next(context.Background())
	if err != nil || len(p.Commits) != 3 {
		t.Fatalf("page 1 = %d commits, %v", len(p.Commits), err)
	}
	p, err = src.Next(context.Background())
	if err != nil || len(p.Commits) != 1 || p.Commits[0].SHA != "c0" {
		t.Fatalf("page 2 = %+v, %v", p.Commits, err)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"sha": 1}]`), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		files Files
		code  forkerrs.Code
	}{
		{"missing commits", Files{Commits: filepath.Join(dir, "nope.json")}, forkerrs.ErrCodeFileNotFound},
		{"malformed commits", Files{Commits: bad}, forkerrs.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.files, Options{}); !forkerrs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDecode_Stream(t *testing.T) {
	pages, err := Decode[[]int](strings.NewReader("[1,2]\n[3]\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(pages) != 2 || len(pages[1]) != 1 {
		t.Errorf("pages = %v", pages)
	}
}
