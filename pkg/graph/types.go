package graph

import (
	"time"

	"github.com/matzehuels/forkline/pkg/dag"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Edge kinds. Renderers draw straight edges as vertical segments and fork or
// merge edges as curves between two columns.
const (
	EdgeStraight = "straight" // parent and child share a column
	EdgeFork     = "fork"     // child leaves its first parent's column
	EdgeMerge    = "merge"    // merged-in parent joins the child's column
)

// DefaultTrunkColor is the color of main-line commits and edges.
const DefaultTrunkColor = "#f97316"

// HeadLabel marks the branch that HEAD points to.
const HeadLabel = "HEAD"

// Output formats.
const (
	FormatJSON = "json"
	FormatBSON = "bson"
	FormatDOT  = "dot"
)

// =============================================================================
// History - Layout Input Document
// =============================================================================

// History is the input document of a layout pass: a set of commit records
// plus the data that is attached to commits by sha.
//
//	{
//	  "commits":   [{"sha": "c3", "parents": ["c2"]}, ...],
//	  "branches":  [{"name": "main", "tip_sha": "c3", "head": true}],
//	  "runs":      [{"id": 1, "head_sha": "c3", "status": "completed"}],
//	  "artifacts": [{"id": 7, "name": "dist", "head_sha": "c3"}]
//	}
type History struct {
	Commits   []dag.Commit `json:"commits" bson:"commits"`
	Branches  []Branch     `json:"branches,omitempty" bson:"branches,omitempty"`
	Runs      []Run        `json:"runs,omitempty" bson:"runs,omitempty"`
	Artifacts []Artifact   `json:"artifacts,omitempty" bson:"artifacts,omitempty"`
}

// Branch names a branch tip. It only labels the commit at TipSHA.
type Branch struct {
	Name   string `json:"name" bson:"name"`
	TipSHA string `json:"tip_sha" bson:"tip_sha"`
	Head   bool   `json:"head,omitempty" bson:"head,omitempty"`
}

// Run is a CI workflow run attached to the commit it was built from.
type Run struct {
	ID         int64  `json:"id" bson:"id"`
	Name       string `json:"name,omitempty" bson:"name,omitempty"`
	HeadSHA    string `json:"head_sha" bson:"head_sha"`
	Status     string `json:"status,omitempty" bson:"status,omitempty"`
	Conclusion string `json:"conclusion,omitempty" bson:"conclusion,omitempty"`
	URL        string `json:"url,omitempty" bson:"url,omitempty"`
}

// Artifact is a CI build artifact attached to the commit it was built from.
type Artifact struct {
	ID        int64  `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	HeadSHA   string `json:"head_sha" bson:"head_sha"`
	SizeBytes int64  `json:"size_bytes,omitempty" bson:"size_bytes,omitempty"`
	URL       string `json:"url,omitempty" bson:"url,omitempty"`
	Expired   bool   `json:"expired,omitempty" bson:"expired,omitempty"`
}

// =============================================================================
// Layout - Renderer Input
// =============================================================================

// Layout is the result of a layout pass, ready for a renderer.
//
// Commits are ordered by row (newest first). Every loaded commit appears
// exactly once. Layouts are recomputed wholesale after every page and are
// never patched.
type Layout struct {
	Commits  []Node   `json:"commits" bson:"commits"`
	Edges    []Edge   `json:"edges" bson:"edges"`
	Loops    []Loop   `json:"loops,omitempty" bson:"loops,omitempty"`
	MainLine []string `json:"main_line,omitempty" bson:"main_line,omitempty"`
	Columns  int      `json:"columns" bson:"columns"`

	// Truncated lists parents referenced by loaded commits but not loaded
	// themselves. Their edges are omitted until a later page supplies them.
	Truncated []string `json:"truncated,omitempty" bson:"truncated,omitempty"`

	TrunkColor string `json:"trunk_color,omitempty" bson:"trunk_color,omitempty"`
	Seed       uint64 `json:"seed,omitempty" bson:"seed,omitempty"`
}

// Node is one positioned commit.
type Node struct {
	SHA      string `json:"sha" bson:"sha"`
	ShortSHA string `json:"short_sha" bson:"short_sha"`
	Row      int    `json:"row" bson:"row"`
	Column   int    `json:"column" bson:"column"`
	Level    int    `json:"level" bson:"level"`
	Color    string `json:"color" bson:"color"`

	MainLine bool `json:"main_line,omitempty" bson:"main_line,omitempty"`
	ForkSide bool `json:"fork_side,omitempty" bson:"fork_side,omitempty"`
	Merge    bool `json:"merge,omitempty" bson:"merge,omitempty"`
	Fork     bool `json:"fork,omitempty" bson:"fork,omitempty"`

	// Branches holds the branch names whose tip is this commit, HEAD first.
	Branches []string `json:"branches,omitempty" bson:"branches,omitempty"`
	// Label is the display form of Branches, e.g. "[HEAD] [main]".
	Label string `json:"label,omitempty" bson:"label,omitempty"`
	// DateLabel is set on the newest commit of each calendar day.
	DateLabel string `json:"date_label,omitempty" bson:"date_label,omitempty"`

	Author    string         `json:"author,omitempty" bson:"author,omitempty"`
	Email     string         `json:"email,omitempty" bson:"email,omitempty"`
	Message   string         `json:"message,omitempty" bson:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitzero" bson:"timestamp,omitempty"`
	URL       string         `json:"url,omitempty" bson:"url,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Meta      map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`

	Runs      []Run      `json:"runs,omitempty" bson:"runs,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty" bson:"artifacts,omitempty"`
}

// Edge connects a commit (From) to one of its parents (To).
type Edge struct {
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Kind  string `json:"kind" bson:"kind"`
	Color string `json:"color" bson:"color"`
}

// Loop summarizes one fork/merge bubble for drawing.
type Loop struct {
	MergeSHA string     `json:"merge_sha" bson:"merge_sha"`
	ForkSHA  string     `json:"fork_sha,omitempty" bson:"fork_sha,omitempty"`
	Color    string     `json:"color" bson:"color"`
	Partial  bool       `json:"partial,omitempty" bson:"partial,omitempty"`
	MainPath []string   `json:"main_path,omitempty" bson:"main_path,omitempty"`
	ForkPath []string   `json:"fork_path,omitempty" bson:"fork_path,omitempty"`
	Path     []LoopStep `json:"path" bson:"path"`
}

// LoopStep is one leveled entry of a loop's annotated path.
type LoopStep struct {
	SHA    string `json:"sha" bson:"sha"`
	Level  int    `json:"level" bson:"level"`
	IsFork bool   `json:"is_fork,omitempty" bson:"is_fork,omitempty"`
	InLoop bool   `json:"in_loop,omitempty" bson:"in_loop,omitempty"`
}

// Node returns the commit with the given sha.
func (l *Layout) Node(sha string) (Node, bool) {
	for _, n := range l.Commits {
		if n.SHA == sha {
			return n, true
		}
	}
	return Node{}, false
}

// ShortSHA returns the 7-character abbreviation git uses by default.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
