package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/errors"
)

func sampleHistory() History {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return History{
		Commits: []dag.Commit{
			{SHA: "c2", Parents: []string{"c1", "f1"}, Message: "Merge f1", Timestamp: ts},
			{SHA: "f1", Parents: []string{"c0"}, Author: "ada"},
			{SHA: "c1", Parents: []string{"c0"}, Meta: dag.Metadata{"signed": "yes"}},
			{SHA: "c0"},
		},
		Branches:  []Branch{{Name: "main", TipSHA: "c2", Head: true}},
		Runs:      []Run{{ID: 1, HeadSHA: "c2", Status: "completed", Conclusion: "success"}},
		Artifacts: []Artifact{{ID: 7, Name: "dist", HeadSHA: "c2", SizeBytes: 1024}},
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	data, err := MarshalHistory(sampleHistory())
	if err != nil {
		t.Fatalf("MarshalHistory: %v", err)
	}

	h, err := UnmarshalHistory(data)
	if err != nil {
		t.Fatalf("UnmarshalHistory: %v", err)
	}
	if len(h.Commits) != 4 {
		t.Fatalf("commits = %d, want 4", len(h.Commits))
	}
	if got := h.Commits[0]; got.Message != "Merge f1" || !got.Timestamp.Equal(sampleHistory().Commits[0].Timestamp) {
		t.Errorf("commit[0] = %+v", got)
	}
	if h.Commits[2].Meta["signed"] != "yes" {
		t.Errorf("meta not preserved: %v", h.Commits[2].Meta)
	}
	if len(h.Branches) != 1 || !h.Branches[0].Head {
		t.Errorf("branches = %+v", h.Branches)
	}
	if h.Graph().Len() != 4 {
		t.Errorf("Graph().Len() = %d, want 4", h.Graph().Len())
	}
}

func TestHistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := WriteHistoryFile(sampleHistory(), path); err != nil {
		t.Fatalf("WriteHistoryFile: %v", err)
	}

	h, err := ReadHistoryFile(path)
	if err != nil {
		t.Fatalf("ReadHistoryFile: %v", err)
	}
	if len(h.Artifacts) != 1 || h.Artifacts[0].SizeBytes != 1024 {
		t.Errorf("artifacts = %+v", h.Artifacts)
	}
}

func TestReadHistoryFile_Missing(t *testing.T) {
	_, err := ReadHistoryFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestReadHistory_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed json", `{"commits": [`},
		{"empty sha", `{"commits": [{"sha": ""}]}`},
		{"bad parent", `{"commits": [{"sha": "a", "parents": ["b c"]}]}`},
		{"bad branch", `{"commits": [], "branches": [{"name": "a..b", "tip_sha": "a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHistory(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestReadHistory_DanglingIsValid(t *testing.T) {
	h, err := ReadHistory(strings.NewReader(`{"commits": [{"sha": "b", "parents": ["a"]}]}`))
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if got := h.Graph().Dangling(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Dangling() = %v, want [a]", got)
	}
}

func sampleLayout() Layout {
	return Layout{
		Commits: []Node{
			{SHA: "c1", ShortSHA: "c1", Row: 0, Color: DefaultTrunkColor, MainLine: true, Meta: map[string]any{"k": "v"}},
			{SHA: "c0", ShortSHA: "c0", Row: 1, Color: DefaultTrunkColor, MainLine: true},
		},
		Edges:      []Edge{{From: "c1", To: "c0", Kind: EdgeStraight, Color: DefaultTrunkColor}},
		MainLine:   []string{"c1", "c0"},
		Columns:    1,
		TrunkColor: DefaultTrunkColor,
		Seed:       42,
	}
}

func TestLayoutJSON(t *testing.T) {
	data, err := MarshalLayout(sampleLayout())
	if err != nil {
		t.Fatalf("MarshalLayout: %v", err)
	}
	if !strings.Contains(string(data), `"kind": "straight"`) {
		t.Errorf("missing edge kind in %s", data)
	}

	l, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if len(l.Commits) != 2 || l.Commits[0].Meta["k"] != "v" || l.Seed != 42 {
		t.Errorf("layout = %+v", l)
	}
}

func TestLayoutBSON(t *testing.T) {
	data, err := MarshalLayoutBSON(sampleLayout())
	if err != nil {
		t.Fatalf("MarshalLayoutBSON: %v", err)
	}

	l, err := UnmarshalLayoutBSON(data)
	if err != nil {
		t.Fatalf("UnmarshalLayoutBSON: %v", err)
	}
	if len(l.Commits) != 2 || l.Commits[1].SHA != "c0" {
		t.Errorf("commits = %+v", l.Commits)
	}
	if len(l.Edges) != 1 || l.Edges[0].Kind != EdgeStraight {
		t.Errorf("edges = %+v", l.Edges)
	}
	if l.Columns != 1 || l.Seed != 42 || l.TrunkColor != DefaultTrunkColor {
		t.Errorf("layout header = %d %d %s", l.Columns, l.Seed, l.TrunkColor)
	}
}

func TestUnmarshalLayout_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown commit", `{"commits": [{"sha": "a"}], "edges": [{"from": "a", "to": "b", "kind": "fork"}]}`},
		{"unknown kind", `{"commits": [{"sha": "a"}, {"sha": "b"}], "edges": [{"from": "a", "to": "b", "kind": "zigzag"}]}`},
		{"malformed", `{"commits": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalLayout([]byte(tt.input)); err == nil {
				t.Error("UnmarshalLayout() succeeded, want error")
			}
		})
	}
}

func TestLayoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(sampleLayout(), path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}

	l, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if n, ok := l.Node("c0"); !ok || n.Row != 1 {
		t.Errorf("Node(c0) = %+v, %v", n, ok)
	}
}

func TestShortSHA(t *testing.T) {
	if got := ShortSHA("9fceb02d0ae598e95dc970b74767f19372d61af8"); got != "9fceb02" {
		t.Errorf("ShortSHA = %q", got)
	}
	if got := ShortSHA("c0"); got != "c0" {
		t.Errorf("ShortSHA = %q", got)
	}
}
