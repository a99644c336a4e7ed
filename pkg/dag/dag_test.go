package dag

import (
	"errors"
	"slices"
	"testing"
)

// sample is the small history used across forkline tests:
//
//	C3 - C2 ------- C1 - C0
//	       \            /
//	        F1 --------'
func sample() []Commit {
	return []Commit{
		{SHA: "C3", Parents: []string{"C2"}},
		{SHA: "C2", Parents: []string{"C1", "F1"}},
		{SHA: "F1", Parents: []string{"C0"}},
		{SHA: "C1", Parents: []string{"C0"}},
		{SHA: "C0"},
	}
}

func TestBuild(t *testing.T) {
	g := Build(sample())

	if g.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", g.Len())
	}
	if got := g.SHAs(); !slices.Equal(got, []string{"C3", "C2", "F1", "C1", "C0"}) {
		t.Errorf("SHAs() = %v, want insertion order", got)
	}
	if got := g.Children("C0"); !slices.Equal(got, []string{"F1", "C1"}) {
		t.Errorf("Children(C0) = %v, want [F1 C1]", got)
	}
	if got := g.Children("C1"); !slices.Equal(got, []string{"C2"}) {
		t.Errorf("Children(C1) = %v, want [C2]", got)
	}
	if !g.IsMerge("C2") || g.IsMerge("C3") {
		t.Error("IsMerge: want only C2")
	}
	if !g.IsFork("C0") || g.IsFork("C1") {
		t.Error("IsFork: want only C0")
	}
	if got := g.Tips(); !slices.Equal(got, []string{"C3"}) {
		t.Errorf("Tips() = %v, want [C3]", got)
	}
	if got := g.Roots(); !slices.Equal(got, []string{"C0"}) {
		t.Errorf("Roots() = %v, want [C0]", got)
	}
	if len(g.Dangling()) != 0 {
		t.Errorf("Dangling() = %v, want none", g.Dangling())
	}
}

func TestBuild_Dedupe(t *testing.T) {
	g := Build([]Commit{
		{SHA: "A", Message: "first"},
		{SHA: "A", Message: "second"},
		{SHA: "", Message: "no sha"},
	})

	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	c, ok := g.Commit("A")
	if !ok {
		t.Fatal("Commit(A) not found")
	}
	if c.Message != "first" {
		t.Errorf("Message = %q, want first record to win", c.Message)
	}
	if c.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestBuild_DuplicateParentListedOnce(t *testing.T) {
	g := Build([]Commit{
		{SHA: "B", Parents: []string{"A", "A"}},
		{SHA: "A"},
	})
	if got := g.Children("A"); !slices.Equal(got, []string{"B"}) {
		t.Errorf("Children(A) = %v, want [B]", got)
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	in := []Commit{{SHA: "B", Parents: []string{"A"}}}
	g := Build(in)
	in[0].Parents[0] = "X"

	if got := g.Parents("B"); !slices.Equal(got, []string{"A"}) {
		t.Errorf("Parents(B) = %v, graph must not alias caller slices", got)
	}
}

func TestDangling(t *testing.T) {
	g := Build([]Commit{
		{SHA: "C3", Parents: []string{"C2"}},
		{SHA: "C2", Parents: []string{"C1", "F1"}},
	})

	if got := g.Dangling(); !slices.Equal(got, []string{"C1", "F1"}) {
		t.Errorf("Dangling() = %v, want [C1 F1]", got)
	}
	if got := g.Parents("C2"); !slices.Equal(got, []string{"C1", "F1"}) {
		t.Errorf("Parents(C2) = %v, dangling edges must be retained", got)
	}
	if got := g.ResolvedParents("C2"); len(got) != 0 {
		t.Errorf("ResolvedParents(C2) = %v, want none", got)
	}
	if got := g.Roots(); !slices.Equal(got, []string{"C2"}) {
		t.Errorf("Roots() = %v, want [C2]", got)
	}
	if p, ok := g.FirstParent("C2"); p != "C1" || ok {
		t.Errorf("FirstParent(C2) = (%q, %v), want (C1, false)", p, ok)
	}
}

func TestExtend(t *testing.T) {
	all := sample()
	g1 := Build(all[:2])
	g2 := g1.Extend(all[2:])

	if g1.Len() != 2 {
		t.Errorf("receiver changed: Len() = %d, want 2", g1.Len())
	}
	if len(g1.Children("C1")) != 0 {
		t.Error("receiver children changed")
	}
	if g2.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", g2.Len())
	}
	if len(g2.Dangling()) != 0 {
		t.Errorf("Dangling() = %v, want resolved after extend", g2.Dangling())
	}
	if got := g2.Children("C1"); !slices.Equal(got, []string{"C2"}) {
		t.Errorf("Children(C1) = %v, want [C2]", got)
	}
	if got := g2.ResolvedParents("C2"); !slices.Equal(got, []string{"C1", "F1"}) {
		t.Errorf("ResolvedParents(C2) = %v", got)
	}
}

func TestExtend_Nil(t *testing.T) {
	var g *Graph
	g = g.Extend(sample())
	if g.Len() != 5 {
		t.Errorf("Len() = %d, want 5", g.Len())
	}
}

func TestExtend_FirstRecordWins(t *testing.T) {
	g := Build([]Commit{{SHA: "A", Message: "old"}})
	g = g.Extend([]Commit{{SHA: "A", Message: "new"}, {SHA: "B", Parents: []string{"A"}}})

	c, _ := g.Commit("A")
	if c.Message != "old" {
		t.Errorf("Message = %q, want old", c.Message)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		commits []Commit
		wantErr error
	}{
		{"acyclic", sample(), nil},
		{"empty", nil, nil},
		{"dangling only", []Commit{{SHA: "A", Parents: []string{"Z"}}}, nil},
		{
			name: "two cycle",
			commits: []Commit{
				{SHA: "A", Parents: []string{"B"}},
				{SHA: "B", Parents: []string{"A"}},
			},
			wantErr: ErrGraphHasCycle,
		},
		{
			name:    "self loop",
			commits: []Commit{{SHA: "A", Parents: []string{"A"}}},
			wantErr: ErrGraphHasCycle,
		},
		{
			name: "cycle through second parent",
			commits: []Commit{
				{SHA: "M", Parents: []string{"R", "X"}},
				{SHA: "X", Parents: []string{"M"}},
				{SHA: "R"},
			},
			wantErr: ErrGraphHasCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Build(tt.commits).Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_LongChain(t *testing.T) {
	const n = 100000
	commits := make([]Commit, n)
	for i := range commits {
		commits[i].SHA = shaN(i)
		if i+1 < n {
			commits[i].Parents = []string{shaN(i + 1)}
		}
	}
	if err := Build(commits).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestPosMap(t *testing.T) {
	m := PosMap([]string{"a", "b", "c"})
	if m["a"] != 0 || m["c"] != 2 || len(m) != 3 {
		t.Errorf("PosMap = %v", m)
	}
}

func shaN(i int) string {
	const digits = "0123456789abcdef"
	buf := []byte{'c'}
	if i == 0 {
		return "c0"
	}
	for i > 0 {
		buf = append(buf, digits[i%16])
		i /= 16
	}
	return string(buf)
}
