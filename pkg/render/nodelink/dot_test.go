package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/forkline/pkg/graph"
)

func sampleLayout() graph.Layout {
	return graph.Layout{
		Commits: []graph.Node{
			{SHA: "c2", ShortSHA: "c2", Row: 0, Column: 0, Color: "#f97316", Merge: true, Label: "[HEAD] [main]", Author: "ada"},
			{SHA: "f1", ShortSHA: "f1", Row: 1, Column: 1, Color: "#3b82f6", Level: 1, DateLabel: "14/03"},
			{SHA: "c1", ShortSHA: "c1", Row: 2, Column: 0, Color: "#f97316"},
			{SHA: "c0", ShortSHA: "c0", Row: 3, Column: 0, Color: "#f97316"},
		},
		Edges: []graph.Edge{
			{From: "c2", To: "c1", Kind: graph.EdgeStraight, Color: "#f97316"},
			{From: "c2", To: "f1", Kind: graph.EdgeMerge, Color: "#3b82f6"},
			{From: "f1", To: "c0", Kind: graph.EdgeFork, Color: "#3b82f6"},
			{From: "c1", To: "c0", Kind: graph.EdgeStraight, Color: "#f97316"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"c2" [label="c2\n[HEAD] [main]", fillcolor="#f97316", pos="0.00,0.00!", shape=doublecircle];`,
		`"f1" [label="f1", fillcolor="#3b82f6", pos="0.60,-0.50!"];`,
		`"c2" -> "f1" [color="#3b82f6", style=dashed];`,
		`"f1" -> "c0" [color="#3b82f6", style=bold];`,
		`"c1" -> "c0" [color="#f97316"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{Detailed: true})
	if !strings.Contains(dot, `label="f1\n14/03\nlevel 1"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `label="c2\n[HEAD] [main]\nada"`) {
		t.Errorf("author missing:\n%s", dot)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(ToDOT(sampleLayout(), Options{Detailed: true})); err != nil {
		t.Errorf("Validate(generated) = %v", err)
	}
	if err := Validate(ToDOT(graph.Layout{}, Options{})); err != nil {
		t.Errorf("Validate(empty) = %v", err)
	}
	if err := Validate("digraph G { a -> ; }"); err == nil {
		t.Error("Validate accepted malformed DOT")
	}
}
