package loops_test

import (
	"fmt"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/dag/transform"
	"github.com/matzehuels/forkline/pkg/loops"
)

func ExampleAnnotate() {
	g := dag.Build([]dag.Commit{
		{SHA: "C3", Parents: []string{"C2"}},
		{SHA: "C2", Parents: []string{"C1", "F1"}},
		{SHA: "F1", Parents: []string{"C0"}},
		{SHA: "C1", Parents: []string{"C0"}},
		{SHA: "C0"},
	})
	order, _ := transform.Sequence(g)
	mainLine := transform.MainLine(g, "C3")

	res := loops.Annotate(g, mainLine, order, loops.Options{
		Colors: loops.NewPalette("#3b82f6"),
	})
	for _, l := range res.Loops {
		fmt.Println("merge:", l.MergeSHA, "fork:", l.ForkSHA)
		fmt.Println("fork path:", l.ForkPath, "main path:", l.MainPath)
		for _, s := range l.Path {
			fmt.Printf("  %s level=%d fork=%v\n", s.SHA, s.Level, s.IsFork)
		}
	}
	// Output:
	// merge: C2 fork: C0
	// fork path: [F1] main path: [C1]
	//   C2 level=0 fork=false
	//   F1 level=1 fork=true
	//   C1 level=1 fork=false
	//   C0 level=0 fork=false
}
