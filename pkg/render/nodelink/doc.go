// Package nodelink exports commit layouts as Graphviz node-link diagrams.
//
// # Usage
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	if err := nodelink.Validate(dot); err != nil {
//	    return err
//	}
//
// Every commit becomes a node filled with its layout color and pinned to its
// lane and row. Edges keep their layout kind: merge edges are dashed and fork
// edges bold.
//
// # Dependencies
//
// [Validate] uses [github.com/goccy/go-graphviz], which embeds Graphviz, to
// parse the generated source.
package nodelink
