package pipeline

import (
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/render/nodelink"
)

// Encode serializes a layout in one of the ValidFormats. DOT output is
// checked with the Graphviz parser before it is returned.
func Encode(l graph.Layout, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case graph.FormatBSON:
		return graph.MarshalLayoutBSON(l)
	case graph.FormatDOT:
		dot := nodelink.ToDOT(l, nodelink.Options{Detailed: true})
		if err := nodelink.Validate(dot); err != nil {
			return nil, err
		}
		return []byte(dot), nil
	default:
		return graph.MarshalLayout(l)
	}
}
