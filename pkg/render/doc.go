// Package render exports commit layouts to external visualization formats.
//
// Drawing is left to the consumer of a layout. The subpackages only translate
// a graph.Layout into formats other tools understand:
//
//   - [nodelink]: Graphviz DOT with nodes pinned to the lane grid
package render
