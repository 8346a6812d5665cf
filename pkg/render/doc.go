// Package render turns PQ-tree DOT documents into images.
//
// # Overview
//
// [Renderer] is the entry point. It accepts a DOT document (as produced by
// [pq.ToDOT]) and returns the artifact in one of the supported formats:
//
//   - "dot": the input itself
//   - "svg": laid out by Graphviz (go-graphviz, no system install needed)
//   - "png", "pdf": the SVG converted by rsvg-convert
//
// Results are memoised in a [cache.Cache] keyed by the hash of the DOT
// document and the format, so repeated renders of the same tree are free.
//
//	r := render.New(render.WithCache(c))
//	svg, err := r.Render(ctx, pq.ToDOT(root, nil), render.FormatSVG)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// from librsvg:
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [pq.ToDOT]: github.com/matzehuels/pqtree/pkg/pq.ToDOT
package render
