// Package analysis turns one leaflet frame into its global, frequency and
// local measurements.
//
// # Pipeline
//
//  1. Box: smooth the frame, threshold the box colour, fill enclosed holes
//  2. Defects: threshold the raw frame, optionally clipped to the box
//  3. Contours: one per 8-connected defect region, filtered by physical area
//  4. Protein: threshold the protein colour (same frame or a companion
//     frame), fill enclosed holes
//  5. Shapes: every retained defect against the protein, and the protein
//     against the union of its overlaps with the retained defects
//
// An Analyzer holds only immutable options and is safe for concurrent use.
// The calibration factor is passed to every call; the Analyzer never derives
// one on its own.
package analysis
