// Package imaging provides the frame inspection helpers behind the tool
// server: a decoded-frame cache, colour sampling against the configured
// segmentation ranges, palette extraction and mask overlay previews.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions are half-open:
// (X1,Y1) is inclusive and (X2,Y2) exclusive.
//
// # Thread Safety
//
// Cache is safe for concurrent use. The other functions are stateless and
// never modify their input images.
//
// # Colour Representation
//
// Sampled colours are reported as "#RRGGBB" hex, 8-bit RGB and HSL (hue in
// degrees, saturation and lightness in percent). Each sample also lists the
// named ranges (box, defect, protein) that contain it, which is how range
// bounds are tuned against real frames.
package imaging
