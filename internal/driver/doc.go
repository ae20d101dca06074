// Package driver runs the defect pipeline over a directory of frames.
//
// # Phases
//
//  1. Calibration: frame 1 is loaded and its filled box mask fixes the
//     pixel-to-area factor. Any failure here aborts the run.
//  2. Frames: every frame, frame 1 included, is analysed with that factor on
//     a bounded pool of goroutines.
//  3. Emission: results are handed to the output streams strictly in frame
//     order, whatever order the workers finish in.
//
// A frame that cannot be read or analysed after calibration is logged,
// recorded in the run summary and skipped; the other frames are unaffected.
package driver
