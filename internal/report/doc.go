// Package report writes the three per-frame output streams, the calibration
// report and the run summary.
//
// # Files
//
// All files live in one output directory and take an optional suffix before
// the extension (e.g. "_bot" gives global_defect_bot.dat):
//   - pbc_scale_dimensions.dat: one calibration line
//   - local_defect.dat: frame_# area_prot_defect area_protein comparison_value
//   - defect_freq_area.dat: frame_# area_defect comparison_value
//   - global_defect.dat: frame_# area_box area_total_defect
//   - defect_summary.json: run summary
//
// Each stream starts with its header line. Records are whitespace separated
// with six decimals and a trailing space before the newline; undefined
// comparison values print as "nan". Existing files are truncated when a
// Writer is created.
//
// # Concurrency
//
// A Writer is not safe for concurrent use. The driver feeds it from a single
// goroutine in frame order.
package report
