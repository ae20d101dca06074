// Package server implements the MCP (Model Context Protocol) server that puts
// the packing defect pipeline in front of an MCP client.
//
// The batch binary answers "what are the defect statistics of this
// trajectory". This server answers the questions that come before it: which
// colours does this renderer use, does the configured defect range catch the
// yellow patches, does the box fill close. Every tool works with the same
// configuration the batch run would use.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frame Inspection:
//   - frame_load: Frame dimensions, format and size
//   - frame_sample_colors: Colours at given pixels and the ranges they match
//   - frame_dominant_colors: Colour palette of a frame or region
//   - frame_suggest_range: Range covering sampled pixels
//
// Pipeline:
//   - frame_segment: Box, defect and protein pixel counts, optional masks
//   - frame_preview: Frame with the masks tinted on top
//   - frame_analyze: Full analysis of one frame, self-calibrated
//   - frames_run: Batch run over a directory, writing the output files
//
// # Frame Caching
//
// Decoded frames are cached by path for the lifetime of the process, so
// sampling several points and then segmenting the same frame decodes it once.
// frames_run does not use the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
