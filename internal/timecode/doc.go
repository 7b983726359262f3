// Package timecode provides the fixed-point millisecond time model used
// throughout the pipeline.
//
// All media arithmetic (segment partitioning, narration reconciliation,
// timeline assembly) is performed on Millis values rather than floating
// seconds so that repeated runs produce identical plans.
package timecode
