// Package subtitles holds the subtitle cue model shared by the cue aligner,
// the reconciler, and the render plan, plus SRT parsing and formatting so
// jobs can ingest existing subtitle files and emit artifacts for review.
package subtitles
