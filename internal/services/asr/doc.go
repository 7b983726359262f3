// Package asr drives a whisper.cpp binary to transcribe source audio into
// timed subtitle cues.
//
// Recognition failures are fatal to a job: without original cue timings there
// is nothing to align narration against.
package asr
