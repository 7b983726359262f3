// Package tts wraps a CosyVoice-style speech synthesis HTTP API.
//
// Synthesis returns the rendered audio file plus its measured duration; the
// measured value is what downstream timing decisions are made from, never the
// length estimated from the script text.
package tts
