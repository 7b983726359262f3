// Package align maps raw recognition cues onto a canonical, gap-free
// partition of the source video. Every segment produced here is either a
// run of merged speech cues or a silence span with no cues; together they
// cover [0, total) exactly, which is the precondition for narration
// planning.
package align
