// Package reconcile decides how each content segment occupies the output
// timeline once its narration audio duration is known. Synthesized speech
// rarely matches the source span it narrates, so the reconciler absorbs the
// difference: shorter narration is placed inside the span over ducked
// original audio, longer narration extends the span by freezing the final
// frame or slowing playback within a configured bound.
//
// Reconciliation is a pure function of measured durations. It never guesses
// what synthesis will produce, which is why it runs strictly after the
// synthesis collaborator returns.
package reconcile
