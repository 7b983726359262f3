// Package mix computes per-span audio envelopes: how the original track is
// ducked while narration plays, the narration gain, and the linear fades that
// keep narration onsets and offsets from clicking.
package mix
