// Package timeline defines the output span model and assembles per-segment
// span groups into the final render plan, enforcing the global contiguity
// invariant.
package timeline
