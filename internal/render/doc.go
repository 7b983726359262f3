// Package render emits the declarative plan an external renderer executes.
//
// A plan never contains encoder settings or filter graphs, only timing and
// mix decisions: which source range plays in each output span, at what rate,
// how long a freeze frame holds, how the audio tracks are leveled, and which
// subtitle shows. Executing the plan is a separate concern.
package render
