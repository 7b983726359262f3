// Package plan decides which content segments get narration and builds the
// generation request for each, with prompt context drawn from the segment's
// own cues and its neighbors for narrative continuity. Planning never talks
// to the collaborators; it only emits requests for the orchestrator to
// dispatch.
package plan
