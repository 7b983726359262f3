// Package pipeline orchestrates a narration job from source video to render
// plan.
//
// The stages run in a fixed order: align the source into segments, plan
// which segments get narration, synthesize narration concurrently, reconcile
// each segment's timing in segment order, assemble the output timeline, and
// emit the render plan. Collaborator failures on individual segments degrade
// those segments to pass-through; only recognition, alignment, and assembly
// failures abort the job.
package pipeline
