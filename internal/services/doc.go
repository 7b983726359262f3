// Package services defines the error taxonomy shared by the external
// collaborators (recognition, script generation, speech synthesis) and the
// helpers the pipeline uses to classify their failures.
package services
