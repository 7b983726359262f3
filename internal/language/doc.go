// Package language normalizes language identifiers and resolves
// text-to-speech voices for them.
//
// Recognition, script generation, and synthesis each accept language hints
// in different shapes (BCP 47 tags, ISO codes, plain words). All conversion
// lives here so the services stay consistent with each other.
package language
