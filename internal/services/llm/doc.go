// Package llm wraps an OpenRouter-compatible chat completion API for
// generating narration scripts.
//
// The client retries transient failures with exponential backoff, honors
// Retry-After headers, and tolerates the formatting quirks LLM providers
// exhibit when asked for JSON-only output (code fences, prose around the
// payload, streaming-schema responses).
package llm
