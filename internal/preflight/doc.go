// Package preflight provides readiness checks for the external tools and
// collaborator services a narration run depends on.
//
// These checks run in two contexts:
//   - The CLI "playlet preflight" command displays the full readiness report.
//   - Individual check functions back targeted diagnostics before a run
//     commits hours of synthesis work to a doomed environment.
//
// Each collaborator check is gated by its configuration -- an LLM check is
// skipped when no API key is available to test with.
package preflight
