// Package jobs persists narration jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, status
// transitions, and the per-segment narration results that let a cancelled job
// resume without repaying synthesis work already done. The database is
// treated as transient storage for in-flight jobs rather than a long-term
// archive; schema changes bump the version in schema.go and users clear the
// database to adopt the new schema.
package jobs
