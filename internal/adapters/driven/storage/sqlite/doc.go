// Package sqlite provides SQLite-backed implementations of the run history
// and scheduler stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Both stores share a
// single database connection:
//
//   - RunHistoryStore: one row per job invocation
//   - SchedulerStore: scheduled task state and execution results
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each NNN_name.up.sql file records its own version
// in schema_migrations.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store relies on SQLite's
// own locking in WAL mode.
package sqlite
