// Package sqlite provides an SQLite-based implementation of driven.SnapshotStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// Notebooks are stored relationally: one row per notebook, one row per style
// and one row per relationship. Top-level styles carry their display
// position; payloads are stored as JSON text and decoded by style type.
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.mathnb/data/notebooks.db
//
// # Thread Safety
//
// All operations are thread-safe. Each Save runs in a single transaction,
// so readers never observe a half-written notebook.
package sqlite
