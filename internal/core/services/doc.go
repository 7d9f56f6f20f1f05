// Package services implements the core use cases of mathnb.
//
// Session is the propagation engine for one open notebook: it applies
// change requests, then repeatedly hands the resulting changes to the
// notebook's providers and applies what they ask for, until nothing is
// left to do or the round budget is spent. NotebookService manages named
// notebooks on top of a SnapshotStore and opens a Session per notebook.
// SettingsService reads and writes engine configuration.
//
// # Import Rules
//
//   - Can Import: domain, notebook, ports, logger
//   - Cannot Import: Any adapter or provider package
package services
