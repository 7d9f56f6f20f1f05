// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - NotebookReader: Read-only view of a notebook handed to providers
//   - Provider: Reacts to applied changes with further change requests
//   - SnapshotStore: Notebook persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the providers that need them are not registered:
//
//   - ComputationEngine: Evaluates expressions. Without it, the algebra provider is disabled.
//   - InkRecognizer: Recognises handwriting. Without it, the ink provider is disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or provider package
package driven
