// Package domain defines the core entities of the notebook engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Style: A cell in the notebook graph, top-level or nested annotation
//   - Relationship: A typed, directed edge between two styles
//   - Payload: The tagged union carried in a style's data
//   - ChangeRequest: A declarative request to modify a notebook
//   - Change: A primitive, applied modification of a notebook
//   - Snapshot: The persisted shape of a notebook
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
