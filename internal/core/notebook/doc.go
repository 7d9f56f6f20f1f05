// Package notebook implements the in-memory document model of a notebook
// and the compiler that turns change requests into primitive changes.
//
// A Notebook holds styles, relationships and the display order of
// top-level styles, plus secondary indices (parent to children, style to
// relationships) that are maintained incrementally as changes are applied.
//
// Compile is pure: it reads the notebook and returns the changes a request
// would produce, with freshly allocated ids, without mutating anything.
// Apply and ApplyAll are the only mutators.
//
// # Thread Safety
//
// Reads may run concurrently with each other. Apply, ApplyAll and Restore
// take an exclusive lock.
package notebook
