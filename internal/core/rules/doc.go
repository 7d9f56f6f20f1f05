// Package rules implements rule tables: providers defined as a list of
// derivations from a parent cell's data to a single child cell.
//
// A Table watches inserted, changed and converted styles. For every rule
// whose parent pattern matches, it computes a result and reconciles the
// rule's child so that exactly one child reflects the current input:
//
//	result present, child absent  -> insert child
//	result present, child present -> change child data (if different)
//	result absent,  child present -> delete child
//	result absent,  child absent  -> nothing
//
// A failing computation replaces the child with an EVALUATION-ERROR child
// carrying the error message. The next successful computation removes it.
package rules
