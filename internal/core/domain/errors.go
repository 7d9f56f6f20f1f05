package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Invariant Violations.
	// These mean the notebook's own state is inconsistent with a request
	// or change. They abort the operation that raised them.

	// ErrUnknownStyle indicates a referenced style id does not exist.
	ErrUnknownStyle = errors.New("unknown style")

	// ErrUnknownRelationship indicates a referenced relationship id does not exist.
	ErrUnknownRelationship = errors.New("unknown relationship")

	// ErrUnknownPositionReference indicates an afterId that names no top-level style.
	ErrUnknownPositionReference = errors.New("unknown position reference")

	// ErrOrphanedStyle indicates a parent chain that does not reach the top level.
	ErrOrphanedStyle = errors.New("orphaned style")

	// ErrNotTopLevel indicates an operation that is only valid on top-level styles.
	ErrNotTopLevel = errors.New("style is not top-level")

	// ErrDuplicateID indicates an attempt to insert an id that is already allocated.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrDanglingReference indicates a style deletion that would leave
	// children or relationships pointing at it.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrIncompatibleVersion indicates a snapshot written by an incompatible version.
	ErrIncompatibleVersion = errors.New("incompatible version")

	// ErrInvalidSnapshot indicates a snapshot whose content breaks a notebook invariant.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// Propagation Errors.

	// ErrRuleCycleExceeded indicates providers were still producing
	// changes when the round budget ran out.
	ErrRuleCycleExceeded = errors.New("rule cycle exceeded")

	// ErrProviderTimeout indicates a provider did not respond within the round deadline.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrNoToolProvider indicates no open provider owns the style a tool was requested on.
	ErrNoToolProvider = errors.New("no tool provider for style")

	// ErrUnknownProvider indicates a provider name that is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNotebookClosed indicates an operation on a notebook session that was closed.
	ErrNotebookClosed = errors.New("notebook closed")

	// External Collaborator Errors.

	// ErrEngineUnavailable indicates the computation engine is not configured or unreachable.
	ErrEngineUnavailable = errors.New("computation engine unavailable")

	// ErrRecognizerUnavailable indicates the ink recognizer is not configured or unreachable.
	ErrRecognizerUnavailable = errors.New("ink recognizer unavailable")

	// ErrUnsupportedExpression indicates the engine cannot handle an expression.
	ErrUnsupportedExpression = errors.New("unsupported expression")

	// ErrRateLimited indicates a remote backend rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

var invariantViolations = []error{
	ErrUnknownStyle,
	ErrUnknownRelationship,
	ErrUnknownPositionReference,
	ErrOrphanedStyle,
	ErrNotTopLevel,
	ErrDuplicateID,
	ErrDanglingReference,
	ErrIncompatibleVersion,
	ErrInvalidSnapshot,
}

// IsInvariantViolation reports whether err signals an inconsistency
// between the notebook state and an operation on it.
func IsInvariantViolation(err error) bool {
	for _, target := range invariantViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RuleCycleError is returned when the round budget is exhausted while
// providers still have pending change requests. The pending requests
// were not applied.
type RuleCycleError struct {
	Rounds  int
	Pending []ChangeRequest
}

// Error implements the error interface.
func (e *RuleCycleError) Error() string {
	return fmt.Sprintf("%s: %d change requests pending after %d rounds",
		ErrRuleCycleExceeded, len(e.Pending), e.Rounds)
}

// Is makes errors.Is(err, ErrRuleCycleExceeded) match.
func (e *RuleCycleError) Is(target error) bool {
	return target == ErrRuleCycleExceeded
}

// ProviderError attributes a failure to the provider that raised it.
type ProviderError struct {
	Source StyleSource
	Err    error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
