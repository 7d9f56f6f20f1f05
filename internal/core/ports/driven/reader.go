package driven

import "github.com/custodia-labs/mathnb/internal/core/domain"

// NotebookReader is the read-only view of an open notebook.
// Providers receive one at construction and query it while reacting to
// changes. Returned styles and relationships are copies.
type NotebookReader interface {
	// GetStyle returns a style by id or ErrUnknownStyle.
	GetStyle(id domain.StyleID) (*domain.Style, error)

	// GetRelationship returns a relationship by id or ErrUnknownRelationship.
	GetRelationship(id domain.RelationshipID) (*domain.Relationship, error)

	// StyleOrder returns the top-level style ids in document order.
	StyleOrder() []domain.StyleID

	// ChildStyles returns the direct children of a style in insertion order.
	ChildStyles(id domain.StyleID) ([]*domain.Style, error)

	// FindStyles returns the styles matching pattern in document order.
	// A zero rootID searches from the top level; otherwise the search covers
	// the children (or with pattern.Recursive, all descendants) of rootID.
	FindStyles(pattern domain.StylePattern, rootID domain.StyleID) ([]*domain.Style, error)

	// FindStyle returns the first match of FindStyles, or nil if there is none.
	FindStyle(pattern domain.StylePattern, rootID domain.StyleID) (*domain.Style, error)

	// HasStyle reports whether FindStyle would return a style.
	HasStyle(pattern domain.StylePattern, rootID domain.StyleID) (bool, error)

	// TopLevelStyleOf walks parent links up to the top-level ancestor.
	// Returns ErrOrphanedStyle if the chain is broken.
	TopLevelStyleOf(id domain.StyleID) (*domain.Style, error)

	// FindRelationships returns the relationships matching pattern, ordered by id.
	FindRelationships(pattern domain.RelationshipPattern) []*domain.Relationship

	// RelationshipsOf returns every relationship with id at either end.
	RelationshipsOf(id domain.StyleID) []*domain.Relationship
}
