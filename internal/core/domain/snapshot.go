package domain

import "time"

// SnapshotVersion is the only snapshot version this build reads and writes.
const SnapshotVersion = "0.1.0"

// Snapshot is the persisted shape of a notebook.
type Snapshot struct {
	Version         string                           `json:"version"`
	NextID          int64                            `json:"nextId"`
	StyleMap        map[StyleID]*Style               `json:"styleMap"`
	RelationshipMap map[RelationshipID]*Relationship `json:"relationshipMap"`
	StyleOrder      []StyleID                        `json:"styleOrder"`
}

// NewSnapshot returns the snapshot of an empty notebook.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:         SnapshotVersion,
		NextID:          1,
		StyleMap:        make(map[StyleID]*Style),
		RelationshipMap: make(map[RelationshipID]*Relationship),
		StyleOrder:      []StyleID{},
	}
}

// NotebookInfo describes a stored notebook.
type NotebookInfo struct {
	// Name is the unique notebook name.
	Name string

	// StyleCount is the number of styles in the stored snapshot.
	StyleCount int

	// UpdatedAt is when the snapshot was last written.
	UpdatedAt time.Time
}
