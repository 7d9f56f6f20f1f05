package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/notebook"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func sampleSnapshot() *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.NextID = 7
	snap.StyleMap[1] = &domain.Style{
		ID: 1, Role: domain.RoleFormula, Type: domain.TypeExpr,
		Source: domain.SourceUser, Data: domain.TextPayload("x = 2"),
	}
	snap.StyleMap[2] = &domain.Style{
		ID: 2, ParentID: 1, Role: domain.RolePresentation, Subrole: "latex", Type: domain.TypeLatex,
		Source: "NOTATION", Data: domain.TextPayload("x = 2"),
	}
	snap.StyleMap[3] = &domain.Style{
		ID: 3, Role: domain.RoleFormula, Type: domain.TypeStrokes, Source: domain.SourceUser,
		Data: domain.StrokesPayload{Strokes: [][]domain.Point{{{X: 0, Y: 0}, {X: 1, Y: 2.5}}}},
	}
	snap.StyleMap[4] = &domain.Style{
		ID: 4, ParentID: 1, Role: domain.RoleEvaluationError, Subrole: "simplify", Type: domain.TypeError,
		Source: "ALGEBRA", Data: domain.ErrorPayload{Message: "engine down"},
	}
	snap.StyleMap[5] = &domain.Style{ID: 5, Role: domain.RoleText, Type: domain.TypeNone, Source: domain.SourceUser}
	snap.RelationshipMap[6] = &domain.Relationship{
		ID: 6, Role: domain.RelationshipDependency, FromID: 1, ToID: 3,
		Source: "SYMBOLS", Data: json.RawMessage(`{"name":"x"}`),
	}
	snap.StyleOrder = []domain.StyleID{5, 1, 3}
	return snap
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "notebooks.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsRecorded(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store1, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store1.SnapshotStore().Save(ctx, "persisted", sampleSnapshot()))
	require.NoError(t, store1.Close())

	store2, err := NewStore(dir)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.SnapshotStore().Load(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), loaded)
}

func TestNewStore_InvalidDir(t *testing.T) {
	store, err := NewStore("/dev/null/cannot/create")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestSnapshotStore_SaveAndLoad_RoundTrip(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()
	ctx := context.Background()

	require.NoError(t, snapshots.Save(ctx, "algebra", sampleSnapshot()))

	loaded, err := snapshots.Load(ctx, "algebra")
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), loaded)

	nb, err := notebook.FromSnapshot(loaded)
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleID{5, 1, 3}, nb.StyleOrder())
	assert.Equal(t, int64(7), nb.NextID())
}

func TestSnapshotStore_SaveReplaces(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()
	ctx := context.Background()
	require.NoError(t, snapshots.Save(ctx, "nb", sampleSnapshot()))

	smaller := domain.NewSnapshot()
	smaller.NextID = 9
	smaller.StyleMap[8] = &domain.Style{ID: 8, Role: domain.RoleFormula, Type: domain.TypeExpr, Source: domain.SourceUser}
	smaller.StyleOrder = []domain.StyleID{8}
	require.NoError(t, snapshots.Save(ctx, "nb", smaller))

	loaded, err := snapshots.Load(ctx, "nb")
	require.NoError(t, err)
	assert.Equal(t, smaller, loaded)
}

func TestSnapshotStore_EmptyNotebook(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()
	ctx := context.Background()

	require.NoError(t, snapshots.Save(ctx, "empty", domain.NewSnapshot()))

	loaded, err := snapshots.Load(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, domain.NewSnapshot(), loaded)
}

func TestSnapshotStore_NotebooksAreIsolated(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()
	ctx := context.Background()

	require.NoError(t, snapshots.Save(ctx, "one", sampleSnapshot()))
	require.NoError(t, snapshots.Save(ctx, "two", domain.NewSnapshot()))

	two, err := snapshots.Load(ctx, "two")
	require.NoError(t, err)
	assert.Empty(t, two.StyleMap)
	assert.Empty(t, two.RelationshipMap)
}

func TestSnapshotStore_Load_NotFound(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()

	snap, err := snapshots.Load(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, snap)
}

func TestSnapshotStore_Load_VersionPreserved(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()
	ctx := context.Background()

	old := sampleSnapshot()
	old.Version = "0.0.1"
	require.NoError(t, snapshots.Save(ctx, "old", old))

	loaded, err := snapshots.Load(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", loaded.Version)

	_, err = notebook.FromSnapshot(loaded)
	assert.ErrorIs(t, err, domain.ErrIncompatibleVersion)
}

func TestSnapshotStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	snapshots := store.SnapshotStore()
	ctx := context.Background()
	require.NoError(t, snapshots.Save(ctx, "gone", sampleSnapshot()))

	require.NoError(t, snapshots.Delete(ctx, "gone"))

	_, err := snapshots.Load(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var styles int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM styles WHERE notebook = ?", "gone").Scan(&styles))
	assert.Zero(t, styles)

	assert.ErrorIs(t, snapshots.Delete(ctx, "gone"), domain.ErrNotFound)
}

func TestSnapshotStore_List(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()
	ctx := context.Background()

	infos, err := snapshots.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	require.NoError(t, snapshots.Save(ctx, "zeta", domain.NewSnapshot()))
	require.NoError(t, snapshots.Save(ctx, "alpha", sampleSnapshot()))

	infos, err = snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, 5, infos[0].StyleCount)
	assert.False(t, infos[0].UpdatedAt.IsZero())
	assert.Equal(t, "zeta", infos[1].Name)
	assert.Equal(t, 0, infos[1].StyleCount)
}

func TestSnapshotStore_CancelledContext(t *testing.T) {
	snapshots := setupTestStore(t).SnapshotStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, snapshots.Save(ctx, "nb", sampleSnapshot()))
}
