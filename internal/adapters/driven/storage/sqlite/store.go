package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mathnb/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
)

// Store is an SQLite database holding notebook snapshots.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.mathnb/data/notebooks.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mathnb", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "notebooks.db")

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SnapshotStore returns a SnapshotStore interface backed by this store.
func (s *Store) SnapshotStore() driven.SnapshotStore {
	return &snapshotStore{store: s}
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// snapshotStore implements driven.SnapshotStore.
type snapshotStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*snapshotStore)(nil)

// Save replaces the stored notebook in one transaction.
func (s *snapshotStore) Save(ctx context.Context, name string, snap *domain.Snapshot) error {
	positions := make(map[domain.StyleID]int, len(snap.StyleOrder))
	for i, id := range snap.StyleOrder {
		positions[id] = i
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO notebooks (name, version, next_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			next_id = excluded.next_id,
			updated_at = excluded.updated_at
	`, name, snap.Version, snap.NextID, now, now)
	if err != nil {
		return fmt.Errorf("saving notebook: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM styles WHERE notebook = ?", name); err != nil {
		return fmt.Errorf("clearing styles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM relationships WHERE notebook = ?", name); err != nil {
		return fmt.Errorf("clearing relationships: %w", err)
	}

	styleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO styles (notebook, id, parent_id, position, role, subrole, type, source, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer styleStmt.Close()

	for id, style := range snap.StyleMap {
		data, err := encodePayload(style.Data)
		if err != nil {
			return fmt.Errorf("encoding style %d: %w", id, err)
		}
		var position sql.NullInt64
		if p, ok := positions[id]; ok {
			position = sql.NullInt64{Int64: int64(p), Valid: true}
		}
		if _, err := styleStmt.ExecContext(ctx, name, int64(id), int64(style.ParentID), position,
			string(style.Role), string(style.Subrole), string(style.Type), string(style.Source), data); err != nil {
			return fmt.Errorf("saving style %d: %w", id, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relationships (notebook, id, role, from_id, to_id, source, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer relStmt.Close()

	for id, rel := range snap.RelationshipMap {
		if _, err := relStmt.ExecContext(ctx, name, int64(id), string(rel.Role),
			int64(rel.FromID), int64(rel.ToID), string(rel.Source), nullJSON(rel.Data)); err != nil {
			return fmt.Errorf("saving relationship %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load retrieves a notebook by name.
func (s *snapshotStore) Load(ctx context.Context, name string) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()
	row := s.store.db.QueryRowContext(ctx,
		"SELECT version, next_id FROM notebooks WHERE name = ?", name)
	if err := row.Scan(&snap.Version, &snap.NextID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning notebook: %w", err)
	}

	if err := s.loadStyles(ctx, name, snap); err != nil {
		return nil, err
	}
	if err := s.loadRelationships(ctx, name, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *snapshotStore) loadStyles(ctx context.Context, name string, snap *domain.Snapshot) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, parent_id, position, role, subrole, type, source, data
		FROM styles WHERE notebook = ?
		ORDER BY id
	`, name)
	if err != nil {
		return fmt.Errorf("querying styles: %w", err)
	}
	defer rows.Close()

	type placed struct {
		id       domain.StyleID
		position int64
	}
	var order []placed
	for rows.Next() {
		var (
			id, parentID               int64
			position                   sql.NullInt64
			role, subrole, typ, source string
			data                       sql.NullString
		)
		if err := rows.Scan(&id, &parentID, &position, &role, &subrole, &typ, &source, &data); err != nil {
			return fmt.Errorf("scanning style: %w", err)
		}

		style := &domain.Style{
			ID:       domain.StyleID(id),
			ParentID: domain.StyleID(parentID),
			Role:     domain.StyleRole(role),
			Subrole:  domain.StyleSubrole(subrole),
			Type:     domain.StyleType(typ),
			Source:   domain.StyleSource(source),
		}
		if data.Valid {
			style.Data, err = domain.DecodePayload(style.Type, json.RawMessage(data.String))
			if err != nil {
				return fmt.Errorf("decoding style %d: %w", id, err)
			}
		}
		snap.StyleMap[style.ID] = style
		if position.Valid {
			order = append(order, placed{id: style.ID, position: position.Int64})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating styles: %w", err)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].position < order[j].position })
	snap.StyleOrder = make([]domain.StyleID, 0, len(order))
	for _, p := range order {
		snap.StyleOrder = append(snap.StyleOrder, p.id)
	}
	return nil
}

func (s *snapshotStore) loadRelationships(ctx context.Context, name string, snap *domain.Snapshot) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, role, from_id, to_id, source, data
		FROM relationships WHERE notebook = ?
		ORDER BY id
	`, name)
	if err != nil {
		return fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, fromID, toID int64
			role, source     string
			data             sql.NullString
		)
		if err := rows.Scan(&id, &role, &fromID, &toID, &source, &data); err != nil {
			return fmt.Errorf("scanning relationship: %w", err)
		}

		rel := &domain.Relationship{
			ID:     domain.RelationshipID(id),
			Role:   domain.RelationshipRole(role),
			FromID: domain.StyleID(fromID),
			ToID:   domain.StyleID(toID),
			Source: domain.StyleSource(source),
		}
		if data.Valid {
			rel.Data = json.RawMessage(data.String)
		}
		snap.RelationshipMap[rel.ID] = rel
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating relationships: %w", err)
	}
	return nil
}

// Delete removes a notebook and its styles and relationships.
func (s *snapshotStore) Delete(ctx context.Context, name string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM relationships WHERE notebook = ?", name); err != nil {
		return fmt.Errorf("deleting relationships: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM styles WHERE notebook = ?", name); err != nil {
		return fmt.Errorf("deleting styles: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM notebooks WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting notebook: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// List returns all notebooks ordered by name.
func (s *snapshotStore) List(ctx context.Context) ([]domain.NotebookInfo, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT n.name, n.updated_at, COUNT(st.id)
		FROM notebooks n
		LEFT JOIN styles st ON st.notebook = n.name
		GROUP BY n.name, n.updated_at
		ORDER BY n.name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying notebooks: %w", err)
	}
	defer rows.Close()

	var infos []domain.NotebookInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		var info domain.NotebookInfo
		var updatedAt sql.NullTime
		if err := rows.Scan(&info.Name, &updatedAt, &info.StyleCount); err != nil {
			return nil, fmt.Errorf("scanning notebook: %w", err)
		}
		if updatedAt.Valid {
			info.UpdatedAt = updatedAt.Time
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notebooks: %w", err)
	}

	return infos, nil
}

// encodePayload returns the JSON text of a payload, or NULL for an absent one.
func encodePayload(p domain.Payload) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// nullJSON converts empty raw JSON to NULL.
func nullJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
