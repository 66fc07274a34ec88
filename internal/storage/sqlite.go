package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kura/internal/models"
)

// passageDB is the SQLite artifact holding passage metadata and the build manifest.
type passageDB struct {
	db *sql.DB
}

// createPassageDB creates a fresh database at dbPath with the schema applied.
// The default rollback journal is kept so no sidecar files outlive Close.
func createPassageDB(dbPath string) (*passageDB, error) {
	db, err := sql.Open("sqlite3", passageDSN(dbPath, "rwc"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &passageDB{db: db}, nil
}

// openPassageDB opens an existing database read-only.
func openPassageDB(dbPath string) (*passageDB, error) {
	db, err := sql.Open("sqlite3", passageDSN(dbPath, "ro"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &passageDB{db: db}, nil
}

// passageDSN builds a SQLite URI for dbPath. The path is escaped so '?', '#' and '%'
// in directory names stay part of the file name.
func passageDSN(dbPath, mode string) string {
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(dbPath),
		RawQuery: url.Values{"mode": {mode}}.Encode(),
	}
	return u.String()
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS passages (
		position INTEGER PRIMARY KEY,
		text TEXT NOT NULL,
		source_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source_id, chunk_index);

	CREATE TABLE IF NOT EXISTS manifest (
		build_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		dimension INTEGER NOT NULL,
		passage_count INTEGER NOT NULL,
		embedding_model TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := db.Exec(schema)
	return err
}

// writePassages inserts passages in position order inside one transaction.
func (s *passageDB) writePassages(ctx context.Context, passages []models.Passage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO passages (position, text, source_id, chunk_index, chunk_count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range passages {
		if _, err := stmt.ExecContext(ctx, i, p.Text, p.SourceID, p.ChunkIndex, p.ChunkCount); err != nil {
			return fmt.Errorf("insert passage %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *passageDB) writeManifest(ctx context.Context, m *Manifest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manifest (build_id, created_at, dimension, passage_count, embedding_model)
		 VALUES (?, ?, ?, ?, ?)`,
		m.BuildID, m.CreatedAt, m.Dimension, m.PassageCount, m.EmbeddingModel,
	)
	return err
}

func (s *passageDB) readManifest(ctx context.Context) (*Manifest, error) {
	var m Manifest
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT build_id, created_at, dimension, passage_count, embedding_model FROM manifest LIMIT 1`,
	).Scan(&m.BuildID, &createdAt, &m.Dimension, &m.PassageCount, &m.EmbeddingModel)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("manifest row missing")
	}
	if err != nil {
		return nil, err
	}
	m.CreatedAt = createdAt
	return &m, nil
}

// readPassages returns every passage ordered by position. Positions must be 0..n-1.
func (s *passageDB) readPassages(ctx context.Context) ([]models.Passage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, text, source_id, chunk_index, chunk_count FROM passages ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passages []models.Passage
	for rows.Next() {
		var pos int
		var p models.Passage
		if err := rows.Scan(&pos, &p.Text, &p.SourceID, &p.ChunkIndex, &p.ChunkCount); err != nil {
			return nil, err
		}
		if pos != len(passages) {
			return nil, fmt.Errorf("passage positions not contiguous at %d", pos)
		}
		if !p.Valid() {
			return nil, fmt.Errorf("passage %d is invalid", pos)
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

func (s *passageDB) Close() error {
	return s.db.Close()
}
