// Package storage persists a built index as a directory holding two artifacts:
// the vector blob and the SQLite passage database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/kura/internal/models"
	"github.com/hyperjump/kura/internal/vector"
)

// Artifact file names inside an index directory.
const (
	VectorsFile  = "vectors.bin"
	PassagesFile = "passages.db"
)

// Manifest describes one saved build.
type Manifest struct {
	BuildID        string    `json:"build_id"`
	CreatedAt      time.Time `json:"created_at"`
	Dimension      int       `json:"dimension"`
	PassageCount   int       `json:"passage_count"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
}

// SaveOption configures Save.
type SaveOption func(*Manifest)

// WithEmbeddingModel records the embedding model name in the manifest.
func WithEmbeddingModel(model string) SaveOption {
	return func(m *Manifest) { m.EmbeddingModel = model }
}

// Save writes index and passages to dir, replacing whatever dir held before.
// Both artifacts are written to a staging directory beside dir and swapped in with
// renames, so a reader sees either the previous pair or the new pair.
func Save(ctx context.Context, dir string, index *vector.FlatIndex, passages []models.Passage, opts ...SaveOption) (*Manifest, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty storage directory", models.ErrInvalidArgument)
	}
	if index == nil || index.Size() == 0 {
		return nil, fmt.Errorf("%w: nothing to save", models.ErrInvalidArgument)
	}
	if index.Size() != len(passages) {
		return nil, fmt.Errorf("%w: %d vectors but %d passages",
			models.ErrInvalidArgument, index.Size(), len(passages))
	}
	for i, p := range passages {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: passage %d is invalid", models.ErrInvalidArgument, i)
		}
	}

	manifest := &Manifest{
		BuildID:      uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Dimension:    index.Dimension(),
		PassageCount: len(passages),
	}
	for _, opt := range opts {
		opt(manifest)
	}

	dir = filepath.Clean(dir)
	parent, base := filepath.Dir(dir), filepath.Base(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("create storage parent directory: %w", err)
	}

	staging := filepath.Join(parent, fmt.Sprintf(".%s.staging-%s", base, manifest.BuildID))
	if err := os.Mkdir(staging, 0755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	if err := writeArtifacts(ctx, staging, index, passages, manifest); err != nil {
		_ = os.RemoveAll(staging)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		_ = os.RemoveAll(staging)
		return nil, err
	}
	if err := swapDir(staging, dir, parent, base, manifest.BuildID); err != nil {
		_ = os.RemoveAll(staging)
		return nil, err
	}
	return manifest, nil
}

func writeArtifacts(ctx context.Context, dir string, index *vector.FlatIndex, passages []models.Passage, m *Manifest) error {
	blob, err := index.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode vectors: %w", err)
	}
	if err := writeFileSync(filepath.Join(dir, VectorsFile), blob); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	dbPath := filepath.Join(dir, PassagesFile)
	db, err := createPassageDB(dbPath)
	if err != nil {
		return err
	}
	if err := db.writePassages(ctx, passages); err != nil {
		_ = db.Close()
		return fmt.Errorf("write passages: %w", err)
	}
	if err := db.writeManifest(ctx, m); err != nil {
		_ = db.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close passage database: %w", err)
	}
	if err := syncPath(dbPath); err != nil {
		return err
	}
	return syncPath(dir)
}

// swapDir moves staging to dir. An existing dir is moved aside first and put back
// if the final rename fails.
func swapDir(staging, dir, parent, base, buildID string) error {
	backup := ""
	if _, err := os.Lstat(dir); err == nil {
		backup = filepath.Join(parent, fmt.Sprintf(".%s.old-%s", base, buildID))
		if err := os.Rename(dir, backup); err != nil {
			return fmt.Errorf("move previous index aside: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat storage directory: %w", err)
	}

	if err := os.Rename(staging, dir); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, dir); rerr != nil {
				return fmt.Errorf("install index: %w (restoring previous index also failed: %v)", err, rerr)
			}
		}
		return fmt.Errorf("install index: %w", err)
	}
	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	_ = syncPath(parent)
	return nil
}

// Load reads the index directory written by Save. It returns ErrNotFound when either
// artifact is absent and ErrCorruptState when the pair cannot be decoded or disagrees.
func Load(ctx context.Context, dir string) (*vector.FlatIndex, []models.Passage, *Manifest, error) {
	vecPath := filepath.Join(dir, VectorsFile)
	dbPath := filepath.Join(dir, PassagesFile)
	for _, p := range []string{vecPath, dbPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil, nil, fmt.Errorf("%w: %s", models.ErrNotFound, p)
			}
			return nil, nil, nil, fmt.Errorf("stat %s: %w", p, err)
		}
	}

	blob, err := os.ReadFile(vecPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read vectors: %w", err)
	}
	index := vector.NewFlatIndex()
	if err := index.UnmarshalBinary(blob); err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", vecPath, err)
	}

	db, err := openPassageDB(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", models.ErrCorruptState, err)
	}
	defer db.Close()

	manifest, err := db.readManifest(ctx)
	if err != nil {
		return nil, nil, nil, corrupt(ctx, dbPath, err)
	}
	passages, err := db.readPassages(ctx)
	if err != nil {
		return nil, nil, nil, corrupt(ctx, dbPath, err)
	}

	if len(passages) != index.Size() {
		return nil, nil, nil, fmt.Errorf("%w: %d vectors but %d passages",
			models.ErrCorruptState, index.Size(), len(passages))
	}
	if manifest.PassageCount != len(passages) || manifest.Dimension != index.Dimension() {
		return nil, nil, nil, fmt.Errorf("%w: manifest (dimension %d, passages %d) disagrees with artifacts (dimension %d, passages %d)",
			models.ErrCorruptState, manifest.Dimension, manifest.PassageCount, index.Dimension(), len(passages))
	}
	return index, passages, manifest, nil
}

// corrupt classifies a database read failure; cancellation is passed through as is.
func corrupt(ctx context.Context, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %v", models.ErrCorruptState, path, err)
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// syncPath fsyncs a file or directory.
func syncPath(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return nil
}
