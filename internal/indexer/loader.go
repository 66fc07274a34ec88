package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kura/internal/extract"
	"github.com/hyperjump/kura/internal/models"
	"go.uber.org/zap"
)

// DefaultExtensions are the document extensions read when none are configured.
var DefaultExtensions = []string{".txt", ".md"}

// Loader reads the documents of a directory.
type Loader struct {
	extractor  *extract.Extractor
	extensions []string
	logger     *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a logger; skipped files are logged at warn level.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// WithExtensions restricts the loader to files with the given extensions (case-insensitive).
func WithExtensions(exts []string) LoaderOption {
	return func(ld *Loader) {
		if len(exts) > 0 {
			ld.extensions = exts
		}
	}
}

// NewLoader creates a loader. extractor may be nil; when nil, files are read as plain text.
func NewLoader(extractor *extract.Extractor, opts ...LoaderOption) *Loader {
	ld := &Loader{
		extractor:  extractor,
		extensions: DefaultExtensions,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Extensions returns the extensions the loader accepts.
func (ld *Loader) Extensions() []string {
	return append([]string(nil), ld.extensions...)
}

// ReadDirectory lists the regular files directly inside dir (sorted by name) whose
// extension is accepted and returns their text. Files that cannot be read are skipped
// and reported, never fatal. The only error is an unreadable directory or a cancelled ctx.
func (ld *Loader) ReadDirectory(ctx context.Context, dir string) ([]models.Document, []models.SkippedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read document directory %s: %w", dir, err)
	}
	var (
		docs    []models.Document
		skipped []models.SkippedFile
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !ExtensionAllowed(filepath.Ext(name), ld.extensions) {
			continue
		}
		path := filepath.Join(dir, name)
		// Resolve symlinks so only regular files are read.
		info, err := os.Stat(path)
		if err != nil {
			skipped = append(skipped, ld.skip(name, err))
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		text, err := ld.read(path)
		if err != nil {
			skipped = append(skipped, ld.skip(name, err))
			continue
		}
		docs = append(docs, models.Document{SourceID: name, Path: path, Content: text})
		ld.logger.Debug("document loaded", zap.String("source_id", name), zap.Int("bytes", len(text)))
	}
	return docs, skipped, nil
}

func (ld *Loader) skip(sourceID string, err error) models.SkippedFile {
	ld.logger.Warn("skipping document", zap.String("source_id", sourceID), zap.Error(err))
	return models.SkippedFile{SourceID: sourceID, Reason: err.Error()}
}

func (ld *Loader) read(path string) (string, error) {
	if ld.extractor != nil {
		return ld.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// BuildPassages chunks every document in order. Documents without content are reported
// as skipped.
func BuildPassages(docs []models.Document, chunker *Chunker) ([]models.Passage, []models.SkippedFile, int) {
	var (
		passages []models.Passage
		skipped  []models.SkippedFile
		used     int
	)
	for _, doc := range docs {
		chunks := chunker.Chunk(doc.SourceID, doc.Content)
		if len(chunks) == 0 {
			skipped = append(skipped, models.SkippedFile{SourceID: doc.SourceID, Reason: "no text content"})
			continue
		}
		passages = append(passages, chunks...)
		used++
	}
	return passages, skipped, used
}

// ExtensionAllowed reports whether ext is in allowed (case-insensitive, dot optional).
// An empty allowed list accepts every extension.
func ExtensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
