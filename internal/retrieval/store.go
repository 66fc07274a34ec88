// Package retrieval owns the vector index and its parallel passages and drives the
// build, load, save and search lifecycle.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kura/internal/embedding"
	"github.com/hyperjump/kura/internal/extract"
	"github.com/hyperjump/kura/internal/indexer"
	"github.com/hyperjump/kura/internal/models"
	"github.com/hyperjump/kura/internal/storage"
	"github.com/hyperjump/kura/internal/vector"
)

// Origin tells how a ready store got its index.
type Origin string

const (
	OriginNone   Origin = ""
	OriginBuilt  Origin = "built"
	OriginLoaded Origin = "loaded"
)

// Store is safe for concurrent use. Searches share a read lock; builds and loads
// prepare the new index without any lock and swap it in under the write lock.
type Store struct {
	client     embedding.Client
	extractor  *extract.Extractor
	extensions []string
	model      string
	logger     *zap.Logger

	buildMu sync.Mutex

	mu        sync.RWMutex
	index     *vector.FlatIndex
	passages  []models.Passage
	origin    Origin
	buildID   string
	updatedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithExtractor sets the text extractor used for document files.
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Store) { s.extractor = e }
}

// WithExtensions restricts builds to files with these extensions.
func WithExtensions(exts []string) Option {
	return func(s *Store) { s.extensions = exts }
}

// WithEmbeddingModel records the model name in saved manifests and stats.
func WithEmbeddingModel(model string) Option {
	return func(s *Store) { s.model = model }
}

// NewStore creates an uninitialized store that embeds with client.
func NewStore(client embedding.Client, opts ...Option) *Store {
	s := &Store{
		client:    client,
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether the store holds an index.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// BuildFromDirectory reads every accepted file in docDir, chunks it, embeds all
// passages and replaces the current index. Unreadable files are skipped and listed
// in the report. On any error the store keeps its previous state.
func (s *Store) BuildFromDirectory(ctx context.Context, docDir string, chunkSize, overlap int) (*models.BuildReport, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	chunker, err := indexer.NewChunker(chunkSize, overlap)
	if err != nil {
		return nil, err
	}

	loader := indexer.NewLoader(s.extractor,
		indexer.WithLogger(s.logger),
		indexer.WithExtensions(s.extensions))
	docs, skipped, err := loader.ReadDirectory(ctx, docDir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", models.ErrNoDocuments, err)
	}

	passages, empty, used := indexer.BuildPassages(docs, chunker)
	for _, sk := range empty {
		s.logger.Warn("skipping document", zap.String("source_id", sk.SourceID), zap.String("reason", sk.Reason))
	}
	skipped = append(skipped, empty...)
	if used == 0 {
		return nil, fmt.Errorf("%w: %s has no readable documents with extensions %v",
			models.ErrNoDocuments, docDir, loader.Extensions())
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	s.logger.Info("embedding passages",
		zap.Int("documents", used),
		zap.Int("passages", len(texts)),
		zap.Int("skipped", len(skipped)))

	vecs, err := s.client.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, models.NewProviderError("embedding", false,
			fmt.Errorf("got %d vectors for %d passages", len(vecs), len(texts)))
	}
	index, err := vector.Build(vecs)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.index = index
	s.passages = passages
	s.origin = OriginBuilt
	s.buildID = ""
	s.updatedAt = time.Now()
	s.mu.Unlock()

	report := &models.BuildReport{
		Documents: used,
		Passages:  len(passages),
		Dimension: index.Dimension(),
		Skipped:   skipped,
		Duration:  time.Since(start),
	}
	s.logger.Info("index built",
		zap.String("dir", docDir),
		zap.Int("documents", report.Documents),
		zap.Int("passages", report.Passages),
		zap.Int("dimension", report.Dimension),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// LoadFromStorage replaces the current index with the one persisted in dir.
func (s *Store) LoadFromStorage(ctx context.Context, dir string) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	index, passages, manifest, err := storage.Load(ctx, dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.index = index
	s.passages = passages
	s.origin = OriginLoaded
	s.buildID = manifest.BuildID
	s.updatedAt = manifest.CreatedAt
	s.mu.Unlock()

	if manifest.EmbeddingModel != "" && s.model != "" && manifest.EmbeddingModel != s.model {
		s.logger.Warn("persisted index was built with a different embedding model",
			zap.String("persisted", manifest.EmbeddingModel),
			zap.String("configured", s.model))
	}
	s.logger.Info("index loaded",
		zap.String("dir", dir),
		zap.String("build_id", manifest.BuildID),
		zap.Int("passages", len(passages)),
		zap.Int("dimension", index.Dimension()))
	return nil
}

// SaveToStorage writes the current index to dir, replacing its contents.
// Searches keep running while the index is serialized.
func (s *Store) SaveToStorage(ctx context.Context, dir string) error {
	s.mu.RLock()
	index, passages := s.index, s.passages
	if index == nil {
		s.mu.RUnlock()
		return models.ErrNotReady
	}
	manifest, err := storage.Save(ctx, dir, index, passages, storage.WithEmbeddingModel(s.model))
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.index == index {
		s.buildID = manifest.BuildID
	}
	s.mu.Unlock()
	s.logger.Info("index saved",
		zap.String("dir", dir),
		zap.String("build_id", manifest.BuildID),
		zap.Int("passages", manifest.PassageCount))
	return nil
}

// Search embeds query and returns up to k passages, closest first, each scored
// 1/(1+distance). It returns either the complete ranking or an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]*models.ScoredPassage, error) {
	s.mu.RLock()
	index, passages := s.index, s.passages
	s.mu.RUnlock()
	if index == nil {
		return nil, models.ErrNotReady
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", models.ErrInvalidArgument)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}

	qv, err := s.client.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	neighbors, err := index.Search(qv, k)
	if err != nil {
		return nil, err
	}

	results := make([]*models.ScoredPassage, len(neighbors))
	for i, n := range neighbors {
		results[i] = &models.ScoredPassage{
			Passage:  passages[n.Position],
			Position: n.Position,
			Distance: n.Distance,
			Score:    Score(n.Distance),
			Rank:     i + 1,
		}
	}
	return results, nil
}

// Score maps a squared L2 distance to (0, 1]; 1 only at distance 0.
func Score(distance float64) float64 {
	return 1 / (1 + distance)
}

// LoadOrBuildOptions configures LoadOrBuild.
type LoadOrBuildOptions struct {
	IndexDir  string
	DocDir    string
	ChunkSize int
	Overlap   int
	// Force skips loading and always rebuilds.
	Force bool
}

// LoadOrBuild loads the persisted index unless it is missing, corrupt or Force is set;
// otherwise it builds from DocDir and saves the result. The report is nil when the
// index was loaded.
func (s *Store) LoadOrBuild(ctx context.Context, opts LoadOrBuildOptions) (*models.BuildReport, error) {
	if !opts.Force {
		err := s.LoadFromStorage(ctx, opts.IndexDir)
		switch {
		case err == nil:
			return nil, nil
		case errors.Is(err, models.ErrNotFound):
			s.logger.Info("no persisted index, building", zap.String("dir", opts.IndexDir))
		case errors.Is(err, models.ErrCorruptState):
			s.logger.Warn("persisted index is corrupt, rebuilding", zap.String("dir", opts.IndexDir), zap.Error(err))
		default:
			return nil, err
		}
	}
	report, err := s.BuildFromDirectory(ctx, opts.DocDir, opts.ChunkSize, opts.Overlap)
	if err != nil {
		return nil, err
	}
	if err := s.SaveToStorage(ctx, opts.IndexDir); err != nil {
		return report, fmt.Errorf("save index: %w", err)
	}
	return report, nil
}
