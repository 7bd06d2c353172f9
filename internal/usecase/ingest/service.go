// Package ingest builds the textbook vector index from markdown sources.
package ingest

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

// store is the consumer interface for index maintenance (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	Exists(ctx context.Context, key string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchCount(ctx context.Context, index string) (int, error)
}

// Config holds the ingestion settings.
type Config struct {
	IndexName       string
	KeyPrefix       string
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
	BatchSize       int
	Recreate        bool // drop and rebuild the index before loading
}

// Report summarizes one ingestion run.
type Report struct {
	Files    int
	Chunks   int
	Skipped  int // chunks already present and not re-embedded
	Indexed  int // documents in the index after the run
	TokensIn int
}

// Service ingests a markdown corpus into the vector index.
type Service struct {
	store    store
	embedder domain.BatchEmbedder
	cfg      Config
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(s store, embedder domain.BatchEmbedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	return &Service{store: s, embedder: embedder, cfg: cfg, logger: logger}
}

// Run loads, chunks, embeds, and upserts the corpus under root, then
// reports the resulting index size.
func (s *Service) Run(ctx context.Context, root string) (Report, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return Report{}, err
	}

	chunks, err := loadChunks(root)
	if err != nil {
		return Report{}, fmt.Errorf("load corpus: %w", err)
	}
	if len(chunks) == 0 {
		return Report{}, fmt.Errorf("no markdown chunks found under %s", root)
	}

	files := make(map[string]struct{})
	for _, c := range chunks {
		files[c.File] = struct{}{}
	}

	report := Report{Files: len(files), Chunks: len(chunks)}

	// Incremental runs skip chunks that are already indexed, so only new or
	// renamed content pays for embedding.
	if !s.cfg.Recreate {
		pending := make([]domain.Chunk, 0, len(chunks))
		for _, c := range chunks {
			present, err := s.store.Exists(ctx, s.chunkKey(c))
			if err != nil {
				return report, fmt.Errorf("check chunk %s: %w", s.chunkKey(c), err)
			}
			if present {
				report.Skipped++
				continue
			}
			pending = append(pending, c)
		}
		chunks = pending
	}

	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		emb, err := s.embedder.BatchEmbed(ctx, texts)
		if err != nil {
			return report, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		report.TokensIn += emb.TotalTokens

		items := make([]db.HashSetItem, len(batch))
		for i, c := range batch {
			items[i] = db.HashSetItem{
				Key:    s.chunkKey(c),
				Fields: chunkFields(c, emb.Embeddings[i]),
			}
		}
		if err := s.store.HSetMulti(ctx, items); err != nil {
			return report, fmt.Errorf("upsert batch at %d: %w", start, err)
		}

		s.logger.Info("Ingested batch",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("total", len(chunks)),
		)
	}

	indexed, err := s.store.SearchCount(ctx, s.cfg.IndexName)
	if err != nil {
		s.logger.Warn("Failed to count indexed documents", zap.Error(err))
	}
	report.Indexed = indexed

	return report, nil
}

// ensureIndex creates the chunk index when missing, or rebuilds it when
// Recreate is set.
func (s *Service) ensureIndex(ctx context.Context) error {
	exists, err := s.store.IndexExists(ctx, s.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}

	if exists {
		if !s.cfg.Recreate {
			return nil
		}
		if err := s.store.DropIndex(ctx, s.cfg.IndexName); err != nil {
			return fmt.Errorf("drop index: %w", err)
		}
	}

	def := &db.IndexDefinition{
		Name:     s.cfg.IndexName,
		Prefixes: []string{s.cfg.KeyPrefix + "chunk:"},
		Fields: []db.IndexField{
			{Name: "text", Type: db.IndexFieldText},
			{Name: "chapter", Type: db.IndexFieldTag},
			{Name: "file", Type: db.IndexFieldTag},
			{Name: "chunk_index", Type: db.IndexFieldNumeric},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorDim:         s.cfg.Dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           s.cfg.HNSWM,
				VectorEFConstruct: s.cfg.HNSWEFConstruct,
			},
		},
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index definition: %w", err)
	}
	if err := s.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.logger.Info("Created chunk index",
		zap.String("index", s.cfg.IndexName),
		zap.Int("dimensions", s.cfg.Dimensions),
	)
	return nil
}

func (s *Service) chunkKey(c domain.Chunk) string {
	return s.cfg.KeyPrefix + "chunk:" + c.File + ":" + strconv.Itoa(c.Index)
}

func chunkFields(c domain.Chunk, vector []float32) map[string]string {
	return map[string]string{
		"text":        c.Text,
		"chapter":     c.Chapter,
		"file":        c.File,
		"chunk_index": strconv.Itoa(c.Index),
		"vector":      db.VectorBytes(vector),
	}
}
