// Command ragdex-ingest chunks a markdown corpus, embeds it, and loads the
// vector index. Run it once before starting the API server, and again after
// the textbook changes.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	"github.com/kailas-cloud/ragdex/internal/domain"
	logpkg "github.com/kailas-cloud/ragdex/internal/logger"
	openaiProv "github.com/kailas-cloud/ragdex/internal/transport/openai"
	"github.com/kailas-cloud/ragdex/internal/transport/restembed"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
)

func main() {
	docsDir := flag.String("docs", "docs", "directory with markdown sources")
	recreate := flag.Bool("recreate", false, "drop and rebuild the index before loading")
	flag.Parse()

	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ingestion",
		zap.String("docs", *docsDir),
		zap.String("index", cfg.Index.Name),
		zap.Bool("recreate", *recreate),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	embedder := buildEmbedder(&cfg.Embedding, logger)

	svc := ingestuc.New(store, embedder, ingestuc.Config{
		IndexName:       cfg.Index.Name,
		KeyPrefix:       cfg.Index.KeyPrefix,
		Dimensions:      cfg.Index.Dimensions,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
		BatchSize:       cfg.Embedding.IngestBatchSize,
		Recreate:        *recreate,
	}, logger)

	report, err := svc.Run(ctx, *docsDir)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion complete",
		zap.Int("files", report.Files),
		zap.Int("chunks", report.Chunks),
		zap.Int("skipped", report.Skipped),
		zap.Int("indexed", report.Indexed),
		zap.Int("tokens", report.TokensIn),
	)
}

// batchEmbedder is what the providers actually expose; ingestion only needs
// the batch half, the instruction decorator needs both.
type batchEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// buildEmbedder picks the provider transport and applies the document
// instruction prefix when configured.
func buildEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) domain.BatchEmbedder {
	var base batchEmbedder
	if cfg.Provider == "rest" {
		base = restembed.New(&restembed.Config{
			Endpoint:       cfg.BaseURL,
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			Timeout:        time.Duration(cfg.TimeoutSec) * time.Second,
			MaxRetries:     cfg.MaxRetries,
			RetryBaseDelay: time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond,
			Logger:         logger,
		})
	} else {
		base = openaiProv.NewEmbedder(&openaiProv.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Dimensions:     cfg.Dimensions,
			Provider:       cfg.Provider,
			MaxRetries:     cfg.MaxRetries,
			RetryBaseDelay: time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond,
			Timeout:        time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:         logger,
		})
	}

	if cfg.DocumentInstruction != "" {
		return domain.NewInstructionEmbedder(base, cfg.DocumentInstruction)
	}
	return base
}
