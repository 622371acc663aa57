// ABOUTME: Main entry point for the fault diagnosis HTTP server
// ABOUTME: Loads the snapshot (or seeds from CSV), serves the API, and flushes on exit
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/faultfinder/internal/api"
	"github.com/harper/faultfinder/internal/config"
	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/ingest"
	"github.com/harper/faultfinder/internal/llm"
	"github.com/harper/faultfinder/internal/query"
	"github.com/harper/faultfinder/internal/snapshot"
	"github.com/harper/faultfinder/internal/store"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY not set - diagnose and ingest will fail")
	}

	embedder, err := llm.NewOpenAIEmbedder(llm.OpenAIConfig{
		APIKey:     cfg.OpenAIKey,
		Model:      openai.EmbeddingModel(cfg.EmbeddingModel),
		BatchSize:  cfg.EmbedBatch,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		logger.Fatal("failed to initialize embedder", zap.Error(err))
	}

	st := store.New()
	ix := index.New()
	pipeline := ingest.New(st, ix, embedder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loadOrSeed(ctx, cfg, st, ix, pipeline, logger); err != nil {
		logger.Fatal("failed to initialize index", zap.Error(err))
	}
	logger.Info("index ready",
		zap.Int("records", st.Len()),
		zap.Int("dimension", ix.Dimension()))

	engine := query.New(st, ix, embedder)
	srv := api.New(api.Config{
		ListenAddr:   cfg.ListenAddr,
		SnapshotPath: cfg.SnapshotPath,
		DefaultTopK:  cfg.DefaultTopK,
	}, engine, pipeline, st, ix, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	// Final flush on shutdown so restarts pick up the latest state.
	if ix.Len() > 0 {
		if err := snapshot.Save(cfg.SnapshotPath, st, ix); err != nil {
			logger.Error("final snapshot flush failed", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}

// loadOrSeed restores the persisted snapshot, falling back to a rebuild
// from the seed CSV on first run. A corrupt snapshot is fatal: it requires
// an explicit rebuild, never silent repair.
func loadOrSeed(ctx context.Context, cfg *config.Config, st *store.Store, ix *index.Index, pipeline *ingest.Pipeline, logger *zap.Logger) error {
	err := snapshot.Load(cfg.SnapshotPath, st, ix)
	if err == nil {
		logger.Info("snapshot loaded", zap.String("path", cfg.SnapshotPath))
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	rows, err := ingest.ReadCSVRows(cfg.CSVPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no snapshot or seed CSV found, starting empty")
			return nil
		}
		return err
	}

	logger.Info("no snapshot found, seeding from CSV",
		zap.String("path", cfg.CSVPath),
		zap.Int("rows", len(rows)))
	summary, err := pipeline.IngestRows(ctx, rows, ingest.Rebuild)
	if err != nil {
		return err
	}
	logger.Info("seed ingest finished",
		zap.Int("accepted", summary.Accepted),
		zap.Int("failed", summary.Failed))
	return snapshot.Save(cfg.SnapshotPath, st, ix)
}
