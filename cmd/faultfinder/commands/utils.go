// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Builds the store/index/embedder stack from config and snapshot
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/harper/faultfinder/internal/config"
	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/llm"
	"github.com/harper/faultfinder/internal/snapshot"
	"github.com/harper/faultfinder/internal/store"
	openai "github.com/sashabaranov/go-openai"
)

// stack bundles the pieces most commands need.
type stack struct {
	cfg   *config.Config
	store *store.Store
	index *index.Index
}

// openStack loads configuration and the persisted snapshot. When no
// snapshot exists yet the stack starts empty; corrupt snapshots are
// reported, not repaired.
func openStack() (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	st := store.New()
	ix := index.New()
	if err := snapshot.Load(cfg.SnapshotPath, st, ix); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
	}
	return &stack{cfg: cfg, store: st, index: ix}, nil
}

// newEmbedder builds the OpenAI embedder from config.
func newEmbedder(cfg *config.Config) (llm.Embedder, error) {
	return llm.NewOpenAIEmbedder(llm.OpenAIConfig{
		APIKey:     cfg.OpenAIKey,
		Model:      openai.EmbeddingModel(cfg.EmbeddingModel),
		BatchSize:  cfg.EmbedBatch,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
	})
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns an error if n is not positive.
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
