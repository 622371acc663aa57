// ABOUTME: OpenAI embedding provider using text-embedding-3-small (configurable)
// ABOUTME: Retries retryable failures with bounded exponential backoff, cancellable via context
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/faultfinder/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultEmbeddingModel is the default model for embeddings.
const DefaultEmbeddingModel = openai.SmallEmbedding3

// OpenAIConfig holds configuration for the OpenAI embedder.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // optional override, used by tests
	Model      openai.EmbeddingModel
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// OpenAIEmbedder implements Embedder against the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

// NewOpenAIEmbedder creates an embedder with the given configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
	}, nil
}

// EmbedText embeds a single text.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in provider-sized batches, preserving order.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// embedBatch calls the embeddings API for one batch, retrying retryable
// failures with exponential backoff up to the attempt ceiling.
func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var lastErr *ProviderError

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(e.retryDelay, attempt)); err != nil {
				return nil, err
			}
		}

		vectors, perr := e.embedOnce(ctx, texts)
		if perr == nil {
			return vectors, nil
		}
		lastErr = perr
		if !perr.Retryable {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float64, *ProviderError) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &ProviderError{
			Retryable: true,
			Err:       fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	// Responses are not guaranteed to arrive in input order; Index says
	// where each vector belongs.
	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, &ProviderError{
				Retryable: false,
				Err:       fmt.Errorf("embedding index %d out of range", d.Index),
			}
		}
		vec := make([]float64, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float64(v)
		}
		vectors[d.Index] = vec
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, &ProviderError{
				Retryable: true,
				Err:       fmt.Errorf("no embedding returned for input %d", i),
			}
		}
	}
	return vectors, nil
}

// classifyError maps transport failures to the retryable/terminal split:
// 429 and 5xx are retryable, other HTTP statuses are terminal, and anything
// without a status (network errors, timeouts) is retryable.
func classifyError(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Retryable: apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500,
			Err:       err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Retryable: reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500,
			Err:       err,
		}
	}
	return &ProviderError{Retryable: true, Err: err}
}
