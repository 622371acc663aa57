// ABOUTME: Embedding provider contract consumed by ingestion and query paths
// ABOUTME: Defines the Embedder interface and the retryable/terminal ProviderError
package llm

import "context"

// Embedder turns text into fixed-length embedding vectors. Implementations
// may block on network calls; callers must not hold index locks across a
// call. Tests substitute a deterministic fake.
type Embedder interface {
	// EmbedText embeds a single text.
	EmbedText(ctx context.Context, text string) ([]float64, error)

	// EmbedTexts embeds a batch of texts, preserving order. The result has
	// exactly one vector per input text.
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// ProviderError wraps an embedding provider failure with the
// retryable/terminal distinction. Rate limits and server/network conditions
// are retryable; malformed requests and auth failures are terminal.
type ProviderError struct {
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Retryable {
		return "embedding provider error (retryable): " + e.Err.Error()
	}
	return "embedding provider error: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
