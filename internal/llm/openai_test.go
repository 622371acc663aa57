// ABOUTME: Tests for the OpenAI embedder against a stub HTTP server
// ABOUTME: Covers batch ordering, retry on 429, and terminal failure classification
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type embeddingDatum struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingResponse struct {
	Object string           `json:"object"`
	Data   []embeddingDatum `json:"data"`
	Model  string           `json:"model"`
}

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) (*OpenAIEmbedder, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	embedder, err := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1",
		BatchSize:  2,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}
	return embedder, srv
}

func TestEmbedTexts_PreservesInputOrder(t *testing.T) {
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		// Return data out of order; the client must reorder by index.
		resp := embeddingResponse{Object: "list", Model: "text-embedding-3-small"}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingDatum{
				Object:    "embedding",
				Index:     i,
				Embedding: []float64{float64(i), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("failed to encode response: %v", err)
		}
	})

	// Three texts with batch size 2 exercises the batch loop.
	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 0 || vectors[1][0] != 1 {
		t.Errorf("vectors not in input order: %v", vectors)
	}
}

func TestEmbedText_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_exceeded"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingResponse{
			Object: "list",
			Data:   []embeddingDatum{{Object: "embedding", Index: 0, Embedding: []float64{1, 2, 3}}},
		})
	})

	vec, err := embedder.EmbedText(context.Background(), "bearing overheating")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3-dimensional vector, got %d", len(vec))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 calls (one retry), got %d", got)
	}
}

func TestEmbedText_TerminalErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid input","type":"invalid_request_error"}}`))
	})

	_, err := embedder.EmbedText(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if perr.Retryable {
		t.Error("expected terminal (non-retryable) error for 400")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 call for terminal error, got %d", got)
	}
}

func TestEmbedText_ContextCancellationAbortsRetries(t *testing.T) {
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := embedder.EmbedText(ctx, "anything")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestNewOpenAIEmbedder_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(OpenAIConfig{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
