package vector

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"salespipe/internal/config"
	"salespipe/internal/domain"
	"salespipe/internal/port"
)

// embeddingStore embeds chunk content through an OpenAI-compatible API and
// persists the vectors via the chunk repository.
type embeddingStore struct {
	embedder embeddings.Embedder
	chunks   port.ChunkRepository
	logger   *zap.Logger
}

// NewEmbeddingStore creates a VectorStore backed by an OpenAI-compatible
// embedding endpoint. Local services that take no credentials can leave the
// API key empty.
func NewEmbeddingStore(cfg *config.VectorConfig, chunks port.ChunkRepository, logger *zap.Logger) (port.VectorStore, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("vector.NewEmbeddingStore: client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("vector.NewEmbeddingStore: embedder: %w", err)
	}

	return &embeddingStore{
		embedder: embedder,
		chunks:   chunks,
		logger:   logger,
	}, nil
}

func (s *embeddingStore) StoreVectors(ctx context.Context, scope string, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embeddingStore.StoreVectors: embed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embeddingStore.StoreVectors: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	stored := 0
	for i := range chunks {
		if err := s.chunks.StoreEmbedding(ctx, chunks[i].ID, vectors[i]); err != nil {
			s.logger.Warn("embeddingStore.StoreVectors: persist failed",
				zap.String("scope", scope),
				zap.String("chunk_id", chunks[i].ID.String()),
				zap.Error(err))
			continue
		}
		chunks[i].Embedding = vectors[i]
		stored++
	}
	return stored, nil
}

// noopStore satisfies VectorStore when no embedding backend is configured.
type noopStore struct{}

// NewNoopStore returns a VectorStore that stores nothing. Imports still
// succeed; the chunks remain queryable without embeddings.
func NewNoopStore() port.VectorStore {
	return noopStore{}
}

func (noopStore) StoreVectors(ctx context.Context, scope string, chunks []domain.Chunk) (int, error) {
	return 0, nil
}
