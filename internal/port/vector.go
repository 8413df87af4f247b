package port

import (
	"context"

	"salespipe/internal/domain"
)

// VectorStore abstracts the embedding backend. StoreVectors embeds and
// persists chunk content under a scope and returns how many chunks were
// stored. It is safe to call per chunk; the core records failures in the
// import summary and does not retry.
type VectorStore interface {
	StoreVectors(ctx context.Context, scope string, chunks []domain.Chunk) (int, error)
}
