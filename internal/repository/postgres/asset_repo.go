package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"salespipe/internal/domain"
	"salespipe/internal/port"
)

type assetRepo struct {
	db *sqlx.DB
}

// NewAssetRepo creates a new PostgreSQL-backed AssetRepository.
func NewAssetRepo(db *sqlx.DB) port.AssetRepository {
	return &assetRepo{db: db}
}

func (r *assetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	asset.CreatedAt = time.Now().UTC()

	query := `INSERT INTO assets (
		id, user_id, file_name, mime_type, file_size, category,
		storage_key, block_count, chunk_count, vector_scope, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		asset.ID, asset.UserID, asset.FileName, asset.MIMEType, asset.FileSize,
		asset.Category, asset.StorageKey, asset.BlockCount, asset.ChunkCount,
		asset.VectorScope, asset.CreatedAt)
	if err != nil {
		return fmt.Errorf("assetRepo.Create: %w", err)
	}
	return nil
}

type chunkRepo struct {
	db *sqlx.DB
}

// NewChunkRepo creates a new PostgreSQL-backed ChunkRepository. Embeddings
// are stored as JSONB float arrays alongside the chunk text.
func NewChunkRepo(db *sqlx.DB) port.ChunkRepository {
	return &chunkRepo{db: db}
}

func (r *chunkRepo) CreateBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("chunkRepo.CreateBatch: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	query := `INSERT INTO chunks (id, asset_id, scope, position, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range chunks {
		c := &chunks[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = now
		if _, err := tx.ExecContext(ctx, query,
			c.ID, c.AssetID, c.Scope, c.Position, c.Content, c.CreatedAt); err != nil {
			return fmt.Errorf("chunkRepo.CreateBatch: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("chunkRepo.CreateBatch: commit: %w", err)
	}
	return nil
}

func (r *chunkRepo) StoreEmbedding(ctx context.Context, chunkID uuid.UUID, embedding []float32) error {
	payload, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("chunkRepo.StoreEmbedding: marshal: %w", err)
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE chunks SET embedding = $1 WHERE id = $2", payload, chunkID)
	if err != nil {
		return fmt.Errorf("chunkRepo.StoreEmbedding: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
