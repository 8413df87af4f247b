package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"salespipe/internal/domain"
)

// AccountRepository defines the contract for account persistence. Accounts
// are deduplicated by their natural key, the web domain.
type AccountRepository interface {
	Create(ctx context.Context, acc *domain.Account) error
	Update(ctx context.Context, acc *domain.Account) error
	FindByDomain(ctx context.Context, dom string) (*domain.Account, error)
}

// ProductRepository defines the contract for product persistence. The
// natural key is the item number. With SCD enabled, CloseCurrentVersion
// ends the validity window of the live version before a new one is created.
type ProductRepository interface {
	Create(ctx context.Context, prod *domain.Product) error
	Update(ctx context.Context, prod *domain.Product) error
	FindCurrentByItemNumber(ctx context.Context, itemNumber string) (*domain.Product, error)
	CloseCurrentVersion(ctx context.Context, itemNumber string, at time.Time) error
}

// OpportunityRepository defines the contract for opportunity persistence.
// The natural key is the opportunity number.
type OpportunityRepository interface {
	Create(ctx context.Context, opp *domain.Opportunity) error
	Update(ctx context.Context, opp *domain.Opportunity) error
	FindByNumber(ctx context.Context, number string) (*domain.Opportunity, error)
	LinkProduct(ctx context.Context, link *domain.OpportunityProduct) error
}

// AssetRepository defines the contract for imported-document persistence.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
}

// ChunkRepository defines the contract for text chunk persistence.
type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []domain.Chunk) error
	StoreEmbedding(ctx context.Context, chunkID uuid.UUID, embedding []float32) error
}
