package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"salespipe/internal/domain"
	"salespipe/internal/port"
)

type opportunityRepo struct {
	db *sqlx.DB
}

// NewOpportunityRepo creates a new PostgreSQL-backed OpportunityRepository.
func NewOpportunityRepo(db *sqlx.DB) port.OpportunityRepository {
	return &opportunityRepo{db: db}
}

func (r *opportunityRepo) Create(ctx context.Context, opp *domain.Opportunity) error {
	now := time.Now().UTC()
	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	opp.CreatedAt = now
	opp.UpdatedAt = now

	query := `INSERT INTO opportunities (
		id, opportunity_number, account_id, account_domain, name, stage,
		amount, close_date, won, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		opp.ID, opp.OpportunityNumber, opp.AccountID, opp.AccountDomain,
		opp.Name, opp.Stage, opp.Amount, opp.CloseDate, opp.Won,
		opp.CreatedAt, opp.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("opportunityRepo.Create: %w", err)
	}
	return nil
}

func (r *opportunityRepo) Update(ctx context.Context, opp *domain.Opportunity) error {
	opp.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE opportunities SET
			account_id = $1, account_domain = $2, name = $3, stage = $4,
			amount = $5, close_date = $6, won = $7, updated_at = $8
		 WHERE id = $9`,
		opp.AccountID, opp.AccountDomain, opp.Name, opp.Stage,
		opp.Amount, opp.CloseDate, opp.Won, opp.UpdatedAt, opp.ID)
	if err != nil {
		return fmt.Errorf("opportunityRepo.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *opportunityRepo) FindByNumber(ctx context.Context, number string) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	err := r.db.GetContext(ctx, &opp,
		"SELECT * FROM opportunities WHERE opportunity_number = $1", number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("opportunityRepo.FindByNumber: %w", err)
	}
	return &opp, nil
}

func (r *opportunityRepo) LinkProduct(ctx context.Context, link *domain.OpportunityProduct) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = time.Now().UTC()

	// Re-importing the same file must not multiply links.
	query := `INSERT INTO opportunity_products (
		id, opportunity_id, item_number, quantity, price, created_at
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (opportunity_id, item_number) DO UPDATE SET
		quantity = EXCLUDED.quantity, price = EXCLUDED.price`

	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.OpportunityID, link.ItemNumber, link.Quantity,
		link.Price, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("opportunityRepo.LinkProduct: %w", err)
	}
	return nil
}
