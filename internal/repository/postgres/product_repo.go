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

type productRepo struct {
	db *sqlx.DB
}

// NewProductRepo creates a new PostgreSQL-backed ProductRepository.
func NewProductRepo(db *sqlx.DB) port.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, prod *domain.Product) error {
	now := time.Now().UTC()
	if prod.ID == uuid.Nil {
		prod.ID = uuid.New()
	}
	if prod.Version == 0 {
		prod.Version = 1
	}
	if prod.ValidFrom.IsZero() {
		prod.ValidFrom = now
	}
	prod.IsCurrent = true
	prod.CreatedAt = now
	prod.UpdatedAt = now

	query := `INSERT INTO products (
		id, item_number, name, category, unit_price, currency, active,
		version, valid_from, valid_to, is_current, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		prod.ID, prod.ItemNumber, prod.Name, prod.Category, prod.UnitPrice,
		prod.Currency, prod.Active, prod.Version, prod.ValidFrom, prod.ValidTo,
		prod.IsCurrent, prod.CreatedAt, prod.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("productRepo.Create: %w", err)
	}
	return nil
}

func (r *productRepo) Update(ctx context.Context, prod *domain.Product) error {
	prod.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET
			name = $1, category = $2, unit_price = $3, currency = $4,
			active = $5, updated_at = $6
		 WHERE id = $7`,
		prod.Name, prod.Category, prod.UnitPrice, prod.Currency,
		prod.Active, prod.UpdatedAt, prod.ID)
	if err != nil {
		return fmt.Errorf("productRepo.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *productRepo) FindCurrentByItemNumber(ctx context.Context, itemNumber string) (*domain.Product, error) {
	var prod domain.Product
	err := r.db.GetContext(ctx, &prod,
		"SELECT * FROM products WHERE item_number = $1 AND is_current = true",
		itemNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("productRepo.FindCurrentByItemNumber: %w", err)
	}
	return &prod, nil
}

func (r *productRepo) CloseCurrentVersion(ctx context.Context, itemNumber string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_current = false, valid_to = $1, updated_at = $2
		 WHERE item_number = $3 AND is_current = true`,
		at, time.Now().UTC(), itemNumber)
	if err != nil {
		return fmt.Errorf("productRepo.CloseCurrentVersion: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
