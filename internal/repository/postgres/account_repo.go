package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"salespipe/internal/domain"
	"salespipe/internal/port"
)

type accountRepo struct {
	db *sqlx.DB
}

// NewAccountRepo creates a new PostgreSQL-backed AccountRepository.
func NewAccountRepo(db *sqlx.DB) port.AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, acc *domain.Account) error {
	now := time.Now().UTC()
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	acc.CreatedAt = now
	acc.UpdatedAt = now

	query := `INSERT INTO accounts (
		id, domain, name, industry, website, phone, city, country,
		employee_size, revenue, description, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		acc.ID, acc.Domain, acc.Name, acc.Industry, acc.Website, acc.Phone,
		acc.City, acc.Country, acc.EmployeeSize, acc.Revenue, acc.Description,
		acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("accountRepo.Create: %w", err)
	}
	return nil
}

func (r *accountRepo) Update(ctx context.Context, acc *domain.Account) error {
	acc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET
			name = $1, industry = $2, website = $3, phone = $4, city = $5,
			country = $6, employee_size = $7, revenue = $8, description = $9,
			updated_at = $10
		 WHERE id = $11`,
		acc.Name, acc.Industry, acc.Website, acc.Phone, acc.City,
		acc.Country, acc.EmployeeSize, acc.Revenue, acc.Description,
		acc.UpdatedAt, acc.ID)
	if err != nil {
		return fmt.Errorf("accountRepo.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) FindByDomain(ctx context.Context, dom string) (*domain.Account, error) {
	var acc domain.Account
	err := r.db.GetContext(ctx, &acc,
		"SELECT * FROM accounts WHERE domain = $1", strings.ToLower(dom))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("accountRepo.FindByDomain: %w", err)
	}
	return &acc, nil
}

// isDuplicateKey detects a unique constraint violation (SQLSTATE 23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
