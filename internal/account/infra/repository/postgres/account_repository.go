package postgres

import (
	"context"
	"errors"

	"github.com/cristianortiz/ledgerAuction/internal/account/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/google/uuid"
	pgxv4 "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AccountRepository implements domain.AccountRepository for PostgreSQL.
// Still on the legacy pgx v4 pool.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Save inserts a new account.
func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (id, address, display_name) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, account.ID, string(account.Address), account.DisplayName)
	return err
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, address, display_name, created_at FROM accounts WHERE id = $1`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

// GetByAddress retrieves an account by its ledger address.
func (r *AccountRepository) GetByAddress(ctx context.Context, address ledger.Address) (*domain.Account, error) {
	query := `SELECT id, address, display_name, created_at FROM accounts WHERE address = $1`
	return r.scan(r.db.QueryRow(ctx, query, string(address)))
}

func (r *AccountRepository) scan(row pgxv4.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var address string
	err := row.Scan(&account.ID, &address, &account.DisplayName, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgxv4.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	account.Address = ledger.Address(address)
	return account, nil
}
