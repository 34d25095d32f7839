package domain

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/google/uuid"
)

var ErrAccountNotFound = errors.New("account not found")

// Account links a service user to the ledger address their bids are sent
// from. Key custody is outside this service; the address is opaque here.
type Account struct {
	ID          uuid.UUID
	Address     ledger.Address
	DisplayName string
	CreatedAt   time.Time
}

// NewAccount registers a user with a freshly minted ledger address.
func NewAccount(displayName string) *Account {
	return &Account{
		ID:          uuid.New(),
		Address:     ledger.GenerateAddress(),
		DisplayName: displayName,
	}
}

type AccountRepository interface {
	Save(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByAddress(ctx context.Context, address ledger.Address) (*Account, error)
}
