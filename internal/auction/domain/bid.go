package domain

import (
	"time"

	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/google/uuid"
)

// Bid is the record of an admitted bid. Only the current leader's funds stay
// escrowed on the ledger; history rows like this one are the off-ledger trace.
type Bid struct {
	ID       uuid.UUID
	AppID    ledger.AppID
	Bidder   ledger.Address
	Amount   uint64
	Round    uint64
	PlacedAt time.Time
}

// NewBid creates a new Bid instance.
func NewBid(appID ledger.AppID, bidder ledger.Address, amount, round uint64, placedAt time.Time) *Bid {
	return &Bid{
		ID:       uuid.New(),
		AppID:    appID,
		Bidder:   bidder,
		Amount:   amount,
		Round:    round,
		PlacedAt: placedAt,
	}
}

// BidOutcome reports how an admission changed the lead: either a first bid,
// or a replacement carrying the refund owed to the previous leader. The
// refund and the lead update commit in the same atomic group.
type BidOutcome struct {
	Replaced     bool
	RefundTo     ledger.Address
	RefundAmount uint64
}

// CloseOutcomeKind discriminates the two terminal settlement branches.
type CloseOutcomeKind string

const (
	SettledToWinner  CloseOutcomeKind = "settled_to_winner"
	ReturnedToSeller CloseOutcomeKind = "returned_to_seller"
)

// CloseOutcome reports how an auction settled.
type CloseOutcome struct {
	Kind   CloseOutcomeKind
	Winner *ledger.Address // set for SettledToWinner
	Amount uint64          // winning amount paid to the seller
}
