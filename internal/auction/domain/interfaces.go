package domain

import (
	"context"

	"github.com/cristianortiz/ledgerAuction/internal/ledger"
)

// AuctionRepository persists auction history rows. Implementations upsert by
// app ID, so lifecycle transitions reuse Save.
type AuctionRepository interface {
	Save(ctx context.Context, record *AuctionRecord) error
	GetByAppID(ctx context.Context, appID ledger.AppID) (*AuctionRecord, error)
	ListOpen(ctx context.Context) ([]*AuctionRecord, error)
}

// BidRepository persists the bid trail of an auction.
type BidRepository interface {
	Save(ctx context.Context, bid *Bid) error
	GetByAuction(ctx context.Context, appID ledger.AppID) ([]*Bid, error)
	GetLatestByAuction(ctx context.Context, appID ledger.AppID) (*Bid, error)
}
