package domain

import (
	"time"

	"github.com/cristianortiz/ledgerAuction/internal/ledger"
)

// AuctionRecord is the off-ledger history row of an auction. The ledger's
// global state stays the source of truth; this record is what the service
// persists for listing and audit.
type AuctionRecord struct {
	AppID           ledger.AppID
	Seller          ledger.Address
	AssetID         ledger.AssetID
	AssetAmount     uint64
	StartTime       int64
	EndTime         int64
	Reserve         uint64
	MinBidIncrement uint64
	Funded          bool
	Closed          bool
	Winner          *ledger.Address
	FinalPrice      uint64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewAuctionRecord builds the initial history row for a freshly created
// application.
func NewAuctionRecord(appID ledger.AppID, params *AuctionParameters) *AuctionRecord {
	return &AuctionRecord{
		AppID:           appID,
		Seller:          params.Seller,
		AssetID:         params.AssetID,
		AssetAmount:     params.AssetAmount,
		StartTime:       params.StartTime,
		EndTime:         params.EndTime,
		Reserve:         params.Reserve,
		MinBidIncrement: params.MinBidIncrement,
	}
}
