package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
)

// AuctionViewDTO is the output DTO exposing the projected auction state to
// the HTTP/WS surface.
type AuctionViewDTO struct {
	AppID           uint64  `json:"app_id"`
	Escrow          string  `json:"escrow"`
	Seller          string  `json:"seller"`
	AssetID         uint64  `json:"asset_id"`
	AssetAmount     uint64  `json:"asset_amount"`
	StartTime       int64   `json:"start_time"`
	EndTime         int64   `json:"end_time"`
	Reserve         uint64  `json:"reserve"`
	MinBidIncrement uint64  `json:"min_bid_increment"`
	LeadBidder      *string `json:"lead_bidder,omitempty"`
	LeadBidAmount   uint64  `json:"lead_bid_amount"`
	Funded          bool    `json:"funded"`
	Closed          bool    `json:"closed"`
	Status          string  `json:"status"`
	MinimumNextBid  uint64  `json:"minimum_next_bid"`
}

// GetAuctionStateUseCase reads and decodes the auction's global state into
// the typed view the driver and callers decide against.
type GetAuctionStateUseCase struct {
	client ledger.Client
}

// NewGetAuctionStateUseCase creates a new instance of GetAuctionStateUseCase.
func NewGetAuctionStateUseCase(client ledger.Client) *GetAuctionStateUseCase {
	return &GetAuctionStateUseCase{client: client}
}

func (uc *GetAuctionStateUseCase) Execute(ctx context.Context, appID ledger.AppID) (*AuctionViewDTO, error) {
	view, now, err := uc.project(appID)
	if err != nil {
		return nil, err
	}

	dto := &AuctionViewDTO{
		AppID:           uint64(view.AppID),
		Escrow:          string(ledger.EscrowAddress(view.AppID)),
		Seller:          string(view.Params.Seller),
		AssetID:         uint64(view.Params.AssetID),
		AssetAmount:     view.Params.AssetAmount,
		StartTime:       view.Params.StartTime,
		EndTime:         view.Params.EndTime,
		Reserve:         view.Params.Reserve,
		MinBidIncrement: view.Params.MinBidIncrement,
		LeadBidAmount:   view.State.LeadBidAmount,
		Funded:          view.State.Funded,
		Closed:          view.State.Closed,
		Status:          string(view.Status(now)),
		MinimumNextBid:  view.MinimumNextBid(),
	}
	if view.State.LeadBidder != nil {
		lead := string(*view.State.LeadBidder)
		dto.LeadBidder = &lead
	}
	return dto, nil
}

// project fetches and decodes the global state, returning the ledger's
// current timestamp alongside so status checks use chain time, not wall time.
func (uc *GetAuctionStateUseCase) project(appID ledger.AppID) (*domain.AuctionView, int64, error) {
	gs, err := uc.client.ApplicationGlobalState(appID)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownApp) {
			return nil, 0, fmt.Errorf("%w: app %d", domain.ErrAuctionNotFound, appID)
		}
		return nil, 0, fmt.Errorf("get auction state: %w", err)
	}
	view, err := domain.DecodeGlobalState(appID, gs)
	if err != nil {
		return nil, 0, err
	}
	_, now := uc.client.LastRoundTimestamp()
	return view, now, nil
}
