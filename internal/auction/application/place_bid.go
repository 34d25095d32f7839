package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/ledgerAuction/internal/auction/contract"
	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"go.uber.org/zap"
)

// PlaceBidDTO is the input for placing a bid.
type PlaceBidDTO struct {
	AppID  ledger.AppID
	Bidder ledger.Address
	Amount uint64
}

// PlaceBidUseCase builds the [payment, bid call] group for a bid. It re-runs
// the contract's timing and amount checks against the projected state first,
// so a bid the contract is guaranteed to reject never spends a fee; the
// contract's own checks stay the authority.
type PlaceBidUseCase struct {
	client     ledger.Client
	projection *GetAuctionStateUseCase
	bidRepo    domain.BidRepository
}

// NewPlaceBidUseCase creates a new instance of PlaceBidUseCase.
func NewPlaceBidUseCase(client ledger.Client, projection *GetAuctionStateUseCase, bidRepo domain.BidRepository) *PlaceBidUseCase {
	return &PlaceBidUseCase{client: client, projection: projection, bidRepo: bidRepo}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	if cmd.Amount == 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", domain.ErrBidTooLow)
	}

	view, now, err := uc.projection.project(cmd.AppID)
	if err != nil {
		return nil, err
	}
	if view.State.Closed {
		return nil, domain.ErrAlreadyClosed
	}
	if status := view.Status(now); status != domain.StatusOpen {
		log.Warn("PlaceBidUseCase: auction not open",
			zap.Uint64("app_id", uint64(cmd.AppID)),
			zap.String("status", string(status)),
			zap.String("bidder", string(cmd.Bidder)),
		)
		return nil, domain.ErrAuctionNotOpen
	}
	if cmd.Amount < view.MinimumNextBid() {
		log.Warn("PlaceBidUseCase: bid below minimum",
			zap.Uint64("app_id", uint64(cmd.AppID)),
			zap.Uint64("amount", cmd.Amount),
			zap.Uint64("minimum_next_bid", view.MinimumNextBid()),
		)
		return nil, fmt.Errorf("%w: minimum next bid is %d", domain.ErrBidTooLow, view.MinimumNextBid())
	}

	escrow := ledger.EscrowAddress(cmd.AppID)
	group := []ledger.Transaction{
		{Type: ledger.TxPayment, Sender: cmd.Bidder, Receiver: escrow, Amount: cmd.Amount},
		{Type: ledger.TxAppCall, Sender: cmd.Bidder, App: cmd.AppID, Method: contract.MethodBid},
	}
	conf, err := uc.client.Submit(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("place bid on auction %d: %w", cmd.AppID, err)
	}

	bid := domain.NewBid(cmd.AppID, cmd.Bidder, cmd.Amount, conf.Round, time.Unix(conf.Timestamp, 0))
	if err := uc.bidRepo.Save(ctx, bid); err != nil {
		// the bid is confirmed on the ledger; the history row is secondary
		log.Error("PlaceBidUseCase: failed to record bid history",
			zap.Uint64("app_id", uint64(cmd.AppID)),
			zap.String("bid_id", bid.ID.String()),
			zap.Error(err),
		)
	}

	log.Info("PlaceBidUseCase: bid placed",
		zap.Uint64("app_id", uint64(cmd.AppID)),
		zap.String("bidder", string(cmd.Bidder)),
		zap.Uint64("amount", cmd.Amount),
		zap.Uint64("round", conf.Round),
	)
	return bid, nil
}
