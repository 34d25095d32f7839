package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/ledgerAuction/internal/auction/contract"
	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"go.uber.org/zap"
)

// CloseAuctionDTO is the input for settling an auction. Any caller may close.
type CloseAuctionDTO struct {
	AppID  ledger.AppID
	Caller ledger.Address
}

// CloseAuctionUseCase submits the close call and reports which settlement
// branch ran. Callers racing to close should treat ErrAlreadyClosed as
// success-equivalent.
type CloseAuctionUseCase struct {
	client      ledger.Client
	projection  *GetAuctionStateUseCase
	auctionRepo domain.AuctionRepository
}

// NewCloseAuctionUseCase creates a new instance of CloseAuctionUseCase.
func NewCloseAuctionUseCase(client ledger.Client, projection *GetAuctionStateUseCase, auctionRepo domain.AuctionRepository) *CloseAuctionUseCase {
	return &CloseAuctionUseCase{client: client, projection: projection, auctionRepo: auctionRepo}
}

func (uc *CloseAuctionUseCase) Execute(ctx context.Context, cmd CloseAuctionDTO) (*domain.CloseOutcome, error) {
	view, now, err := uc.projection.project(cmd.AppID)
	if err != nil {
		return nil, err
	}
	if view.State.Closed {
		return nil, domain.ErrAlreadyClosed
	}
	if now < view.Params.EndTime {
		return nil, fmt.Errorf("%w: auction ends at %d, ledger time is %d", domain.ErrTooEarly, view.Params.EndTime, now)
	}

	// the settlement branch is determined by the pre-close leader
	outcome := &domain.CloseOutcome{Kind: domain.ReturnedToSeller}
	if view.State.LeadBidder != nil {
		outcome = &domain.CloseOutcome{
			Kind:   domain.SettledToWinner,
			Winner: view.State.LeadBidder,
			Amount: view.State.LeadBidAmount,
		}
	}

	group := []ledger.Transaction{
		{Type: ledger.TxAppCall, Sender: cmd.Caller, App: cmd.AppID, Method: contract.MethodClose},
	}
	if _, err := uc.client.Submit(ctx, group); err != nil {
		return nil, fmt.Errorf("close auction %d: %w", cmd.AppID, err)
	}

	uc.recordClosed(ctx, cmd.AppID, view, outcome)

	log.Info("CloseAuctionUseCase: auction closed",
		zap.Uint64("app_id", uint64(cmd.AppID)),
		zap.String("outcome", string(outcome.Kind)),
		zap.Uint64("final_price", outcome.Amount),
	)
	return outcome, nil
}

func (uc *CloseAuctionUseCase) recordClosed(ctx context.Context, appID ledger.AppID, view *domain.AuctionView, outcome *domain.CloseOutcome) {
	record, err := uc.auctionRepo.GetByAppID(ctx, appID)
	if err != nil {
		if !errors.Is(err, domain.ErrAuctionNotFound) {
			log.Error("CloseAuctionUseCase: failed to load auction history",
				zap.Uint64("app_id", uint64(appID)), zap.Error(err))
			return
		}
		record = domain.NewAuctionRecord(appID, &view.Params)
		record.Funded = view.State.Funded
	}
	record.Closed = true
	if outcome.Kind == domain.SettledToWinner {
		record.Winner = outcome.Winner
		record.FinalPrice = outcome.Amount
	}
	if err := uc.auctionRepo.Save(ctx, record); err != nil {
		log.Error("CloseAuctionUseCase: failed to record close",
			zap.Uint64("app_id", uint64(appID)), zap.Error(err))
	}
}
