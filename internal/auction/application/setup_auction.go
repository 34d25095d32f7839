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

// SetupAuctionDTO is the input for funding an auction escrow.
type SetupAuctionDTO struct {
	AppID     ledger.AppID
	Funder    ledger.Address
	NFTHolder ledger.Address
}

// SetupAuctionUseCase assembles the setup group: escrow seed payment, the
// setup call, and the NFT deposit, in the exact order the contract checks.
type SetupAuctionUseCase struct {
	client      ledger.Client
	projection  *GetAuctionStateUseCase
	auctionRepo domain.AuctionRepository
	escrowSeed  uint64
}

// NewSetupAuctionUseCase creates a new instance of SetupAuctionUseCase.
func NewSetupAuctionUseCase(client ledger.Client, projection *GetAuctionStateUseCase, auctionRepo domain.AuctionRepository, escrowSeed uint64) *SetupAuctionUseCase {
	return &SetupAuctionUseCase{
		client:      client,
		projection:  projection,
		auctionRepo: auctionRepo,
		escrowSeed:  escrowSeed,
	}
}

func (uc *SetupAuctionUseCase) Execute(ctx context.Context, cmd SetupAuctionDTO) error {
	view, _, err := uc.projection.project(cmd.AppID)
	if err != nil {
		return err
	}
	// fast-fail checks; the contract remains the authority
	if view.State.Closed {
		return domain.ErrAlreadyClosed
	}
	if view.State.Funded {
		return domain.ErrAlreadyFunded
	}

	escrow := ledger.EscrowAddress(cmd.AppID)
	group := []ledger.Transaction{
		{Type: ledger.TxPayment, Sender: cmd.Funder, Receiver: escrow, Amount: uc.escrowSeed},
		{Type: ledger.TxAppCall, Sender: cmd.Funder, App: cmd.AppID, Method: contract.MethodSetup},
		{Type: ledger.TxAssetTransfer, Sender: cmd.NFTHolder, Receiver: escrow, Asset: view.Params.AssetID, Amount: view.Params.AssetAmount},
	}
	if _, err := uc.client.Submit(ctx, group); err != nil {
		return fmt.Errorf("setup auction %d: %w", cmd.AppID, err)
	}

	uc.recordFunded(ctx, cmd.AppID, view)

	log.Info("SetupAuctionUseCase: escrow funded",
		zap.Uint64("app_id", uint64(cmd.AppID)),
		zap.String("funder", string(cmd.Funder)),
		zap.String("nft_holder", string(cmd.NFTHolder)),
	)
	return nil
}

func (uc *SetupAuctionUseCase) recordFunded(ctx context.Context, appID ledger.AppID, view *domain.AuctionView) {
	record, err := uc.auctionRepo.GetByAppID(ctx, appID)
	if err != nil {
		if !errors.Is(err, domain.ErrAuctionNotFound) {
			log.Error("SetupAuctionUseCase: failed to load auction history",
				zap.Uint64("app_id", uint64(appID)), zap.Error(err))
			return
		}
		record = domain.NewAuctionRecord(appID, &view.Params)
	}
	record.Funded = true
	if err := uc.auctionRepo.Save(ctx, record); err != nil {
		log.Error("SetupAuctionUseCase: failed to record funding",
			zap.Uint64("app_id", uint64(appID)), zap.Error(err))
	}
}
