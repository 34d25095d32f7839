package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/ledgerAuction/internal/auction/contract"
	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/cristianortiz/ledgerAuction/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// CreateAuctionDTO is the input for creating an auction application.
type CreateAuctionDTO struct {
	Creator         ledger.Address
	Seller          ledger.Address
	AssetID         ledger.AssetID
	AssetAmount     uint64
	StartTime       int64
	EndTime         int64
	Reserve         uint64
	MinBidIncrement uint64
	SweepResidual   bool
}

// CreateAuctionUseCase submits the app-create transaction that stores the
// immutable auction parameters and records the auction in history.
type CreateAuctionUseCase struct {
	client      ledger.Client
	auctionRepo domain.AuctionRepository
}

// NewCreateAuctionUseCase creates a new instance of CreateAuctionUseCase.
func NewCreateAuctionUseCase(client ledger.Client, auctionRepo domain.AuctionRepository) *CreateAuctionUseCase {
	return &CreateAuctionUseCase{client: client, auctionRepo: auctionRepo}
}

func (uc *CreateAuctionUseCase) Execute(ctx context.Context, cmd CreateAuctionDTO) (ledger.AppID, error) {
	params := &domain.AuctionParameters{
		Seller:          cmd.Seller,
		AssetID:         cmd.AssetID,
		AssetAmount:     cmd.AssetAmount,
		StartTime:       cmd.StartTime,
		EndTime:         cmd.EndTime,
		Reserve:         cmd.Reserve,
		MinBidIncrement: cmd.MinBidIncrement,
		SweepResidual:   cmd.SweepResidual,
	}
	// same check the contract runs at create; failing here saves the fee
	if err := params.Validate(); err != nil {
		log.Warn("CreateAuctionUseCase: rejected locally",
			zap.String("seller", string(cmd.Seller)),
			zap.Error(err),
		)
		return 0, err
	}

	group := []ledger.Transaction{{
		Type:    ledger.TxAppCreate,
		Sender:  cmd.Creator,
		Program: contract.New(),
		Args:    domain.EncodeCreateArgs(params),
	}}
	conf, err := uc.client.Submit(ctx, group)
	if err != nil {
		return 0, fmt.Errorf("create auction: %w", err)
	}

	record := domain.NewAuctionRecord(conf.App, params)
	if err := uc.auctionRepo.Save(ctx, record); err != nil {
		// the application exists on the ledger; history lag is logged, not fatal
		log.Error("CreateAuctionUseCase: failed to record auction history",
			zap.Uint64("app_id", uint64(conf.App)),
			zap.Error(err),
		)
	}

	log.Info("CreateAuctionUseCase: auction created",
		zap.Uint64("app_id", uint64(conf.App)),
		zap.String("escrow", string(ledger.EscrowAddress(conf.App))),
	)
	return conf.App, nil
}
