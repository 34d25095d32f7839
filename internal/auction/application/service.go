package application

import (
	"context"

	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
)

// AuctionService is the application interface of the auction module: the
// public operations surface any transport (HTTP, WS, CLI) wraps.
type AuctionService interface {
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (ledger.AppID, error)
	SetupAuction(ctx context.Context, cmd SetupAuctionDTO) error
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error)
	CloseAuction(ctx context.Context, cmd CloseAuctionDTO) (*domain.CloseOutcome, error)
	GetAuctionState(ctx context.Context, appID ledger.AppID) (*AuctionViewDTO, error)
}

type auctionService struct {
	createUC *CreateAuctionUseCase
	setupUC  *SetupAuctionUseCase
	bidUC    *PlaceBidUseCase
	closeUC  *CloseAuctionUseCase
	stateUC  *GetAuctionStateUseCase
}

// NewAuctionService aggregates the use cases behind the service interface.
func NewAuctionService(createUC *CreateAuctionUseCase, setupUC *SetupAuctionUseCase, bidUC *PlaceBidUseCase, closeUC *CloseAuctionUseCase, stateUC *GetAuctionStateUseCase) AuctionService {
	return &auctionService{
		createUC: createUC,
		setupUC:  setupUC,
		bidUC:    bidUC,
		closeUC:  closeUC,
		stateUC:  stateUC,
	}
}

// CreateAuction implements AuctionService.
func (as *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (ledger.AppID, error) {
	return as.createUC.Execute(ctx, cmd)
}

// SetupAuction implements AuctionService.
func (as *auctionService) SetupAuction(ctx context.Context, cmd SetupAuctionDTO) error {
	return as.setupUC.Execute(ctx, cmd)
}

// PlaceBid implements AuctionService.
func (as *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	return as.bidUC.Execute(ctx, cmd)
}

// CloseAuction implements AuctionService.
func (as *auctionService) CloseAuction(ctx context.Context, cmd CloseAuctionDTO) (*domain.CloseOutcome, error) {
	return as.closeUC.Execute(ctx, cmd)
}

// GetAuctionState implements AuctionService.
func (as *auctionService) GetAuctionState(ctx context.Context, appID ledger.AppID) (*AuctionViewDTO, error) {
	return as.stateUC.Execute(ctx, appID)
}
