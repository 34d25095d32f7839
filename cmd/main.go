package main

import (
	"context"

	accountpg "github.com/cristianortiz/ledgerAuction/internal/account/infra/repository/postgres"
	"github.com/cristianortiz/ledgerAuction/internal/auction/application"
	auctionhttp "github.com/cristianortiz/ledgerAuction/internal/auction/infra/http"
	auctionpg "github.com/cristianortiz/ledgerAuction/internal/auction/infra/repository/postgres"
	auctionws "github.com/cristianortiz/ledgerAuction/internal/auction/infra/websocket"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/cristianortiz/ledgerAuction/internal/shared/config"
	"github.com/cristianortiz/ledgerAuction/internal/shared/db"
	"github.com/cristianortiz/ledgerAuction/internal/shared/db/migrations"
	"github.com/cristianortiz/ledgerAuction/internal/shared/httpserver"
	"github.com/cristianortiz/ledgerAuction/internal/shared/logger"
	"github.com/cristianortiz/ledgerAuction/internal/shared/websocket"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting ledgerAuction server...")

	cfg := config.GetConfig()

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	legacyPool, err := db.GetPostgresV4Pool(ctx)
	if err != nil {
		log.Fatal("Legacy database connection failed", zap.Error(err))
	}
	defer legacyPool.Close()

	// the in-process ledger substrate; against a real network this would be
	// a client wrapping the platform SDK
	chain := ledger.WithConfirmTimeout(ledger.New(ledger.Options{
		Fee: cfg.LedgerFee,
	}), cfg.ConfirmTimeout)

	auctionRepo := auctionpg.NewAuctionRepository(pool)
	bidRepo := auctionpg.NewBidRepository(pool)
	accountRepo := accountpg.NewAccountRepository(legacyPool)

	stateUC := application.NewGetAuctionStateUseCase(chain)
	createUC := application.NewCreateAuctionUseCase(chain, auctionRepo)
	setupUC := application.NewSetupAuctionUseCase(chain, stateUC, auctionRepo, cfg.EscrowSeed)
	bidUC := application.NewPlaceBidUseCase(chain, stateUC, bidRepo)
	closeUC := application.NewCloseAuctionUseCase(chain, stateUC, auctionRepo)
	service := application.NewAuctionService(createUC, setupUC, bidUC, closeUC, stateUC)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	wsHandler := auctionws.NewAuctionWSHandler(service, accountRepo, hub)
	go wsHandler.ListenForMessages(ctx)

	server := httpserver.NewServer()
	auctionhttp.NewHandler(service, bidRepo, auctionRepo, cfg.SweepResidual).RegisterRoutes(server.App())
	wsHandler.RegisterRoutes(ctx, server.App())

	if err := server.Start(cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
