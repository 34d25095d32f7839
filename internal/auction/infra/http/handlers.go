package http

import (
	"errors"

	"github.com/cristianortiz/ledgerAuction/internal/auction/application"
	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/cristianortiz/ledgerAuction/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Handler exposes the auction module's public operations over HTTP.
type Handler struct {
	service      application.AuctionService
	bids         domain.BidRepository
	history      domain.AuctionRepository
	sweepDefault bool
}

// NewHandler creates a new instance of Handler. sweepDefault applies when a
// create request leaves sweep_residual unset.
func NewHandler(service application.AuctionService, bids domain.BidRepository, history domain.AuctionRepository, sweepDefault bool) *Handler {
	return &Handler{service: service, bids: bids, history: history, sweepDefault: sweepDefault}
}

// RegisterRoutes mounts the auction routes on the fiber app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Post("/auctions", h.createAuction)
	app.Get("/auctions", h.listOpenAuctions)
	app.Get("/auctions/:id", h.getAuction)
	app.Get("/auctions/:id/bids", h.listBids)
	app.Post("/auctions/:id/setup", h.setupAuction)
	app.Post("/auctions/:id/bids", h.placeBid)
	app.Post("/auctions/:id/close", h.closeAuction)
}

type createAuctionRequest struct {
	Creator         string `json:"creator"`
	Seller          string `json:"seller"`
	AssetID         uint64 `json:"asset_id"`
	AssetAmount     uint64 `json:"asset_amount"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	Reserve         uint64 `json:"reserve"`
	MinBidIncrement uint64 `json:"min_bid_increment"`
	SweepResidual   *bool  `json:"sweep_residual"`
}

func (h *Handler) createAuction(c *fiber.Ctx) error {
	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	sweep := h.sweepDefault
	if req.SweepResidual != nil {
		sweep = *req.SweepResidual
	}
	appID, err := h.service.CreateAuction(c.Context(), application.CreateAuctionDTO{
		Creator:         ledger.Address(req.Creator),
		Seller:          ledger.Address(req.Seller),
		AssetID:         ledger.AssetID(req.AssetID),
		AssetAmount:     req.AssetAmount,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Reserve:         req.Reserve,
		MinBidIncrement: req.MinBidIncrement,
		SweepResidual:   sweep,
	})
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"app_id": uint64(appID),
		"escrow": string(ledger.EscrowAddress(appID)),
	})
}

type setupAuctionRequest struct {
	Funder    string `json:"funder"`
	NFTHolder string `json:"nft_holder"`
}

func (h *Handler) setupAuction(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req setupAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	err = h.service.SetupAuction(c.Context(), application.SetupAuctionDTO{
		AppID:     appID,
		Funder:    ledger.Address(req.Funder),
		NFTHolder: ledger.Address(req.NFTHolder),
	})
	if err != nil {
		return h.renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type placeBidRequest struct {
	Bidder string `json:"bidder"`
	Amount uint64 `json:"amount"`
}

func (h *Handler) placeBid(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	bid, err := h.service.PlaceBid(c.Context(), application.PlaceBidDTO{
		AppID:  appID,
		Bidder: ledger.Address(req.Bidder),
		Amount: req.Amount,
	})
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bid_id":    bid.ID.String(),
		"bidder":    string(bid.Bidder),
		"amount":    bid.Amount,
		"round":     bid.Round,
		"placed_at": bid.PlacedAt,
	})
}

type closeAuctionRequest struct {
	Caller string `json:"caller"`
}

func (h *Handler) closeAuction(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req closeAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	outcome, err := h.service.CloseAuction(c.Context(), application.CloseAuctionDTO{
		AppID:  appID,
		Caller: ledger.Address(req.Caller),
	})
	if err != nil {
		return h.renderError(c, err)
	}
	resp := fiber.Map{"outcome": string(outcome.Kind), "amount": outcome.Amount}
	if outcome.Winner != nil {
		resp["winner"] = string(*outcome.Winner)
	}
	return c.JSON(resp)
}

func (h *Handler) getAuction(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	view, err := h.service.GetAuctionState(c.Context(), appID)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) listBids(c *fiber.Ctx) error {
	appID, err := appIDParam(c)
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	bids, err := h.bids.GetByAuction(c.Context(), appID)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(bids)
}

func (h *Handler) listOpenAuctions(c *fiber.Ctx) error {
	records, err := h.history.ListOpen(c.Context())
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(records)
}

func appIDParam(c *fiber.Ctx) (ledger.AppID, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return ledger.AppID(id), nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// renderError maps the error taxonomy onto HTTP statuses so callers can tell
// which precondition failed.
func (h *Handler) renderError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidParameters):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAuctionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyFunded),
		errors.Is(err, domain.ErrAlreadyClosed),
		errors.Is(err, domain.ErrAssetMismatch),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrAuctionNotOpen),
		errors.Is(err, domain.ErrTooEarly),
		errors.Is(err, domain.ErrNotAuthorized):
		status = fiber.StatusConflict
	case errors.Is(err, ledger.ErrConfirmTimeout):
		status = fiber.StatusGatewayTimeout
	case errors.Is(err, ledger.ErrRejected):
		status = fiber.StatusBadGateway
	default:
		log.Error("unhandled auction error", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
