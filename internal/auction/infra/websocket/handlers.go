package websocket

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	accountdomain "github.com/cristianortiz/ledgerAuction/internal/account/domain"
	"github.com/cristianortiz/ledgerAuction/internal/auction/application"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/cristianortiz/ledgerAuction/internal/shared/logger"
	"github.com/cristianortiz/ledgerAuction/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler handles the ws inbound msgs specific to the auction
// module: bid intake plus state broadcasts to everyone watching an auction.
type AuctionWSHandler struct {
	auctionService application.AuctionService
	accounts       accountdomain.AccountRepository
	hub            *websocket.Hub
}

// NewAuctionWSHandler creates a new instance of AuctionWSHandler.
func NewAuctionWSHandler(auctionService application.AuctionService, accounts accountdomain.AccountRepository, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		accounts:       accounts,
		hub:            hub,
	}
}

// RegisterRoutes mounts the ws endpoint. Each connection subscribes to one
// auction and gets the initial state right away.
func (h *AuctionWSHandler) RegisterRoutes(ctx context.Context, app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/auctions/:id", fiberws.New(func(conn *fiberws.Conn) {
		auctionID := conn.Params("id")
		client := &websocket.Client{
			Hub:       h.hub,
			Conn:      conn,
			Send:      make(chan []byte, 256),
			AuctionID: auctionID,
			ID:        uuid.NewString(),
		}
		h.hub.RegisterClient(client)
		go client.WritePump(ctx)
		h.sendInitialState(ctx, client)
		client.ReadPump(ctx)
	}))
}

// ListenForMessages starts a loop that listens on the hub inbound channel
// and processes every message.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

// processMessage dispatches the message by its type.
func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBidMessage(ctx, client, data)
	default:
		h.sendErrorToClient(client, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleClientBidMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "invalid bid message format")
		return
	}

	// the client may only bid on the auction it subscribed to
	if strconv.FormatUint(bidMsg.Payload.AppID, 10) != client.AuctionID {
		h.sendErrorToClient(client, "auction ID mismatch")
		return
	}

	accountID, err := uuid.Parse(bidMsg.Payload.AccountID)
	if err != nil {
		h.sendErrorToClient(client, "invalid account id")
		return
	}
	account, err := h.accounts.GetByID(ctx, accountID)
	if err != nil {
		h.sendErrorToClient(client, "unknown account")
		return
	}

	cmd := application.PlaceBidDTO{
		AppID:  ledger.AppID(bidMsg.Payload.AppID),
		Bidder: account.Address,
		Amount: bidMsg.Payload.Amount,
	}
	if _, err := h.auctionService.PlaceBid(ctx, cmd); err != nil {
		h.sendErrorToClient(client, err.Error())
		return
	}

	h.broadcastAuctionUpdate(ctx, client.AuctionID, cmd.AppID)
}

// broadcastAuctionUpdate pushes the refreshed projection to every watcher.
func (h *AuctionWSHandler) broadcastAuctionUpdate(ctx context.Context, auctionID string, appID ledger.AppID) {
	view, err := h.auctionService.GetAuctionState(ctx, appID)
	if err != nil {
		log.Error("failed to project auction state for broadcast",
			zap.Uint64("app_id", uint64(appID)), zap.Error(err))
		return
	}
	updateMsg := ServerAuctionUpdateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerAuctionUpdate},
	}
	updateMsg.Payload.AppID = view.AppID
	updateMsg.Payload.Status = view.Status
	updateMsg.Payload.LeadBidder = view.LeadBidder
	updateMsg.Payload.LeadBidAmount = view.LeadBidAmount
	updateMsg.Payload.MinimumNextBid = view.MinimumNextBid
	updateMsg.Payload.EndTime = view.EndTime

	data, err := json.Marshal(updateMsg)
	if err != nil {
		log.Error("failed to marshal auction update", zap.Error(err))
		return
	}
	h.hub.BroadcastToAuction(auctionID, data)
}

func (h *AuctionWSHandler) sendInitialState(ctx context.Context, client *websocket.Client) {
	appID, err := strconv.ParseUint(client.AuctionID, 10, 64)
	if err != nil {
		h.sendErrorToClient(client, "invalid auction id")
		return
	}
	view, err := h.auctionService.GetAuctionState(ctx, ledger.AppID(appID))
	if err != nil {
		h.sendErrorToClient(client, err.Error())
		return
	}

	initMsg := ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
	}
	initMsg.Payload.AppID = view.AppID
	initMsg.Payload.Seller = view.Seller
	initMsg.Payload.AssetID = view.AssetID
	initMsg.Payload.StartTime = view.StartTime
	initMsg.Payload.EndTime = view.EndTime
	initMsg.Payload.Reserve = view.Reserve
	initMsg.Payload.MinBidIncrement = view.MinBidIncrement
	initMsg.Payload.Status = view.Status
	initMsg.Payload.LeadBidder = view.LeadBidder
	initMsg.Payload.LeadBidAmount = view.LeadBidAmount
	initMsg.Payload.MinimumNextBid = view.MinimumNextBid
	initMsg.Payload.SentAt = time.Now()

	data, err := json.Marshal(initMsg)
	if err != nil {
		log.Error("failed to marshal initial state", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full, could not send initial state",
			zap.String("clientID", client.ID))
	}
}

// sendErrorToClient serializes and sends an error msg to a specific client.
func (h *AuctionWSHandler) sendErrorToClient(client *websocket.Client, errorMessage string) {
	errMsg := ServerErrorMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerError},
	}
	errMsg.Payload.Error = errorMessage
	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full or closed, could not send error msg")
	}
}
