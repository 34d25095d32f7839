package websocket

import "time"

// MessageType defines ws message type
type MessageType string

const (
	MessageTypeClientBid           MessageType = "client_bid"            // client msg to place a bid
	MessageTypeServerAuctionUpdate MessageType = "server_auction_update" // server msg with auction update
	MessageTypeServerError         MessageType = "server_error"          // server msg indicating error
	MessageTypeServerInitialState  MessageType = "server_initial_state"  // server msg with auction initial state
)

// BaseMessage is base struct for all the WS messages, includes a Type field
// for identify the message type
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is the DTO for a bid message sent by the client. The
// bidder is an account id registered with the service; the handler resolves
// it to a ledger address.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		AppID     uint64 `json:"app_id"`
		AccountID string `json:"account_id"`
		Amount    uint64 `json:"amount"`
	} `json:"payload"`
}

// ServerAuctionUpdateMessage is the DTO for an auction update broadcast by
// the server after a bid is admitted.
type ServerAuctionUpdateMessage struct {
	BaseMessage
	Payload struct {
		AppID          uint64  `json:"app_id"`
		Status         string  `json:"status"`
		LeadBidder     *string `json:"lead_bidder,omitempty"`
		LeadBidAmount  uint64  `json:"lead_bid_amount"`
		MinimumNextBid uint64  `json:"minimum_next_bid"`
		EndTime        int64   `json:"end_time"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string `json:"error"`
	} `json:"payload"`
}

// ServerInitialStateMessage is the DTO for the auction state sent to a
// client right after it connects.
type ServerInitialStateMessage struct {
	BaseMessage
	Payload struct {
		AppID           uint64    `json:"app_id"`
		Seller          string    `json:"seller"`
		AssetID         uint64    `json:"asset_id"`
		StartTime       int64     `json:"start_time"`
		EndTime         int64     `json:"end_time"`
		Reserve         uint64    `json:"reserve"`
		MinBidIncrement uint64    `json:"min_bid_increment"`
		Status          string    `json:"status"`
		LeadBidder      *string   `json:"lead_bidder,omitempty"`
		LeadBidAmount   uint64    `json:"lead_bid_amount"`
		MinimumNextBid  uint64    `json:"minimum_next_bid"`
		SentAt          time.Time `json:"sent_at"`
	} `json:"payload"`
}
