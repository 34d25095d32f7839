package domain

import (
	"fmt"

	"github.com/cristianortiz/ledgerAuction/internal/ledger"
)

// Global state keys of the auction application. The parameter keys are
// written once at create; the lead/funded/closed keys are the mutable part.
const (
	KeySeller          = "seller"
	KeyAssetID         = "asset_id"
	KeyAssetAmount     = "amount"
	KeyStartTime       = "start_time"
	KeyEndTime         = "end_time"
	KeyReserve         = "reserve"
	KeyMinBidIncrement = "min_bid_increment"
	KeyLeadBidAmount   = "lead_bid_amount"
	KeyLeadBidAccount  = "lead_bid_account" // absent until the first bid lands
	KeyFunded          = "funded"
	KeyClosed          = "closed"
	KeySweepResidual   = "sweep_residual"
)

// AuctionStatus is the lifecycle phase derived from state plus the clock.
type AuctionStatus string

const (
	StatusCreated AuctionStatus = "created" // parameters stored, escrow unfunded
	StatusFunded  AuctionStatus = "funded"  // NFT deposited, bidding not started
	StatusOpen    AuctionStatus = "open"    // inside [start, end), accepting bids
	StatusEnded   AuctionStatus = "ended"   // past end time, settlement pending
	StatusClosed  AuctionStatus = "closed"  // terminal
)

// AuctionState is the mutable half of the auction's global state.
type AuctionState struct {
	LeadBidder    *ledger.Address // nil means no bid yet
	LeadBidAmount uint64
	Funded        bool
	Closed        bool
}

// AuctionView is the typed projection of an application's global state.
type AuctionView struct {
	AppID  ledger.AppID
	Params AuctionParameters
	State  AuctionState
}

// Status derives the lifecycle phase at the given block timestamp.
func (v *AuctionView) Status(now int64) AuctionStatus {
	switch {
	case v.State.Closed:
		return StatusClosed
	case !v.State.Funded:
		return StatusCreated
	case now < v.Params.StartTime:
		return StatusFunded
	case now < v.Params.EndTime:
		return StatusOpen
	default:
		return StatusEnded
	}
}

// MinimumNextBid returns the smallest amount the contract would admit right
// now: the reserve for a first bid, strictly above leader and at least
// leader+increment afterwards.
func (v *AuctionView) MinimumNextBid() uint64 {
	if v.State.LeadBidder == nil {
		return v.Params.Reserve
	}
	next := v.State.LeadBidAmount + v.Params.MinBidIncrement
	if next <= v.State.LeadBidAmount {
		next = v.State.LeadBidAmount + 1
	}
	return next
}

// DecodeGlobalState projects raw global state into a typed view. Missing
// mutable keys are tolerated (funded/closed default to false, leader to
// absent); missing parameter keys mean the state store is corrupt and yield
// ErrInvalidState rather than silent zeros.
func DecodeGlobalState(appID ledger.AppID, gs ledger.GlobalState) (*AuctionView, error) {
	view := &AuctionView{AppID: appID}

	seller, ok := gs[KeySeller]
	if !ok || seller.Kind != ledger.KindBytes || len(seller.Bytes) == 0 {
		return nil, fmt.Errorf("%w: missing seller", ErrInvalidState)
	}
	view.Params.Seller = ledger.Address(seller.Bytes)

	for _, slot := range []struct {
		key string
		dst *uint64
	}{
		{KeyAssetAmount, &view.Params.AssetAmount},
		{KeyReserve, &view.Params.Reserve},
		{KeyMinBidIncrement, &view.Params.MinBidIncrement},
	} {
		v, ok := gs[slot.key]
		if !ok || v.Kind != ledger.KindUint {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidState, slot.key)
		}
		*slot.dst = v.Uint
	}

	asset, ok := gs[KeyAssetID]
	if !ok || asset.Kind != ledger.KindUint {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidState, KeyAssetID)
	}
	view.Params.AssetID = ledger.AssetID(asset.Uint)

	start, okStart := gs[KeyStartTime]
	end, okEnd := gs[KeyEndTime]
	if !okStart || !okEnd {
		return nil, fmt.Errorf("%w: missing auction window", ErrInvalidState)
	}
	view.Params.StartTime = int64(start.Uint)
	view.Params.EndTime = int64(end.Uint)
	view.Params.SweepResidual = gs[KeySweepResidual].Uint != 0

	view.State.Funded = gs[KeyFunded].Uint != 0
	view.State.Closed = gs[KeyClosed].Uint != 0
	view.State.LeadBidAmount = gs[KeyLeadBidAmount].Uint
	if lead, ok := gs[KeyLeadBidAccount]; ok && len(lead.Bytes) > 0 {
		addr := ledger.Address(lead.Bytes)
		view.State.LeadBidder = &addr
	}
	return view, nil
}
