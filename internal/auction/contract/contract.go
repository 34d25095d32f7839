package contract

import (
	"fmt"

	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/cristianortiz/ledgerAuction/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Methods the auction application answers to.
const (
	MethodSetup = "setup"
	MethodBid   = "bid"
	MethodClose = "close"
)

// Auction is the on-ledger program of a single-asset English auction. It is
// the only authority over the escrow: every transfer out of the escrow is an
// inner operation issued here, inside the ledger's atomic group execution, so
// a rejected call can never leave a refund without its matching lead update
// or vice versa.
type Auction struct{}

// New returns the auction program to attach to an app-create transaction.
func New() *Auction { return &Auction{} }

// OnCreate validates the auction parameters and seeds the global state:
// no leader, zero lead amount, unfunded, not closed.
func (a *Auction) OnCreate(call *ledger.Call) error {
	params, err := domain.DecodeCreateArgs(call.Args)
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	call.SetGlobal(domain.KeySeller, ledger.AddressValue(params.Seller))
	call.SetGlobal(domain.KeyAssetID, ledger.UintValue(uint64(params.AssetID)))
	call.SetGlobal(domain.KeyAssetAmount, ledger.UintValue(params.AssetAmount))
	call.SetGlobal(domain.KeyStartTime, ledger.UintValue(uint64(params.StartTime)))
	call.SetGlobal(domain.KeyEndTime, ledger.UintValue(uint64(params.EndTime)))
	call.SetGlobal(domain.KeyReserve, ledger.UintValue(params.Reserve))
	call.SetGlobal(domain.KeyMinBidIncrement, ledger.UintValue(params.MinBidIncrement))
	call.SetGlobal(domain.KeyLeadBidAmount, ledger.UintValue(0))
	call.SetGlobal(domain.KeyFunded, ledger.UintValue(0))
	call.SetGlobal(domain.KeyClosed, ledger.UintValue(0))
	if params.SweepResidual {
		call.SetGlobal(domain.KeySweepResidual, ledger.UintValue(1))
	}
	// KeyLeadBidAccount stays absent until the first bid is admitted

	log.Info("auction created",
		zap.Uint64("app_id", uint64(call.App())),
		zap.String("seller", string(params.Seller)),
		zap.Uint64("asset_id", uint64(params.AssetID)),
		zap.Int64("start_time", params.StartTime),
		zap.Int64("end_time", params.EndTime),
		zap.Uint64("reserve", params.Reserve),
		zap.Uint64("min_bid_increment", params.MinBidIncrement),
	)
	return nil
}

// OnCall dispatches the mutable operations of the lifecycle.
func (a *Auction) OnCall(call *ledger.Call) error {
	switch call.Method {
	case MethodSetup:
		return a.setup(call)
	case MethodBid:
		return a.bid(call)
	case MethodClose:
		return a.close(call)
	default:
		return fmt.Errorf("%w: unknown method %q", ledger.ErrRejected, call.Method)
	}
}

// setup transitions Created -> Funded. The group must be
// [payment -> escrow, this call, asset transfer -> escrow] so the escrow
// reserve and the NFT deposit land atomically with the flag flip.
func (a *Auction) setup(call *ledger.Call) error {
	if call.GlobalUint(domain.KeyClosed) != 0 {
		return domain.ErrAlreadyClosed
	}
	if call.GlobalUint(domain.KeyFunded) != 0 {
		return domain.ErrAlreadyFunded
	}
	seller := a.seller(call)
	if call.Sender != call.Creator() && call.Sender != seller {
		return domain.ErrNotAuthorized
	}

	pay, xfer, err := setupGroupShape(call)
	if err != nil {
		return err
	}
	if pay.Receiver != call.Escrow() || pay.Amount == 0 {
		return fmt.Errorf("%w: setup payment must seed the escrow reserve", ledger.ErrRejected)
	}
	assetID := ledger.AssetID(call.GlobalUint(domain.KeyAssetID))
	if xfer.Receiver != call.Escrow() {
		return fmt.Errorf("%w: asset deposit must target the escrow", ledger.ErrRejected)
	}
	if xfer.Asset != assetID || xfer.Amount != call.GlobalUint(domain.KeyAssetAmount) {
		return domain.ErrAssetMismatch
	}

	// opt the escrow in before the deposit transaction executes
	if err := call.OptInEscrow(assetID); err != nil {
		return err
	}
	call.SetGlobal(domain.KeyFunded, ledger.UintValue(1))

	log.Info("auction funded",
		zap.Uint64("app_id", uint64(call.App())),
		zap.Uint64("asset_id", uint64(assetID)),
		zap.Uint64("asset_amount", xfer.Amount),
		zap.Uint64("escrow_seed", pay.Amount),
	)
	return nil
}

// bid admits a bid while the auction is funded and inside [start, end). The
// refund of the previous leader and the lead update are one atomic
// transition; the escrow never holds two bids, and never none.
func (a *Auction) bid(call *ledger.Call) error {
	if call.GlobalUint(domain.KeyClosed) != 0 {
		return domain.ErrAlreadyClosed
	}
	if call.GlobalUint(domain.KeyFunded) == 0 {
		return domain.ErrAuctionNotOpen
	}
	now := call.Now()
	if now < int64(call.GlobalUint(domain.KeyStartTime)) || now >= int64(call.GlobalUint(domain.KeyEndTime)) {
		return domain.ErrAuctionNotOpen
	}

	pay, err := bidGroupShape(call)
	if err != nil {
		return err
	}
	amount := pay.Amount

	outcome := domain.BidOutcome{}
	leadAmount := call.GlobalUint(domain.KeyLeadBidAmount)
	if lead, ok := call.Global(domain.KeyLeadBidAccount); ok && len(lead.Bytes) > 0 {
		if amount <= leadAmount || amount < leadAmount+call.GlobalUint(domain.KeyMinBidIncrement) {
			return fmt.Errorf("%w: %d does not beat leader %d by the minimum increment %d",
				domain.ErrBidTooLow, amount, leadAmount, call.GlobalUint(domain.KeyMinBidIncrement))
		}
		outcome.Replaced = true
		outcome.RefundTo = ledger.Address(lead.Bytes)
		outcome.RefundAmount = leadAmount
	} else if amount < call.GlobalUint(domain.KeyReserve) {
		return fmt.Errorf("%w: %d is below the reserve %d", domain.ErrBidTooLow, amount, call.GlobalUint(domain.KeyReserve))
	}

	if outcome.Replaced {
		if err := call.Pay(outcome.RefundTo, outcome.RefundAmount); err != nil {
			return err
		}
	}
	call.SetGlobal(domain.KeyLeadBidAccount, ledger.AddressValue(pay.Sender))
	call.SetGlobal(domain.KeyLeadBidAmount, ledger.UintValue(amount))

	log.Info("bid admitted",
		zap.Uint64("app_id", uint64(call.App())),
		zap.String("bidder", string(pay.Sender)),
		zap.Uint64("amount", amount),
		zap.Bool("replaced_leader", outcome.Replaced),
		zap.Uint64("refund_amount", outcome.RefundAmount),
	)
	return nil
}

// close settles the auction after end time. Permissionless: anyone may call
// it. Exactly one branch runs; the closed flag makes the state terminal.
func (a *Auction) close(call *ledger.Call) error {
	if call.GlobalUint(domain.KeyClosed) != 0 {
		return domain.ErrAlreadyClosed
	}
	if call.Now() < int64(call.GlobalUint(domain.KeyEndTime)) {
		return domain.ErrTooEarly
	}

	seller := a.seller(call)
	assetID := ledger.AssetID(call.GlobalUint(domain.KeyAssetID))
	funded := call.GlobalUint(domain.KeyFunded) != 0

	lead, hasLead := call.Global(domain.KeyLeadBidAccount)
	if hasLead && len(lead.Bytes) > 0 {
		winner := ledger.Address(lead.Bytes)
		// the winner must be opted in; if not, the whole group fails and
		// the auction stays open for a later close attempt
		if err := call.CloseOutAsset(winner, assetID); err != nil {
			return err
		}
		if err := call.Pay(seller, call.GlobalUint(domain.KeyLeadBidAmount)); err != nil {
			return err
		}
		log.Info("auction settled to winner",
			zap.Uint64("app_id", uint64(call.App())),
			zap.String("winner", string(winner)),
			zap.Uint64("amount", call.GlobalUint(domain.KeyLeadBidAmount)),
		)
	} else if funded {
		if err := call.CloseOutAsset(seller, assetID); err != nil {
			return err
		}
		log.Info("auction returned to seller",
			zap.Uint64("app_id", uint64(call.App())),
			zap.String("seller", string(seller)),
		)
	}

	if call.GlobalUint(domain.KeySweepResidual) != 0 {
		if residual := call.Balance(call.Escrow(), ledger.NativeAsset); residual > 0 {
			if err := call.Pay(call.Creator(), residual); err != nil {
				return err
			}
		}
	}
	call.SetGlobal(domain.KeyClosed, ledger.UintValue(1))
	return nil
}

func (a *Auction) seller(call *ledger.Call) ledger.Address {
	v, _ := call.Global(domain.KeySeller)
	return ledger.Address(v.Bytes)
}

// setupGroupShape checks [payment, app call, asset transfer] around the call.
func setupGroupShape(call *ledger.Call) (pay, xfer *ledger.Transaction, err error) {
	if call.Index < 1 || call.Index+1 >= len(call.Group) {
		return nil, nil, fmt.Errorf("%w: setup group must be [payment, call, asset transfer]", ledger.ErrRejected)
	}
	p := &call.Group[call.Index-1]
	x := &call.Group[call.Index+1]
	if p.Type != ledger.TxPayment || x.Type != ledger.TxAssetTransfer {
		return nil, nil, fmt.Errorf("%w: setup group must be [payment, call, asset transfer]", ledger.ErrRejected)
	}
	return p, x, nil
}

// bidGroupShape checks [payment, app call] with both sent by the bidder.
func bidGroupShape(call *ledger.Call) (*ledger.Transaction, error) {
	if call.Index < 1 {
		return nil, fmt.Errorf("%w: bid group must be [payment, call]", ledger.ErrRejected)
	}
	pay := &call.Group[call.Index-1]
	if pay.Type != ledger.TxPayment || pay.Receiver != call.Escrow() {
		return nil, fmt.Errorf("%w: bid payment must fund the escrow", ledger.ErrRejected)
	}
	if pay.Sender != call.Sender {
		return nil, fmt.Errorf("%w: bid payment sender must match the caller", ledger.ErrRejected)
	}
	return pay, nil
}
