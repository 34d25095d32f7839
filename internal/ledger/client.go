package ledger

import (
	"context"
	"fmt"
	"time"
)

// Client is the surface the off-chain driver consumes: submit-and-confirm
// plus the read side. *Ledger satisfies it; against a real network this would
// wrap the platform SDK instead.
type Client interface {
	Submit(ctx context.Context, group []Transaction) (Confirmation, error)
	ApplicationGlobalState(app AppID) (GlobalState, error)
	AccountBalances(addr Address) (map[AssetID]uint64, error)
	LastRoundTimestamp() (round uint64, unixTime int64)
}

// WithConfirmTimeout bounds every Submit of the wrapped client with its own
// deadline, so callers without one still time out instead of waiting forever.
func WithConfirmTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		return c
	}
	return &timeoutClient{Client: c, timeout: d}
}

type timeoutClient struct {
	Client
	timeout time.Duration
}

func (c *timeoutClient) Submit(ctx context.Context, group []Transaction) (Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.Client.Submit(ctx, group)
}

// Program is the contract logic that runs inside the ledger. Its methods
// execute under the ledger's single-writer lock, so a returned error discards
// every effect of the enclosing group.
type Program interface {
	OnCreate(call *Call) error
	OnCall(call *Call) error
}

// Call is the execution context handed to a program. Inner operations move
// funds out of the escrow only; nothing else may debit it.
type Call struct {
	ledger *Ledger
	app    *appData
	appID  AppID

	Sender Address
	Method string
	Args   [][]byte
	Group  []Transaction
	Index  int
}

// App returns the called application's ID.
func (c *Call) App() AppID { return c.appID }

// Escrow returns the application's escrow address.
func (c *Call) Escrow() Address { return c.app.escrow }

// Creator returns the account that created the application.
func (c *Call) Creator() Address { return c.app.creator }

// Now returns the current block timestamp.
func (c *Call) Now() int64 { return c.ledger.clock.Now() }

// Global reads a global state slot.
func (c *Call) Global(key string) (Value, bool) {
	v, ok := c.app.global[key]
	return v, ok
}

// GlobalUint reads a uint slot, zero when absent.
func (c *Call) GlobalUint(key string) uint64 {
	return c.app.global[key].Uint
}

// SetGlobal writes a global state slot.
func (c *Call) SetGlobal(key string, v Value) {
	c.app.global[key] = v
}

// DeleteGlobal removes a global state slot.
func (c *Call) DeleteGlobal(key string) {
	delete(c.app.global, key)
}

// Balance reads an account's holding of an asset.
func (c *Call) Balance(addr Address, asset AssetID) uint64 {
	acct, ok := c.ledger.accounts[addr]
	if !ok {
		return 0
	}
	return acct.balances[asset]
}

// Pay sends native tokens from the escrow. Inner transfers carry no fee.
func (c *Call) Pay(to Address, amount uint64) error {
	return c.ledger.move(c.app.escrow, to, NativeAsset, amount)
}

// TransferAsset sends asset units from the escrow.
func (c *Call) TransferAsset(to Address, asset AssetID, amount uint64) error {
	return c.ledger.move(c.app.escrow, to, asset, amount)
}

// CloseOutAsset sends the escrow's entire holding of an asset to the receiver
// and drops the escrow's opt-in.
func (c *Call) CloseOutAsset(to Address, asset AssetID) error {
	escrow := c.ledger.getAccount(c.app.escrow)
	held, ok := escrow.balances[asset]
	if !ok {
		return fmt.Errorf("%w: escrow does not hold asset %d", ErrRejected, asset)
	}
	if err := c.ledger.move(c.app.escrow, to, asset, held); err != nil {
		return err
	}
	delete(escrow.balances, asset)
	return nil
}

// OptInEscrow opts the escrow account in to an asset so it can receive it.
func (c *Call) OptInEscrow(asset AssetID) error {
	if !c.ledger.assets[asset] {
		return fmt.Errorf("%w: asset %d does not exist", ErrRejected, asset)
	}
	escrow := c.ledger.getAccount(c.app.escrow)
	if _, ok := escrow.balances[asset]; !ok {
		escrow.balances[asset] = 0
	}
	return nil
}
