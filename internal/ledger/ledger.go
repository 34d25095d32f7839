package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cristianortiz/ledgerAuction/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Options configures the simulated ledger.
type Options struct {
	Fee            uint64        // flat fee charged per outer transaction
	ConfirmLatency time.Duration // simulated confirmation delay, useful to exercise timeouts
	Clock          Clock         // nil means SystemClock
}

type account struct {
	// balances holds per-asset amounts. Presence of a non-native key is what
	// makes the account opted in to that asset.
	balances map[AssetID]uint64
}

type appData struct {
	program Program
	global  GlobalState
	creator Address
	escrow  Address
}

// Ledger is an in-process, single-writer ledger. Every submitted group
// executes atomically under one mutex, which models the platform's
// linearizable per-application execution: state is snapshotted before a group
// runs and restored wholesale if any transaction in it fails.
type Ledger struct {
	mu       sync.Mutex
	opts     Options
	clock    Clock
	accounts map[Address]*account
	apps     map[AppID]*appData
	escrows  map[Address]AppID
	assets   map[AssetID]bool
	nextApp  AppID
	nextAsst AssetID
	round    uint64
}

// New creates an empty simulated ledger.
func New(opts Options) *Ledger {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Ledger{
		opts:     opts,
		clock:    clock,
		accounts: make(map[Address]*account),
		apps:     make(map[AppID]*appData),
		escrows:  make(map[Address]AppID),
		assets:   map[AssetID]bool{NativeAsset: true},
		nextApp:  1,
		nextAsst: 1,
	}
}

// Fund credits native tokens to an account, creating it if needed. This is
// the faucet role the real network's dispenser plays for temporary accounts.
func (l *Ledger) Fund(addr Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.getAccount(addr).balances[NativeAsset] += amount
}

// CreateAsset mints a new asset with the given unit supply to holder and
// returns its ID. Mirrors creating a dummy NFT for the seller.
func (l *Ledger) CreateAsset(holder Address, units uint64) AssetID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextAsst
	l.nextAsst++
	l.assets[id] = true
	l.getAccount(holder).balances[id] = units
	return id
}

// Submit executes a transaction group atomically and waits for its
// confirmation. A context deadline that expires before confirmation surfaces
// ErrConfirmTimeout; group failures surface either the program's own error or
// ErrRejected, and leave no state behind.
func (l *Ledger) Submit(ctx context.Context, group []Transaction) (Confirmation, error) {
	if len(group) == 0 {
		return Confirmation{}, fmt.Errorf("%w: empty transaction group", ErrRejected)
	}
	if l.opts.ConfirmLatency > 0 {
		timer := time.NewTimer(l.opts.ConfirmLatency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Confirmation{}, fmt.Errorf("%w: %v", ErrConfirmTimeout, ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return Confirmation{}, fmt.Errorf("%w: %v", ErrConfirmTimeout, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshot()
	conf, err := l.applyGroup(group)
	if err != nil {
		l.restore(snap)
		log.Debug("ledger group rejected", zap.Int("group_size", len(group)), zap.Error(err))
		return Confirmation{}, err
	}
	l.round++
	conf.Round = l.round
	conf.Timestamp = l.clock.Now()
	return conf, nil
}

// ApplicationGlobalState returns a copy of an application's global state.
func (l *Ledger) ApplicationGlobalState(app AppID) (GlobalState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, ok := l.apps[app]
	if !ok {
		return nil, fmt.Errorf("%w: app %d", ErrUnknownApp, app)
	}
	return cloneState(data.global), nil
}

// AccountBalances returns a copy of every asset balance an account holds.
func (l *Ledger) AccountBalances(addr Address) (map[AssetID]uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[addr]
	if !ok {
		return map[AssetID]uint64{NativeAsset: 0}, nil
	}
	out := make(map[AssetID]uint64, len(acct.balances))
	for id, amt := range acct.balances {
		out[id] = amt
	}
	return out, nil
}

// LastRoundTimestamp reports the latest committed round and the current
// block timestamp.
func (l *Ledger) LastRoundTimestamp() (uint64, int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.round, l.clock.Now()
}

func (l *Ledger) applyGroup(group []Transaction) (Confirmation, error) {
	var conf Confirmation
	for i := range group {
		tx := &group[i]
		if _, isEscrow := l.escrows[tx.Sender]; isEscrow {
			return conf, fmt.Errorf("%w: escrow accounts cannot send outer transactions", ErrRejected)
		}
		if err := l.chargeFee(tx.Sender); err != nil {
			return conf, err
		}
		switch tx.Type {
		case TxPayment:
			if err := l.move(tx.Sender, tx.Receiver, NativeAsset, tx.Amount); err != nil {
				return conf, err
			}
		case TxAssetTransfer:
			if err := l.move(tx.Sender, tx.Receiver, tx.Asset, tx.Amount); err != nil {
				return conf, err
			}
		case TxAssetOptIn:
			if !l.assets[tx.Asset] {
				return conf, fmt.Errorf("%w: asset %d does not exist", ErrRejected, tx.Asset)
			}
			acct := l.getAccount(tx.Sender)
			if _, ok := acct.balances[tx.Asset]; !ok {
				acct.balances[tx.Asset] = 0
			}
		case TxAppCreate:
			app, err := l.createApp(tx, group, i)
			if err != nil {
				return conf, err
			}
			conf.App = app
		case TxAppCall:
			data, ok := l.apps[tx.App]
			if !ok {
				return conf, fmt.Errorf("%w: application %d does not exist", ErrRejected, tx.App)
			}
			call := &Call{ledger: l, app: data, appID: tx.App, Sender: tx.Sender, Method: tx.Method, Args: tx.Args, Group: group, Index: i}
			if err := data.program.OnCall(call); err != nil {
				return conf, err
			}
		default:
			return conf, fmt.Errorf("%w: unknown transaction type %d", ErrRejected, tx.Type)
		}
	}
	return conf, nil
}

func (l *Ledger) createApp(tx *Transaction, group []Transaction, index int) (AppID, error) {
	if tx.Program == nil {
		return 0, fmt.Errorf("%w: app create without a program", ErrRejected)
	}
	id := l.nextApp
	l.nextApp++
	escrow := EscrowAddress(id)
	l.getAccount(escrow)
	l.escrows[escrow] = id
	data := &appData{program: tx.Program, global: GlobalState{}, creator: tx.Sender, escrow: escrow}
	l.apps[id] = data

	call := &Call{ledger: l, app: data, appID: id, Sender: tx.Sender, Method: "create", Args: tx.Args, Group: group, Index: index}
	if err := tx.Program.OnCreate(call); err != nil {
		return 0, err
	}
	log.Info("application created",
		zap.Uint64("app_id", uint64(id)),
		zap.String("escrow", string(escrow)),
		zap.String("creator", string(tx.Sender)),
	)
	return id, nil
}

func (l *Ledger) chargeFee(sender Address) error {
	if l.opts.Fee == 0 {
		return nil
	}
	acct := l.getAccount(sender)
	if acct.balances[NativeAsset] < l.opts.Fee {
		return fmt.Errorf("%w: %s cannot cover the %d fee", ErrRejected, sender, l.opts.Fee)
	}
	acct.balances[NativeAsset] -= l.opts.Fee
	return nil
}

// move transfers asset units between accounts, enforcing existence, balance
// and opt-in rules.
func (l *Ledger) move(from, to Address, asset AssetID, amount uint64) error {
	if !l.assets[asset] {
		return fmt.Errorf("%w: asset %d does not exist", ErrRejected, asset)
	}
	src := l.getAccount(from)
	if asset != NativeAsset {
		if _, ok := src.balances[asset]; !ok {
			return fmt.Errorf("%w: %s does not hold asset %d", ErrRejected, from, asset)
		}
	}
	if src.balances[asset] < amount {
		return fmt.Errorf("%w: %s has insufficient balance of asset %d", ErrRejected, from, asset)
	}
	dst := l.getAccount(to)
	if asset != NativeAsset {
		if _, ok := dst.balances[asset]; !ok {
			return fmt.Errorf("%w: %s is not opted in to asset %d", ErrRejected, to, asset)
		}
	}
	src.balances[asset] -= amount
	dst.balances[asset] += amount
	return nil
}

func (l *Ledger) getAccount(addr Address) *account {
	acct, ok := l.accounts[addr]
	if !ok {
		acct = &account{balances: map[AssetID]uint64{NativeAsset: 0}}
		l.accounts[addr] = acct
	}
	return acct
}

type snapshot struct {
	accounts map[Address]*account
	globals  map[AppID]GlobalState
	apps     map[AppID]*appData
	escrows  map[Address]AppID
	nextApp  AppID
}

func (l *Ledger) snapshot() snapshot {
	snap := snapshot{
		accounts: make(map[Address]*account, len(l.accounts)),
		globals:  make(map[AppID]GlobalState, len(l.apps)),
		apps:     make(map[AppID]*appData, len(l.apps)),
		escrows:  make(map[Address]AppID, len(l.escrows)),
		nextApp:  l.nextApp,
	}
	for addr, acct := range l.accounts {
		balances := make(map[AssetID]uint64, len(acct.balances))
		for id, amt := range acct.balances {
			balances[id] = amt
		}
		snap.accounts[addr] = &account{balances: balances}
	}
	for id, data := range l.apps {
		snap.apps[id] = data
		snap.globals[id] = cloneState(data.global)
	}
	for addr, id := range l.escrows {
		snap.escrows[addr] = id
	}
	return snap
}

func (l *Ledger) restore(snap snapshot) {
	l.accounts = snap.accounts
	l.escrows = snap.escrows
	l.nextApp = snap.nextApp
	l.apps = snap.apps
	for id, data := range l.apps {
		data.global = snap.globals[id]
	}
}

func cloneState(state GlobalState) GlobalState {
	out := make(GlobalState, len(state))
	for k, v := range state {
		if v.Kind == KindBytes {
			b := make([]byte, len(v.Bytes))
			copy(b, v.Bytes)
			v.Bytes = b
		}
		out[k] = v
	}
	return out
}
