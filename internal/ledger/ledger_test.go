package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	now int64
}

func (c *manualClock) Now() int64 { return c.now }

type stubProgram struct {
	onCreate func(*Call) error
	onCall   func(*Call) error
}

func (p *stubProgram) OnCreate(call *Call) error {
	if p.onCreate != nil {
		return p.onCreate(call)
	}
	return nil
}

func (p *stubProgram) OnCall(call *Call) error {
	if p.onCall != nil {
		return p.onCall(call)
	}
	return nil
}

func TestFundAndBalances(t *testing.T) {
	l := New(Options{})
	addr := GenerateAddress()
	l.Fund(addr, 1_000_000)

	balances, err := l.AccountBalances(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), balances[NativeAsset])
}

func TestSubmit_Payment(t *testing.T) {
	l := New(Options{Fee: 1_000})
	from := GenerateAddress()
	to := GenerateAddress()
	l.Fund(from, 100_000)

	_, err := l.Submit(context.Background(), []Transaction{
		{Type: TxPayment, Sender: from, Receiver: to, Amount: 50_000},
	})
	require.NoError(t, err)

	fromBal, _ := l.AccountBalances(from)
	toBal, _ := l.AccountBalances(to)
	assert.Equal(t, uint64(100_000-50_000-1_000), fromBal[NativeAsset], "fee and payment deducted")
	assert.Equal(t, uint64(50_000), toBal[NativeAsset])
}

func TestSubmit_GroupRollsBackAtomically(t *testing.T) {
	l := New(Options{})
	a := GenerateAddress()
	b := GenerateAddress()
	l.Fund(a, 10_000)

	// second transaction overdraws, so the first must not stick
	_, err := l.Submit(context.Background(), []Transaction{
		{Type: TxPayment, Sender: a, Receiver: b, Amount: 5_000},
		{Type: TxPayment, Sender: a, Receiver: b, Amount: 50_000},
	})
	require.ErrorIs(t, err, ErrRejected)

	aBal, _ := l.AccountBalances(a)
	bBal, _ := l.AccountBalances(b)
	assert.Equal(t, uint64(10_000), aBal[NativeAsset])
	assert.Equal(t, uint64(0), bBal[NativeAsset])
}

func TestAssetTransfer_RequiresOptIn(t *testing.T) {
	l := New(Options{})
	holder := GenerateAddress()
	receiver := GenerateAddress()
	l.Fund(holder, 10_000)
	l.Fund(receiver, 10_000)
	nft := l.CreateAsset(holder, 1)

	_, err := l.Submit(context.Background(), []Transaction{
		{Type: TxAssetTransfer, Sender: holder, Receiver: receiver, Asset: nft, Amount: 1},
	})
	require.ErrorIs(t, err, ErrRejected)

	_, err = l.Submit(context.Background(), []Transaction{
		{Type: TxAssetOptIn, Sender: receiver, Asset: nft},
	})
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), []Transaction{
		{Type: TxAssetTransfer, Sender: holder, Receiver: receiver, Asset: nft, Amount: 1},
	})
	require.NoError(t, err)

	balances, _ := l.AccountBalances(receiver)
	assert.Equal(t, uint64(1), balances[nft])
}

func TestSubmit_InsufficientFeeRejected(t *testing.T) {
	l := New(Options{Fee: 1_000})
	broke := GenerateAddress()

	_, err := l.Submit(context.Background(), []Transaction{
		{Type: TxPayment, Sender: broke, Receiver: GenerateAddress(), Amount: 0},
	})
	require.ErrorIs(t, err, ErrRejected)
}

func TestSubmit_ConfirmTimeout(t *testing.T) {
	l := New(Options{ConfirmLatency: 200 * time.Millisecond})
	from := GenerateAddress()
	l.Fund(from, 10_000)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := l.Submit(ctx, []Transaction{
		{Type: TxPayment, Sender: from, Receiver: GenerateAddress(), Amount: 1},
	})
	require.ErrorIs(t, err, ErrConfirmTimeout)
	assert.NotErrorIs(t, err, ErrRejected, "timeout is not a logical rejection")

	// nothing committed while waiting
	balances, _ := l.AccountBalances(from)
	assert.Equal(t, uint64(10_000), balances[NativeAsset])
}

func TestWithConfirmTimeout_BoundsSubmit(t *testing.T) {
	l := New(Options{ConfirmLatency: 200 * time.Millisecond})
	from := GenerateAddress()
	l.Fund(from, 10_000)

	client := WithConfirmTimeout(l, 5*time.Millisecond)
	_, err := client.Submit(context.Background(), []Transaction{
		{Type: TxPayment, Sender: from, Receiver: GenerateAddress(), Amount: 1},
	})
	require.ErrorIs(t, err, ErrConfirmTimeout)
}

func TestAppCreate_AssignsIDAndEscrow(t *testing.T) {
	l := New(Options{})
	creator := GenerateAddress()
	l.Fund(creator, 10_000)

	var seenEscrow Address
	conf, err := l.Submit(context.Background(), []Transaction{
		{Type: TxAppCreate, Sender: creator, Program: &stubProgram{
			onCreate: func(call *Call) error {
				call.SetGlobal("k", UintValue(7))
				seenEscrow = call.Escrow()
				return nil
			},
		}},
	})
	require.NoError(t, err)
	require.NotZero(t, conf.App)
	assert.Equal(t, EscrowAddress(conf.App), seenEscrow)

	gs, err := l.ApplicationGlobalState(conf.App)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), gs["k"].Uint)
}

func TestAppCreate_ProgramErrorDiscardsApp(t *testing.T) {
	l := New(Options{})
	creator := GenerateAddress()
	l.Fund(creator, 10_000)

	boom := fmt.Errorf("create refused")
	_, err := l.Submit(context.Background(), []Transaction{
		{Type: TxAppCreate, Sender: creator, Program: &stubProgram{
			onCreate: func(*Call) error { return boom },
		}},
	})
	require.ErrorIs(t, err, boom)

	_, err = l.ApplicationGlobalState(1)
	require.ErrorIs(t, err, ErrUnknownApp)
}

func TestEscrowCannotSendOuterTransactions(t *testing.T) {
	l := New(Options{})
	creator := GenerateAddress()
	l.Fund(creator, 10_000)

	conf, err := l.Submit(context.Background(), []Transaction{
		{Type: TxAppCreate, Sender: creator, Program: &stubProgram{}},
	})
	require.NoError(t, err)
	l.Fund(EscrowAddress(conf.App), 5_000)

	_, err = l.Submit(context.Background(), []Transaction{
		{Type: TxPayment, Sender: EscrowAddress(conf.App), Receiver: creator, Amount: 1},
	})
	require.ErrorIs(t, err, ErrRejected)
}

func TestRoundsAndTimestampAdvance(t *testing.T) {
	clock := &manualClock{now: 1_000}
	l := New(Options{Clock: clock})
	from := GenerateAddress()
	l.Fund(from, 10_000)

	round0, ts0 := l.LastRoundTimestamp()
	assert.Equal(t, uint64(0), round0)
	assert.Equal(t, int64(1_000), ts0)

	clock.now = 2_000
	conf, err := l.Submit(context.Background(), []Transaction{
		{Type: TxPayment, Sender: from, Receiver: GenerateAddress(), Amount: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), conf.Round)
	assert.Equal(t, int64(2_000), conf.Timestamp)

	round1, ts1 := l.LastRoundTimestamp()
	assert.Equal(t, uint64(1), round1)
	assert.Equal(t, int64(2_000), ts1)
}

func TestEscrowAddressIsDeterministic(t *testing.T) {
	assert.Equal(t, EscrowAddress(42), EscrowAddress(42))
	assert.NotEqual(t, EscrowAddress(42), EscrowAddress(43))
}
