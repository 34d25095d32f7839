package application

import (
	"context"
	"testing"
	"time"

	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFee       = uint64(1_000)
	testSeed      = uint64(200_000)
	testReserve   = uint64(500_000)
	testIncrement = uint64(100_000)
	testStart     = int64(1_000)
	testEnd       = int64(2_000)
)

type manualClock struct {
	now int64
}

func (c *manualClock) Now() int64 { return c.now }

// countingClient wraps the ledger client to observe how many groups the
// driver actually submits; local fast-fail paths must not spend a submission.
type countingClient struct {
	ledger.Client
	submits int
}

func (c *countingClient) Submit(ctx context.Context, group []ledger.Transaction) (ledger.Confirmation, error) {
	c.submits++
	return c.Client.Submit(ctx, group)
}

type memAuctionRepo struct {
	records map[ledger.AppID]*domain.AuctionRecord
}

func newMemAuctionRepo() *memAuctionRepo {
	return &memAuctionRepo{records: make(map[ledger.AppID]*domain.AuctionRecord)}
}

func (r *memAuctionRepo) Save(_ context.Context, record *domain.AuctionRecord) error {
	r.records[record.AppID] = record
	return nil
}

func (r *memAuctionRepo) GetByAppID(_ context.Context, appID ledger.AppID) (*domain.AuctionRecord, error) {
	record, ok := r.records[appID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return record, nil
}

func (r *memAuctionRepo) ListOpen(_ context.Context) ([]*domain.AuctionRecord, error) {
	var out []*domain.AuctionRecord
	for _, record := range r.records {
		if !record.Closed {
			out = append(out, record)
		}
	}
	return out, nil
}

type memBidRepo struct {
	bids map[ledger.AppID][]*domain.Bid
}

func newMemBidRepo() *memBidRepo {
	return &memBidRepo{bids: make(map[ledger.AppID][]*domain.Bid)}
}

func (r *memBidRepo) Save(_ context.Context, bid *domain.Bid) error {
	r.bids[bid.AppID] = append(r.bids[bid.AppID], bid)
	return nil
}

func (r *memBidRepo) GetByAuction(_ context.Context, appID ledger.AppID) ([]*domain.Bid, error) {
	return r.bids[appID], nil
}

func (r *memBidRepo) GetLatestByAuction(_ context.Context, appID ledger.AppID) (*domain.Bid, error) {
	bids := r.bids[appID]
	if len(bids) == 0 {
		return nil, nil
	}
	return bids[len(bids)-1], nil
}

type env struct {
	chain    *ledger.Ledger
	client   *countingClient
	clock    *manualClock
	auctions *memAuctionRepo
	bids     *memBidRepo
	service  AuctionService

	creator ledger.Address
	seller  ledger.Address
	bidder  ledger.Address
	nft     ledger.AssetID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := &manualClock{now: 500}
	chain := ledger.New(ledger.Options{Fee: testFee, Clock: clock})
	e := &env{
		chain:    chain,
		client:   &countingClient{Client: chain},
		clock:    clock,
		auctions: newMemAuctionRepo(),
		bids:     newMemBidRepo(),
		creator:  ledger.GenerateAddress(),
		seller:   ledger.GenerateAddress(),
		bidder:   ledger.GenerateAddress(),
	}
	for _, addr := range []ledger.Address{e.creator, e.seller, e.bidder} {
		chain.Fund(addr, 10_000_000)
	}
	e.nft = chain.CreateAsset(e.seller, 1)

	stateUC := NewGetAuctionStateUseCase(e.client)
	e.service = NewAuctionService(
		NewCreateAuctionUseCase(e.client, e.auctions),
		NewSetupAuctionUseCase(e.client, stateUC, e.auctions, testSeed),
		NewPlaceBidUseCase(e.client, stateUC, e.bids),
		NewCloseAuctionUseCase(e.client, stateUC, e.auctions),
		stateUC,
	)
	return e
}

func (e *env) createDTO() CreateAuctionDTO {
	return CreateAuctionDTO{
		Creator:         e.creator,
		Seller:          e.seller,
		AssetID:         e.nft,
		AssetAmount:     1,
		StartTime:       testStart,
		EndTime:         testEnd,
		Reserve:         testReserve,
		MinBidIncrement: testIncrement,
		SweepResidual:   true,
	}
}

func (e *env) createAndSetup(t *testing.T) ledger.AppID {
	t.Helper()
	ctx := context.Background()
	appID, err := e.service.CreateAuction(ctx, e.createDTO())
	require.NoError(t, err)
	require.NoError(t, e.service.SetupAuction(ctx, SetupAuctionDTO{
		AppID:     appID,
		Funder:    e.seller,
		NFTHolder: e.seller,
	}))
	return appID
}

func (e *env) optIn(t *testing.T, who ledger.Address) {
	t.Helper()
	_, err := e.chain.Submit(context.Background(), []ledger.Transaction{
		{Type: ledger.TxAssetOptIn, Sender: who, Asset: e.nft},
	})
	require.NoError(t, err)
}

func TestCreateAuction_RecordsHistory(t *testing.T) {
	e := newEnv(t)
	appID, err := e.service.CreateAuction(context.Background(), e.createDTO())
	require.NoError(t, err)
	require.NotZero(t, appID)

	record, err := e.auctions.GetByAppID(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, e.seller, record.Seller)
	assert.Equal(t, e.nft, record.AssetID)
	assert.False(t, record.Funded)
	assert.Equal(t, 1, e.client.submits)
}

func TestCreateAuction_InvalidParamsFailFast(t *testing.T) {
	e := newEnv(t)
	dto := e.createDTO()
	dto.StartTime = dto.EndTime

	_, err := e.service.CreateAuction(context.Background(), dto)
	require.ErrorIs(t, err, domain.ErrInvalidParameters)
	assert.Zero(t, e.client.submits, "locally rejected creates must not reach the ledger")
}

func TestSetupAuction_MarksRecordFunded(t *testing.T) {
	e := newEnv(t)
	appID := e.createAndSetup(t)

	record, err := e.auctions.GetByAppID(context.Background(), appID)
	require.NoError(t, err)
	assert.True(t, record.Funded)

	view, err := e.service.GetAuctionState(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusFunded), view.Status)
}

func TestPlaceBid_FailFastPaths(t *testing.T) {
	e := newEnv(t)
	appID := e.createAndSetup(t)
	before := e.client.submits

	// not open yet
	_, err := e.service.PlaceBid(context.Background(), PlaceBidDTO{AppID: appID, Bidder: e.bidder, Amount: testReserve})
	require.ErrorIs(t, err, domain.ErrAuctionNotOpen)

	// open but below the minimum
	e.clock.now = testStart + 1
	_, err = e.service.PlaceBid(context.Background(), PlaceBidDTO{AppID: appID, Bidder: e.bidder, Amount: testReserve - 1})
	require.ErrorIs(t, err, domain.ErrBidTooLow)

	_, err = e.service.PlaceBid(context.Background(), PlaceBidDTO{AppID: appID, Bidder: e.bidder, Amount: 0})
	require.ErrorIs(t, err, domain.ErrBidTooLow)

	assert.Equal(t, before, e.client.submits, "rejected bids must not spend a fee")
	assert.Empty(t, e.bids.bids[appID])
}

func TestPlaceBid_RecordsConfirmedBid(t *testing.T) {
	e := newEnv(t)
	appID := e.createAndSetup(t)
	e.clock.now = testStart + 1

	bid, err := e.service.PlaceBid(context.Background(), PlaceBidDTO{AppID: appID, Bidder: e.bidder, Amount: testReserve})
	require.NoError(t, err)
	assert.Equal(t, e.bidder, bid.Bidder)
	assert.Equal(t, testReserve, bid.Amount)
	assert.NotZero(t, bid.Round)

	latest, err := e.bids.GetLatestByAuction(context.Background(), appID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, bid.ID, latest.ID)

	view, err := e.service.GetAuctionState(context.Background(), appID)
	require.NoError(t, err)
	require.NotNil(t, view.LeadBidder)
	assert.Equal(t, string(e.bidder), *view.LeadBidder)
	assert.Equal(t, testReserve+testIncrement, view.MinimumNextBid)
}

func TestCloseAuction_TooEarlyFailFast(t *testing.T) {
	e := newEnv(t)
	appID := e.createAndSetup(t)
	e.clock.now = testEnd - 1
	before := e.client.submits

	_, err := e.service.CloseAuction(context.Background(), CloseAuctionDTO{AppID: appID, Caller: e.seller})
	require.ErrorIs(t, err, domain.ErrTooEarly)
	assert.Equal(t, before, e.client.submits)
}

func TestCloseAuction_SettlesToWinner(t *testing.T) {
	e := newEnv(t)
	appID := e.createAndSetup(t)
	e.clock.now = testStart + 1
	_, err := e.service.PlaceBid(context.Background(), PlaceBidDTO{AppID: appID, Bidder: e.bidder, Amount: testReserve})
	require.NoError(t, err)

	e.optIn(t, e.bidder)
	e.clock.now = testEnd + 1
	outcome, err := e.service.CloseAuction(context.Background(), CloseAuctionDTO{AppID: appID, Caller: e.seller})
	require.NoError(t, err)

	assert.Equal(t, domain.SettledToWinner, outcome.Kind)
	require.NotNil(t, outcome.Winner)
	assert.Equal(t, e.bidder, *outcome.Winner)
	assert.Equal(t, testReserve, outcome.Amount)

	record, err := e.auctions.GetByAppID(context.Background(), appID)
	require.NoError(t, err)
	assert.True(t, record.Closed)
	require.NotNil(t, record.Winner)
	assert.Equal(t, e.bidder, *record.Winner)
	assert.Equal(t, testReserve, record.FinalPrice)

	open, err := e.auctions.ListOpen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCloseAuction_NoBidsReturnsToSeller(t *testing.T) {
	e := newEnv(t)
	appID := e.createAndSetup(t)
	e.clock.now = testEnd + 1

	outcome, err := e.service.CloseAuction(context.Background(), CloseAuctionDTO{AppID: appID, Caller: e.bidder})
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnedToSeller, outcome.Kind)
	assert.Nil(t, outcome.Winner)

	_, err = e.service.CloseAuction(context.Background(), CloseAuctionDTO{AppID: appID, Caller: e.bidder})
	require.ErrorIs(t, err, domain.ErrAlreadyClosed)
}

func TestGetAuctionState_UnknownApp(t *testing.T) {
	e := newEnv(t)
	_, err := e.service.GetAuctionState(context.Background(), 999)
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func TestCreateAuction_ConfirmTimeoutSurfaces(t *testing.T) {
	clock := &manualClock{now: 500}
	chain := ledger.New(ledger.Options{Fee: testFee, Clock: clock, ConfirmLatency: 200 * time.Millisecond})
	creator := ledger.GenerateAddress()
	seller := ledger.GenerateAddress()
	chain.Fund(creator, 10_000_000)
	nft := chain.CreateAsset(seller, 1)

	uc := NewCreateAuctionUseCase(chain, newMemAuctionRepo())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := uc.Execute(ctx, CreateAuctionDTO{
		Creator:         creator,
		Seller:          seller,
		AssetID:         nft,
		AssetAmount:     1,
		StartTime:       testStart,
		EndTime:         testEnd,
		Reserve:         testReserve,
		MinBidIncrement: testIncrement,
	})
	require.ErrorIs(t, err, ledger.ErrConfirmTimeout)
}
