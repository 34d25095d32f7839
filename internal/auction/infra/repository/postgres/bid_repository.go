package postgres

import (
	"context"
	"errors"

	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository implements domain.BidRepository on Postgres.
type BidRepository struct {
	pool *pgxpool.Pool
}

// NewBidRepository creates new instance of BidRepository.
func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

// Save inserts a confirmed bid into the trail.
func (r *BidRepository) Save(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, app_id, bidder, amount, round, placed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.pool.Exec(ctx, query,
		bid.ID,
		int64(bid.AppID),
		string(bid.Bidder),
		int64(bid.Amount),
		int64(bid.Round),
		bid.PlacedAt,
	)
	return err
}

// GetByAuction retrieves the bid trail of an auction, oldest first.
func (r *BidRepository) GetByAuction(ctx context.Context, appID ledger.AppID) ([]*domain.Bid, error) {
	query := `
        SELECT id, app_id, bidder, amount, round, placed_at
        FROM bids
        WHERE app_id = $1
        ORDER BY round ASC
    `
	rows, err := r.pool.Query(ctx, query, int64(appID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

// GetLatestByAuction retrieves the most recent bid, nil when there is none.
func (r *BidRepository) GetLatestByAuction(ctx context.Context, appID ledger.AppID) (*domain.Bid, error) {
	query := `
        SELECT id, app_id, bidder, amount, round, placed_at
        FROM bids
        WHERE app_id = $1
        ORDER BY round DESC
        LIMIT 1
    `
	bid, err := scanBid(r.pool.QueryRow(ctx, query, int64(appID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	bid := &domain.Bid{}
	var appID, amount, round int64
	var bidder string
	err := row.Scan(
		&bid.ID,
		&appID,
		&bidder,
		&amount,
		&round,
		&bid.PlacedAt,
	)
	if err != nil {
		return nil, err
	}
	bid.AppID = ledger.AppID(appID)
	bid.Bidder = ledger.Address(bidder)
	bid.Amount = uint64(amount)
	bid.Round = uint64(round)
	return bid, nil
}
