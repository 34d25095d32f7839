package postgres

import (
	"context"
	"errors"

	"github.com/cristianortiz/ledgerAuction/internal/auction/domain"
	"github.com/cristianortiz/ledgerAuction/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuctionRepository implements domain.AuctionRepository on Postgres.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

// NewAuctionRepository creates a new instance of AuctionRepository.
func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

// Save upserts an auction history row keyed by app ID, so creation and every
// later lifecycle transition go through the same statement.
func (r *AuctionRepository) Save(ctx context.Context, record *domain.AuctionRecord) error {
	query := `
        INSERT INTO auctions (app_id, seller, asset_id, asset_amount, start_time, end_time, reserve, min_bid_increment, funded, closed, winner, final_price)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (app_id) DO UPDATE
        SET
            funded = EXCLUDED.funded,
            closed = EXCLUDED.closed,
            winner = EXCLUDED.winner,
            final_price = EXCLUDED.final_price,
            updated_at = NOW();
    `
	var winner *string
	if record.Winner != nil {
		w := string(*record.Winner)
		winner = &w
	}
	_, err := r.pool.Exec(ctx, query,
		int64(record.AppID),
		string(record.Seller),
		int64(record.AssetID),
		int64(record.AssetAmount),
		record.StartTime,
		record.EndTime,
		int64(record.Reserve),
		int64(record.MinBidIncrement),
		record.Funded,
		record.Closed,
		winner,
		int64(record.FinalPrice),
	)
	return err
}

// GetByAppID retrieves one auction history row.
func (r *AuctionRepository) GetByAppID(ctx context.Context, appID ledger.AppID) (*domain.AuctionRecord, error) {
	query := `
        SELECT app_id, seller, asset_id, asset_amount, start_time, end_time, reserve, min_bid_increment, funded, closed, winner, final_price, created_at, updated_at
        FROM auctions
        WHERE app_id = $1
    `
	record, err := scanAuction(r.pool.QueryRow(ctx, query, int64(appID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListOpen retrieves every auction that has not been closed yet.
func (r *AuctionRepository) ListOpen(ctx context.Context) ([]*domain.AuctionRecord, error) {
	query := `
        SELECT app_id, seller, asset_id, asset_amount, start_time, end_time, reserve, min_bid_increment, funded, closed, winner, final_price, created_at, updated_at
        FROM auctions
        WHERE closed = FALSE
        ORDER BY end_time ASC
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AuctionRecord
	for rows.Next() {
		record, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanAuction(row pgx.Row) (*domain.AuctionRecord, error) {
	record := &domain.AuctionRecord{}
	var (
		appID, assetID, assetAmount, reserve, increment, finalPrice int64
		seller                                                      string
		winner                                                      *string
	)
	err := row.Scan(
		&appID,
		&seller,
		&assetID,
		&assetAmount,
		&record.StartTime,
		&record.EndTime,
		&reserve,
		&increment,
		&record.Funded,
		&record.Closed,
		&winner,
		&finalPrice,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.AppID = ledger.AppID(appID)
	record.Seller = ledger.Address(seller)
	record.AssetID = ledger.AssetID(assetID)
	record.AssetAmount = uint64(assetAmount)
	record.Reserve = uint64(reserve)
	record.MinBidIncrement = uint64(increment)
	record.FinalPrice = uint64(finalPrice)
	if winner != nil {
		w := ledger.Address(*winner)
		record.Winner = &w
	}
	return record, nil
}
