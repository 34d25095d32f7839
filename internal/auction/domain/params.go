package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/cristianortiz/ledgerAuction/internal/ledger"
)

// AuctionParameters are the immutable terms of an auction, fixed at
// application creation and never mutated afterwards.
type AuctionParameters struct {
	Seller          ledger.Address
	AssetID         ledger.AssetID
	AssetAmount     uint64
	StartTime       int64
	EndTime         int64
	Reserve         uint64
	MinBidIncrement uint64
	SweepResidual   bool
}

// Validate checks the static creation invariants.
func (p *AuctionParameters) Validate() error {
	if p.Seller == "" {
		return fmt.Errorf("%w: seller address is empty", ErrInvalidParameters)
	}
	if p.AssetID == ledger.NativeAsset {
		return fmt.Errorf("%w: cannot auction the native asset", ErrInvalidParameters)
	}
	if p.AssetAmount == 0 {
		return fmt.Errorf("%w: asset amount must be positive", ErrInvalidParameters)
	}
	if p.StartTime >= p.EndTime {
		return fmt.Errorf("%w: start time %d is not before end time %d", ErrInvalidParameters, p.StartTime, p.EndTime)
	}
	return nil
}

// createArgCount is the number of app-create arguments the contract expects.
const createArgCount = 8

// EncodeCreateArgs serializes parameters into app-create call arguments:
// the seller address followed by big-endian uint64 words.
func EncodeCreateArgs(p *AuctionParameters) [][]byte {
	args := make([][]byte, 0, createArgCount)
	args = append(args, []byte(p.Seller))
	for _, u := range []uint64{
		uint64(p.AssetID),
		p.AssetAmount,
		uint64(p.StartTime),
		uint64(p.EndTime),
		p.Reserve,
		p.MinBidIncrement,
		boolWord(p.SweepResidual),
	} {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], u)
		args = append(args, buf[:])
	}
	return args
}

// DecodeCreateArgs parses app-create call arguments back into parameters.
func DecodeCreateArgs(args [][]byte) (*AuctionParameters, error) {
	if len(args) != createArgCount {
		return nil, fmt.Errorf("%w: expected %d create arguments, got %d", ErrInvalidParameters, createArgCount, len(args))
	}
	words := make([]uint64, 0, createArgCount-1)
	for _, arg := range args[1:] {
		if len(arg) != 8 {
			return nil, fmt.Errorf("%w: malformed create argument", ErrInvalidParameters)
		}
		words = append(words, binary.BigEndian.Uint64(arg))
	}
	return &AuctionParameters{
		Seller:          ledger.Address(args[0]),
		AssetID:         ledger.AssetID(words[0]),
		AssetAmount:     words[1],
		StartTime:       int64(words[2]),
		EndTime:         int64(words[3]),
		Reserve:         words[4],
		MinBidIncrement: words[5],
		SweepResidual:   words[6] != 0,
	}, nil
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
