package domain

import "errors"

var (
	ErrInvalidParameters = errors.New("auction parameters are invalid")
	ErrAssetMismatch     = errors.New("asset or amount does not match auction parameters")
	ErrAlreadyFunded     = errors.New("auction escrow is already funded")
	ErrAuctionNotOpen    = errors.New("auction is not open for bidding")
	ErrBidTooLow         = errors.New("bid amount is too low")
	ErrTooEarly          = errors.New("auction end time has not been reached")
	ErrAlreadyClosed     = errors.New("auction is already closed")
	ErrNotAuthorized     = errors.New("caller is not allowed to fund this auction")
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrInvalidState      = errors.New("auction global state is malformed")
)
