package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Address identifies a ledger account. Key management and signing are out of
// scope, so addresses are opaque identifiers rather than public keys.
type Address string

// AssetID identifies an asset. NativeAsset (0) is the fee/payment token.
type AssetID uint64

// NativeAsset is the ledger's native payment token.
const NativeAsset AssetID = 0

// AppID identifies an application (smart contract instance).
type AppID uint64

// ValueKind discriminates the two kinds a global state value can hold.
type ValueKind uint8

const (
	KindUint ValueKind = iota
	KindBytes
)

// Value is a single global state slot, TEAL-style: either a uint or bytes.
type Value struct {
	Kind  ValueKind
	Uint  uint64
	Bytes []byte
}

// UintValue wraps a uint64 into a state Value.
func UintValue(u uint64) Value { return Value{Kind: KindUint, Uint: u} }

// BytesValue wraps raw bytes into a state Value.
func BytesValue(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// AddressValue wraps an address into a state Value.
func AddressValue(a Address) Value { return BytesValue([]byte(a)) }

// GlobalState is the key/value store of an application.
type GlobalState map[string]Value

// TxType enumerates the transaction kinds the ledger executes.
type TxType uint8

const (
	TxPayment TxType = iota
	TxAssetTransfer
	TxAssetOptIn
	TxAppCreate
	TxAppCall
)

// Transaction is a single operation inside a submitted group. Which fields
// are meaningful depends on Type.
type Transaction struct {
	Type     TxType
	Sender   Address
	Receiver Address  // payment / asset transfer destination
	Amount   uint64   // payment amount or asset units, smallest denomination
	Asset    AssetID  // asset transfer / opt-in target
	App      AppID    // app call target
	Method   string   // app call method
	Args     [][]byte // app call arguments
	Program  Program  // app create only
}

// Confirmation reports a committed transaction group.
type Confirmation struct {
	Round     uint64
	Timestamp int64
	App       AppID // set when the group created an application
}

var (
	// ErrRejected marks groups the ledger refused for non-protocol reasons
	// (insufficient balance, missing opt-in, unknown accounts or apps).
	ErrRejected = errors.New("transaction rejected by ledger")
	// ErrConfirmTimeout marks groups whose confirmation was not observed
	// within the caller's deadline.
	ErrConfirmTimeout = errors.New("confirmation not observed within timeout")
	// ErrUnknownApp marks reads against an application that does not exist.
	ErrUnknownApp = errors.New("application does not exist")
)

// Clock supplies the block timestamp. Injectable so tests can drive the
// auction window deterministically.
type Clock interface {
	Now() int64
}

// SystemClock is the wall-clock implementation used outside tests.
type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().Unix() }

// GenerateAddress mints a fresh opaque account address.
func GenerateAddress() Address {
	return Address(uuid.NewString())
}

// EscrowAddress derives the escrow account address of an application. The
// derivation is deterministic, mirroring how the platform binds an account to
// an app ID.
func EscrowAddress(app AppID) Address {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(app))
	sum := sha256.Sum256(append([]byte("appID"), buf[:]...))
	return Address(hex.EncodeToString(sum[:]))
}
