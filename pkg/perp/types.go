// Package perp implements the pricing and accounting core of a
// perpetual-futures trading venue: price-impact-aware execution pricing,
// funding/borrowing accrual, PnL and size-delta arithmetic, and the risk
// precheck/postcheck that guards every decrease order.
//
// The core is pure and synchronous (see Engine in settlement.go): it never
// talks to an oracle, order queue, or database directly; prices arrive only
// through the Oracle interface in market.go.
package perp

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Usd and TokenAmount are signed scalars bounded to 128 bits, matching the
// i128 semantics of the venue this engine was modeled on. Negative values
// are meaningful for impact, PnL, and pending impact. *big.Int gives exact
// intermediate products for the checked rounding primitives in rounding.go;
// fitsI128 enforces the 128-bit ceiling everywhere a result is returned to
// a caller.
type Usd = big.Int
type TokenAmount = big.Int

// Timestamp is a monotonic, unsigned seconds counter.
type Timestamp uint64

// MarketId, AssetId, and OrderId are opaque small integer identifiers.
type MarketId uint32
type AssetId uint32
type OrderId uint64

// AccountId is a 32-byte opaque identity. common.Hash is go-ethereum's
// fixed-size 32-byte array type; reusing it keeps identities comparable and
// usable as map keys without introducing a bespoke byte-array type.
type AccountId = common.Hash

// Side is long or short.
type Side int8

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// OrderType distinguishes the three settlement pipelines.
type OrderType int8

const (
	Increase OrderType = iota
	Decrease
	Liquidation
)

func (t OrderType) String() string {
	switch t {
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	case Liquidation:
		return "liquidation"
	default:
		return "unknown"
	}
}

// OraclePrices carries the four USD prices the core needs to price a step.
// All four invariant: min <= max, both strictly positive when used. The
// core never fetches these itself — see Oracle in market.go.
type OraclePrices struct {
	IndexPriceMin      *Usd
	IndexPriceMax      *Usd
	CollateralPriceMin *Usd
	CollateralPriceMax *Usd
}

// Order is an immutable record the core consumes once; it never mutates or
// retains a pointer into caller-owned order storage.
type Order struct {
	Account               AccountId
	MarketId              MarketId
	CollateralToken       AssetId
	Side                  Side
	OrderType             OrderType
	SizeDeltaUsd          *Usd
	WithdrawCollateralAmt *TokenAmount
	ValidFrom             Timestamp
	ValidUntil            Timestamp
}

func usd(v int64) *Usd                 { return big.NewInt(v) }
func tokenAmount(v int64) *TokenAmount { return big.NewInt(v) }
