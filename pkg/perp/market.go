package perp

import "math/big"

// FundingState tracks the market's per-side cumulative funding index, in
// FundingIndexScale units.
type FundingState struct {
	CumulativeIndexLong  *big.Int
	CumulativeIndexShort *big.Int
	LastUpdatedAt        Timestamp
}

// BorrowingState tracks the market's cumulative borrowing factor, in
// BorrowIndexScale units.
type BorrowingState struct {
	CumulativeFactor *big.Int
	LastUpdatedAt    Timestamp
}

// MarketState is the mutable per-market state the funding and borrowing
// services evolve: open interest, available liquidity, and the two
// cumulative indices.
type MarketState struct {
	Id MarketId

	OiLongUsd    *Usd
	OiShortUsd   *Usd
	LiquidityUsd *Usd

	Funding   FundingState
	Borrowing BorrowingState
}

// NewMarketState returns a freshly zeroed market, ready for its first
// UpdateIndices call to latch onto the current clock.
func NewMarketState(id MarketId) *MarketState {
	return &MarketState{
		Id:           id,
		OiLongUsd:    big.NewInt(0),
		OiShortUsd:   big.NewInt(0),
		LiquidityUsd: big.NewInt(0),
		Funding: FundingState{
			CumulativeIndexLong:  big.NewInt(0),
			CumulativeIndexShort: big.NewInt(0),
		},
		Borrowing: BorrowingState{
			CumulativeFactor: big.NewInt(0),
		},
	}
}

// Oracle validates and returns the current prices for a market. The core
// never calls an oracle directly except through this seam; price sourcing
// and signature verification live entirely with the host.
type Oracle interface {
	ValidateAndGetPrices(marketId MarketId) (*OraclePrices, error)
}
