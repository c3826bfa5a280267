package perp

import "math/big"

// FundingIndexScale is the fixed-point scale of the cumulative funding
// index: "funding USD per 1 USD of position, times this scale".
var FundingIndexScale = big.NewInt(1_000_000)

// fundingRateAbsFpPerSec is the MVP constant funding-rate magnitude, in
// FundingIndexScale units per second. The rate depends only on the sign of
// the open-interest imbalance, not its size; see DESIGN.md for why this is
// the chosen MVP behavior. It is one package-level value shared by every
// market.
var fundingRateAbsFpPerSec = big.NewInt(10)

// FundingDelta is the outcome of settling one position's funding: positive
// means the position owes funding, negative means it is owed funding.
type FundingDelta struct {
	FundingFeeUsd *Usd
}

// FundingService evolves a market's funding indices over time and settles
// individual positions against them.
type FundingService interface {
	UpdateIndices(market *MarketState, now Timestamp)
	SettlePositionFunding(market *MarketState, pos *Position) FundingDelta
}

// BasicFundingService implements the MVP rule: whichever side of open
// interest is heavier pays the other a small constant rate.
type BasicFundingService struct{}

func currentFundingIndexForSide(market *MarketState, side Side) *big.Int {
	if side == Long {
		return market.Funding.CumulativeIndexLong
	}
	return market.Funding.CumulativeIndexShort
}

// UpdateIndices advances the market's cumulative funding indices up to now.
// The first call for a market only latches the clock; it never charges
// funding for time before the engine started observing the market.
func (BasicFundingService) UpdateIndices(market *MarketState, now Timestamp) {
	funding := &market.Funding

	if funding.LastUpdatedAt == 0 {
		funding.LastUpdatedAt = now
		return
	}
	if now <= funding.LastUpdatedAt {
		return
	}
	dt := uint64(now - funding.LastUpdatedAt)
	if dt == 0 {
		return
	}

	longOi := maxBig(market.OiLongUsd, big.NewInt(0))
	shortOi := maxBig(market.OiShortUsd, big.NewInt(0))
	totalOi := new(big.Int).Add(longOi, shortOi)
	if totalOi.Sign() == 0 {
		funding.LastUpdatedAt = now
		return
	}

	imbalance := new(big.Int).Sub(longOi, shortOi)

	deltaIndexFp := new(big.Int).Mul(fundingRateAbsFpPerSec, new(big.Int).SetUint64(dt))

	switch imbalance.Sign() {
	case 1:
		// Long-heavy: longs pay, shorts receive.
		funding.CumulativeIndexLong.Add(funding.CumulativeIndexLong, deltaIndexFp)
		funding.CumulativeIndexShort.Sub(funding.CumulativeIndexShort, deltaIndexFp)
	case -1:
		// Short-heavy: shorts pay, longs receive.
		funding.CumulativeIndexLong.Sub(funding.CumulativeIndexLong, deltaIndexFp)
		funding.CumulativeIndexShort.Add(funding.CumulativeIndexShort, deltaIndexFp)
	}

	funding.LastUpdatedAt = now
}

// SettlePositionFunding charges or credits a position for the funding index
// movement since its last settlement, then snapshots the new index.
func (BasicFundingService) SettlePositionFunding(market *MarketState, pos *Position) FundingDelta {
	currentIdx := currentFundingIndexForSide(market, pos.Key.Side)
	prevIdx := pos.FundingIndex

	deltaIdx := new(big.Int).Sub(currentIdx, prevIdx)
	if deltaIdx.Sign() == 0 || pos.SizeUsd.Sign() == 0 {
		pos.FundingIndex = new(big.Int).Set(currentIdx)
		return FundingDelta{FundingFeeUsd: big.NewInt(0)}
	}

	fee := new(big.Int).Mul(pos.SizeUsd, deltaIdx)
	fee.Quo(fee, FundingIndexScale)

	pos.FundingIndex = new(big.Int).Set(currentIdx)

	return FundingDelta{FundingFeeUsd: fee}
}

func maxBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
