package perp

import "math/big"

// BorrowIndexScale is the fixed-point scale of the cumulative borrowing
// factor, same convention as FundingIndexScale.
var BorrowIndexScale = big.NewInt(1_000_000)

// baseBorrowRateFpPerSec and borrowSlopeFpPerSec parameterize the MVP
// linear borrowing-rate curve: rate = base + slope*utilization.
var (
	baseBorrowRateFpPerSec = big.NewInt(5)
	borrowSlopeFpPerSec    = big.NewInt(20)
)

// BorrowingDelta is the outcome of settling one position's borrowing cost.
// Always >= 0: borrowing is a pure cost, never a receivable.
type BorrowingDelta struct {
	BorrowingFeeUsd *Usd
}

// BorrowingService evolves a market's borrowing index over time and
// settles individual positions against it.
type BorrowingService interface {
	UpdateIndex(market *MarketState, now Timestamp)
	SettlePositionBorrowing(market *MarketState, pos *Position) BorrowingDelta
}

// BasicBorrowingService implements a simple linear utilization-based rate.
type BasicBorrowingService struct{}

func computeUtilizationFp(market *MarketState) *big.Int {
	borrowed := maxBig(new(big.Int).Add(market.OiLongUsd, market.OiShortUsd), big.NewInt(0))
	liquidity := maxBig(market.LiquidityUsd, big.NewInt(0))

	if liquidity.Sign() == 0 {
		return big.NewInt(0)
	}

	ratioFp := new(big.Int).Mul(borrowed, BorrowIndexScale)
	ratioFp.Quo(ratioFp, liquidity)

	if ratioFp.Cmp(BorrowIndexScale) > 0 {
		return new(big.Int).Set(BorrowIndexScale)
	}
	return ratioFp
}

// UpdateIndex advances the market's cumulative borrowing factor up to now.
func (BasicBorrowingService) UpdateIndex(market *MarketState, now Timestamp) {
	if market.Borrowing.LastUpdatedAt == 0 {
		market.Borrowing.LastUpdatedAt = now
		return
	}
	if now <= market.Borrowing.LastUpdatedAt {
		return
	}
	dt := uint64(now - market.Borrowing.LastUpdatedAt)
	if dt == 0 {
		return
	}

	utilFp := computeUtilizationFp(market)

	ratePerSecFp := new(big.Int).Mul(borrowSlopeFpPerSec, utilFp)
	ratePerSecFp.Quo(ratePerSecFp, BorrowIndexScale)
	ratePerSecFp.Add(ratePerSecFp, baseBorrowRateFpPerSec)

	deltaIndexFp := new(big.Int).Mul(ratePerSecFp, new(big.Int).SetUint64(dt))

	market.Borrowing.CumulativeFactor.Add(market.Borrowing.CumulativeFactor, deltaIndexFp)
	market.Borrowing.LastUpdatedAt = now
}

// SettlePositionBorrowing charges a position for borrowing-index movement
// since its last settlement. A non-positive delta (clock skew, or a
// just-opened position) settles to zero rather than erroring.
func (BasicBorrowingService) SettlePositionBorrowing(market *MarketState, pos *Position) BorrowingDelta {
	currentIdx := market.Borrowing.CumulativeFactor
	prevIdx := pos.BorrowingIndex

	deltaIdx := new(big.Int).Sub(currentIdx, prevIdx)
	if deltaIdx.Sign() <= 0 || pos.SizeUsd.Sign() == 0 {
		pos.BorrowingIndex = new(big.Int).Set(currentIdx)
		return BorrowingDelta{BorrowingFeeUsd: big.NewInt(0)}
	}

	fee := new(big.Int).Mul(pos.SizeUsd, deltaIdx)
	fee.Quo(fee, BorrowIndexScale)

	pos.BorrowingIndex = new(big.Int).Set(currentIdx)

	return BorrowingDelta{BorrowingFeeUsd: fee}
}

// ApplyBorrowingFeesToPool routes borrowing proceeds, already converted to
// collateral tokens, into the pool for (market, collateralToken).
func ApplyBorrowingFeesToPool(pools *PoolBalances, marketId MarketId, collateralToken AssetId, borrowingTokens *TokenAmount) {
	if borrowingTokens.Sign() == 0 {
		return
	}
	pools.AddFeeToPool(marketId, collateralToken, borrowingTokens)
}
