package perp

import "math/big"

// StepFees is the per-step trading/liquidation fee outcome for a single
// position change.
type StepFees struct {
	PositionFeeUsd       *Usd
	PositionFeeTokens    *TokenAmount
	LiquidationFeeUsd    *Usd
	LiquidationFeeTokens *TokenAmount
	MarketId             MarketId
	FeeAsset             AssetId
}

// FeesService computes and routes trading/liquidation fees. The same
// interface covers increase, decrease, and liquidation steps.
type FeesService interface {
	ComputeFees(pos *Position, order *Order, prices *OraclePrices, balanceWasImproved bool, sizeDeltaUsd *Usd) StepFees
	ApplyFees(pools *PoolBalances, claimables *Claimables, stepFees StepFees)
}

// BasicFeesService charges a flat basis-point fee on notional, with a
// rebate for trades that improve open-interest balance.
type BasicFeesService struct {
	// PositionFeeBpsIncrease/Decrease are trading fees in basis points
	// (e.g. 10 = 0.1%).
	PositionFeeBpsIncrease uint32
	PositionFeeBpsDecrease uint32
	LiquidationFeeBps      uint32

	// HelpfulRebatePercent discounts the position fee, as an integer
	// percent (not bps), when the trade improves OI balance.
	HelpfulRebatePercent uint32
}

func (s BasicFeesService) basePositionFeeBps(orderType OrderType) uint32 {
	switch orderType {
	case Increase:
		return s.PositionFeeBpsIncrease
	case Decrease:
		return s.PositionFeeBpsDecrease
	default:
		return 0
	}
}

// ComputeFees computes the position fee (with helpful-trade rebate) and, for
// liquidation orders, the liquidation fee, then converts both to collateral
// tokens via collateral_price_min.
func (s BasicFeesService) ComputeFees(pos *Position, order *Order, prices *OraclePrices, balanceWasImproved bool, sizeDeltaUsd *Usd) StepFees {
	notionalUsd := new(big.Int).Abs(sizeDeltaUsd)

	posBps := s.basePositionFeeBps(order.OrderType)
	if balanceWasImproved && posBps > 0 && s.HelpfulRebatePercent > 0 {
		posBps = posBps * (100 - s.HelpfulRebatePercent) / 100
	}

	positionFeeUsd := new(big.Int).Mul(notionalUsd, big.NewInt(int64(posBps)))
	positionFeeUsd.Quo(positionFeeUsd, big.NewInt(10_000))

	liquidationFeeUsd := big.NewInt(0)
	if order.OrderType == Liquidation {
		liquidationFeeUsd = new(big.Int).Mul(notionalUsd, big.NewInt(int64(s.LiquidationFeeBps)))
		liquidationFeeUsd.Quo(liquidationFeeUsd, big.NewInt(10_000))
	}

	positionFeeTokens := big.NewInt(0)
	liquidationFeeTokens := big.NewInt(0)
	if prices.CollateralPriceMin.Sign() > 0 {
		positionFeeTokens = new(big.Int).Quo(positionFeeUsd, prices.CollateralPriceMin)
		liquidationFeeTokens = new(big.Int).Quo(liquidationFeeUsd, prices.CollateralPriceMin)
	}

	return StepFees{
		PositionFeeUsd:       positionFeeUsd,
		PositionFeeTokens:    positionFeeTokens,
		LiquidationFeeUsd:    liquidationFeeUsd,
		LiquidationFeeTokens: liquidationFeeTokens,
		MarketId:             pos.Key.MarketId,
		FeeAsset:             pos.Key.CollateralToken,
	}
}

// ApplyFees routes the total of position and liquidation fee tokens to the
// pool. claimables is accepted but unused for now: fee rebates to accounts
// (referral, UI) are a reserved extension point, not yet wired to a payout
// path.
func (BasicFeesService) ApplyFees(pools *PoolBalances, claimables *Claimables, stepFees StepFees) {
	_ = claimables
	totalFeeTokens := new(big.Int).Add(stepFees.PositionFeeTokens, stepFees.LiquidationFeeTokens)
	if totalFeeTokens.Sign() == 0 {
		return
	}
	pools.AddFeeToPool(stepFees.MarketId, stepFees.FeeAsset, totalFeeTokens)
}
