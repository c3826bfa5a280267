package perp

import "math/big"

// FundingStep is the outcome of applying funding to a single position for
// one settlement: cost_usd is always >= 0 and represents what the payer
// side owes. RewardTokens is a receiver-side credit that has NOT yet been
// applied to Claimables — the caller must route it there itself, once the
// rest of the settlement is known to succeed, so a downstream failure can
// discard it the same way it discards the scratch position.
type FundingStep struct {
	CostUsd      *Usd
	RewardTokens *TokenAmount
}

// ApplyFundingStep settles a position's funding against market. It never
// touches Claimables directly: a receiver-side reward is returned as
// RewardTokens for the caller to credit at commit time, the same way the
// position's own FundingIndex update only takes effect once its scratch
// copy is committed.
func ApplyFundingStep(fundingSvc FundingService, market *MarketState, pos *Position, prices *OraclePrices) (FundingStep, error) {
	delta := fundingSvc.SettlePositionFunding(market, pos)
	feeUsd := delta.FundingFeeUsd

	if feeUsd.Sign() == 0 {
		return FundingStep{CostUsd: big.NewInt(0), RewardTokens: big.NewInt(0)}, nil
	}

	if feeUsd.Sign() > 0 {
		return FundingStep{CostUsd: feeUsd, RewardTokens: big.NewInt(0)}, nil
	}

	if prices.CollateralPriceMin.Sign() <= 0 {
		return FundingStep{}, ErrInvalidCollateralPriceMin
	}

	rewardUsd := new(big.Int).Neg(feeUsd)
	rewardTokens := new(big.Int).Quo(rewardUsd, prices.CollateralPriceMin)

	return FundingStep{CostUsd: big.NewInt(0), RewardTokens: rewardTokens}, nil
}
