package perp

import "math/big"

// fpScaleI128 is the generic fixed-point scale (1e18) risk factors are
// expressed in.
var fpScaleI128 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// RiskCfg holds protocol-level risk constraints enforced on every decrease
// and on the position that remains after it.
type RiskCfg struct {
	// MinPositionSizeUsd: a remaining position below this is dust and is
	// forced to a full close instead.
	MinPositionSizeUsd *Usd

	// MinCollateralUsd is the absolute floor for a position's collateral
	// value, regardless of leverage.
	MinCollateralUsd *Usd

	// MinCollateralFactorFp is the minimal collateral fraction (fixed-point,
	// scale FactorScale) required against position notional. E.g. max
	// leverage 50x => factor = 1/50.
	MinCollateralFactorFp *big.Int

	// FactorScale is the fixed-point scale MinCollateralFactorFp is
	// expressed in.
	FactorScale *big.Int
}

// DefaultRiskCfg returns the MVP risk configuration: a $10 dust threshold,
// a $5 absolute collateral floor, and a 50x max-leverage factor.
func DefaultRiskCfg() RiskCfg {
	minCollateralFactorFp := new(big.Int).Quo(fpScaleI128, big.NewInt(50))
	return RiskCfg{
		MinPositionSizeUsd:    big.NewInt(10),
		MinCollateralUsd:      big.NewInt(5),
		MinCollateralFactorFp: minCollateralFactorFp,
		FactorScale:           new(big.Int).Set(fpScaleI128),
	}
}

// PrecheckDecreaseAndWithdraw normalizes and validates a decrease order
// without mutating any state. It returns the final size delta (possibly
// clamped to a full close), the final withdraw amount (possibly clamped or
// zeroed), and whether the result is a full close.
//
// The escalation order matters: a request that is unsafe with its
// requested withdraw is retried with withdraw=0 before being escalated to a
// full close, so a trader is never forced out of a position merely because
// they asked to withdraw too much.
func PrecheckDecreaseAndWithdraw(pos *Position, order *Order, prices *OraclePrices, risk RiskCfg) (*Usd, *TokenAmount, bool, error) {
	if pos.SizeUsd.Sign() <= 0 || pos.SizeTokens.Sign() <= 0 {
		return nil, nil, false, ErrPositionEmptyOrCorrupted
	}
	if pos.CollateralAmount.Sign() < 0 {
		return nil, nil, false, ErrPositionCollateralNegative
	}
	if prices.CollateralPriceMin.Sign() <= 0 {
		return nil, nil, false, ErrInvalidCollateralPriceMin
	}
	if risk.FactorScale.Sign() <= 0 {
		return nil, nil, false, ErrInvalidFactorScale
	}

	sizeDeltaUsd := new(big.Int).Set(order.SizeDeltaUsd)
	if sizeDeltaUsd.Sign() <= 0 {
		return nil, nil, false, ErrSizeDeltaUsdMustBePositive
	}
	if sizeDeltaUsd.Cmp(pos.SizeUsd) > 0 {
		sizeDeltaUsd = new(big.Int).Set(pos.SizeUsd)
	}

	isFullClose := sizeDeltaUsd.Cmp(pos.SizeUsd) == 0

	if order.WithdrawCollateralAmt.Sign() < 0 {
		return nil, nil, false, ErrWithdrawMustBeNonNegative
	}
	withdrawTokens := big.NewInt(0)
	if !isFullClose {
		withdrawTokens = new(big.Int).Set(order.WithdrawCollateralAmt)
	}
	if withdrawTokens.Cmp(pos.CollateralAmount) > 0 {
		// MVP clamp (spec.md Open Question, Option B): silently cap the
		// withdraw at available collateral rather than rejecting the order.
		withdrawTokens = new(big.Int).Set(pos.CollateralAmount)
	}

	nextSizeUsd := new(big.Int).Sub(pos.SizeUsd, sizeDeltaUsd)

	if nextSizeUsd.Sign() != 0 && nextSizeUsd.Cmp(risk.MinPositionSizeUsd) < 0 {
		sizeDeltaUsd = new(big.Int).Set(pos.SizeUsd)
		withdrawTokens = big.NewInt(0)
		isFullClose = true
		nextSizeUsd = big.NewInt(0)
	}

	if nextSizeUsd.Sign() != 0 {
		okWithWithdraw := WillPositionCollateralBeSufficientPre(nextSizeUsd, pos.CollateralAmount, withdrawTokens, prices, risk)
		if !okWithWithdraw {
			withdrawTokens = big.NewInt(0)
			okWithoutWithdraw := WillPositionCollateralBeSufficientPre(nextSizeUsd, pos.CollateralAmount, withdrawTokens, prices, risk)
			if !okWithoutWithdraw {
				sizeDeltaUsd = new(big.Int).Set(pos.SizeUsd)
				withdrawTokens = big.NewInt(0)
				isFullClose = true
				nextSizeUsd = big.NewInt(0)
			}
		}
	} else {
		withdrawTokens = big.NewInt(0)
		isFullClose = true
	}

	return sizeDeltaUsd, withdrawTokens, isFullClose, nil
}

// WillPositionCollateralBeSufficientPre conservatively checks, before any
// state mutation, whether a position would remain adequately collateralized
// after withdrawing withdrawTokens and shrinking to nextSizeUsd. It returns
// false for ordinary user-level failures (insufficient collateral) and
// panics only when an invariant the caller should have already guaranteed
// is violated (a non-positive oracle price, or an intermediate product that
// overflows 128 bits).
func WillPositionCollateralBeSufficientPre(nextSizeUsd, currentCollateralTokens, withdrawTokens *TokenAmount, prices *OraclePrices, risk RiskCfg) bool {
	if withdrawTokens.Cmp(currentCollateralTokens) > 0 {
		return false
	}

	if prices.CollateralPriceMin.Sign() <= 0 {
		panic(newInvariantViolation("oracle collateral_price_min must be positive"))
	}

	nextCollateralTokens := new(big.Int).Sub(currentCollateralTokens, withdrawTokens)

	remainingCollateralUsd := new(big.Int).Mul(nextCollateralTokens, prices.CollateralPriceMin)
	if !fitsI128(remainingCollateralUsd) {
		panic(newInvariantViolation("remaining_collateral_usd overflow"))
	}

	if remainingCollateralUsd.Cmp(risk.MinCollateralUsd) < 0 {
		return false
	}

	minForLeverage := new(big.Int).Mul(nextSizeUsd, risk.MinCollateralFactorFp)
	if !fitsI128(minForLeverage) {
		panic(newInvariantViolation("min_for_leverage overflow"))
	}
	minForLeverage.Quo(minForLeverage, risk.FactorScale)

	return remainingCollateralUsd.Cmp(minForLeverage) >= 0
}

// PostcheckRemainingPosition validates a position after settlement (fees,
// realized PnL, collateral changes already applied). A fully closed
// position (size_usd == 0) always passes.
func PostcheckRemainingPosition(posAfter *Position, prices *OraclePrices, risk RiskCfg) error {
	if posAfter.SizeUsd.Sign() == 0 {
		return nil
	}
	if posAfter.SizeUsd.Sign() < 0 || posAfter.SizeTokens.Sign() < 0 || posAfter.CollateralAmount.Sign() < 0 {
		return ErrPositionNegativeAfterSettle
	}
	if prices.CollateralPriceMin.Sign() <= 0 {
		return ErrInvalidCollateralPriceMin
	}

	remainingCollateralUsd := new(big.Int).Mul(posAfter.CollateralAmount, prices.CollateralPriceMin)
	if !fitsI128(remainingCollateralUsd) {
		return ErrCollateralUsdOverflow
	}

	if remainingCollateralUsd.Cmp(risk.MinCollateralUsd) < 0 {
		return ErrRemainingCollateralBelowMin
	}

	minForLeverage := new(big.Int).Mul(posAfter.SizeUsd, risk.MinCollateralFactorFp)
	if !fitsI128(minForLeverage) {
		return ErrMinForLeverageOverflow
	}
	minForLeverage.Quo(minForLeverage, risk.FactorScale)

	if remainingCollateralUsd.Cmp(minForLeverage) < 0 {
		return ErrRemainingExceedsMaxLeverage
	}

	return nil
}
