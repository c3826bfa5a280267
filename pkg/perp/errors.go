package perp

import "errors"

// Domain errors are recoverable: the caller can inspect them and retry with
// different inputs. They are returned normally, never panicked.
var (
	ErrInvalidPnlPrice             = errors.New("perp: invalid pnl price")
	ErrInvalidCollateralPriceMin   = errors.New("perp: invalid collateral_price_min")
	ErrInvalidCollateralPriceMax   = errors.New("perp: invalid collateral_price_max")
	ErrInvalidFactorScale          = errors.New("perp: invalid factor_scale")
	ErrPnlValueOverflow            = errors.New("perp: pnl value overflow")
	ErrSizeDeltaMulOverflow        = errors.New("perp: size delta multiplication overflow")
	ErrMulOverflow                 = errors.New("perp: multiplication overflow")
	ErrDivOverflow                 = errors.New("perp: division overflow")
	ErrCollateralUsdOverflow       = errors.New("perp: collateral usd overflow")
	ErrMinForLeverageOverflow      = errors.New("perp: min-for-leverage overflow")
	ErrInvalidPosSizeTokens        = errors.New("perp: invalid position size_tokens")
	ErrInvalidPositionOrSizeDelta  = errors.New("perp: invalid position or size_delta")
	ErrSizeDeltaUsdMustBePositive  = errors.New("perp: size_delta_usd must be positive")
	ErrWithdrawMustBeNonNegative   = errors.New("perp: withdraw_collateral_amount must be non-negative")
	ErrPositionEmptyOrCorrupted    = errors.New("perp: position empty or corrupted")
	ErrPositionCollateralNegative  = errors.New("perp: position collateral negative")
	ErrPositionNegativeAfterSettle = errors.New("perp: position has negative values after settlement")
	ErrRemainingCollateralBelowMin = errors.New("perp: remaining collateral below minimum")
	ErrRemainingExceedsMaxLeverage = errors.New("perp: remaining position exceeds max leverage")
	ErrNothingToClaim              = errors.New("perp: nothing to claim")
	ErrInsufficientPoolLiquidity   = errors.New("perp: insufficient pool liquidity")
	ErrDivDomain                   = errors.New("perp: division domain error, require a >= 0, b > 0")
	ErrDivByZero                   = errors.New("perp: division by zero")
)

// Pricing errors (spec.md §4.5 / §7) carry extra context (the offending
// size delta and impact) beyond a plain sentinel, so they are a typed
// *PricingError in pricing.go instead of living in this sentinel block.

// InvariantViolation marks a bug, not a recoverable condition: the caller
// could not have constructed a well-formed retry. Callers that receive one
// of these from a core function should treat it as fatal for the in-flight
// settlement, per spec.md §7.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return "perp: invariant violation: " + e.Msg }

func newInvariantViolation(msg string) error {
	return &InvariantViolation{Msg: msg}
}
