package perp

import (
	"math/big"

	"github.com/holiman/uint256"
)

// fpScale is the fixed-point scale (1e18) every impact factor in
// ImpactRebalanceConfig is expressed in.
var fpScale = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))

// ImpactRebalanceConfig parameterizes the price-impact curve. All factor
// fields are fixed-point values scaled by fpScale.
type ImpactRebalanceConfig struct {
	// ImpactExponent is the exponent "e" in diff^e.
	ImpactExponent uint32

	// SameSidePositiveFactorFp applies when a trade shrinks an existing
	// long/short imbalance (a helpful trade).
	SameSidePositiveFactorFp *uint256.Int

	// SameSideNegativeFactorFp applies when a trade grows the imbalance.
	SameSideNegativeFactorFp *uint256.Int

	// CrossoverPositiveFactorFp weights the pre-trade imbalance term when
	// the heavy side flips.
	CrossoverPositiveFactorFp *uint256.Int

	// CrossoverNegativeFactorFp weights the post-trade imbalance term when
	// the heavy side flips.
	CrossoverNegativeFactorFp *uint256.Int
}

// DefaultQuadraticImpactConfig is the MVP impact profile: impact scales with
// the square of the open-interest imbalance, with harmful trades penalized
// roughly 4x more steeply than helpful trades are rewarded.
func DefaultQuadraticImpactConfig() ImpactRebalanceConfig {
	one := fpScale
	million := uint256.NewInt(1_000_000)
	return ImpactRebalanceConfig{
		ImpactExponent:            2,
		SameSidePositiveFactorFp:  new(uint256.Int).Div(one, million),
		SameSideNegativeFactorFp:  new(uint256.Int).Div(new(uint256.Int).Mul(one, uint256.NewInt(4)), million),
		CrossoverPositiveFactorFp: new(uint256.Int).Div(one, million),
		CrossoverNegativeFactorFp: new(uint256.Int).Div(new(uint256.Int).Mul(one, uint256.NewInt(4)), million),
	}
}

// OpenInterestSnapshot is the long/short open interest of a market at a
// point in time.
type OpenInterestSnapshot struct {
	LongUsd  *Usd
	ShortUsd *Usd
}

// OpenInterestParams carries the before/after open-interest snapshots a
// price-impact computation compares.
type OpenInterestParams struct {
	Current OpenInterestSnapshot
	Next    OpenInterestSnapshot
}

// PriceImpactService computes the signed USD price impact of moving open
// interest from Current to Next, and whether the move improved balance.
type PriceImpactService interface {
	ComputePriceImpactUsd(oi OpenInterestParams, cfg ImpactRebalanceConfig) (*Usd, bool)
}

// BasicPriceImpactService is the MVP quadratic same-side/crossover impact
// curve.
type BasicPriceImpactService struct{}

func usdToU256(x *Usd) *uint256.Int {
	if x.Sign() < 0 {
		panic(newInvariantViolation("open interest must be non-negative"))
	}
	v, overflow := uint256.FromBig(x)
	if overflow {
		panic(newInvariantViolation("open interest exceeds 256 bits"))
	}
	return v
}

func absDiffU256(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) >= 0 {
		return new(uint256.Int).Sub(a, b)
	}
	return new(uint256.Int).Sub(b, a)
}

// powU256 computes x^exp via square-and-multiply, saturating on overflow
// rather than wrapping, matching the Rust reference's use of
// U256::saturating_mul throughout the curve.
func powU256(x *uint256.Int, exp uint32) *uint256.Int {
	if exp == 0 {
		return uint256.NewInt(1)
	}
	result := uint256.NewInt(1)
	base := new(uint256.Int).Set(x)
	for exp > 0 {
		if exp&1 == 1 {
			result = saturatingMulU256(result, base)
		}
		base = saturatingMulU256(base, base)
		exp >>= 1
	}
	return result
}

func saturatingMulU256(a, b *uint256.Int) *uint256.Int {
	out := new(uint256.Int)
	_, overflow := out.MulOverflow(a, b)
	if overflow {
		return new(uint256.Int).Not(uint256.NewInt(0)) // max uint256
	}
	return out
}

// fromFpToUsdSaturating truncates a fixed-point magnitude back down to a
// plain USD amount, saturating to the 128-bit ceiling if the quotient is
// too wide to represent as a Usd.
func fromFpToUsdSaturating(vFp *uint256.Int) *Usd {
	q := new(uint256.Int).Div(vFp, fpScale)
	result := q.ToBig()
	if !fitsI128(result) {
		return new(big.Int).Set(maxI128)
	}
	return result
}

// ComputePriceImpactUsd runs the same-side/crossover impact curve described
// in ImpactRebalanceConfig.
func (BasicPriceImpactService) ComputePriceImpactUsd(oi OpenInterestParams, cfg ImpactRebalanceConfig) (*Usd, bool) {
	initialLongLeShort := oi.Current.LongUsd.Cmp(oi.Current.ShortUsd) <= 0
	nextLongLeShort := oi.Next.LongUsd.Cmp(oi.Next.ShortUsd) <= 0
	isSameSideRebalance := initialLongLeShort == nextLongLeShort

	long0 := usdToU256(oi.Current.LongUsd)
	short0 := usdToU256(oi.Current.ShortUsd)
	long1 := usdToU256(oi.Next.LongUsd)
	short1 := usdToU256(oi.Next.ShortUsd)

	initialDiff := absDiffU256(long0, short0)
	nextDiff := absDiffU256(long1, short1)
	balanceWasImproved := nextDiff.Cmp(initialDiff) < 0

	e := cfg.ImpactExponent
	d0e := powU256(initialDiff, e)
	d1e := powU256(nextDiff, e)

	if isSameSideRebalance {
		factorFp := cfg.SameSideNegativeFactorFp
		if balanceWasImproved {
			factorFp = cfg.SameSidePositiveFactorFp
		}

		var diffE *uint256.Int
		negative := false
		if d0e.Cmp(d1e) >= 0 {
			diffE = new(uint256.Int).Sub(d0e, d1e)
		} else {
			diffE = new(uint256.Int).Sub(d1e, d0e)
			negative = true
		}

		magFp := saturatingMulU256(diffE, factorFp)
		impactUsd := fromFpToUsdSaturating(magFp)
		if negative {
			impactUsd.Neg(impactUsd)
		}
		return impactUsd, balanceWasImproved
	}

	term0 := saturatingMulU256(d0e, cfg.CrossoverPositiveFactorFp)
	term1 := saturatingMulU256(d1e, cfg.CrossoverNegativeFactorFp)

	var magFp *uint256.Int
	isPositive := true
	if term0.Cmp(term1) >= 0 {
		magFp = new(uint256.Int).Sub(term0, term1)
	} else {
		magFp = new(uint256.Int).Sub(term1, term0)
		isPositive = false
	}

	impactUsd := fromFpToUsdSaturating(magFp)
	if !isPositive {
		impactUsd.Neg(impactUsd)
	}
	return impactUsd, balanceWasImproved
}
