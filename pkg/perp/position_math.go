package perp

import "math/big"

// SizeDeltaInTokens converts a USD size delta into the matching slice of the
// position's token size. A full close (or an exact match of the whole
// position) returns the position's entire token size verbatim, sidestepping
// rounding entirely. Otherwise the conversion rounds toward the pool: ceil
// for longs, floor for shorts.
func SizeDeltaInTokens(pos *Position, sizeDeltaUsd *Usd, isFullClose bool) (*TokenAmount, error) {
	if isFullClose || sizeDeltaUsd.Cmp(pos.SizeUsd) == 0 {
		return pos.SizeTokens, nil
	}
	if pos.SizeUsd.Sign() <= 0 || pos.SizeTokens.Sign() <= 0 || sizeDeltaUsd.Sign() <= 0 {
		return nil, ErrInvalidPositionOrSizeDelta
	}

	n := new(big.Int).Mul(pos.SizeTokens, sizeDeltaUsd)
	if !fitsI128(n) {
		return nil, ErrSizeDeltaMulOverflow
	}

	var t *big.Int
	var err error
	switch pos.Key.Side {
	case Long:
		t, err = DivCeilU(n, pos.SizeUsd)
	case Short:
		t, err = DivFloorU(n, pos.SizeUsd)
	}
	if err != nil {
		return nil, err
	}
	if t.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return t, nil
}

// ProportionalPendingImpactTokens prorates a position's deferred impact by
// the fraction of its USD size being closed. Non-positive inputs yield zero
// rather than an error: a zero-size position or decrease has nothing to
// prorate.
func ProportionalPendingImpactTokens(pos *Position, sizeDeltaUsd *Usd) (*TokenAmount, error) {
	if pos.SizeUsd.Sign() <= 0 || sizeDeltaUsd.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	return MulDiv(pos.PendingImpactTokens, sizeDeltaUsd, pos.SizeUsd)
}
