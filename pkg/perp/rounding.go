package perp

import "math/big"

// maxI128 / minI128 bound every Usd/TokenAmount result to signed 128 bits,
// the width spec.md assumes for all scalar arithmetic.
var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

func fitsI128(v *big.Int) bool {
	return v.Cmp(minI128) >= 0 && v.Cmp(maxI128) <= 0
}

// DivCeilU computes ceil(a/b). Defined only for a >= 0, b > 0; any other
// input is a domain error, not an invariant violation.
func DivCeilU(a, b *big.Int) (*big.Int, error) {
	if a.Sign() < 0 || b.Sign() <= 0 {
		return nil, ErrDivDomain
	}
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(a, b, r)
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// DivFloorU computes floor(a/b), defined only for a >= 0, b > 0.
func DivFloorU(a, b *big.Int) (*big.Int, error) {
	if a.Sign() < 0 || b.Sign() <= 0 {
		return nil, ErrDivDomain
	}
	return new(big.Int).Quo(a, b), nil
}

// MulDiv computes a*b/denom with a checked intermediate product, truncating
// toward zero. Not every division in this package goes through MulDiv,
// DivCeilU, or DivFloorU: the fees, funding, borrowing, pricing, risk and
// settlement code also divide with big.Int Quo/QuoRem directly.
//
// The intermediate product a*b must itself fit in 128 bits, mirroring
// checked_mul on a native i128 — even though *big.Int never overflows, a
// product too wide for 128 bits is rejected exactly as the reference i128
// arithmetic would reject it.
func MulDiv(a, b, denom *big.Int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrDivByZero
	}
	prod := new(big.Int).Mul(a, b)
	if !fitsI128(prod) {
		return nil, ErrMulOverflow
	}
	q := new(big.Int).Quo(prod, denom)
	if !fitsI128(q) {
		return nil, ErrDivOverflow
	}
	return q, nil
}
