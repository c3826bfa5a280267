package perp

import "math/big"

// pickPriceForPnl selects the oracle price side that values a position
// conservatively: longs mark against the bid (index_price_min), shorts mark
// against the ask (index_price_max).
func pickPriceForPnl(side Side, prices *OraclePrices) (*Usd, error) {
	var p *Usd
	switch side {
	case Long:
		p = prices.IndexPriceMin
	case Short:
		p = prices.IndexPriceMax
	}
	if p == nil || p.Sign() <= 0 {
		return nil, ErrInvalidPnlPrice
	}
	return p, nil
}

// TotalPositionPnlUsd is the position's full unrealized PnL in USD: the
// current USD value of its token size compared against the USD size it was
// opened at. Longs gain when value rises above size_usd; shorts gain when it
// falls below.
func TotalPositionPnlUsd(pos *Position, prices *OraclePrices) (*Usd, error) {
	px, err := pickPriceForPnl(pos.Key.Side, prices)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Mul(pos.SizeTokens, px)
	if !fitsI128(value) {
		return nil, ErrPnlValueOverflow
	}
	var pnl *big.Int
	switch pos.Key.Side {
	case Long:
		pnl = new(big.Int).Sub(value, pos.SizeUsd)
	case Short:
		pnl = new(big.Int).Sub(pos.SizeUsd, value)
	}
	return pnl, nil
}

// RealizedPnlUsd prorates total PnL by the fraction of the position's token
// size being closed.
func RealizedPnlUsd(totalPnlUsd, sizeDeltaTokens, posSizeTokens *Usd) (*Usd, error) {
	if posSizeTokens.Sign() <= 0 {
		return nil, ErrInvalidPosSizeTokens
	}
	return MulDiv(totalPnlUsd, sizeDeltaTokens, posSizeTokens)
}

// PnlUsdToCollateralTokens converts a signed USD PnL into collateral tokens.
// The rounding is asymmetric and always favors the pool over the trader:
// a gain floors (the trader is paid the fewer tokens), a loss ceils (the
// trader owes the more tokens).
func PnlUsdToCollateralTokens(pnlUsd *Usd, prices *OraclePrices) (*TokenAmount, error) {
	if pnlUsd.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if pnlUsd.Sign() > 0 {
		p := prices.CollateralPriceMax
		if p == nil || p.Sign() <= 0 {
			return nil, ErrInvalidCollateralPriceMax
		}
		return DivFloorU(pnlUsd, p)
	}
	p := prices.CollateralPriceMin
	if p == nil || p.Sign() <= 0 {
		return nil, ErrInvalidCollateralPriceMin
	}
	abs := new(big.Int).Neg(pnlUsd)
	tokens, err := DivCeilU(abs, p)
	if err != nil {
		return nil, err
	}
	return tokens.Neg(tokens), nil
}
