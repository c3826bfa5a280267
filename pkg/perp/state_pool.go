package perp

import "math/big"

type poolKey struct {
	MarketId MarketId
	Asset    AssetId
}

// PoolBalances tracks per-(market, asset) token balances owned by the
// liquidity pool: fee revenue, deposited liquidity, and withdrawals all flow
// through here.
type PoolBalances struct {
	balances map[poolKey]*TokenAmount
}

// NewPoolBalances returns an empty pool ledger.
func NewPoolBalances() *PoolBalances {
	return &PoolBalances{balances: make(map[poolKey]*TokenAmount)}
}

func (p *PoolBalances) entry(marketId MarketId, asset AssetId) *TokenAmount {
	key := poolKey{marketId, asset}
	bal, ok := p.balances[key]
	if !ok {
		bal = big.NewInt(0)
		p.balances[key] = bal
	}
	return bal
}

// AddFeeToPool credits trading/liquidation/borrowing fee revenue to the pool.
func (p *PoolBalances) AddFeeToPool(marketId MarketId, asset AssetId, amount *TokenAmount) {
	if amount.Sign() == 0 {
		return
	}
	bal := p.entry(marketId, asset)
	bal.Add(bal, amount)
}

// AddLiquidity deposits amount of asset into the market's pool.
func (p *PoolBalances) AddLiquidity(marketId MarketId, asset AssetId, amount *TokenAmount) {
	if amount.Sign() == 0 {
		return
	}
	bal := p.entry(marketId, asset)
	bal.Add(bal, amount)
}

// AddLiquidityPair deposits both sides of a two-token pool at once.
func (p *PoolBalances) AddLiquidityPair(marketId MarketId, longAsset AssetId, longAmount *TokenAmount, shortAsset AssetId, shortAmount *TokenAmount) {
	if longAmount.Sign() > 0 {
		p.AddLiquidity(marketId, longAsset, longAmount)
	}
	if shortAmount.Sign() > 0 {
		p.AddLiquidity(marketId, shortAsset, shortAmount)
	}
}

// RemoveLiquidity withdraws amount of asset from the market's pool, failing
// if the pool does not hold enough.
func (p *PoolBalances) RemoveLiquidity(marketId MarketId, asset AssetId, amount *TokenAmount) (*TokenAmount, error) {
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	bal := p.entry(marketId, asset)
	if bal.Cmp(amount) < 0 {
		return nil, ErrInsufficientPoolLiquidity
	}
	bal.Sub(bal, amount)
	return amount, nil
}

// RemoveLiquidityPair withdraws both sides of a two-token pool, failing if
// either side lacks sufficient liquidity. It is not atomic: if the second
// side fails, the first side's withdrawal is not rolled back; callers that
// need atomicity should check GetPairBalances first.
func (p *PoolBalances) RemoveLiquidityPair(marketId MarketId, longAsset AssetId, longAmount *TokenAmount, shortAsset AssetId, shortAmount *TokenAmount) (*TokenAmount, *TokenAmount, error) {
	takenLong, err := p.RemoveLiquidity(marketId, longAsset, longAmount)
	if err != nil {
		return nil, nil, err
	}
	takenShort, err := p.RemoveLiquidity(marketId, shortAsset, shortAmount)
	if err != nil {
		return nil, nil, err
	}
	return takenLong, takenShort, nil
}

// GetBalance returns the current pool balance for (market, asset).
func (p *PoolBalances) GetBalance(marketId MarketId, asset AssetId) *TokenAmount {
	if bal, ok := p.balances[poolKey{marketId, asset}]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// GetPairBalances returns both sides of a two-token pool for a market.
func (p *PoolBalances) GetPairBalances(marketId MarketId, longAsset, shortAsset AssetId) (*TokenAmount, *TokenAmount) {
	return p.GetBalance(marketId, longAsset), p.GetBalance(marketId, shortAsset)
}
