package perp

import (
	"math/big"
	"testing"
)

type fixedOracle struct {
	prices *OraclePrices
}

func (o fixedOracle) ValidateAndGetPrices(marketId MarketId) (*OraclePrices, error) {
	return o.prices, nil
}

func newTestEngine(prices *OraclePrices) *Engine {
	e := NewEngine(1, nil)
	e.Oracle = fixedOracle{prices: prices}
	e.Market.LiquidityUsd = usd(1_000_000)
	return e
}

func flatPrices(p int64) *OraclePrices {
	return &OraclePrices{
		IndexPriceMin:      usd(p),
		IndexPriceMax:      usd(p),
		CollateralPriceMin: usd(1),
		CollateralPriceMax: usd(1),
	}
}

func TestSettleIncreaseOpensNewPosition(t *testing.T) {
	e := newTestEngine(flatPrices(100))
	acc := AccountId{1}
	order := &Order{
		Account:         acc,
		MarketId:        1,
		CollateralToken: 1,
		Side:            Long,
		OrderType:       Increase,
		SizeDeltaUsd:    usd(1000),
	}
	// seed collateral via a direct position write before the increase so
	// postcheck's minimum-collateral floor is satisfied; in production a
	// deposit step (outside this core) would do this.
	key := PositionKey{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long}
	e.Positions.Upsert(&Position{
		Key:                 key,
		SizeUsd:             big.NewInt(0),
		SizeTokens:          big.NewInt(0),
		CollateralAmount:    usd(500),
		PendingImpactTokens: big.NewInt(0),
		FundingIndex:        big.NewInt(0),
		BorrowingIndex:      big.NewInt(0),
	})

	summary, err := e.SettleIncrease(order, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Position.SizeUsd.Int64() != 1000 {
		t.Fatalf("got size_usd %v, want 1000", summary.Position.SizeUsd)
	}
	if e.Market.OiLongUsd.Int64() != 1000 {
		t.Fatalf("got oi_long %v, want 1000", e.Market.OiLongUsd)
	}
	if got := e.Positions.Get(key); got == nil || got.SizeUsd.Sign() == 0 {
		t.Fatal("expected position to be committed to the store")
	}
}

func TestSettleIncreaseRejectsZeroSizeDelta(t *testing.T) {
	e := newTestEngine(flatPrices(100))
	order := &Order{Account: AccountId{2}, MarketId: 1, CollateralToken: 1, Side: Long, OrderType: Increase, SizeDeltaUsd: usd(0)}
	_, err := e.SettleIncrease(order, 1)
	if err != ErrSizeDeltaUsdMustBePositive {
		t.Fatalf("expected ErrSizeDeltaUsdMustBePositive, got %v", err)
	}
}

func TestSettleIncreaseFailureLeavesPositionUntouched(t *testing.T) {
	e := newTestEngine(flatPrices(100))
	acc := AccountId{3}
	key := PositionKey{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long}
	e.Positions.Upsert(&Position{
		Key:                 key,
		SizeUsd:             usd(100),
		SizeTokens:          usd(1),
		CollateralAmount:    usd(1), // far below the min collateral floor
		PendingImpactTokens: big.NewInt(0),
		FundingIndex:        big.NewInt(0),
		BorrowingIndex:      big.NewInt(0),
	})
	e.Market.OiLongUsd = usd(100)

	order := &Order{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long, OrderType: Increase, SizeDeltaUsd: usd(900)}
	_, err := e.SettleIncrease(order, 1)
	if err == nil {
		t.Fatal("expected postcheck to reject undercollateralized increase")
	}

	after := e.Positions.Get(key)
	if after.SizeUsd.Int64() != 100 {
		t.Fatalf("position mutated despite failed settlement: size_usd=%v", after.SizeUsd)
	}
	if e.Market.OiLongUsd.Int64() != 100 {
		t.Fatalf("open interest mutated despite failed settlement: %v", e.Market.OiLongUsd)
	}
}

func TestSettleIncreaseFailureLeavesClaimablesUntouched(t *testing.T) {
	e := newTestEngine(flatPrices(100))
	acc := AccountId{7}
	key := PositionKey{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long}
	e.Positions.Upsert(&Position{
		Key:                 key,
		SizeUsd:             usd(100),
		SizeTokens:          usd(1),
		CollateralAmount:    usd(1), // far below the min collateral floor
		PendingImpactTokens: big.NewInt(0),
		FundingIndex:        big.NewInt(0),
		BorrowingIndex:      big.NewInt(0),
	})
	e.Market.OiLongUsd = usd(100)
	// Shorts have been paying longs: the long side is owed funding, so
	// settlePositionAccrual will compute a positive reward for this position.
	e.Market.Funding.CumulativeIndexLong = usd(-2_000_000)

	order := &Order{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long, OrderType: Increase, SizeDeltaUsd: usd(900)}
	_, err := e.SettleIncrease(order, 1)
	if err == nil {
		t.Fatal("expected postcheck to reject undercollateralized increase")
	}

	if bal := e.Claimables.GetFunding(acc, 1); bal.Sign() != 0 {
		t.Fatalf("funding reward leaked into Claimables despite failed settlement: %v", bal)
	}
}

func TestSettleDecreaseFullCloseRemovesPosition(t *testing.T) {
	e := newTestEngine(flatPrices(100))
	acc := AccountId{4}
	key := PositionKey{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long}
	e.Positions.Upsert(&Position{
		Key:                 key,
		SizeUsd:             usd(1000),
		SizeTokens:          usd(10),
		CollateralAmount:    usd(500),
		PendingImpactTokens: big.NewInt(0),
		FundingIndex:        big.NewInt(0),
		BorrowingIndex:      big.NewInt(0),
	})
	e.Market.OiLongUsd = usd(1000)

	order := &Order{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long, OrderType: Decrease, SizeDeltaUsd: usd(1000), WithdrawCollateralAmt: usd(0)}
	_, err := e.SettleDecrease(order, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.Positions.Get(key); got != nil {
		t.Fatalf("expected position to be removed after full close, got %v", got)
	}
}

func TestSettleDecreaseRejectsUnknownPosition(t *testing.T) {
	e := newTestEngine(flatPrices(100))
	order := &Order{Account: AccountId{5}, MarketId: 1, CollateralToken: 1, Side: Long, OrderType: Decrease, SizeDeltaUsd: usd(10), WithdrawCollateralAmt: usd(0)}
	_, err := e.SettleDecrease(order, 1)
	if err != ErrPositionEmptyOrCorrupted {
		t.Fatalf("expected ErrPositionEmptyOrCorrupted, got %v", err)
	}
}

func TestSettleLiquidationForcesFullClose(t *testing.T) {
	e := newTestEngine(flatPrices(100))
	acc := AccountId{6}
	key := PositionKey{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long}
	e.Positions.Upsert(&Position{
		Key:                 key,
		SizeUsd:             usd(1000),
		SizeTokens:          usd(10),
		CollateralAmount:    usd(500),
		PendingImpactTokens: big.NewInt(0),
		FundingIndex:        big.NewInt(0),
		BorrowingIndex:      big.NewInt(0),
	})
	e.Market.OiLongUsd = usd(1000)

	order := &Order{Account: acc, MarketId: 1, CollateralToken: 1, Side: Long}
	_, err := e.SettleLiquidation(order, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.Positions.Get(key); got != nil {
		t.Fatalf("expected position fully closed by liquidation, got %v", got)
	}
}
