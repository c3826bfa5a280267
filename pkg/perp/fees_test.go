package perp

import "testing"

func TestComputeFeesAppliesHelpfulRebate(t *testing.T) {
	svc := BasicFeesService{PositionFeeBpsIncrease: 10, HelpfulRebatePercent: 50}
	pos := &Position{Key: PositionKey{MarketId: 1, CollateralToken: 2}}
	order := &Order{OrderType: Increase}
	prices := &OraclePrices{CollateralPriceMin: usd(1), CollateralPriceMax: usd(1)}

	withoutRebate := svc
	withoutRebate.HelpfulRebatePercent = 0
	feesNoRebate := withoutRebate.ComputeFees(pos, order, prices, false, usd(10_000))
	feesRebate := svc.ComputeFees(pos, order, prices, true, usd(10_000))

	if feesRebate.PositionFeeUsd.Cmp(feesNoRebate.PositionFeeUsd) >= 0 {
		t.Fatalf("rebated fee should be smaller: rebate=%v no-rebate=%v", feesRebate.PositionFeeUsd, feesNoRebate.PositionFeeUsd)
	}
}

func TestComputeFeesLiquidationOnlyOnLiquidationOrders(t *testing.T) {
	svc := BasicFeesService{LiquidationFeeBps: 50}
	pos := &Position{Key: PositionKey{MarketId: 1, CollateralToken: 2}}
	prices := &OraclePrices{CollateralPriceMin: usd(1)}

	increaseOrder := &Order{OrderType: Increase}
	fees := svc.ComputeFees(pos, increaseOrder, prices, false, usd(10_000))
	if fees.LiquidationFeeUsd.Sign() != 0 {
		t.Fatal("non-liquidation order should have zero liquidation fee")
	}

	liqOrder := &Order{OrderType: Liquidation}
	fees = svc.ComputeFees(pos, liqOrder, prices, false, usd(10_000))
	if fees.LiquidationFeeUsd.Sign() <= 0 {
		t.Fatal("liquidation order should accrue a liquidation fee")
	}
}

func TestApplyFeesRoutesToPool(t *testing.T) {
	svc := BasicFeesService{}
	pools := NewPoolBalances()
	claimables := NewClaimables()
	stepFees := StepFees{
		PositionFeeTokens:    usd(5),
		LiquidationFeeTokens: usd(2),
		MarketId:             1,
		FeeAsset:             2,
	}
	svc.ApplyFees(pools, claimables, stepFees)
	bal := pools.GetBalance(1, 2)
	if bal.Int64() != 7 {
		t.Fatalf("got %v, want 7", bal)
	}
}
