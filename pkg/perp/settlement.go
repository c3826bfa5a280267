package perp

import (
	"math/big"

	"go.uber.org/zap"
)

// Engine is the single-owner orchestrator for one market's settlement
// pipeline: it holds the pluggable services and the mutable state
// containers for that market, and enforces the step ordering a settlement
// requires. Callers must serialize access to one Engine per market the same
// way a single logical executor owns one block's worth of transactions.
type Engine struct {
	MarketId MarketId

	Market     *MarketState
	Positions  *PositionStore
	Orders     *OrderStore
	Pools      *PoolBalances
	Claimables *Claimables

	PriceImpact PriceImpactService
	Pricing     PricingService
	Funding     FundingService
	Borrowing   BorrowingService
	Fees        FeesService
	ImpactPool  ImpactPoolService
	Oracle      Oracle
	Risk        RiskCfg
	ImpactCfg   ImpactRebalanceConfig

	log *zap.SugaredLogger
}

// NewEngine wires together the basic service implementations for one
// market. Callers that need custom services can construct an Engine
// literal directly instead.
func NewEngine(marketId MarketId, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		MarketId:    marketId,
		Market:      NewMarketState(marketId),
		Positions:   NewPositionStore(),
		Orders:      NewOrderStore(),
		Pools:       NewPoolBalances(),
		Claimables:  NewClaimables(),
		PriceImpact: BasicPriceImpactService{},
		Pricing:     BasicPricingService{},
		Funding:     BasicFundingService{},
		Borrowing:   BasicBorrowingService{},
		Fees:        BasicFeesService{},
		ImpactPool:  BasicImpactPoolService{},
		Risk:        DefaultRiskCfg(),
		ImpactCfg:   DefaultQuadraticImpactConfig(),
		log:         logger,
	}
}

// SettlementSummary is the outcome of a successful settlement: the
// finalized position plus the USD/token flows the engine applied.
type SettlementSummary struct {
	Position          *Position
	RealizedPnlUsd    *Usd
	FundingCostUsd    *Usd
	BorrowingCostUsd  *Usd
	FeeUsd            *Usd
	CollateralDeltaTk *TokenAmount
	ExecutionPrice    *Usd
}

func (e *Engine) logStep(step string, key PositionKey, fields ...any) {
	if e.log == nil {
		return
	}
	args := append([]any{"market", key.MarketId, "account", key.Account.Hex(), "side", key.Side.String()}, fields...)
	e.log.Infow("settlement step: "+step, args...)
}

// advanceIndices performs step (1): bring the market's funding and
// borrowing indices up to now before anything reads them.
func (e *Engine) advanceIndices(now Timestamp) {
	e.Funding.UpdateIndices(e.Market, now)
	e.Borrowing.UpdateIndex(e.Market, now)
}

// settlePositionAccrual performs step (2): snapshot-delta funding and
// borrowing for pos against the just-advanced indices. The returned costs
// are USD (both always >= 0); a receiver-side funding reward is returned as
// fundingRewardTokens rather than applied to Claimables here, since pos is
// still only a scratch copy and the settlement as a whole may yet fail.
func (e *Engine) settlePositionAccrual(pos *Position, prices *OraclePrices) (fundingCostUsd, borrowingCostUsd, fundingRewardTokens *Usd, err error) {
	fundingStep, err := ApplyFundingStep(e.Funding, e.Market, pos, prices)
	if err != nil {
		return nil, nil, nil, err
	}
	borrowingStep := ApplyBorrowingStep(e.Borrowing, e.Market, pos)
	return fundingStep.CostUsd, borrowingStep.CostUsd, fundingStep.RewardTokens, nil
}

// applyCollateralDeltaUsd converts a signed USD delta (PnL minus costs) into
// collateral tokens via the asymmetric rounding in pnl.go, and applies it to
// a scratch copy's collateral. It does not clamp: collateral may go
// negative, and the postcheck then rejects the settlement.
func applyCollateralDeltaUsd(pos *Position, deltaUsd *Usd, prices *OraclePrices) error {
	deltaTokens, err := PnlUsdToCollateralTokens(deltaUsd, prices)
	if err != nil {
		return err
	}
	pos.CollateralAmount = new(big.Int).Add(pos.CollateralAmount, deltaTokens)
	return nil
}

// scratchCopy returns a shallow copy of pos with its own big.Int fields, so
// a failed settlement never mutates the caller-visible position.
func scratchCopy(pos *Position) *Position {
	cp := *pos
	cp.SizeUsd = new(big.Int).Set(pos.SizeUsd)
	cp.SizeTokens = new(big.Int).Set(pos.SizeTokens)
	cp.CollateralAmount = new(big.Int).Set(pos.CollateralAmount)
	cp.PendingImpactTokens = new(big.Int).Set(pos.PendingImpactTokens)
	cp.FundingIndex = new(big.Int).Set(pos.FundingIndex)
	cp.BorrowingIndex = new(big.Int).Set(pos.BorrowingIndex)
	return &cp
}

// SettleIncrease runs the eight-step sequence for an order that opens or
// adds to a position.
func (e *Engine) SettleIncrease(order *Order, now Timestamp) (*SettlementSummary, error) {
	prices, err := e.Oracle.ValidateAndGetPrices(e.MarketId)
	if err != nil {
		return nil, err
	}
	if order.SizeDeltaUsd.Sign() <= 0 {
		return nil, ErrSizeDeltaUsdMustBePositive
	}

	key := PositionKey{Account: order.Account, MarketId: e.MarketId, CollateralToken: order.CollateralToken, Side: order.Side}
	existing := e.Positions.Get(key)
	var pos *Position
	if existing != nil {
		pos = scratchCopy(existing)
	} else {
		pos = &Position{
			Key:                 key,
			SizeUsd:             big.NewInt(0),
			SizeTokens:          big.NewInt(0),
			CollateralAmount:    big.NewInt(0),
			PendingImpactTokens: big.NewInt(0),
			FundingIndex:        big.NewInt(0),
			BorrowingIndex:      big.NewInt(0),
			OpenedAt:            now,
		}
	}

	// step 1
	e.advanceIndices(now)
	e.logStep("advance_indices", key, "now", now)

	// step 2
	fundingCostUsd, borrowingCostUsd, fundingRewardTokens, err := e.settlePositionAccrual(pos, prices)
	if err != nil {
		return nil, err
	}
	e.logStep("settle_accrual", key, "funding_cost_usd", fundingCostUsd.String(), "borrowing_cost_usd", borrowingCostUsd.String())

	// step 3
	oi := OpenInterestParams{
		Current: OpenInterestSnapshot{LongUsd: e.Market.OiLongUsd, ShortUsd: e.Market.OiShortUsd},
	}
	nextLong, nextShort := new(big.Int).Set(e.Market.OiLongUsd), new(big.Int).Set(e.Market.OiShortUsd)
	if order.Side == Long {
		nextLong.Add(nextLong, order.SizeDeltaUsd)
	} else {
		nextShort.Add(nextShort, order.SizeDeltaUsd)
	}
	oi.Next = OpenInterestSnapshot{LongUsd: nextLong, ShortUsd: nextShort}

	priced, err := e.Pricing.GetExecutionPriceForIncrease(e.PriceImpact, ExecutionPriceIncreaseParams{
		Oi:           oi,
		ImpactCfg:    e.ImpactCfg,
		Side:         order.Side,
		SizeDeltaUsd: order.SizeDeltaUsd,
		Prices:       *prices,
	})
	if err != nil {
		return nil, err
	}
	e.logStep("price_execution", key, "execution_price", priced.ExecutionPrice.String(), "price_impact_usd", priced.PriceImpactUsd.String())

	// step 4
	stepFees := e.Fees.ComputeFees(pos, order, prices, priced.BalanceWasImproved, order.SizeDeltaUsd)
	e.logStep("compute_fees", key, "position_fee_usd", stepFees.PositionFeeUsd.String())

	// step 5: apply funding + borrowing costs (USD, always a debit here)
	// and the fee (USD, always a debit) to collateral.
	totalCostUsd := new(big.Int).Add(fundingCostUsd, borrowingCostUsd)
	totalCostUsd.Add(totalCostUsd, stepFees.PositionFeeUsd)
	if totalCostUsd.Sign() != 0 {
		if err := applyCollateralDeltaUsd(pos, new(big.Int).Neg(totalCostUsd), prices); err != nil {
			return nil, err
		}
	}

	// step 6: grow the position by the priced tokens/usd and fold in the
	// new slice of pending impact this trade contributes.
	pos.SizeUsd = new(big.Int).Add(pos.SizeUsd, order.SizeDeltaUsd)
	pos.SizeTokens = new(big.Int).Add(pos.SizeTokens, priced.SizeDeltaTokens)
	pos.PendingImpactTokens = new(big.Int).Add(pos.PendingImpactTokens, priced.PriceImpactAmountTokens)
	pos.LastUpdatedAt = now

	// step 7
	if err := PostcheckRemainingPosition(pos, prices, e.Risk); err != nil {
		return nil, err
	}
	e.logStep("postcheck", key, "result", "ok")

	// step 8: commit state and mutate pool/claimables.
	e.Positions.Upsert(pos)
	if order.Side == Long {
		e.Market.OiLongUsd = nextLong
	} else {
		e.Market.OiShortUsd = nextShort
	}
	if fundingRewardTokens.Sign() > 0 {
		e.Claimables.AddFunding(key.Account, key.CollateralToken, fundingRewardTokens)
	}
	e.Fees.ApplyFees(e.Pools, e.Claimables, stepFees)
	if borrowingCostUsd.Sign() > 0 && prices.CollateralPriceMin.Sign() > 0 {
		borrowingTokens := new(big.Int).Quo(borrowingCostUsd, prices.CollateralPriceMin)
		ApplyBorrowingFeesToPool(e.Pools, e.MarketId, order.CollateralToken, borrowingTokens)
	}
	e.logStep("commit", key)

	return &SettlementSummary{
		Position:          pos,
		RealizedPnlUsd:    big.NewInt(0),
		FundingCostUsd:    fundingCostUsd,
		BorrowingCostUsd:  borrowingCostUsd,
		FeeUsd:            stepFees.PositionFeeUsd,
		CollateralDeltaTk: new(big.Int).Neg(totalCostUsd),
		ExecutionPrice:    priced.ExecutionPrice,
	}, nil
}

// SettleDecrease runs the eight-step sequence for an order that shrinks or
// closes a position, including risk precheck-driven clamping/escalation.
func (e *Engine) SettleDecrease(order *Order, now Timestamp) (*SettlementSummary, error) {
	prices, err := e.Oracle.ValidateAndGetPrices(e.MarketId)
	if err != nil {
		return nil, err
	}

	key := PositionKey{Account: order.Account, MarketId: e.MarketId, CollateralToken: order.CollateralToken, Side: order.Side}
	existing := e.Positions.Get(key)
	if existing == nil {
		return nil, ErrPositionEmptyOrCorrupted
	}

	sizeDeltaUsd, withdrawTokens, isFullClose, err := PrecheckDecreaseAndWithdraw(existing, order, prices, e.Risk)
	if err != nil {
		return nil, err
	}
	e.logStep("precheck", key, "size_delta_usd", sizeDeltaUsd.String(), "is_full_close", isFullClose)

	pos := scratchCopy(existing)

	// step 1
	e.advanceIndices(now)
	e.logStep("advance_indices", key, "now", now)

	// step 2
	fundingCostUsd, borrowingCostUsd, fundingRewardTokens, err := e.settlePositionAccrual(pos, prices)
	if err != nil {
		return nil, err
	}
	e.logStep("settle_accrual", key, "funding_cost_usd", fundingCostUsd.String(), "borrowing_cost_usd", borrowingCostUsd.String())

	// step 3: a decrease removes sizeDeltaUsd from this side's OI, so the
	// "next" snapshot subtracts it; whether that improves balance depends on
	// which side is heavier.
	nextLong, nextShort := new(big.Int).Set(e.Market.OiLongUsd), new(big.Int).Set(e.Market.OiShortUsd)
	if order.Side == Long {
		nextLong.Sub(nextLong, sizeDeltaUsd)
	} else {
		nextShort.Sub(nextShort, sizeDeltaUsd)
	}
	oi := OpenInterestParams{
		Current: OpenInterestSnapshot{LongUsd: e.Market.OiLongUsd, ShortUsd: e.Market.OiShortUsd},
		Next:    OpenInterestSnapshot{LongUsd: nextLong, ShortUsd: nextShort},
	}
	priceImpactUsd, balanceWasImproved := e.PriceImpact.ComputePriceImpactUsd(oi, e.ImpactCfg)
	e.logStep("price_execution", key, "price_impact_usd", priceImpactUsd.String())

	// step 3b: size delta in tokens and the prorated pending impact being
	// realized/released this step.
	sizeDeltaTokens, err := SizeDeltaInTokens(pos, sizeDeltaUsd, isFullClose)
	if err != nil {
		return nil, err
	}
	proratedImpactTokens, err := ProportionalPendingImpactTokens(pos, sizeDeltaUsd)
	if err != nil {
		return nil, err
	}

	// step 3c: realized PnL on the slice being closed.
	totalPnlUsd, err := TotalPositionPnlUsd(pos, prices)
	if err != nil {
		return nil, err
	}
	realizedPnlUsd, err := RealizedPnlUsd(totalPnlUsd, sizeDeltaTokens, pos.SizeTokens)
	if err != nil {
		return nil, err
	}

	// step 4
	stepFees := e.Fees.ComputeFees(pos, order, prices, balanceWasImproved, sizeDeltaUsd)
	e.logStep("compute_fees", key, "position_fee_usd", stepFees.PositionFeeUsd.String())

	// step 5: net USD delta to collateral is realized PnL, minus funding,
	// borrowing, and fee costs; plus the USD value of released pending
	// impact tokens is left in kind (tokens), not converted back to USD.
	netUsd := new(big.Int).Set(realizedPnlUsd)
	netUsd.Sub(netUsd, fundingCostUsd)
	netUsd.Sub(netUsd, borrowingCostUsd)
	netUsd.Sub(netUsd, stepFees.PositionFeeUsd)
	netUsd.Sub(netUsd, stepFees.LiquidationFeeUsd)
	if err := applyCollateralDeltaUsd(pos, netUsd, prices); err != nil {
		return nil, err
	}
	if proratedImpactTokens.Sign() != 0 {
		pos.CollateralAmount = new(big.Int).Add(pos.CollateralAmount, proratedImpactTokens)
	}
	if withdrawTokens.Sign() > 0 {
		if withdrawTokens.Cmp(pos.CollateralAmount) > 0 {
			withdrawTokens = new(big.Int).Set(pos.CollateralAmount)
		}
		pos.CollateralAmount = new(big.Int).Sub(pos.CollateralAmount, withdrawTokens)
	}

	// step 6
	pos.SizeUsd = new(big.Int).Sub(pos.SizeUsd, sizeDeltaUsd)
	pos.SizeTokens = new(big.Int).Sub(pos.SizeTokens, sizeDeltaTokens)
	pos.PendingImpactTokens = new(big.Int).Sub(pos.PendingImpactTokens, proratedImpactTokens)
	pos.LastUpdatedAt = now
	if pos.SizeUsd.Sign() < 0 {
		pos.SizeUsd = big.NewInt(0)
	}
	if pos.SizeTokens.Sign() < 0 {
		pos.SizeTokens = big.NewInt(0)
	}

	// step 7
	if err := PostcheckRemainingPosition(pos, prices, e.Risk); err != nil {
		return nil, err
	}
	e.logStep("postcheck", key, "result", "ok")

	// step 8
	if order.Side == Long {
		e.Market.OiLongUsd = nextLong
	} else {
		e.Market.OiShortUsd = nextShort
	}
	if fundingRewardTokens.Sign() > 0 {
		e.Claimables.AddFunding(key.Account, key.CollateralToken, fundingRewardTokens)
	}
	e.Fees.ApplyFees(e.Pools, e.Claimables, stepFees)
	if borrowingCostUsd.Sign() > 0 && prices.CollateralPriceMin.Sign() > 0 {
		borrowingTokens := new(big.Int).Quo(borrowingCostUsd, prices.CollateralPriceMin)
		ApplyBorrowingFeesToPool(e.Pools, e.MarketId, order.CollateralToken, borrowingTokens)
	}
	if pos.SizeUsd.Sign() == 0 {
		e.Positions.Remove(key)
	} else {
		e.Positions.Upsert(pos)
	}
	e.logStep("commit", key)

	return &SettlementSummary{
		Position:         pos,
		RealizedPnlUsd:   realizedPnlUsd,
		FundingCostUsd:   fundingCostUsd,
		BorrowingCostUsd: borrowingCostUsd,
		FeeUsd:           stepFees.PositionFeeUsd,
	}, nil
}

// SettleLiquidation forces a full close regardless of the precheck
// clamping a normal decrease would otherwise apply; the liquidation
// predicate itself (whether a position should be liquidated) is the host's
// responsibility, not the core's.
func (e *Engine) SettleLiquidation(order *Order, now Timestamp) (*SettlementSummary, error) {
	key := PositionKey{Account: order.Account, MarketId: e.MarketId, CollateralToken: order.CollateralToken, Side: order.Side}
	existing := e.Positions.Get(key)
	if existing == nil {
		return nil, ErrPositionEmptyOrCorrupted
	}
	liqOrder := *order
	liqOrder.OrderType = Liquidation
	liqOrder.SizeDeltaUsd = new(big.Int).Set(existing.SizeUsd)
	liqOrder.WithdrawCollateralAmt = big.NewInt(0)
	return e.SettleDecrease(&liqOrder, now)
}
