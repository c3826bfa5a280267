package perp

import "math/big"

// PricingError is a typed rejection of an increase order that cannot be
// priced as requested. Unlike InvariantViolation these are expected outcomes
// of ordinary market conditions, not bugs.
type PricingError struct {
	Kind           string
	PriceImpactUsd *Usd
	SizeDeltaUsd   *Usd
}

func (e *PricingError) Error() string { return "perp: pricing error: " + e.Kind }

var errZeroSizeDelta = &PricingError{Kind: "zero_size_delta"}
var errZeroSizeTokensAfterImpact = &PricingError{Kind: "zero_size_tokens_after_impact"}

func errPriceImpactLargerThanOrderSize(priceImpactUsd, sizeDeltaUsd *Usd) *PricingError {
	return &PricingError{
		Kind:           "price_impact_larger_than_order_size",
		PriceImpactUsd: priceImpactUsd,
		SizeDeltaUsd:   sizeDeltaUsd,
	}
}

// ExecutionPriceIncreaseParams bundles the inputs to
// PricingService.GetExecutionPriceForIncrease.
type ExecutionPriceIncreaseParams struct {
	Oi           OpenInterestParams
	ImpactCfg    ImpactRebalanceConfig
	Side         Side
	SizeDeltaUsd *Usd
	Prices       OraclePrices
}

// ExecutionPriceIncreaseResult is the priced outcome of an increase order.
type ExecutionPriceIncreaseResult struct {
	PriceImpactUsd          *Usd
	PriceImpactAmountTokens *TokenAmount
	BaseSizeDeltaTokens     *TokenAmount
	SizeDeltaTokens         *TokenAmount
	ExecutionPrice          *Usd
	BalanceWasImproved      bool
}

// PricingService prices an increase order against the impact curve.
type PricingService interface {
	GetExecutionPriceForIncrease(priceImpact PriceImpactService, params ExecutionPriceIncreaseParams) (*ExecutionPriceIncreaseResult, error)
}

// BasicPricingService composes a PriceImpactService into the standard
// five-step execution-price algorithm.
type BasicPricingService struct{}

// GetExecutionPriceForIncrease prices size_delta_usd worth of new exposure
// on side, folding in the price impact of moving open interest from
// params.Oi.Current to params.Oi.Next.
func (BasicPricingService) GetExecutionPriceForIncrease(priceImpact PriceImpactService, params ExecutionPriceIncreaseParams) (*ExecutionPriceIncreaseResult, error) {
	if params.SizeDeltaUsd.Sign() == 0 {
		executionPrice := params.Prices.IndexPriceMax
		if params.Side == Short {
			executionPrice = params.Prices.IndexPriceMin
		}
		return &ExecutionPriceIncreaseResult{
			PriceImpactUsd:          big.NewInt(0),
			PriceImpactAmountTokens: big.NewInt(0),
			BaseSizeDeltaTokens:     big.NewInt(0),
			SizeDeltaTokens:         big.NewInt(0),
			ExecutionPrice:          executionPrice,
			BalanceWasImproved:      false,
		}, nil
	}

	priceImpactUsd, balanceWasImproved := priceImpact.ComputePriceImpactUsd(params.Oi, params.ImpactCfg)

	// Convert priceImpactUsd to tokens: a bonus rounds down (conservative
	// for the pool), a penalty rounds up (also conservative for the pool).
	priceImpactAmountTokens := big.NewInt(0)
	if priceImpactUsd.Sign() > 0 {
		pMax := params.Prices.IndexPriceMax
		if pMax.Sign() > 0 {
			priceImpactAmountTokens = new(big.Int).Quo(priceImpactUsd, pMax)
		}
	} else if priceImpactUsd.Sign() < 0 {
		pMin := params.Prices.IndexPriceMin
		if pMin.Sign() > 0 {
			abs := new(big.Int).Neg(priceImpactUsd)
			q, r := new(big.Int), new(big.Int)
			q.QuoRem(abs, pMin, r)
			if r.Sign() != 0 {
				q.Add(q, big.NewInt(1))
			}
			priceImpactAmountTokens = q.Neg(q)
		}
	}

	var baseSizeDeltaTokens *TokenAmount
	switch params.Side {
	case Long:
		pMax := params.Prices.IndexPriceMax
		if pMax.Sign() <= 0 {
			return nil, errZeroSizeDelta
		}
		baseSizeDeltaTokens = new(big.Int).Quo(params.SizeDeltaUsd, pMax)
	case Short:
		pMin := params.Prices.IndexPriceMin
		if pMin.Sign() <= 0 {
			return nil, errZeroSizeDelta
		}
		q, r := new(big.Int), new(big.Int)
		q.QuoRem(params.SizeDeltaUsd, pMin, r)
		if r.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
		baseSizeDeltaTokens = q
	}

	var sizeDeltaTokens *TokenAmount
	if params.Side == Long {
		sizeDeltaTokens = new(big.Int).Add(baseSizeDeltaTokens, priceImpactAmountTokens)
	} else {
		sizeDeltaTokens = new(big.Int).Sub(baseSizeDeltaTokens, priceImpactAmountTokens)
	}

	if sizeDeltaTokens.Sign() < 0 {
		return nil, errPriceImpactLargerThanOrderSize(priceImpactUsd, params.SizeDeltaUsd)
	}
	if sizeDeltaTokens.Sign() == 0 {
		return nil, errZeroSizeTokensAfterImpact
	}

	executionPrice := new(big.Int).Quo(params.SizeDeltaUsd, sizeDeltaTokens)

	return &ExecutionPriceIncreaseResult{
		PriceImpactUsd:          priceImpactUsd,
		PriceImpactAmountTokens: priceImpactAmountTokens,
		BaseSizeDeltaTokens:     baseSizeDeltaTokens,
		SizeDeltaTokens:         sizeDeltaTokens,
		ExecutionPrice:          executionPrice,
		BalanceWasImproved:      balanceWasImproved,
	}, nil
}
