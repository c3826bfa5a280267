package perp

import "math/big"

// BorrowingStep is the outcome of applying borrowing to a single position
// for one settlement: always >= 0.
type BorrowingStep struct {
	CostUsd *Usd
}

// ApplyBorrowingStep settles a position's borrowing cost against market.
// Unlike funding, borrowing has no receiver side in this model, so any
// negative fee the underlying service might produce is clipped to zero
// rather than credited anywhere.
func ApplyBorrowingStep(borrowingSvc BorrowingService, market *MarketState, pos *Position) BorrowingStep {
	delta := borrowingSvc.SettlePositionBorrowing(market, pos)
	fee := delta.BorrowingFeeUsd
	if fee.Sign() < 0 {
		fee = big.NewInt(0)
	}
	return BorrowingStep{CostUsd: fee}
}
