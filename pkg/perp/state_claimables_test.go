package perp

import "testing"

func TestClaimablesAddAndGetFunding(t *testing.T) {
	c := NewClaimables()
	acc := AccountId{1}
	c.AddFunding(acc, 1, usd(10))
	c.AddFunding(acc, 1, usd(5))
	if got := c.GetFunding(acc, 1); got.Int64() != 15 {
		t.Fatalf("got %v, want 15", got)
	}
}

func TestClaimablesTakeFundingAllResetsToZero(t *testing.T) {
	c := NewClaimables()
	acc := AccountId{2}
	c.AddFunding(acc, 1, usd(10))
	taken := c.TakeFundingAll(acc, 1)
	if taken.Int64() != 10 {
		t.Fatalf("got %v, want 10", taken)
	}
	if got := c.GetFunding(acc, 1); got.Sign() != 0 {
		t.Fatalf("expected zero after take, got %v", got)
	}
}

func TestClaimablesClaimAllErrorsWhenEmpty(t *testing.T) {
	c := NewClaimables()
	acc := AccountId{3}
	_, err := c.ClaimAll(acc, 1)
	if err != ErrNothingToClaim {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
}

func TestClaimablesBalanceOfCombinesFundingAndFees(t *testing.T) {
	c := NewClaimables()
	acc := AccountId{4}
	c.AddFunding(acc, 1, usd(3))
	c.AddFee(acc, 1, usd(4))
	if got := c.BalanceOf(acc, 1); got.Int64() != 7 {
		t.Fatalf("got %v, want 7", got)
	}
}

func TestPoolBalancesAddFeeAndGet(t *testing.T) {
	p := NewPoolBalances()
	p.AddFeeToPool(1, 2, usd(10))
	if got := p.GetBalance(1, 2); got.Int64() != 10 {
		t.Fatalf("got %v, want 10", got)
	}
}

func TestPoolBalancesRemoveLiquidityInsufficientErrors(t *testing.T) {
	p := NewPoolBalances()
	p.AddLiquidity(1, 2, usd(5))
	_, err := p.RemoveLiquidity(1, 2, usd(10))
	if err != ErrInsufficientPoolLiquidity {
		t.Fatalf("expected ErrInsufficientPoolLiquidity, got %v", err)
	}
}

func TestPoolBalancesRemoveLiquiditySucceeds(t *testing.T) {
	p := NewPoolBalances()
	p.AddLiquidity(1, 2, usd(10))
	taken, err := p.RemoveLiquidity(1, 2, usd(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken.Int64() != 4 {
		t.Fatalf("got %v, want 4", taken)
	}
	if got := p.GetBalance(1, 2); got.Int64() != 6 {
		t.Fatalf("got %v, want 6", got)
	}
}
