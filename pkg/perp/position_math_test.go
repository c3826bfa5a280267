package perp

import "testing"

func TestSizeDeltaInTokensFullClose(t *testing.T) {
	pos := &Position{Key: PositionKey{Side: Long}, SizeUsd: usd(1000), SizeTokens: usd(10)}
	got, err := SizeDeltaInTokens(pos, usd(1), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(pos.SizeTokens) != 0 {
		t.Fatalf("full close should return entire token size, got %v", got)
	}
}

func TestSizeDeltaInTokensLongRoundsUp(t *testing.T) {
	pos := &Position{Key: PositionKey{Side: Long}, SizeUsd: usd(1000), SizeTokens: usd(11)}
	got, err := SizeDeltaInTokens(pos, usd(300), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 11*300/1000 = 3.3 -> ceil -> 4
	if got.Int64() != 4 {
		t.Fatalf("got %v, want 4", got)
	}
}

func TestSizeDeltaInTokensShortRoundsDown(t *testing.T) {
	pos := &Position{Key: PositionKey{Side: Short}, SizeUsd: usd(1000), SizeTokens: usd(11)}
	got, err := SizeDeltaInTokens(pos, usd(300), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 11*300/1000 = 3.3 -> floor -> 3
	if got.Int64() != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

func TestSizeDeltaInTokensInvalid(t *testing.T) {
	pos := &Position{Key: PositionKey{Side: Long}, SizeUsd: usd(0), SizeTokens: usd(11)}
	_, err := SizeDeltaInTokens(pos, usd(100), false)
	if err != ErrInvalidPositionOrSizeDelta {
		t.Fatalf("expected ErrInvalidPositionOrSizeDelta, got %v", err)
	}
}

func TestProportionalPendingImpactTokens(t *testing.T) {
	pos := &Position{SizeUsd: usd(1000), PendingImpactTokens: usd(100)}
	got, err := ProportionalPendingImpactTokens(pos, usd(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 50 {
		t.Fatalf("got %v, want 50", got)
	}
}

func TestProportionalPendingImpactTokensZeroOnNonPositiveInputs(t *testing.T) {
	pos := &Position{SizeUsd: usd(0), PendingImpactTokens: usd(100)}
	got, err := ProportionalPendingImpactTokens(pos, usd(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}
