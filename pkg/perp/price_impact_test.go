package perp

import "testing"

func oiParams(long0, short0, long1, short1 int64) OpenInterestParams {
	return OpenInterestParams{
		Current: OpenInterestSnapshot{LongUsd: usd(long0), ShortUsd: usd(short0)},
		Next:    OpenInterestSnapshot{LongUsd: usd(long1), ShortUsd: usd(short1)},
	}
}

func TestHelpfulShortOnLongHeavyMarketGivesPositiveImpact(t *testing.T) {
	svc := BasicPriceImpactService{}
	oi := oiParams(150_000, 50_000, 150_000, 60_000)
	impact, improved := svc.ComputePriceImpactUsd(oi, DefaultQuadraticImpactConfig())
	if !improved {
		t.Fatal("imbalance should shrink for a helpful trade")
	}
	if impact.Sign() <= 0 {
		t.Fatalf("helpful trade should produce positive impact, got %v", impact)
	}
}

func TestHarmfulLongOnLongHeavyMarketGivesNegativeImpact(t *testing.T) {
	svc := BasicPriceImpactService{}
	oi := oiParams(150_000, 50_000, 160_000, 50_000)
	impact, improved := svc.ComputePriceImpactUsd(oi, DefaultQuadraticImpactConfig())
	if improved {
		t.Fatal("imbalance should grow for a harmful trade")
	}
	if impact.Sign() >= 0 {
		t.Fatalf("harmful trade should produce negative impact, got %v", impact)
	}
}

func TestCrossoverIsNonTrivial(t *testing.T) {
	svc := BasicPriceImpactService{}
	oi := oiParams(150_000, 50_000, 80_000, 120_000)
	impact, _ := svc.ComputePriceImpactUsd(oi, DefaultQuadraticImpactConfig())
	if impact.Sign() == 0 {
		t.Fatal("crossover rebalance should produce a non-zero impact")
	}
}

func TestNoChangeInOiGivesZeroImpact(t *testing.T) {
	svc := BasicPriceImpactService{}
	oi := oiParams(100_000, 100_000, 100_000, 100_000)
	impact, improved := svc.ComputePriceImpactUsd(oi, DefaultQuadraticImpactConfig())
	if improved {
		t.Fatal("identical current/next OI should not count as improved")
	}
	if impact.Sign() != 0 {
		t.Fatalf("unchanged OI must produce exactly zero impact, got %v", impact)
	}
}

func TestLargerHelpfulMoveHasAtLeastAsMuchImpact(t *testing.T) {
	svc := BasicPriceImpactService{}
	cfg := DefaultQuadraticImpactConfig()
	small := oiParams(150_000, 50_000, 150_000, 55_000)
	big := oiParams(150_000, 50_000, 150_000, 80_000)

	impactSmall, _ := svc.ComputePriceImpactUsd(small, cfg)
	impactBig, _ := svc.ComputePriceImpactUsd(big, cfg)

	if impactSmall.Sign() <= 0 || impactBig.Sign() <= 0 {
		t.Fatalf("both trades are helpful, expected positive impact: small=%v big=%v", impactSmall, impactBig)
	}
	if impactBig.CmpAbs(impactSmall) < 0 {
		t.Fatalf("larger helpful trade should have at least as much impact: small=%v big=%v", impactSmall, impactBig)
	}
}
