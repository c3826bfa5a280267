package main

import (
	"context"
	"math/big"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/perpcore/engine/pkg/perp"
	"github.com/perpcore/engine/pkg/util"
)

// simOracle is a stand-in for a real price feed: it returns a slowly
// wandering mid price with a fixed spread, so the simulation exercises
// price-impact and rounding without needing a signed oracle payload.
type simOracle struct {
	mid *big.Int
}

func (o *simOracle) ValidateAndGetPrices(marketId perp.MarketId) (*perp.OraclePrices, error) {
	spread := big.NewInt(1)
	return &perp.OraclePrices{
		IndexPriceMin:      new(big.Int).Sub(o.mid, spread),
		IndexPriceMax:      new(big.Int).Add(o.mid, spread),
		CollateralPriceMin: big.NewInt(1),
		CollateralPriceMax: big.NewInt(1),
	}, nil
}

func (o *simOracle) walk(rng *rand.Rand) {
	step := rng.Int63n(5) - 2
	next := new(big.Int).Add(o.mid, big.NewInt(step))
	if next.Sign() > 0 {
		o.mid = next
	}
}

func main() {
	engineCfg := perp.LoadEngineConfigFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	var zlogger *zap.Logger
	var err error
	if logFile != "" {
		zlogger, err = util.NewLoggerWithFile(logFile)
	} else {
		zlogger, err = util.NewLogger()
	}
	if err != nil {
		panic(err)
	}
	defer zlogger.Sync()
	sugar := zlogger.Sugar()

	marketId := perp.MarketId(1)
	engine := perp.NewEngine(marketId, sugar)
	engine.Risk = engineCfg.Risk
	engine.ImpactCfg = engineCfg.Impact
	engine.Fees = engineCfg.Fees.ToBasicFeesService()

	oracle := &simOracle{mid: big.NewInt(100)}
	engine.Oracle = oracle
	engine.Market.LiquidityUsd = big.NewInt(10_000_000)

	sugar.Infow("perpsim_starting", "market_id", marketId, "mid_price", oracle.mid.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(1))
	acc := perp.AccountId{0x01}
	collateralToken := perp.AssetId(1)

	// Seed one account with collateral the way a deposit step outside the
	// core would; the core itself never mints collateral.
	seedKey := perp.PositionKey{Account: acc, MarketId: marketId, CollateralToken: collateralToken, Side: perp.Long}
	engine.Positions.Upsert(&perp.Position{
		Key:                 seedKey,
		SizeUsd:             big.NewInt(0),
		SizeTokens:          big.NewInt(0),
		CollateralAmount:    big.NewInt(100_000),
		PendingImpactTokens: big.NewInt(0),
		FundingIndex:        big.NewInt(0),
		BorrowingIndex:      big.NewInt(0),
	})

	var clock util.Clock = util.RealClock{}

	for {
		select {
		case <-ctx.Done():
			sugar.Info("perpsim_stopped")
			return
		case <-clock.After(500 * time.Millisecond):
			now := perp.Timestamp(clock.Now().Unix())
			oracle.walk(rng)

			side := perp.Long
			if rng.Intn(2) == 1 {
				side = perp.Short
			}
			order := &perp.Order{
				Account:         acc,
				MarketId:        marketId,
				CollateralToken: collateralToken,
				Side:            side,
				OrderType:       perp.Increase,
				SizeDeltaUsd:    big.NewInt(int64(10 + rng.Intn(50))),
				ValidFrom:       now,
				ValidUntil:      now + 100,
			}

			if _, err := engine.SettleIncrease(order, now); err != nil {
				sugar.Infow("settle_increase_rejected", "err", err.Error())
			}
		}
	}
}
