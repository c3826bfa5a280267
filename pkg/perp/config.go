package perp

import (
	"math/big"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// FeesConfig is the engine-level tunable wrapper around BasicFeesService's
// fields, loaded the same way RiskCfg and ImpactRebalanceConfig are.
type FeesConfig struct {
	PositionFeeBpsIncrease uint32
	PositionFeeBpsDecrease uint32
	LiquidationFeeBps      uint32
	HelpfulRebatePercent   uint32
}

// DefaultFeesConfig returns a modest MVP fee schedule: 5bps on increase,
// 5bps on decrease, 100bps on liquidation, with a 50% rebate for trades
// that improve OI balance.
func DefaultFeesConfig() FeesConfig {
	return FeesConfig{
		PositionFeeBpsIncrease: 5,
		PositionFeeBpsDecrease: 5,
		LiquidationFeeBps:      100,
		HelpfulRebatePercent:   50,
	}
}

// ToBasicFeesService adapts the config into the service the engine runs.
func (c FeesConfig) ToBasicFeesService() BasicFeesService {
	return BasicFeesService{
		PositionFeeBpsIncrease: c.PositionFeeBpsIncrease,
		PositionFeeBpsDecrease: c.PositionFeeBpsDecrease,
		LiquidationFeeBps:      c.LiquidationFeeBps,
		HelpfulRebatePercent:   c.HelpfulRebatePercent,
	}
}

// EngineConfig bundles every tunable the settlement orchestrator needs for
// one market.
type EngineConfig struct {
	Risk   RiskCfg
	Impact ImpactRebalanceConfig
	Fees   FeesConfig
}

// DefaultEngineConfig composes the MVP defaults of each sub-config.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Risk:   DefaultRiskCfg(),
		Impact: DefaultQuadraticImpactConfig(),
		Fees:   DefaultFeesConfig(),
	}
}

// LoadEngineConfigFromEnv overlays PERP_* environment variables onto the
// defaults, the same priority order as the teacher's params.LoadFromEnv:
// ENV > .env file > defaults.
func LoadEngineConfigFromEnv(envPath string) EngineConfig {
	cfg := DefaultEngineConfig()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("PERP_MIN_POSITION_SIZE_USD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Risk.MinPositionSizeUsd = big.NewInt(n)
		}
	}
	if v := os.Getenv("PERP_MIN_COLLATERAL_USD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Risk.MinCollateralUsd = big.NewInt(n)
		}
	}
	if v := os.Getenv("PERP_MAX_LEVERAGE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Risk.MinCollateralFactorFp = new(big.Int).Quo(fpScaleI128, big.NewInt(n))
		}
	}
	if v := os.Getenv("PERP_IMPACT_EXPONENT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Impact.ImpactExponent = uint32(n)
		}
	}
	if v := os.Getenv("PERP_POSITION_FEE_BPS_INCREASE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Fees.PositionFeeBpsIncrease = uint32(n)
		}
	}
	if v := os.Getenv("PERP_POSITION_FEE_BPS_DECREASE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Fees.PositionFeeBpsDecrease = uint32(n)
		}
	}
	if v := os.Getenv("PERP_LIQUIDATION_FEE_BPS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Fees.LiquidationFeeBps = uint32(n)
		}
	}
	if v := os.Getenv("PERP_HELPFUL_REBATE_PERCENT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Fees.HelpfulRebatePercent = uint32(n)
		}
	}

	return cfg
}
