package lifecycle

import (
	"errors"
	"fmt"
)

// Params are the risk and sizing knobs handed to the Manager. They are
// checked once in NewManager; there are no setters.
type Params struct {
	MinCollateralRatioPct   uint64
	LiquidationThresholdPct uint64
	DefaultInterestRatePct  uint64
	TicksPerDay             uint64
	MaxActiveLoansPerUser   int
	// CollateralAsset is the oracle symbol priced for every loan.
	CollateralAsset string
	// CollateralUnit is how many collateral base units one quoted price covers.
	CollateralUnit        uint64
	AllowPartialRepayment bool
}

func DefaultParams() Params {
	return Params{
		MinCollateralRatioPct:   150,
		LiquidationThresholdPct: 120,
		DefaultInterestRatePct:  5,
		TicksPerDay:             144,
		MaxActiveLoansPerUser:   10,
		CollateralAsset:         "BTC",
		CollateralUnit:          100_000_000,
	}
}

const (
	minAllowedCollateralRatio   = 110
	minAllowedLiquidationThresh = 100
)

func (p Params) Validate() error {
	if p.MinCollateralRatioPct < minAllowedCollateralRatio {
		return fmt.Errorf("minimum collateral ratio %d%% is below %d%%", p.MinCollateralRatioPct, minAllowedCollateralRatio)
	}
	if p.LiquidationThresholdPct < minAllowedLiquidationThresh {
		return fmt.Errorf("liquidation threshold %d%% is below %d%%", p.LiquidationThresholdPct, minAllowedLiquidationThresh)
	}
	if p.LiquidationThresholdPct >= p.MinCollateralRatioPct {
		return fmt.Errorf("liquidation threshold %d%% must be below minimum collateral ratio %d%%", p.LiquidationThresholdPct, p.MinCollateralRatioPct)
	}
	if p.TicksPerDay == 0 {
		return errors.New("ticks per day must be positive")
	}
	if p.MaxActiveLoansPerUser <= 0 {
		return errors.New("max active loans per user must be positive")
	}
	if p.CollateralAsset == "" {
		return errors.New("collateral asset is required")
	}
	if p.CollateralUnit == 0 {
		return errors.New("collateral unit must be positive")
	}
	return nil
}
