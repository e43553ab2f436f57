// Package risk holds the pure arithmetic behind loan health: collateral
// ratio and simple interest accrual. Intermediates are 256-bit so products of
// uint64 inputs cannot wrap. Interest that does not fit back into uint64
// fails with ErrOverflow; a ratio saturates at math.MaxUint64.
package risk

import (
	"math"

	"lending-ledger/internal/domain/loan"

	"github.com/holiman/uint256"
)

var (
	ErrDivisionByZero   = loan.ErrDivisionByZero
	ErrOverflow         = loan.ErrOverflow
	ErrInvalidTimeRange = loan.ErrInvalidTimeRange
)

const percentScale = 100

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func narrow(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

// CollateralRatio returns floor(collateral * price * 100 / (debt * collateralUnit)).
// collateralUnit is the number of base units per priced unit of collateral;
// pass 1 when price is quoted per base unit.
//
// A ratio above math.MaxUint64 is reported as math.MaxUint64: it clears any
// minimum and can never fall under a liquidation threshold.
func CollateralRatio(collateral, debt, price, collateralUnit uint64) (uint64, error) {
	if debt == 0 || collateralUnit == 0 {
		return 0, ErrDivisionByZero
	}
	num := new(uint256.Int).Mul(u(collateral), u(price))
	num.Mul(num, u(percentScale))
	den := new(uint256.Int).Mul(u(debt), u(collateralUnit))
	num.Div(num, den)
	if !num.IsUint64() {
		return math.MaxUint64, nil
	}
	return num.Uint64(), nil
}

// AccruedInterest returns floor(principal * ratePct / (100 * ticksPerDay)) * elapsed.
//
// The per-tick amount is truncated before multiplying by elapsed, so short
// periods on small principals under-accrue. Historical amounts depend on this
// exact rounding; keep it.
func AccruedInterest(principal, ratePct, elapsed, ticksPerDay uint64) (uint64, error) {
	if ticksPerDay == 0 {
		return 0, ErrDivisionByZero
	}
	perTick := new(uint256.Int).Mul(u(principal), u(ratePct))
	perTick.Div(perTick, new(uint256.Int).Mul(u(percentScale), u(ticksPerDay)))
	return narrow(perTick.Mul(perTick, u(elapsed)))
}

// Elapsed is current - last, failing when the clock went backwards.
func Elapsed(current, last uint64) (uint64, error) {
	if current < last {
		return 0, ErrInvalidTimeRange
	}
	return current - last, nil
}

// TotalOwed is principal plus interest with overflow detection.
func TotalOwed(principal, interest uint64) (uint64, error) {
	sum, overflow := new(uint256.Int).AddOverflow(u(principal), u(interest))
	if overflow {
		return 0, ErrOverflow
	}
	return narrow(sum)
}

func MeetsMinimum(ratio, minPct uint64) bool { return ratio >= minPct }

func ShouldLiquidate(ratio, thresholdPct uint64) bool { return ratio <= thresholdPct }
