package lifecycle

import (
	"errors"

	"lending-ledger/internal/domain/loan"
)

// Metrics receives lifecycle counters. The default discards them.
type Metrics interface {
	LoanOpened()
	OpenRejected(reason string)
	LoanRepaid()
	LoanLiquidated()
	InterestSettled(amount uint64)
}

type nopMetrics struct{}

func (nopMetrics) LoanOpened()            {}
func (nopMetrics) OpenRejected(string)    {}
func (nopMetrics) LoanRepaid()            {}
func (nopMetrics) LoanLiquidated()        {}
func (nopMetrics) InterestSettled(uint64) {}

var rejectionReasons = []struct {
	err    error
	reason string
}{
	{loan.ErrNotInitialized, "not_initialized"},
	{loan.ErrInvalidAmount, "invalid_amount"},
	{loan.ErrPriceUnavailable, "price_unavailable"},
	{loan.ErrInsufficientCollateral, "insufficient_collateral"},
	{loan.ErrTooManyActiveLoans, "too_many_active_loans"},
	{loan.ErrOverflow, "overflow"},
}

func rejectionReason(err error) string {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}
