package loan

import "errors"

var (
	ErrNotInitialized              = errors.New("lending: platform not initialized")
	ErrInvalidAmount               = errors.New("lending: invalid amount")
	ErrPriceUnavailable            = errors.New("lending: price unavailable")
	ErrInsufficientCollateral      = errors.New("lending: insufficient collateral")
	ErrLoanNotFound                = errors.New("lending: loan not found")
	ErrLoanNotActive               = errors.New("lending: loan not active")
	ErrTooManyActiveLoans          = errors.New("lending: too many active loans")
	ErrInvalidTimeRange            = errors.New("lending: invalid time range")
	ErrDivisionByZero              = errors.New("lending: division by zero")
	ErrPartialRepaymentUnsupported = errors.New("lending: partial repayment unsupported")
	ErrOverflow                    = errors.New("lending: arithmetic overflow")
	ErrUnauthorizedPayer           = errors.New("lending: payer is not the borrower")
)
