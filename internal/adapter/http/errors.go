package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"lending-ledger/internal/domain/loan"
)

// Map domain errors → HTTP codes
var statusByErr = []struct {
	err  error
	code int
}{
	{loan.ErrNotInitialized, http.StatusServiceUnavailable},
	{loan.ErrPriceUnavailable, http.StatusServiceUnavailable},
	{loan.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{loan.ErrInsufficientCollateral, http.StatusUnprocessableEntity},
	{loan.ErrOverflow, http.StatusUnprocessableEntity},
	{loan.ErrPartialRepaymentUnsupported, http.StatusUnprocessableEntity},
	{loan.ErrLoanNotFound, http.StatusNotFound},
	{loan.ErrLoanNotActive, http.StatusConflict},
	{loan.ErrTooManyActiveLoans, http.StatusConflict},
	{loan.ErrInvalidTimeRange, http.StatusBadRequest},
	{loan.ErrUnauthorizedPayer, http.StatusForbidden},
	{loan.ErrDivisionByZero, http.StatusInternalServerError},
}

func statusFor(err error) int {
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		if !errors.Is(err, loan.ErrDivisionByZero) {
			return c.JSON(code, ErrorResponse{Error: "internal error"})
		}
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}
