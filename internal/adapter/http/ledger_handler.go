package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"lending-ledger/internal/adapter/middleware"
	"lending-ledger/internal/infrastructure/clock"
	"lending-ledger/internal/usecase/lifecycle"
	"lending-ledger/pkg/id"
)

// Ledger is the slice of lifecycle.Manager the HTTP layer drives.
type Ledger interface {
	OpenLoan(ctx context.Context, in lifecycle.OpenLoanInput, tick uint64) (*lifecycle.LoanDTO, error)
	SettleInterest(ctx context.Context, loanID, tick uint64) (*lifecycle.SettlementDTO, error)
	EvaluateLiquidation(ctx context.Context, loanID, tick uint64) (*lifecycle.LiquidationDTO, error)
	RepayLoan(ctx context.Context, in lifecycle.RepayInput, tick uint64) (*lifecycle.RepaymentDTO, error)
	ScanLiquidations(ctx context.Context, tick uint64, opts lifecycle.ScanOptions) (*lifecycle.ScanReport, error)
	GetLoan(ctx context.Context, loanID uint64) (*lifecycle.LoanDTO, error)
	GetUserLoans(ctx context.Context, borrower string) ([]uint64, error)
	LoanEvents(ctx context.Context, loanID uint64) ([]lifecycle.EventDTO, error)
}

var _ Ledger = (*lifecycle.Manager)(nil)

type LedgerHandler struct {
	ledger Ledger
	ticks  clock.TickSource
}

func NewLedgerHandler(ledger Ledger, ticks clock.TickSource) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, ticks: ticks}
}

type openLoanReq struct {
	CollateralAmount uint64 `json:"collateral_amount" validate:"required,gt=0"`
	LoanAmount       uint64 `json:"loan_amount"       validate:"required,gt=0"`
}

type repayReq struct {
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

type scanReq struct {
	AfterID   uint64 `json:"after_id"`
	BatchSize int    `json:"batch_size" validate:"gte=0,lte=1000"`
}

type userLoansResp struct {
	AccountID string   `json:"account_id"`
	LoanIDs   []uint64 `json:"loan_ids"`
}

var errInvalidAccount = errors.New("missing or invalid Ax-Account-Id")

// accountID prefers the id the idempotency middleware already validated.
func accountID(c echo.Context) (string, error) {
	if v, ok := c.Get(middleware.AccountIDKey).(string); ok && v != "" {
		return v, nil
	}
	v := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderAccountID))
	if !middleware.ValidAccountID(v) {
		return "", errInvalidAccount
	}
	return v, nil
}

func pathLoanID(c echo.Context) (uint64, error) {
	return id.ParseLoanID(c.Param("loan_id"))
}

// bindAndValidate writes the 400/422 response itself; ok reports whether the handler should continue.
func bindAndValidate(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func (h *LedgerHandler) OpenLoan(c echo.Context) error {
	borrower, err := accountID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	var req openLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.ledger.OpenLoan(c.Request().Context(), lifecycle.OpenLoanInput{
		Borrower:         borrower,
		CollateralAmount: req.CollateralAmount,
		LoanAmount:       req.LoanAmount,
	}, h.ticks.Now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LedgerHandler) GetLoan(c echo.Context) error {
	loanID, err := pathLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.ledger.GetLoan(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) LoanEvents(c echo.Context) error {
	loanID, err := pathLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	evs, err := h.ledger.LoanEvents(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, evs)
}

func (h *LedgerHandler) UserLoans(c echo.Context) error {
	account := c.Param("account_id")
	if !middleware.ValidAccountID(account) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "account_id must be 32-char lowercase hex"})
	}
	ids, err := h.ledger.GetUserLoans(c.Request().Context(), account)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, userLoansResp{AccountID: account, LoanIDs: ids})
}

func (h *LedgerHandler) SettleInterest(c echo.Context) error {
	loanID, err := pathLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.ledger.SettleInterest(c.Request().Context(), loanID, h.ticks.Now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) EvaluateLiquidation(c echo.Context) error {
	loanID, err := pathLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.ledger.EvaluateLiquidation(c.Request().Context(), loanID, h.ticks.Now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) RepayLoan(c echo.Context) error {
	loanID, err := pathLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	payer, err := accountID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	var req repayReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.ledger.RepayLoan(c.Request().Context(), lifecycle.RepayInput{
		LoanID: loanID,
		Payer:  payer,
		Amount: req.Amount,
	}, h.ticks.Now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) ScanLiquidations(c echo.Context) error {
	var req scanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	report, err := h.ledger.ScanLiquidations(c.Request().Context(), h.ticks.Now(), lifecycle.ScanOptions{
		AfterID:   req.AfterID,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
