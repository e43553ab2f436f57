package lifecycle

import (
	"time"

	"lending-ledger/internal/domain/event"
	"lending-ledger/internal/domain/loan"
)

type OpenLoanInput struct {
	Borrower         string `json:"borrower"`
	CollateralAmount uint64 `json:"collateral_amount"`
	LoanAmount       uint64 `json:"loan_amount"`
}

type RepayInput struct {
	LoanID uint64 `json:"loan_id"`
	Payer  string `json:"payer"`
	Amount uint64 `json:"amount"`
}

type LoanDTO struct {
	LoanID                 uint64    `json:"loan_id"`
	Borrower               string    `json:"borrower"`
	CollateralAmount       uint64    `json:"collateral_amount"`
	LoanAmount             uint64    `json:"loan_amount"`
	InterestRate           uint64    `json:"interest_rate"`
	StartHeight            uint64    `json:"start_height"`
	LastInterestSettlement uint64    `json:"last_interest_settlement"`
	AccruedInterest        uint64    `json:"accrued_interest"`
	Status                 string    `json:"status"`
	ClosedHeight           uint64    `json:"closed_height,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

func toLoanDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:                 l.ID,
		Borrower:               l.Borrower,
		CollateralAmount:       l.CollateralAmount,
		LoanAmount:             l.LoanAmount,
		InterestRate:           l.InterestRate,
		StartHeight:            l.StartHeight,
		LastInterestSettlement: l.LastInterestSettlement,
		AccruedInterest:        l.AccruedInterest,
		Status:                 string(l.Status),
		ClosedHeight:           l.ClosedHeight,
		CreatedAt:              l.CreatedAt,
	}
}

type SettlementDTO struct {
	LoanID          uint64 `json:"loan_id"`
	Tick            uint64 `json:"tick"`
	Accrued         uint64 `json:"accrued"`
	AccruedInterest uint64 `json:"accrued_interest"`
	TotalOwed       uint64 `json:"total_owed"`
}

type LiquidationOutcome string

const (
	OutcomeUnaffected LiquidationOutcome = "unaffected"
	OutcomeLiquidated LiquidationOutcome = "liquidated"
)

type LiquidationDTO struct {
	LoanID  uint64             `json:"loan_id"`
	Tick    uint64             `json:"tick"`
	Outcome LiquidationOutcome `json:"outcome"`
	Ratio   uint64             `json:"ratio"`
	Debt    uint64             `json:"debt"`
}

type RepaymentDTO struct {
	LoanID             uint64 `json:"loan_id"`
	Status             string `json:"status"`
	Owed               uint64 `json:"owed"`
	Applied            uint64 `json:"applied"`
	Change             uint64 `json:"change"`
	RemainingPrincipal uint64 `json:"remaining_principal"`
	RemainingInterest  uint64 `json:"remaining_interest"`
}

type EventDTO struct {
	EventID   string    `json:"event_id"`
	LoanID    uint64    `json:"loan_id"`
	Kind      string    `json:"kind"`
	Tick      uint64    `json:"tick"`
	Amount    uint64    `json:"amount"`
	Ratio     uint64    `json:"ratio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventDTO(e event.Event) EventDTO {
	return EventDTO{
		EventID:   e.EventID,
		LoanID:    e.LoanID,
		Kind:      string(e.Kind),
		Tick:      e.Tick,
		Amount:    e.Amount,
		Ratio:     e.Ratio,
		CreatedAt: e.CreatedAt,
	}
}

type ScanOptions struct {
	// AfterID resumes a previous scan past this loan id.
	AfterID   uint64
	BatchSize int
}

type ScanFailure struct {
	LoanID uint64 `json:"loan_id"`
	Error  string `json:"error"`
}

type ScanReport struct {
	Tick       uint64        `json:"tick"`
	Evaluated  int           `json:"evaluated"`
	Liquidated []uint64      `json:"liquidated"`
	Skipped    int           `json:"skipped"`
	Failures   []ScanFailure `json:"failures,omitempty"`
	// LastLoanID is the resume cursor.
	LastLoanID uint64 `json:"last_loan_id"`
}
