package loan

import (
	"time"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusRepaid     Status = "repaid"
	StatusLiquidated Status = "liquidated"
)

// Loan is one collateralized position. Amounts are in the smallest unit of
// their asset; ticks come from the caller's clock.
type Loan struct {
	ID                     uint64    `gorm:"primaryKey;column:id;autoIncrement:false" json:"loan_id"`
	Borrower               string    `gorm:"column:borrower;size:32;not null;index:idx_loans_borrower_status" json:"borrower"`
	CollateralAmount       uint64    `gorm:"column:collateral_amount;not null" json:"collateral_amount"`
	LoanAmount             uint64    `gorm:"column:loan_amount;not null" json:"loan_amount"`
	InterestRate           uint64    `gorm:"column:interest_rate;not null" json:"interest_rate"`
	StartHeight            uint64    `gorm:"column:start_height;not null" json:"start_height"`
	LastInterestSettlement uint64    `gorm:"column:last_interest_settlement;not null" json:"last_interest_settlement"`
	AccruedInterest        uint64    `gorm:"column:accrued_interest;not null;default:0" json:"accrued_interest"`
	Status                 Status    `gorm:"column:status;size:16;not null;default:'active';index:idx_loans_borrower_status" json:"status"`
	ClosedHeight           uint64    `gorm:"column:closed_height;not null;default:0" json:"closed_height"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

func (l *Loan) IsActive() bool { return l.Status == StatusActive }

// close moves an active loan into a terminal state. Terminal states never
// return to active.
func (l *Loan) close(to Status, tick uint64) error {
	if !l.IsActive() {
		return ErrLoanNotActive
	}
	l.Status = to
	l.ClosedHeight = tick
	return nil
}

func (l *Loan) MarkRepaid(tick uint64) error     { return l.close(StatusRepaid, tick) }
func (l *Loan) MarkLiquidated(tick uint64) error { return l.close(StatusLiquidated, tick) }

// Counters is the single ledger bookkeeping row used for id allocation.
type Counters struct {
	ID          uint8  `gorm:"primaryKey;column:id;autoIncrement:false"`
	LoansIssued uint64 `gorm:"column:loans_issued;not null;default:0"`
}

func (Counters) TableName() string { return "ledger_counters" }

// CountersRowID is the primary key of the only Counters row.
const CountersRowID uint8 = 1
