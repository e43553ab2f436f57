package event

import (
	"time"
)

type Kind string

const (
	KindOpened           Kind = "opened"
	KindInterestSettled  Kind = "interest_settled"
	KindPartialRepayment Kind = "partial_repayment"
	KindRepaid           Kind = "repaid"
	KindLiquidated       Kind = "liquidated"
)

// Event is an append-only audit record written in the same tx as the
// transition it describes.
type Event struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	EventID string `gorm:"column:event_id;size:32;not null;uniqueIndex:ux_loan_events_event_id"`
	LoanID  uint64 `gorm:"column:loan_id;not null;index:idx_loan_events_loan"`
	Kind    Kind   `gorm:"column:kind;size:24;not null"`
	Tick    uint64 `gorm:"column:tick;not null"`
	// Amount is principal for opened, interest for interest_settled,
	// and the applied payment for repayments.
	Amount    uint64    `gorm:"column:amount;not null;default:0"`
	Ratio     uint64    `gorm:"column:ratio;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Event) TableName() string { return "loan_events" }
