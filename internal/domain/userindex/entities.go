package userindex

import "time"

// Entry is one (borrower, active loan) membership row.
type Entry struct {
	Borrower  string    `gorm:"column:borrower;size:32;primaryKey"`
	LoanID    uint64    `gorm:"column:loan_id;primaryKey;autoIncrement:false;uniqueIndex:ux_user_loan_entries_loan"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Entry) TableName() string { return "user_loan_entries" }
