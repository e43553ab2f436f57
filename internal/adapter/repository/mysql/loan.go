package mysql

import (
	"context"
	"fmt"

	loanDomain "lending-ledger/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, loanID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, loanID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", loanID).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) ListActiveIDs(ctx context.Context, afterID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("status = ? AND id > ?", loanDomain.StatusActive, afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids)
	return ids, res.Error
}

// NextID locks the counters row, so concurrent opens serialize here until
// their transaction ends.
func (r *LoanRepository) NextID(ctx context.Context) (uint64, error) {
	var c loanDomain.Counters
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", loanDomain.CountersRowID).
		First(&c)
	if res.Error != nil {
		return 0, fmt.Errorf("ledger counters: %w", res.Error)
	}
	c.LoansIssued++
	if err := r.db.WithContext(ctx).
		Model(&loanDomain.Counters{}).
		Where("id = ?", c.ID).
		Update("loans_issued", c.LoansIssued).Error; err != nil {
		return 0, err
	}
	return c.LoansIssued, nil
}
