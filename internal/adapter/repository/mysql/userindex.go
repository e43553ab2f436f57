package mysql

import (
	"context"

	"lending-ledger/internal/domain/userindex"

	"gorm.io/gorm"
)

type UserIndexRepository struct{ db *gorm.DB }

func NewUserIndexRepository(db *gorm.DB) *UserIndexRepository {
	return &UserIndexRepository{db: db}
}

func (r *UserIndexRepository) Load(ctx context.Context, borrower string) (*userindex.Index, error) {
	var ids []uint64
	res := r.db.WithContext(ctx).
		Model(&userindex.Entry{}).
		Where("borrower = ?", borrower).
		Order("loan_id ASC").
		Pluck("loan_id", &ids)
	if res.Error != nil {
		return nil, res.Error
	}
	return userindex.New(borrower, ids), nil
}

func (r *UserIndexRepository) Insert(ctx context.Context, borrower string, loanID uint64) error {
	return r.db.WithContext(ctx).Create(&userindex.Entry{Borrower: borrower, LoanID: loanID}).Error
}

func (r *UserIndexRepository) Delete(ctx context.Context, borrower string, loanID uint64) error {
	return r.db.WithContext(ctx).
		Where("borrower = ? AND loan_id = ?", borrower, loanID).
		Delete(&userindex.Entry{}).Error
}
