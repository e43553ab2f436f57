package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, loanID uint64) (*Loan, error)
	// GetByIDForUpdate reads the row under a write lock; only meaningful inside a tx
	GetByIDForUpdate(ctx context.Context, loanID uint64) (*Loan, error)
	// ListActiveIDs pages through active loans in ascending id order.
	ListActiveIDs(ctx context.Context, afterID uint64, limit int) ([]uint64, error)
	// NextID bumps the loans-issued counter and returns the new value.
	NextID(ctx context.Context) (uint64, error)
}
