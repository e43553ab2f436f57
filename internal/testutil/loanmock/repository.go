package loanmock

import (
	"context"

	domain "lending-ledger/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to no-ops; reads default to context.Canceled.
type Repo struct {
	CreateFn           func(ctx context.Context, l *domain.Loan) error
	SaveFn             func(ctx context.Context, l *domain.Loan) error
	GetByIDFn          func(ctx context.Context, loanID uint64) (*domain.Loan, error)
	GetByIDForUpdateFn func(ctx context.Context, loanID uint64) (*domain.Loan, error)
	ListActiveIDsFn    func(ctx context.Context, afterID uint64, limit int) ([]uint64, error)
	NextIDFn           func(ctx context.Context) (uint64, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, loanID uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, loanID uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListActiveIDs(ctx context.Context, afterID uint64, limit int) ([]uint64, error) {
	if m.ListActiveIDsFn != nil {
		return m.ListActiveIDsFn(ctx, afterID, limit)
	}
	return nil, context.Canceled
}

func (m *Repo) NextID(ctx context.Context) (uint64, error) {
	if m.NextIDFn != nil {
		return m.NextIDFn(ctx)
	}
	return 0, context.Canceled
}
