package indexmock

import (
	"context"

	"lending-ledger/internal/domain/userindex"
)

var _ userindex.Repository = (*Repo)(nil)

// Repo is a function-backed mock for userindex.Repository.
// Load defaults to an empty index; writes default to no-ops.
type Repo struct {
	LoadFn   func(ctx context.Context, borrower string) (*userindex.Index, error)
	InsertFn func(ctx context.Context, borrower string, loanID uint64) error
	DeleteFn func(ctx context.Context, borrower string, loanID uint64) error
}

func (m *Repo) Load(ctx context.Context, borrower string) (*userindex.Index, error) {
	if m.LoadFn != nil {
		return m.LoadFn(ctx, borrower)
	}
	return userindex.New(borrower, nil), nil
}

func (m *Repo) Insert(ctx context.Context, borrower string, loanID uint64) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, borrower, loanID)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, borrower string, loanID uint64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, borrower, loanID)
	}
	return nil
}
