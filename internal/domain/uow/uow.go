package uow

import (
	"context"

	"lending-ledger/internal/domain/event"
	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/userindex"
)

// Repos are bound to the same transaction.
type Repos struct {
	Loans  loan.Repository
	Index  userindex.Repository
	Events event.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
