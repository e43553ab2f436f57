package userindex

import "context"

type Repository interface {
	// Load returns the borrower's index; an unknown borrower yields an empty one.
	Load(ctx context.Context, borrower string) (*Index, error)
	Insert(ctx context.Context, borrower string, loanID uint64) error
	Delete(ctx context.Context, borrower string, loanID uint64) error
}
