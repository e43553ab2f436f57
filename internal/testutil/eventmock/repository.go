package eventmock

import (
	"context"

	"lending-ledger/internal/domain/event"
)

var _ event.Repository = (*Repo)(nil)

// Repo records created events unless CreateFn is set.
type Repo struct {
	CreateFn       func(ctx context.Context, e *event.Event) error
	ListByLoanIDFn func(ctx context.Context, loanID uint64) ([]event.Event, error)

	Created []event.Event
}

func (m *Repo) Create(ctx context.Context, e *event.Event) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	m.Created = append(m.Created, *e)
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]event.Event, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

// Kinds lists the kinds of recorded events in order.
func (m *Repo) Kinds() []event.Kind {
	out := make([]event.Kind, 0, len(m.Created))
	for _, e := range m.Created {
		out = append(out, e.Kind)
	}
	return out
}
