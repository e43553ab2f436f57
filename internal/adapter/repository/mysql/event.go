package mysql

import (
	"context"

	"lending-ledger/internal/domain/event"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]event.Event, error) {
	var out []event.Event
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
