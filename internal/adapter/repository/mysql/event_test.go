package mysql

import (
	"context"
	"testing"

	"lending-ledger/internal/domain/event"
	"lending-ledger/pkg/id"
)

func TestEvent_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	kinds := []event.Kind{event.KindOpened, event.KindInterestSettled, event.KindRepaid}
	for i, k := range kinds {
		e := &event.Event{EventID: id.NewID32(), LoanID: 1, Kind: k, Tick: uint64(10 + i)}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create %s: %v", k, err)
		}
	}
	if err := repo.Create(ctx, &event.Event{EventID: id.NewID32(), LoanID: 2, Kind: event.KindOpened}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	got, err := repo.ListByLoanID(ctx, 1)
	if err != nil {
		t.Fatalf("ListByLoanID: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, k := range kinds {
		if got[i].Kind != k || got[i].Tick != uint64(10+i) {
			t.Fatalf("event %d = %+v, want kind %s", i, got[i], k)
		}
	}
}

func TestEvent_ListEmpty(t *testing.T) {
	db := openTestDB(t)
	repo := NewEventRepository(db)

	got, err := repo.ListByLoanID(context.Background(), 77)
	if err != nil {
		t.Fatalf("ListByLoanID: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no events, got %+v", got)
	}
}
