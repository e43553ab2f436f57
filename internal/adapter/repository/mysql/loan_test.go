package mysql

import (
	"context"
	"errors"
	"testing"

	domain "lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/uow"
	dbinfra "lending-ledger/internal/infrastructure/db"

	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with the ledger schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbinfra.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dbinfra.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func makeLoan(id uint64, borrower string) *domain.Loan {
	return &domain.Loan{
		ID:                     id,
		Borrower:               borrower,
		CollateralAmount:       100_000_000,
		LoanAmount:             25_000_000_000,
		InterestRate:           5,
		StartHeight:            10,
		LastInterestSettlement: 10,
		Status:                 domain.StatusActive,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, makeLoan(1, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Borrower != "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" || got.LoanAmount != 25_000_000_000 || got.Status != domain.StatusActive {
		t.Errorf("unexpected loan: %+v", got)
	}

	locked, err := repo.GetByIDForUpdate(ctx, 1)
	if err != nil {
		t.Fatalf("GetByIDForUpdate: %v", err)
	}
	if locked.ID != 1 {
		t.Errorf("unexpected locked loan: %+v", locked)
	}
}

func TestSaveUpdates(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(3, "dddddddddddddddddddddddddddddddd")
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	l.AccruedInterest = 347
	l.LastInterestSettlement = 11
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(ctx, 3)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AccruedInterest != 347 || got.LastInterestSettlement != 11 {
		t.Errorf("interest not updated: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestListActiveIDs_PagesInOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	for id := uint64(1); id <= 6; id++ {
		l := makeLoan(id, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
		if id%3 == 0 {
			l.Status = domain.StatusRepaid
		}
		if err := repo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	page1, err := repo.ListActiveIDs(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListActiveIDs: %v", err)
	}
	if len(page1) != 2 || page1[0] != 1 || page1[1] != 2 {
		t.Fatalf("page1 = %v", page1)
	}
	page2, err := repo.ListActiveIDs(ctx, page1[1], 10)
	if err != nil {
		t.Fatalf("ListActiveIDs: %v", err)
	}
	if len(page2) != 2 || page2[0] != 4 || page2[1] != 5 {
		t.Fatalf("page2 = %v", page2)
	}
}

func TestNextID_StrictlyIncreasingFromOne(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		got, err := repo.NextID(ctx)
		if err != nil {
			t.Fatalf("NextID: %v", err)
		}
		if got != want {
			t.Fatalf("NextID = %d, want %d", got, want)
		}
	}
}

func TestNextID_RolledBackWithTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_ = NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Loans.NextID(ctx); err != nil {
			return err
		}
		return errors.New("boom")
	})

	got, err := NewLoanRepository(db).NextID(ctx)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if got != 1 {
		t.Fatalf("NextID after rollback = %d, want 1", got)
	}
}
