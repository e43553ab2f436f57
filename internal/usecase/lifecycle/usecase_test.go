package lifecycle

import (
	"context"
	"errors"
	"testing"

	"lending-ledger/internal/domain/event"
	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/uow"
	"lending-ledger/internal/domain/userindex"
	"lending-ledger/internal/testutil/eventmock"
	"lending-ledger/internal/testutil/indexmock"
	"lending-ledger/internal/testutil/loanmock"
	"lending-ledger/internal/testutil/marketmock"
	"lending-ledger/internal/testutil/uowmock"

	"gorm.io/gorm"
)

// ----- test doubles -----

type recordingMetrics struct {
	opened, repaid, liquidated int
	rejected                   []string
	interest                   uint64
}

func (r *recordingMetrics) LoanOpened()                { r.opened++ }
func (r *recordingMetrics) OpenRejected(reason string) { r.rejected = append(r.rejected, reason) }
func (r *recordingMetrics) LoanRepaid()                { r.repaid++ }
func (r *recordingMetrics) LoanLiquidated()            { r.liquidated++ }
func (r *recordingMetrics) InterestSettled(v uint64)   { r.interest += v }

type fixture struct {
	loans   *loanmock.Repo
	index   *indexmock.Repo
	events  *eventmock.Repo
	oracle  *marketmock.Oracle
	plat    *marketmock.Platform
	metrics *recordingMetrics
	m       *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		loans:   &loanmock.Repo{},
		index:   &indexmock.Repo{},
		events:  &eventmock.Repo{},
		oracle:  marketmock.NewOracle().Set("BTC", price50k),
		plat:    &marketmock.Platform{Ready: true},
		metrics: &recordingMetrics{},
	}
	repos := uow.Repos{Loans: f.loans, Index: f.index, Events: f.events}
	m, err := NewManager(uowmock.Passthrough(repos), repos, f.oracle, f.plat, DefaultParams(), WithMetrics(f.metrics))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	f.m = m
	return f
}

// ----- tests -----

func TestNewManager_RejectsBadParams(t *testing.T) {
	bad := []func(p *Params){
		func(p *Params) { p.MinCollateralRatioPct = 109 },
		func(p *Params) { p.LiquidationThresholdPct = 99 },
		func(p *Params) { p.LiquidationThresholdPct = p.MinCollateralRatioPct },
		func(p *Params) { p.TicksPerDay = 0 },
		func(p *Params) { p.MaxActiveLoansPerUser = 0 },
		func(p *Params) { p.CollateralAsset = "" },
		func(p *Params) { p.CollateralUnit = 0 },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		if _, err := NewManager(uowmock.New(), uow.Repos{}, marketmock.NewOracle(), &marketmock.Platform{}, p); err == nil {
			t.Fatalf("case %d: expected params error for %+v", i, p)
		}
	}
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
}

func TestOpenLoan_Success_WritesLoanIndexAndEvent(t *testing.T) {
	f := newFixture(t)

	var created *loan.Loan
	var indexed []uint64
	f.loans.NextIDFn = func(context.Context) (uint64, error) { return 42, nil }
	f.loans.CreateFn = func(_ context.Context, l *loan.Loan) error {
		created = l
		return nil
	}
	f.index.InsertFn = func(_ context.Context, borrower string, loanID uint64) error {
		if borrower != alice {
			t.Fatalf("index insert for %s", borrower)
		}
		indexed = append(indexed, loanID)
		return nil
	}

	dto, err := f.m.OpenLoan(context.Background(), OpenLoanInput{Borrower: alice, CollateralAmount: oneBTC, LoanAmount: loan25k}, 9)
	if err != nil {
		t.Fatalf("OpenLoan: %v", err)
	}
	if dto.LoanID != 42 || dto.Status != string(loan.StatusActive) {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if created == nil || created.StartHeight != 9 || created.LastInterestSettlement != 9 || created.InterestRate != 5 {
		t.Fatalf("unexpected created loan: %+v", created)
	}
	if len(indexed) != 1 || indexed[0] != 42 {
		t.Fatalf("index inserts = %v", indexed)
	}
	if len(f.events.Created) != 1 || f.events.Created[0].Kind != event.KindOpened || f.events.Created[0].Ratio != 200 {
		t.Fatalf("events = %+v", f.events.Created)
	}
	if len(f.events.Created[0].EventID) != 32 {
		t.Fatalf("event id = %q", f.events.Created[0].EventID)
	}
	if f.metrics.opened != 1 || len(f.metrics.rejected) != 0 {
		t.Fatalf("metrics = %+v", f.metrics)
	}
}

func TestOpenLoan_FullIndexNeverCreates(t *testing.T) {
	f := newFixture(t)
	f.loans.NextIDFn = func(context.Context) (uint64, error) { return 11, nil }
	f.index.LoadFn = func(_ context.Context, b string) (*userindex.Index, error) {
		return userindex.New(b, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), nil
	}
	f.loans.CreateFn = func(context.Context, *loan.Loan) error {
		t.Fatalf("Create must not be called when the index is full")
		return nil
	}
	f.index.InsertFn = func(context.Context, string, uint64) error {
		t.Fatalf("Insert must not be called when the index is full")
		return nil
	}

	_, err := f.m.OpenLoan(context.Background(), OpenLoanInput{Borrower: alice, CollateralAmount: oneBTC, LoanAmount: loan25k}, 1)
	if !errors.Is(err, loan.ErrTooManyActiveLoans) {
		t.Fatalf("want ErrTooManyActiveLoans, got %v", err)
	}
	if len(f.metrics.rejected) != 1 || f.metrics.rejected[0] != "too_many_active_loans" {
		t.Fatalf("rejection reasons = %v", f.metrics.rejected)
	}
}

func TestOpenLoan_CollaboratorErrors(t *testing.T) {
	f := newFixture(t)
	in := OpenLoanInput{Borrower: alice, CollateralAmount: oneBTC, LoanAmount: loan25k}
	boom := errors.New("redis down")

	f.plat.InitializedFn = func(context.Context) (bool, error) { return false, boom }
	if _, err := f.m.OpenLoan(context.Background(), in, 1); !errors.Is(err, boom) {
		t.Fatalf("platform error: got %v", err)
	}
	f.plat.InitializedFn = nil

	f.oracle.GetPriceFn = func(context.Context, string) (uint64, bool, error) { return 0, false, boom }
	_, err := f.m.OpenLoan(context.Background(), in, 1)
	if !errors.Is(err, loan.ErrPriceUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("oracle error: got %v", err)
	}
	f.oracle.GetPriceFn = nil

	f.loans.NextIDFn = func(context.Context) (uint64, error) { return 0, boom }
	if _, err := f.m.OpenLoan(context.Background(), in, 1); !errors.Is(err, boom) {
		t.Fatalf("counter error: got %v", err)
	}

	want := []string{"internal", "price_unavailable", "internal"}
	if len(f.metrics.rejected) != len(want) {
		t.Fatalf("rejection reasons = %v", f.metrics.rejected)
	}
	for i := range want {
		if f.metrics.rejected[i] != want[i] {
			t.Fatalf("rejection reasons = %v, want %v", f.metrics.rejected, want)
		}
	}
}

func TestSettleInterest_NotFoundMapping(t *testing.T) {
	f := newFixture(t)
	f.loans.GetByIDForUpdateFn = func(context.Context, uint64) (*loan.Loan, error) {
		return nil, gorm.ErrRecordNotFound
	}
	if _, err := f.m.SettleInterest(context.Background(), 5, 1); !errors.Is(err, loan.ErrLoanNotFound) {
		t.Fatalf("want ErrLoanNotFound, got %v", err)
	}
}

func TestSettleInterest_SameTickSkipsSave(t *testing.T) {
	f := newFixture(t)
	l := &loan.Loan{ID: 5, Borrower: alice, LoanAmount: loan25k, InterestRate: 5, StartHeight: 3, LastInterestSettlement: 3, Status: loan.StatusActive}
	f.loans.GetByIDForUpdateFn = func(context.Context, uint64) (*loan.Loan, error) { return l, nil }
	f.loans.SaveFn = func(context.Context, *loan.Loan) error {
		t.Fatalf("Save must not run when no tick elapsed")
		return nil
	}

	dto, err := f.m.SettleInterest(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("SettleInterest: %v", err)
	}
	if dto.Accrued != 0 || dto.TotalOwed != loan25k || len(f.events.Created) != 0 {
		t.Fatalf("unexpected settlement: %+v events=%v", dto, f.events.Kinds())
	}
}

func TestEvaluateLiquidation_LoanCheckedBeforePrice(t *testing.T) {
	f := newFixture(t)
	f.oracle.Clear("BTC")
	ctx := context.Background()

	f.loans.GetByIDForUpdateFn = func(context.Context, uint64) (*loan.Loan, error) { return nil, gorm.ErrRecordNotFound }
	if _, err := f.m.EvaluateLiquidation(ctx, 1, 1); !errors.Is(err, loan.ErrLoanNotFound) {
		t.Fatalf("unknown loan: want ErrLoanNotFound, got %v", err)
	}

	closed := &loan.Loan{ID: 2, Borrower: alice, CollateralAmount: oneBTC, LoanAmount: loan25k, Status: loan.StatusLiquidated}
	f.loans.GetByIDForUpdateFn = func(context.Context, uint64) (*loan.Loan, error) { return closed, nil }
	if _, err := f.m.EvaluateLiquidation(ctx, 2, 1); !errors.Is(err, loan.ErrLoanNotActive) {
		t.Fatalf("closed loan: want ErrLoanNotActive, got %v", err)
	}

	active := &loan.Loan{ID: 3, Borrower: alice, CollateralAmount: oneBTC, LoanAmount: loan25k, InterestRate: 5, Status: loan.StatusActive}
	f.loans.GetByIDForUpdateFn = func(context.Context, uint64) (*loan.Loan, error) { return active, nil }
	f.loans.SaveFn = func(context.Context, *loan.Loan) error {
		t.Fatalf("loan saved without a price")
		return nil
	}
	if _, err := f.m.EvaluateLiquidation(ctx, 3, 1); !errors.Is(err, loan.ErrPriceUnavailable) {
		t.Fatalf("active loan: want ErrPriceUnavailable, got %v", err)
	}
	if len(f.events.Created) != 0 {
		t.Fatalf("events written without a price: %v", f.events.Kinds())
	}
}

func TestEvaluateLiquidation_IndexFailureAbortsClose(t *testing.T) {
	f := newFixture(t)
	f.oracle.Set("BTC", price20k)
	l := &loan.Loan{ID: 8, Borrower: alice, CollateralAmount: oneBTC, LoanAmount: loan25k, InterestRate: 5, Status: loan.StatusActive}
	f.loans.GetByIDForUpdateFn = func(context.Context, uint64) (*loan.Loan, error) { return l, nil }
	boom := errors.New("delete failed")
	f.index.DeleteFn = func(context.Context, string, uint64) error { return boom }

	if _, err := f.m.EvaluateLiquidation(context.Background(), 8, 0); !errors.Is(err, boom) {
		t.Fatalf("want index error, got %v", err)
	}
	if f.metrics.liquidated != 0 {
		t.Fatalf("liquidation counted despite failure")
	}
}

func TestRepayLoan_MetricsOnClose(t *testing.T) {
	f := newFixture(t)
	l := &loan.Loan{ID: 3, Borrower: alice, CollateralAmount: oneBTC, LoanAmount: loan25k, InterestRate: 5, Status: loan.StatusActive}
	f.loans.GetByIDForUpdateFn = func(context.Context, uint64) (*loan.Loan, error) { return l, nil }

	var deleted []uint64
	f.index.DeleteFn = func(_ context.Context, _ string, loanID uint64) error {
		deleted = append(deleted, loanID)
		return nil
	}

	dto, err := f.m.RepayLoan(context.Background(), RepayInput{LoanID: 3, Payer: alice, Amount: loan25k + 1_249_999_920}, dayOfTick)
	if err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}
	if dto.Status != string(loan.StatusRepaid) || len(deleted) != 1 || deleted[0] != 3 {
		t.Fatalf("dto=%+v deleted=%v", dto, deleted)
	}
	if f.metrics.repaid != 1 || f.metrics.interest != 1_249_999_920 {
		t.Fatalf("metrics = %+v", f.metrics)
	}
	kinds := f.events.Kinds()
	if len(kinds) != 2 || kinds[0] != event.KindInterestSettled || kinds[1] != event.KindRepaid {
		t.Fatalf("event kinds = %v", kinds)
	}
}

func TestScanLiquidations_CollectsFailures(t *testing.T) {
	f := newFixture(t)
	f.loans.ListActiveIDsFn = func(_ context.Context, after uint64, limit int) ([]uint64, error) {
		if after == 0 {
			return []uint64{1, 2, 3}, nil
		}
		return nil, nil
	}
	boom := errors.New("row locked")
	f.loans.GetByIDForUpdateFn = func(_ context.Context, loanID uint64) (*loan.Loan, error) {
		switch loanID {
		case 1:
			return nil, boom
		case 2:
			return &loan.Loan{ID: 2, Status: loan.StatusRepaid}, nil
		default:
			return &loan.Loan{ID: 3, Borrower: bob, CollateralAmount: 2 * oneBTC, LoanAmount: loan25k, InterestRate: 5, Status: loan.StatusActive}, nil
		}
	}

	report, err := f.m.ScanLiquidations(context.Background(), 0, ScanOptions{BatchSize: 3})
	if err != nil {
		t.Fatalf("ScanLiquidations: %v", err)
	}
	if report.Evaluated != 1 || report.Skipped != 1 || len(report.Failures) != 1 || report.Failures[0].LoanID != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.LastLoanID != 3 {
		t.Fatalf("cursor = %d", report.LastLoanID)
	}
}

func TestRejectionReason(t *testing.T) {
	cases := map[error]string{
		loan.ErrNotInitialized:         "not_initialized",
		loan.ErrInvalidAmount:          "invalid_amount",
		loan.ErrInsufficientCollateral: "insufficient_collateral",
		errors.New("other"):            "internal",
	}
	for err, want := range cases {
		if got := rejectionReason(err); got != want {
			t.Fatalf("rejectionReason(%v) = %q, want %q", err, got, want)
		}
	}
}
