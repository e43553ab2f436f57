package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"lending-ledger/internal/domain/event"
	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/market"
	"lending-ledger/internal/domain/uow"
	"lending-ledger/internal/risk"
	"lending-ledger/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager drives loans through active -> repaid | liquidated. Every public
// mutation runs in one transaction; ticks are always supplied by the caller.
type Manager struct {
	uow      uow.UnitOfWork
	reads    uow.Repos
	oracle   market.PriceOracle
	platform market.Platform
	params   Params
	log      *zap.Logger
	metrics  Metrics
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

func WithMetrics(mt Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// NewManager: pass the UoW for mutations and plain repos for queries.
func NewManager(tx uow.UnitOfWork, reads uow.Repos, oracle market.PriceOracle, platform market.Platform, p Params, opts ...Option) (*Manager, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("lifecycle params: %w", err)
	}
	m := &Manager{
		uow:      tx,
		reads:    reads,
		oracle:   oracle,
		platform: platform,
		params:   p,
		log:      zap.NewNop(),
		metrics:  nopMetrics{},
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

func (m *Manager) Params() Params { return m.params }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loan.ErrLoanNotFound
	}
	return err
}

func (m *Manager) currentPrice(ctx context.Context) (uint64, error) {
	price, ok, err := m.oracle.GetPrice(ctx, m.params.CollateralAsset)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", loan.ErrPriceUnavailable, err)
	}
	if !ok {
		return 0, loan.ErrPriceUnavailable
	}
	return price, nil
}

func (m *Manager) record(ctx context.Context, r uow.Repos, loanID uint64, kind event.Kind, tick, amount, ratio uint64) error {
	return r.Events.Create(ctx, &event.Event{
		EventID: id.NewID32(),
		LoanID:  loanID,
		Kind:    kind,
		Tick:    tick,
		Amount:  amount,
		Ratio:   ratio,
	})
}

// accrue settles interest on l up to tick. changed is false only when no
// tick has elapsed, in which case l is untouched.
func (m *Manager) accrue(l *loan.Loan, tick uint64) (inc uint64, changed bool, err error) {
	elapsed, err := risk.Elapsed(tick, l.LastInterestSettlement)
	if err != nil {
		return 0, false, err
	}
	if elapsed == 0 {
		return 0, false, nil
	}
	inc, err = risk.AccruedInterest(l.LoanAmount, l.InterestRate, elapsed, m.params.TicksPerDay)
	if err != nil {
		return 0, false, err
	}
	total, err := risk.TotalOwed(l.AccruedInterest, inc)
	if err != nil {
		return 0, false, err
	}
	l.AccruedInterest = total
	l.LastInterestSettlement = tick
	return inc, true, nil
}

// settleAndRecord accrues, writes the interest event if anything accrued,
// and persists the loan when it changed.
func (m *Manager) settleAndRecord(ctx context.Context, r uow.Repos, l *loan.Loan, tick uint64, save bool) (uint64, error) {
	inc, changed, err := m.accrue(l, tick)
	if err != nil {
		return 0, err
	}
	if inc > 0 {
		if err := m.record(ctx, r, l.ID, event.KindInterestSettled, tick, inc, 0); err != nil {
			return 0, err
		}
	}
	if changed && save {
		if err := r.Loans.Save(ctx, l); err != nil {
			return 0, err
		}
	}
	return inc, nil
}

func (m *Manager) OpenLoan(ctx context.Context, in OpenLoanInput, tick uint64) (*LoanDTO, error) {
	dto, err := m.openLoan(ctx, in, tick)
	if err != nil {
		m.metrics.OpenRejected(rejectionReason(err))
		m.log.Debug("loan rejected", zap.String("borrower", in.Borrower), zap.Error(err))
		return nil, err
	}
	m.metrics.LoanOpened()
	m.log.Info("loan opened",
		zap.Uint64("loan_id", dto.LoanID),
		zap.String("borrower", dto.Borrower),
		zap.Uint64("tick", tick))
	return dto, nil
}

func (m *Manager) openLoan(ctx context.Context, in OpenLoanInput, tick uint64) (*LoanDTO, error) {
	ready, err := m.platform.Initialized(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform flag: %w", err)
	}
	if !ready {
		return nil, loan.ErrNotInitialized
	}
	if in.Borrower == "" || in.CollateralAmount == 0 || in.LoanAmount == 0 {
		return nil, loan.ErrInvalidAmount
	}

	price, err := m.currentPrice(ctx)
	if err != nil {
		return nil, err
	}
	ratio, err := risk.CollateralRatio(in.CollateralAmount, in.LoanAmount, price, m.params.CollateralUnit)
	if err != nil {
		return nil, err
	}
	if !risk.MeetsMinimum(ratio, m.params.MinCollateralRatioPct) {
		return nil, fmt.Errorf("%w: ratio %d%% below %d%%", loan.ErrInsufficientCollateral, ratio, m.params.MinCollateralRatioPct)
	}

	var created *loan.Loan
	err = m.uow.WithinTx(ctx, func(r uow.Repos) error {
		// NextID locks the counters row first, which serializes the index check below
		loanID, err := r.Loans.NextID(ctx)
		if err != nil {
			return err
		}
		idx, err := r.Index.Load(ctx, in.Borrower)
		if err != nil {
			return err
		}
		if err := idx.Add(loanID, m.params.MaxActiveLoansPerUser); err != nil {
			return err
		}

		l := &loan.Loan{
			ID:                     loanID,
			Borrower:               in.Borrower,
			CollateralAmount:       in.CollateralAmount,
			LoanAmount:             in.LoanAmount,
			InterestRate:           m.params.DefaultInterestRatePct,
			StartHeight:            tick,
			LastInterestSettlement: tick,
			Status:                 loan.StatusActive,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Index.Insert(ctx, in.Borrower, loanID); err != nil {
			return err
		}
		if err := m.record(ctx, r, loanID, event.KindOpened, tick, in.LoanAmount, ratio); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toLoanDTO(created), nil
}

func (m *Manager) SettleInterest(ctx context.Context, loanID uint64, tick uint64) (*SettlementDTO, error) {
	var dto *SettlementDTO
	err := m.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.IsActive() {
			return loan.ErrLoanNotActive
		}
		inc, err := m.settleAndRecord(ctx, r, l, tick, true)
		if err != nil {
			return err
		}
		owed, err := risk.TotalOwed(l.LoanAmount, l.AccruedInterest)
		if err != nil {
			return err
		}
		dto = &SettlementDTO{
			LoanID:          l.ID,
			Tick:            tick,
			Accrued:         inc,
			AccruedInterest: l.AccruedInterest,
			TotalOwed:       owed,
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	if dto.Accrued > 0 {
		m.metrics.InterestSettled(dto.Accrued)
	}
	return dto, nil
}

// EvaluateLiquidation settles interest to tick and then closes the whole
// position when the ratio against principal plus interest is at or below the
// liquidation threshold. The price is read only once the loan is known to be
// active.
func (m *Manager) EvaluateLiquidation(ctx context.Context, loanID uint64, tick uint64) (*LiquidationDTO, error) {
	var (
		dto *LiquidationDTO
		inc uint64
	)
	err := m.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.IsActive() {
			return loan.ErrLoanNotActive
		}
		price, err := m.currentPrice(ctx)
		if err != nil {
			return err
		}
		if inc, err = m.settleAndRecord(ctx, r, l, tick, false); err != nil {
			return err
		}
		debt, err := risk.TotalOwed(l.LoanAmount, l.AccruedInterest)
		if err != nil {
			return err
		}
		ratio, err := risk.CollateralRatio(l.CollateralAmount, debt, price, m.params.CollateralUnit)
		if err != nil {
			return err
		}
		dto = &LiquidationDTO{LoanID: l.ID, Tick: tick, Outcome: OutcomeUnaffected, Ratio: ratio, Debt: debt}

		if risk.ShouldLiquidate(ratio, m.params.LiquidationThresholdPct) {
			if err := l.MarkLiquidated(tick); err != nil {
				return err
			}
			if err := r.Index.Delete(ctx, l.Borrower, l.ID); err != nil {
				return err
			}
			if err := m.record(ctx, r, l.ID, event.KindLiquidated, tick, debt, ratio); err != nil {
				return err
			}
			dto.Outcome = OutcomeLiquidated
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return nil, notFound(err)
	}
	if inc > 0 {
		m.metrics.InterestSettled(inc)
	}
	if dto.Outcome == OutcomeLiquidated {
		m.metrics.LoanLiquidated()
		m.log.Info("loan liquidated",
			zap.Uint64("loan_id", dto.LoanID),
			zap.Uint64("ratio", dto.Ratio),
			zap.Uint64("tick", tick))
	}
	return dto, nil
}

// RepayLoan settles interest to tick, then closes the loan when amount covers
// principal plus interest. Anything above the owed total is reported as change.
func (m *Manager) RepayLoan(ctx context.Context, in RepayInput, tick uint64) (*RepaymentDTO, error) {
	if in.Amount == 0 {
		return nil, loan.ErrInvalidAmount
	}

	var (
		dto *RepaymentDTO
		inc uint64
	)
	err := m.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.IsActive() {
			return loan.ErrLoanNotActive
		}
		if in.Payer != l.Borrower {
			return loan.ErrUnauthorizedPayer
		}
		var err error
		if inc, err = m.settleAndRecord(ctx, r, l, tick, false); err != nil {
			return err
		}
		owed, err := risk.TotalOwed(l.LoanAmount, l.AccruedInterest)
		if err != nil {
			return err
		}

		if in.Amount >= owed {
			if err := l.MarkRepaid(tick); err != nil {
				return err
			}
			if err := r.Index.Delete(ctx, l.Borrower, l.ID); err != nil {
				return err
			}
			if err := m.record(ctx, r, l.ID, event.KindRepaid, tick, owed, 0); err != nil {
				return err
			}
			dto = &RepaymentDTO{
				LoanID:             l.ID,
				Status:             string(l.Status),
				Owed:               owed,
				Applied:            owed,
				Change:             in.Amount - owed,
				RemainingPrincipal: l.LoanAmount,
				RemainingInterest:  l.AccruedInterest,
			}
			return r.Loans.Save(ctx, l)
		}

		if !m.params.AllowPartialRepayment {
			return loan.ErrPartialRepaymentUnsupported
		}
		// interest first, then principal; the payment has to reach principal
		if in.Amount <= l.AccruedInterest {
			return fmt.Errorf("%w: partial payment must exceed accrued interest %d", loan.ErrInvalidAmount, l.AccruedInterest)
		}
		l.LoanAmount -= in.Amount - l.AccruedInterest
		l.AccruedInterest = 0
		if err := m.record(ctx, r, l.ID, event.KindPartialRepayment, tick, in.Amount, 0); err != nil {
			return err
		}
		dto = &RepaymentDTO{
			LoanID:             l.ID,
			Status:             string(l.Status),
			Owed:               owed,
			Applied:            in.Amount,
			RemainingPrincipal: l.LoanAmount,
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return nil, notFound(err)
	}
	if inc > 0 {
		m.metrics.InterestSettled(inc)
	}
	if dto.Status == string(loan.StatusRepaid) {
		m.metrics.LoanRepaid()
		m.log.Info("loan repaid",
			zap.Uint64("loan_id", dto.LoanID),
			zap.Uint64("owed", dto.Owed),
			zap.Uint64("tick", tick))
	}
	return dto, nil
}

func (m *Manager) GetLoan(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := m.reads.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, notFound(err)
	}
	return toLoanDTO(l), nil
}

// GetUserLoans lists the borrower's active loan ids in ascending order.
func (m *Manager) GetUserLoans(ctx context.Context, borrower string) ([]uint64, error) {
	idx, err := m.reads.Index.Load(ctx, borrower)
	if err != nil {
		return nil, err
	}
	return idx.IDs(), nil
}

func (m *Manager) LoanEvents(ctx context.Context, loanID uint64) ([]EventDTO, error) {
	if _, err := m.reads.Loans.GetByID(ctx, loanID); err != nil {
		return nil, notFound(err)
	}
	evs, err := m.reads.Events.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]EventDTO, 0, len(evs))
	for _, e := range evs {
		out = append(out, toEventDTO(e))
	}
	return out, nil
}
