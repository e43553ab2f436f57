package lifecycle

import (
	"context"
	"errors"

	"lending-ledger/internal/domain/loan"

	"go.uber.org/zap"
)

const defaultScanBatch = 100

// ScanLiquidations evaluates every active loan past opts.AfterID in ascending
// id order, one transaction per loan. Per-loan failures are collected and the
// scan moves on; a missing price stops it since no loan can be judged without
// one. The returned report's LastLoanID can be fed back as AfterID to resume.
func (m *Manager) ScanLiquidations(ctx context.Context, tick uint64, opts ScanOptions) (*ScanReport, error) {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = defaultScanBatch
	}
	report := &ScanReport{Tick: tick, Liquidated: []uint64{}, LastLoanID: opts.AfterID}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ids, err := m.reads.Loans.ListActiveIDs(ctx, report.LastLoanID, batch)
		if err != nil {
			return report, err
		}
		for _, loanID := range ids {
			res, err := m.EvaluateLiquidation(ctx, loanID, tick)
			switch {
			case err == nil:
				report.Evaluated++
				if res.Outcome == OutcomeLiquidated {
					report.Liquidated = append(report.Liquidated, loanID)
				}
			case errors.Is(err, loan.ErrPriceUnavailable):
				return report, err
			case errors.Is(err, loan.ErrLoanNotActive), errors.Is(err, loan.ErrLoanNotFound):
				// closed between listing and locking
				report.Skipped++
			default:
				report.Failures = append(report.Failures, ScanFailure{LoanID: loanID, Error: err.Error()})
				m.log.Warn("liquidation check failed", zap.Uint64("loan_id", loanID), zap.Error(err))
			}
			report.LastLoanID = loanID
		}
		if len(ids) < batch {
			break
		}
	}

	m.log.Info("liquidation scan finished",
		zap.Uint64("tick", tick),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("liquidated", len(report.Liquidated)),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}
