package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"lending-ledger/internal/usecase/lifecycle"
)

var _ lifecycle.Metrics = (*Ledger)(nil)

// Ledger holds the loan lifecycle collectors.
type Ledger struct {
	opened     prometheus.Counter
	repaid     prometheus.Counter
	liquidated prometheus.Counter
	rejections *prometheus.CounterVec
	interest   prometheus.Counter
}

// NewLedger creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewLedger(reg prometheus.Registerer) (*Ledger, error) {
	m := &Ledger{
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "loans_opened_total",
			Help:      "Loans successfully opened.",
		}),
		repaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "loans_repaid_total",
			Help:      "Loans closed by full repayment.",
		}),
		liquidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "loans_liquidated_total",
			Help:      "Loans closed by liquidation.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "open_rejections_total",
			Help:      "Rejected open requests segmented by reason.",
		}, []string{"reason"}),
		interest: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "interest_settled_total",
			Help:      "Interest folded into loans, in principal base units.",
		}),
	}
	for _, c := range []prometheus.Collector{m.opened, m.repaid, m.liquidated, m.rejections, m.interest} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Ledger) LoanOpened()     { m.opened.Inc() }
func (m *Ledger) LoanRepaid()     { m.repaid.Inc() }
func (m *Ledger) LoanLiquidated() { m.liquidated.Inc() }

func (m *Ledger) OpenRejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Ledger) InterestSettled(amount uint64) {
	m.interest.Add(float64(amount))
}
