package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger modules. Counters track
// record creation and transfer outcomes; histograms cover the transfer
// critical path.
type Metrics struct {
	BondsRegistered     prometheus.Counter
	InvestorsRegistered prometheus.Counter
	IssuersRegistered   prometheus.Counter
	BondsMatured        prometheus.Counter

	TransfersCompleted *prometheus.CounterVec
	TransfersFailed    *prometheus.CounterVec
	TransferDuration   *prometheus.HistogramVec
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		BondsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bondgate_bonds_registered_total",
			Help: "Total number of bond issuances registered",
		}),
		InvestorsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bondgate_investors_registered_total",
			Help: "Total number of investors registered",
		}),
		IssuersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bondgate_issuers_registered_total",
			Help: "Total number of issuers appended to the registry",
		}),
		BondsMatured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bondgate_bonds_matured_total",
			Help: "Total number of bonds transitioned to matured",
		}),
		TransfersCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bondgate_transfers_completed_total",
			Help: "Completed transfer operations by kind (buy, sell, redeem)",
		}, []string{"kind"}),
		TransfersFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bondgate_transfers_failed_total",
			Help: "Failed transfer operations by kind and error code",
		}, []string{"kind", "code"}),
		TransferDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bondgate_transfer_duration_seconds",
			Help:    "Duration of transfer operations (ledger critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

// ObserveTransfer records the duration of a transfer operation. Call
// with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveTransfer(kind string, start time.Time) {
	m.TransferDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
