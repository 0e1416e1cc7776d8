package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "sprout"

type Indicators interface {
	IncrementTxTotal(method, state string)
	ObserveDeposit(amount uint64)
	ObserveWithdrawal(receipts, proceeds, fee uint64)
	SetReceiptSupply(supply uint64)
	SetTreasuryBalance(balance uint64)
}

type PromIndicators struct {
	txTotal         *prometheus.CounterVec
	depositVolume   prometheus.Counter
	withdrawnVolume prometheus.Counter
	feesCollected   prometheus.Counter
	redeemedTotal   prometheus.Counter
	depositSize     prometheus.Histogram
	receiptSupply   prometheus.Gauge
	treasuryBalance prometheus.Gauge
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(reg prometheus.Registerer, subsystem string) *PromIndicators {
	return &PromIndicators{
		txTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "txs_total",
				Help:      "number of executed transactions by method and state (ok or the error kind)",
			},
			[]string{"method", "state"},
		),
		depositVolume: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "deposited_base_total",
				Help:      "base asset units deposited into the strategy",
			},
		),
		withdrawnVolume: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "withdrawn_base_total",
				Help:      "net base asset units paid out to withdrawers",
			},
		),
		feesCollected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "withdrawal_fees_total",
				Help:      "base asset units charged as withdrawal fees",
			},
		),
		redeemedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "redeemed_receipts_total",
				Help:      "receipt units burned by withdrawals",
			},
		),
		depositSize: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "deposit_size",
				Help:      "distribution of deposit sizes in base asset units",
				Buckets:   prometheus.ExponentialBuckets(10, 10, 8),
			},
		),
		receiptSupply: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "receipt_supply",
				Help:      "outstanding receipt asset supply",
			},
		),
		treasuryBalance: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: subsystem,
				Name:      "treasury_balance",
				Help:      "base asset held by the fee treasury",
			},
		),
	}
}

func (p *PromIndicators) IncrementTxTotal(method, state string) {
	p.txTotal.WithLabelValues(method, state).Inc()
}

func (p *PromIndicators) ObserveDeposit(amount uint64) {
	p.depositVolume.Add(float64(amount))
	p.depositSize.Observe(float64(amount))
}

func (p *PromIndicators) ObserveWithdrawal(receipts, proceeds, fee uint64) {
	p.redeemedTotal.Add(float64(receipts))
	p.withdrawnVolume.Add(float64(proceeds))
	p.feesCollected.Add(float64(fee))
}

func (p *PromIndicators) SetReceiptSupply(supply uint64) {
	p.receiptSupply.Set(float64(supply))
}

func (p *PromIndicators) SetTreasuryBalance(balance uint64) {
	p.treasuryBalance.Set(float64(balance))
}

// NoopIndicators discards every observation.
type NoopIndicators struct{}

var _ Indicators = NoopIndicators{}

func (NoopIndicators) IncrementTxTotal(string, string)          {}
func (NoopIndicators) ObserveDeposit(uint64)                    {}
func (NoopIndicators) ObserveWithdrawal(uint64, uint64, uint64) {}
func (NoopIndicators) SetReceiptSupply(uint64)                  {}
func (NoopIndicators) SetTreasuryBalance(uint64)                {}
