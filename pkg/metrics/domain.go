package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics tracks marketplace checkout, fulfillment and settlement activity.
type DomainMetrics struct {
	checkouts          *prometheus.CounterVec
	fallbackFees       prometheus.Counter
	walletPostings     *prometheus.CounterVec
	cashoutTransitions *prometheus.CounterVec
	orderTransitions   *prometheus.CounterVec
	walletDrift        prometheus.Counter
}

// NewDomainMetrics registers the domain counters on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaarlink_checkout_total",
			Help: "Checkout attempts by result.",
		}, []string{"result"}),
		fallbackFees: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bazaarlink_fallback_fee_total",
			Help: "Vendor orders priced with the fallback delivery fee.",
		}),
		walletPostings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaarlink_wallet_postings_total",
			Help: "Wallet ledger postings by type and bucket.",
		}, []string{"type", "bucket"}),
		cashoutTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaarlink_cashout_transitions_total",
			Help: "Cashout request transitions by target status.",
		}, []string{"to"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaarlink_order_transitions_total",
			Help: "Order fulfillment transitions by target status.",
		}, []string{"to"}),
		walletDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bazaarlink_wallet_drift_total",
			Help: "Wallets whose materialized balance disagreed with the ledger fold.",
		}),
	}
	reg.MustRegister(m.checkouts, m.fallbackFees, m.walletPostings, m.cashoutTransitions, m.orderTransitions, m.walletDrift)
	return m
}

func (m *DomainMetrics) IncCheckout(result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *DomainMetrics) IncFallbackFee() {
	if m == nil || m.fallbackFees == nil {
		return
	}
	m.fallbackFees.Inc()
}

func (m *DomainMetrics) IncWalletPosting(txnType, bucket string) {
	if m == nil || m.walletPostings == nil {
		return
	}
	m.walletPostings.WithLabelValues(normalizeLabel(txnType), normalizeLabel(bucket)).Inc()
}

func (m *DomainMetrics) IncCashoutTransition(to string) {
	if m == nil || m.cashoutTransitions == nil {
		return
	}
	m.cashoutTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func (m *DomainMetrics) IncOrderTransition(to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func (m *DomainMetrics) IncWalletDrift() {
	if m == nil || m.walletDrift == nil {
		return
	}
	m.walletDrift.Inc()
}
