package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatcherMetrics exposes counters for the follow-up dispatcher loop.
type DispatcherMetrics struct {
	tasksTotal      *prometheus.CounterVec
	rateLimitPauses prometheus.Counter
	tickDuration    prometheus.Histogram
}

func NewDispatcherMetrics(reg prometheus.Registerer) *DispatcherMetrics {
	m := &DispatcherMetrics{
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "followup",
			Name:      "tasks_total",
			Help:      "Follow-up tasks processed, by channel and outcome",
		}, []string{"channel", "outcome"}),
		rateLimitPauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "followup",
			Name:      "rate_limit_pauses_total",
			Help:      "Times the dispatcher paused for the provider rate limit",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "followup",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one dispatcher tick",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.tasksTotal, m.rateLimitPauses, m.tickDuration)
	return m
}

func (m *DispatcherMetrics) ObserveTask(channel, outcome string) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *DispatcherMetrics) ObserveRateLimitPause() {
	if m == nil {
		return
	}
	m.rateLimitPauses.Inc()
}

func (m *DispatcherMetrics) ObserveTick(seconds float64) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(seconds)
}

// SyncMetrics exposes counters for call-result reconciliation.
type SyncMetrics struct {
	syncTotal     *prometheus.CounterVec
	confirmations prometheus.Counter
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reconcile",
			Name:      "sync_total",
			Help:      "Call-result sync attempts, by outcome",
		}, []string{"outcome"}),
		confirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reconcile",
			Name:      "confirmations_total",
			Help:      "Appointments confirmed by reconciliation",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.syncTotal, m.confirmations)
	return m
}

func (m *SyncMetrics) ObserveSync(outcome string) {
	if m == nil {
		return
	}
	m.syncTotal.WithLabelValues(outcome).Inc()
}

func (m *SyncMetrics) ObserveConfirmation() {
	if m == nil {
		return
	}
	m.confirmations.Inc()
}
