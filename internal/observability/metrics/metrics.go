package metrics

import "github.com/prometheus/client_golang/prometheus"

// FeedbackMetrics exposes counters/histograms for the feedback processing flow.
type FeedbackMetrics struct {
	createdTotal    *prometheus.CounterVec
	processedTotal  *prometheus.CounterVec
	classifyLatency prometheus.Histogram
}

func NewFeedbackMetrics(reg prometheus.Registerer) *FeedbackMetrics {
	m := &FeedbackMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dgh",
			Subsystem: "feedback",
			Name:      "created_total",
			Help:      "Total feedback rows created",
		}, []string{"language", "input_type"}),
		processedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dgh",
			Subsystem: "feedback",
			Name:      "processed_total",
			Help:      "Total classification attempts by outcome",
		}, []string{"outcome", "sentiment"}),
		classifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dgh",
			Subsystem: "feedback",
			Name:      "classify_latency_seconds",
			Help:      "Latency of sentiment classification calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.processedTotal, m.classifyLatency)
	return m
}

func (m *FeedbackMetrics) ObserveCreated(language, inputType string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(language, inputType).Inc()
}

func (m *FeedbackMetrics) ObserveProcessed(outcome, sentiment string) {
	if m == nil {
		return
	}
	m.processedTotal.WithLabelValues(outcome, sentiment).Inc()
}

func (m *FeedbackMetrics) ObserveClassifyLatency(seconds float64) {
	if m == nil {
		return
	}
	m.classifyLatency.Observe(seconds)
}

// ReminderMetrics exposes counters/histograms for reminder dispatch.
type ReminderMetrics struct {
	submitTotal    *prometheus.CounterVec
	deliveryTotal  *prometheus.CounterVec
	staleCallbacks *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		submitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dgh",
			Subsystem: "reminders",
			Name:      "submit_total",
			Help:      "Total reminder submissions by outcome",
		}, []string{"channel", "outcome"}),
		deliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dgh",
			Subsystem: "reminders",
			Name:      "delivery_total",
			Help:      "Total delivery outcomes applied from provider callbacks",
		}, []string{"channel", "status"}),
		staleCallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dgh",
			Subsystem: "reminders",
			Name:      "stale_callbacks_total",
			Help:      "Delivery callbacks that arrived for terminal reminders",
		}, []string{"channel"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dgh",
			Subsystem: "reminders",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of provider webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submitTotal, m.deliveryTotal, m.staleCallbacks, m.webhookLatency)
	return m
}

func (m *ReminderMetrics) ObserveSubmit(channel, outcome string) {
	if m == nil {
		return
	}
	m.submitTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *ReminderMetrics) ObserveDelivery(channel, status string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(channel, status).Inc()
}

func (m *ReminderMetrics) ObserveStaleCallback(channel string) {
	if m == nil {
		return
	}
	m.staleCallbacks.WithLabelValues(channel).Inc()
}

func (m *ReminderMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}
