package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Document outcomes recorded by the notes scan
const (
	OutcomeProcessed        = "processed"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeClaimHeld        = "claim_held"
	OutcomeNoParticipants   = "no_participants"
	OutcomeNoEntity         = "no_entity"
	OutcomeFailed           = "failed"
)

// Metrics holds all Prometheus metrics for the CRM backend
type Metrics struct {
	// Notes scan
	DocumentsTotal         *prometheus.CounterVec
	ScanRunsTotal          *prometheus.CounterVec
	ScanDurationSeconds    *prometheus.HistogramVec
	MemberFailuresTotal    prometheus.Counter
	EntityResolutionsTotal *prometheus.CounterVec

	// Webhooks
	WebhookEventsTotal *prometheus.CounterVec
}

// New registers the metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftfc_notes_documents_total",
				Help: "Candidate meeting-note documents by outcome",
			},
			[]string{"outcome"},
		),
		ScanRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftfc_notes_scan_runs_total",
				Help: "Notes scan runs by trigger and status",
			},
			[]string{"trigger", "status"},
		),
		ScanDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ftfc_notes_scan_duration_seconds",
				Help:    "Wall time of a notes scan run",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"trigger"},
		),
		MemberFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ftfc_notes_member_failures_total",
				Help: "Team members skipped because their Drive could not be listed",
			},
		),
		EntityResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftfc_notes_entity_resolutions_total",
				Help: "Participant sets resolved to an entity",
			},
			[]string{"entity_type", "via"},
		),
		WebhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftfc_webhook_events_total",
				Help: "Webhook events received by source and type",
			},
			[]string{"source", "type"},
		),
	}
}

// NewNop returns metrics registered on a private registry, for tests and tools
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveDocument counts one document outcome
func (m *Metrics) ObserveDocument(outcome string) {
	m.DocumentsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun records a finished scan run
func (m *Metrics) ObserveRun(trigger, status string, elapsed time.Duration) {
	m.ScanRunsTotal.WithLabelValues(trigger, status).Inc()
	m.ScanDurationSeconds.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

// ObserveWebhook counts a received webhook event
func (m *Metrics) ObserveWebhook(source, eventType string) {
	m.WebhookEventsTotal.WithLabelValues(source, eventType).Inc()
}
