package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fuelrecon-backend/internal/domain"
)

var (
	// Store
	TxDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuelrecon_tx_duration_seconds",
			Help:    "Duration of store transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	TxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelrecon_tx_retries_total",
			Help: "Transactions re-run after a serialization failure, deadlock or dropped connection",
		},
	)

	// Engines
	ReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelrecon_readings_total",
			Help: "Meter readings submitted, by outcome",
		},
		[]string{"outcome"},
	)

	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelrecon_reconciliations_total",
			Help: "Reconciliation runs, by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// Alerts
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelrecon_alerts_dispatched_total",
			Help: "Events delivered to a sink",
		},
		[]string{"sink", "kind"},
	)

	AlertsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelrecon_alerts_failed_total",
			Help: "Events a sink failed to deliver",
		},
		[]string{"sink", "kind"},
	)

	AlertsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelrecon_alerts_dropped_total",
			Help: "Events dropped because the dispatch queue was full",
		},
	)

	AlertQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fuelrecon_alert_queue_depth",
			Help: "Events waiting in the dispatch queue",
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelrecon_api_requests_total",
			Help: "HTTP requests, by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuelrecon_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Jobs
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelrecon_job_runs_total",
			Help: "Scheduled job runs, by job and result",
		},
		[]string{"job", "result"},
	)
)

// ObserveTx records the duration of one transaction attempt.
func ObserveTx(d time.Duration, err error) {
	result := "commit"
	if err != nil {
		result = "rollback"
	}
	TxDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordReading counts a submission under the name of the rule that decided it.
func RecordReading(err error) {
	ReadingsTotal.WithLabelValues(Outcome(err)).Inc()
}

func RecordReconciliation(mode string, err error) {
	ReconciliationsTotal.WithLabelValues(mode, Outcome(err)).Inc()
}

func RecordAlert(sink string, kind domain.EventKind, err error) {
	if err != nil {
		AlertsFailed.WithLabelValues(sink, string(kind)).Inc()
		return
	}
	AlertsDispatched.WithLabelValues(sink, string(kind)).Inc()
}

func RecordAPIRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordJobRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	JobRunsTotal.WithLabelValues(job, result).Inc()
}

// Outcome maps an engine error to a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrInvalidNozzle):
		return "invalid_nozzle"
	case errors.Is(err, domain.ErrInvalidCreditor):
		return "invalid_creditor"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDayFinalized):
		return "day_finalized"
	case errors.Is(err, domain.ErrDuplicateReading):
		return "duplicate"
	case errors.Is(err, domain.ErrBackdatedNotAllowed):
		return "backdated"
	case errors.Is(err, domain.ErrInsufficientRole):
		return "insufficient_role"
	case errors.Is(err, domain.ErrResetNotConfirmed):
		return "reset_not_confirmed"
	case errors.Is(err, domain.ErrPriceNotConfigured):
		return "price_not_configured"
	case errors.Is(err, domain.ErrCreditLimitExceeded):
		return "credit_limit_exceeded"
	case errors.Is(err, domain.ErrAlreadyVoided):
		return "already_voided"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
