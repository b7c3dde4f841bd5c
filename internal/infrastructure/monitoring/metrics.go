package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	PaymentsTotal      *prometheus.CounterVec
	LoansCreatedTotal  *prometheus.CounterVec
	LoansApprovedTotal prometheus.Counter
	AuditEntriesTotal  prometheus.Counter
	AuditDroppedTotal  prometheus.Counter
	OverdueLoansGauge  prometheus.Gauge
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_payments_total",
				Help: "Total number of payment attempts by outcome.",
			},
			[]string{"status"},
		),
		LoansCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_loans_created_total",
				Help: "Total number of loans created by product code.",
			},
			[]string{"product"},
		),
		LoansApprovedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_loans_approved_total",
				Help: "Total number of loans approved.",
			},
		),
		AuditEntriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_audit_entries_total",
				Help: "Total number of audit entries recorded.",
			},
		),
		AuditDroppedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_audit_entries_dropped_total",
				Help: "Total number of audit entries dropped due to backpressure.",
			},
		),
		OverdueLoansGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lending_engine_overdue_loans",
				Help: "Number of active loans past their term flagged by the review job.",
			},
		),
	}
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTP.RequestsTotal.WithLabelValues(method, route, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

func RecordPayment(status string) {
	Business.PaymentsTotal.WithLabelValues(status).Inc()
}

func RecordLoanCreated(productCode string) {
	Business.LoansCreatedTotal.WithLabelValues(productCode).Inc()
}

func RecordLoanApproved() {
	Business.LoansApprovedTotal.Inc()
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}
