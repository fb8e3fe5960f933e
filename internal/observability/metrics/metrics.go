package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "mend_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	registrationTotal   *prometheus.CounterVec
	registrationLatency *prometheus.HistogramVec
	sagaCompensations   *prometheus.CounterVec

	claimsFiled       *prometheus.CounterVec
	claimTransitions  *prometheus.CounterVec
	verificationTotal *prometheus.CounterVec
	scanOutcomes      *prometheus.CounterVec

	shopDecisions *prometheus.CounterVec
	ledgerEntries *prometheus.CounterVec

	statementExportTotal   *prometheus.CounterVec
	statementExportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers service metrics and DB-backed gauges. A nil db skips the
// gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		registrationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "registration_total",
				Help: "Total device registrations by result",
			},
			[]string{"result"},
		)
		registrationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "registration_latency_seconds",
				Help:    "Device registration latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		sagaCompensations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "registration_compensations_total",
				Help: "Registration compensations by result",
			},
			[]string{"result"},
		)

		claimsFiled = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "claims_filed_total",
				Help: "Total filed claims by repair type",
			},
			[]string{"repair_type"},
		)
		claimTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "claim_transitions_total",
				Help: "Claim status transitions",
			},
			[]string{"from", "to"},
		)
		verificationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "serial_verifications_total",
				Help: "Serial verification attempts by outcome",
			},
			[]string{"outcome"},
		)
		scanOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scan_outcomes_total",
				Help: "Diagnostic scans by outcome",
			},
			[]string{"outcome"},
		)

		shopDecisions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "shop_decisions_total",
				Help: "Shop application decisions",
			},
			[]string{"decision"},
		)
		ledgerEntries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_entries_total",
				Help: "Ledger entries appended by kind",
			},
			[]string{"kind"},
		)

		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total revenue statement exports by format and result",
			},
			[]string{"format", "result"},
		)
		statementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Revenue statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		prometheus.MustRegister(
			registrationTotal,
			registrationLatency,
			sagaCompensations,
			claimsFiled,
			claimTransitions,
			verificationTotal,
			scanOutcomes,
			shopDecisions,
			ledgerEntries,
			statementExportTotal,
			statementExportLatency,
			httpRequests,
			httpLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveRegistration records registration duration and result.
func ObserveRegistration(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if registrationTotal != nil {
		registrationTotal.WithLabelValues(result).Inc()
	}
	if registrationLatency != nil {
		registrationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncCompensation counts a registration compensation attempt.
func IncCompensation(result string) {
	if sagaCompensations != nil {
		sagaCompensations.WithLabelValues(result).Inc()
	}
}

// IncClaimFiled counts a filed claim.
func IncClaimFiled(repairType string) {
	if repairType == "" {
		repairType = "unknown"
	}
	if claimsFiled != nil {
		claimsFiled.WithLabelValues(repairType).Inc()
	}
}

// IncClaimTransition counts a committed status change.
func IncClaimTransition(from, to string) {
	if claimTransitions != nil {
		claimTransitions.WithLabelValues(from, to).Inc()
	}
}

// IncVerification counts a serial verification attempt.
func IncVerification(outcome string) {
	if verificationTotal != nil {
		verificationTotal.WithLabelValues(outcome).Inc()
	}
}

// IncScanOutcome counts a diagnostic scan.
func IncScanOutcome(outcome string) {
	if scanOutcomes != nil {
		scanOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncShopDecision counts a shop review decision.
func IncShopDecision(decision string) {
	if shopDecisions != nil {
		shopDecisions.WithLabelValues(decision).Inc()
	}
}

// IncLedgerEntry counts an appended ledger entry.
func IncLedgerEntry(kind string) {
	if ledgerEntries != nil {
		ledgerEntries.WithLabelValues(kind).Inc()
	}
}

// ObserveStatementExport records export latency and result.
func ObserveStatementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(format, result).Inc()
	}
	if statementExportLatency != nil {
		statementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, code string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, code).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
