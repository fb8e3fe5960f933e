package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func registerDBMetrics(db *sql.DB, logger *zap.Logger) {
	gauges := []struct {
		name  string
		help  string
		query string
	}{
		{"event_outbox_pending", "Pending outbox records", "SELECT COUNT(*) FROM event_outbox WHERE status = 'pending'"},
		{"claims_open", "Claims not yet closed or flagged", "SELECT COUNT(*) FROM claims WHERE status IN ('filed','assigned','in_progress','verified_complete')"},
		{"claims_flagged", "Claims flagged for review", "SELECT COUNT(*) FROM claims WHERE status = 'flagged'"},
		{"registrations_incomplete", "Devices left incomplete by a failed registration", "SELECT COUNT(*) FROM devices WHERE registration_state = 'incomplete'"},
		{"shop_applications_pending", "Shop applications awaiting review", "SELECT COUNT(*) FROM repair_shops WHERE status = 'pending'"},
	}
	for _, g := range gauges {
		query := g.query
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + g.name,
				Help: g.help,
			},
			func() float64 {
				return queryCount(db, logger, query)
			},
		))
	}
}

func queryCount(db *sql.DB, logger *zap.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.Error(err))
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
