package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxRevenueMonths bounds the revenue window.
const MaxRevenueMonths = 24

// MonthRevenue is the commission and repair income of one calendar month.
type MonthRevenue struct {
	Month      string          `json:"month"`
	Start      time.Time       `json:"start"`
	Commission decimal.Decimal `json:"commission"`
	Repairs    decimal.Decimal `json:"repairs"`
}

// Total returns commission plus repairs.
func (m MonthRevenue) Total() decimal.Decimal {
	return m.Commission.Add(m.Repairs)
}

// RevenueSummary is the shop revenue dashboard.
type RevenueSummary struct {
	ShopID         string          `json:"shop_id"`
	Months         []MonthRevenue  `json:"months"`
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
	MonthlyPassive decimal.Decimal `json:"monthly_passive"`
	ProjectedARR   decimal.Decimal `json:"projected_arr"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// MonthStart returns the first instant of t's month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// WindowStart returns the start of the oldest of the last months calendar
// months ending with the month of now.
func WindowStart(now time.Time, months int) time.Time {
	return MonthStart(now).AddDate(0, -(months - 1), 0)
}

// BuildRevenue buckets entries into the last months calendar months ending
// with now's month. MonthlyPassive is the current month's commission and
// ProjectedARR is the average monthly commission over the window times 12.
func BuildRevenue(shopID string, entries []Entry, balance decimal.Decimal, months int, now time.Time) RevenueSummary {
	if months <= 0 {
		months = 6
	}
	if months > MaxRevenueMonths {
		months = MaxRevenueMonths
	}
	start := WindowStart(now, months)
	buckets := make([]MonthRevenue, months)
	for i := range buckets {
		monthStart := start.AddDate(0, i, 0)
		buckets[i] = MonthRevenue{
			Month:      monthStart.Format("2006-01"),
			Start:      monthStart,
			Commission: decimal.Zero,
			Repairs:    decimal.Zero,
		}
	}

	for _, entry := range entries {
		at := entry.OccurredAt.UTC()
		if at.Before(start) {
			continue
		}
		idx := monthsBetween(start, at)
		if idx < 0 || idx >= months {
			continue
		}
		switch entry.Kind {
		case KindCommission:
			buckets[idx].Commission = buckets[idx].Commission.Add(entry.Amount)
		case KindPayout:
			buckets[idx].Repairs = buckets[idx].Repairs.Add(entry.Amount)
		}
	}

	totalCommission := decimal.Zero
	for _, bucket := range buckets {
		totalCommission = totalCommission.Add(bucket.Commission)
	}
	avg := totalCommission.Div(decimal.NewFromInt(int64(months)))

	return RevenueSummary{
		ShopID:         shopID,
		Months:         buckets,
		WalletBalance:  balance,
		MonthlyPassive: buckets[months-1].Commission,
		ProjectedARR:   avg.Mul(decimal.NewFromInt(12)).Round(2),
		GeneratedAt:    now.UTC(),
	}
}

func monthsBetween(start, t time.Time) int {
	return (t.Year()-start.Year())*12 + int(t.Month()) - int(start.Month())
}
