package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	ledger "github.com/sk1972-mend/mendinsurance/internal/ledger/domain"
)

const entryColumns = `id, kind, shop_id, policy_id, claim_id, amount, reference, occurred_at, created_at`

// Repository is a Postgres implementation of ledger.Repository. Rows are
// only ever inserted.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Append inserts an entry. A conflicting (kind, reference) returns the
// stored row instead.
func (r *Repository) Append(ctx context.Context, entry *ledger.Entry) (*ledger.Entry, bool, error) {
	if r == nil || r.db == nil {
		return nil, false, errors.New("ledger repo: nil db")
	}
	if entry == nil {
		return nil, false, errors.New("ledger repo: nil entry")
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO ledger_entries (`+entryColumns+`)
VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),$6,$7,$8,$9)
ON CONFLICT (kind, reference) DO NOTHING`,
		entry.ID, string(entry.Kind), entry.ShopID, entry.PolicyID, entry.ClaimID,
		entry.Amount.String(), entry.Reference, entry.OccurredAt, entry.CreatedAt)
	if err != nil {
		return nil, false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		stored := *entry
		return &stored, true, nil
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+entryColumns+`
FROM ledger_entries
WHERE kind = $1 AND reference = $2`, string(entry.Kind), entry.Reference)
	existing, err := scanEntry(row)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Balance sums every entry of a shop.
func (r *Repository) Balance(ctx context.Context, shopID string) (decimal.Decimal, error) {
	if r == nil || r.db == nil {
		return decimal.Zero, errors.New("ledger repo: nil db")
	}
	var total string
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount), 0)::text
FROM ledger_entries
WHERE shop_id = $1`, shopID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

// ListByShop returns entries of a shop with from <= occurred_at < to.
func (r *Repository) ListByShop(ctx context.Context, shopID string, from, to time.Time) ([]ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+entryColumns+`
FROM ledger_entries
WHERE shop_id = $1 AND occurred_at >= $2 AND occurred_at < $3
ORDER BY occurred_at ASC, id ASC`, shopID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ledger.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*ledger.Entry, error) {
	var (
		entry    ledger.Entry
		kind     string
		policyID sql.NullString
		claimID  sql.NullString
		amount   string
	)
	if err := row.Scan(&entry.ID, &kind, &entry.ShopID, &policyID, &claimID, &amount,
		&entry.Reference, &entry.OccurredAt, &entry.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	entry.Kind = ledger.Kind(kind)
	entry.PolicyID = policyID.String
	entry.ClaimID = claimID.String
	entry.Amount = value
	entry.OccurredAt = entry.OccurredAt.UTC()
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}
