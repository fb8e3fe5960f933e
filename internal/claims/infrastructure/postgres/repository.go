package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
)

const claimColumns = `id, policy_id, device_id, owner_id, device_serial, issue_description, damage_category,
	repair_type, status, serial_match, verification_serial, verification_attempts, assigned_shop_id,
	repair_cost_agreed, repair_notes, filed_at, verified_at, completed_at, closed_at, updated_at`

// Repository is a Postgres implementation of claims.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new claim.
func (r *Repository) Insert(ctx context.Context, claim *claims.Claim) error {
	if r == nil || r.db == nil {
		return errors.New("claim repo: nil db")
	}
	if claim == nil {
		return errors.New("claim repo: nil claim")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO claims (`+claimColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,''),$12,NULLIF($13,''),$14,NULLIF($15,''),$16,$17,$18,$19,$20)`,
		claim.ID, claim.PolicyID, claim.DeviceID, claim.OwnerID, claim.DeviceSerial, claim.IssueDescription,
		string(claim.DamageCategory), string(claim.RepairType), string(claim.Status), nullBool(claim.SerialMatch),
		claim.VerificationSerial, claim.VerificationAttempts, claim.AssignedShopID, nullDecimal(claim.RepairCostAgreed),
		claim.RepairNotes, claim.FiledAt, nullTime(claim.VerifiedAt), nullTime(claim.CompletedAt),
		nullTime(claim.ClosedAt), claim.UpdatedAt)
	return err
}

// Get loads a claim.
func (r *Repository) Get(ctx context.Context, claimID string) (*claims.Claim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, claimID)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return claim, err
}

// FindOpenByDevice returns the newest open claim of a device.
func (r *Repository) FindOpenByDevice(ctx context.Context, deviceID string) (*claims.Claim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+claimColumns+`
FROM claims
WHERE device_id = $1 AND status IN ('filed', 'assigned', 'in_progress')
ORDER BY filed_at DESC
LIMIT 1`, deviceID)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return claim, err
}

// ListByOwner returns an owner's claims, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]claims.Claim, error) {
	return r.query(ctx, `
SELECT `+claimColumns+`
FROM claims
WHERE owner_id = $1
ORDER BY filed_at DESC, id ASC`, ownerID)
}

// ListByShop returns claims assigned to a shop in the given statuses.
func (r *Repository) ListByShop(ctx context.Context, shopID string, statuses []claims.Status) ([]claims.Claim, error) {
	args := []any{shopID}
	query := `
SELECT ` + claimColumns + `
FROM claims
WHERE assigned_shop_id = $1`
	if len(statuses) > 0 {
		placeholders := make([]string, 0, len(statuses))
		for _, status := range statuses {
			args = append(args, string(status))
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += `
ORDER BY filed_at DESC, id ASC`
	return r.query(ctx, query, args...)
}

// Search returns claims passing filter, newest first.
func (r *Repository) Search(ctx context.Context, filter claims.Filter) ([]claims.Claim, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	q := strings.TrimSpace(filter.Query)
	return r.query(ctx, `
SELECT `+claimColumns+`
FROM claims
WHERE ($1 = '' OR status = $1)
  AND ($2 = ''
       OR id = $2
       OR strpos(device_serial, upper($2)) > 0
       OR strpos(lower(issue_description), lower($2)) > 0)
ORDER BY filed_at DESC, id ASC
LIMIT $3`, string(filter.Status), q, limit)
}

// Update applies a compare-and-set change. A stored serial_match of true is
// kept.
func (r *Repository) Update(ctx context.Context, change claims.Change) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("claim repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE claims
SET status = $3,
    serial_match = CASE WHEN serial_match IS TRUE THEN TRUE ELSE COALESCE($4, serial_match) END,
    verification_serial = COALESCE(NULLIF($5, ''), verification_serial),
    verification_attempts = verification_attempts + $6,
    assigned_shop_id = COALESCE(NULLIF($7, ''), assigned_shop_id),
    verified_at = COALESCE($8, verified_at),
    completed_at = COALESCE($9, completed_at),
    closed_at = COALESCE($10, closed_at),
    repair_notes = COALESCE(NULLIF($11, ''), repair_notes),
    repair_cost_agreed = COALESCE($12, repair_cost_agreed),
    repair_type = COALESCE(NULLIF($14, ''), repair_type),
    updated_at = $13
WHERE id = $1 AND status = $2`,
		change.ClaimID, string(change.From), string(change.To), nullBool(change.SerialMatch),
		change.VerificationSerial, change.AttemptDelta, change.AssignedShopID,
		nullTime(change.VerifiedAt), nullTime(change.CompletedAt), nullTime(change.ClosedAt),
		change.RepairNotes, nullDecimal(change.RepairCost), change.At, string(change.RepairType))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]claims.Claim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]claims.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *claim)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (*claims.Claim, error) {
	var (
		claim              claims.Claim
		category           string
		repairType         string
		status             string
		serialMatch        sql.NullBool
		verificationSerial sql.NullString
		assignedShop       sql.NullString
		repairCost         decimal.NullDecimal
		repairNotes        sql.NullString
		verifiedAt         sql.NullTime
		completedAt        sql.NullTime
		closedAt           sql.NullTime
	)
	if err := row.Scan(
		&claim.ID,
		&claim.PolicyID,
		&claim.DeviceID,
		&claim.OwnerID,
		&claim.DeviceSerial,
		&claim.IssueDescription,
		&category,
		&repairType,
		&status,
		&serialMatch,
		&verificationSerial,
		&claim.VerificationAttempts,
		&assignedShop,
		&repairCost,
		&repairNotes,
		&claim.FiledAt,
		&verifiedAt,
		&completedAt,
		&closedAt,
		&claim.UpdatedAt,
	); err != nil {
		return nil, err
	}
	claim.DamageCategory = claims.DamageCategory(category)
	claim.RepairType = claims.RepairType(repairType)
	claim.Status = claims.Status(status)
	if serialMatch.Valid {
		match := serialMatch.Bool
		claim.SerialMatch = &match
	}
	claim.VerificationSerial = verificationSerial.String
	claim.AssignedShopID = assignedShop.String
	if repairCost.Valid {
		cost := repairCost.Decimal
		claim.RepairCostAgreed = &cost
	}
	claim.RepairNotes = repairNotes.String
	claim.FiledAt = claim.FiledAt.UTC()
	claim.VerifiedAt = timePtr(verifiedAt)
	claim.CompletedAt = timePtr(completedAt)
	claim.ClosedAt = timePtr(closedAt)
	claim.UpdatedAt = claim.UpdatedAt.UTC()
	return &claim, nil
}

func nullBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
