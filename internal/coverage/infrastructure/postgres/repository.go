package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	coverage "github.com/sk1972-mend/mendinsurance/internal/coverage/domain"
)

const (
	deviceColumns = `id, owner_id, category, brand, model, serial_number, tier, health_status, registration_state, created_at, updated_at`
	policyColumns = `id, device_id, owner_id, monthly_premium, deductible, status, referring_shop_id, start_date, end_date, created_at, updated_at`
)

// Repository is a Postgres implementation of coverage.Repository.
type Repository struct {
	db DBTX
}

// NewRepository constructs a repository.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// InsertDevice inserts a device row.
func (r *Repository) InsertDevice(ctx context.Context, device *coverage.Device) error {
	if r == nil || r.db == nil {
		return errors.New("coverage repo: nil db")
	}
	if device == nil {
		return errors.New("coverage repo: nil device")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO devices (`+deviceColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		device.ID, device.Owner, device.Category, device.Brand, device.Model, device.SerialNumber,
		device.Tier, device.HealthStatus, string(device.RegistrationState), device.CreatedAt, device.UpdatedAt)
	if isUniqueViolation(err, "devices_serial_number_key") {
		return coverage.ErrDuplicateSerial
	}
	return err
}

// MarkDeviceComplete finishes the registration saga of a device.
func (r *Repository) MarkDeviceComplete(ctx context.Context, deviceID string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("coverage repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE devices
SET registration_state = 'complete', updated_at = $2
WHERE id = $1`, deviceID, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return coverage.ErrDeviceNotFound
	}
	return nil
}

// DeleteDevice removes a device row.
func (r *Repository) DeleteDevice(ctx context.Context, deviceID string) error {
	if r == nil || r.db == nil {
		return errors.New("coverage repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, deviceID)
	return err
}

// GetDevice loads a device by id.
func (r *Repository) GetDevice(ctx context.Context, deviceID string) (*coverage.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("coverage repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, deviceID)
	return scanDeviceRow(row)
}

// FindDeviceBySerial loads a device by normalized serial.
func (r *Repository) FindDeviceBySerial(ctx context.Context, serial string) (*coverage.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("coverage repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE serial_number = $1`, serial)
	return scanDeviceRow(row)
}

// ListDevicesByOwner returns an owner's devices, newest first.
func (r *Repository) ListDevicesByOwner(ctx context.Context, owner string) ([]coverage.Device, error) {
	return r.listDevices(ctx, `SELECT `+deviceColumns+` FROM devices WHERE owner_id = $1 ORDER BY created_at DESC`, owner)
}

// ListIncomplete returns devices whose registration did not finish.
func (r *Repository) ListIncomplete(ctx context.Context) ([]coverage.Device, error) {
	return r.listDevices(ctx, `SELECT `+deviceColumns+` FROM devices WHERE registration_state = 'incomplete' ORDER BY created_at DESC`)
}

func (r *Repository) listDevices(ctx context.Context, query string, args ...any) ([]coverage.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("coverage repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []coverage.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertPolicy inserts a policy row.
func (r *Repository) InsertPolicy(ctx context.Context, policy *coverage.Policy) error {
	if r == nil || r.db == nil {
		return errors.New("coverage repo: nil db")
	}
	if policy == nil {
		return errors.New("coverage repo: nil policy")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO policies (`+policyColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		policy.ID, policy.DeviceID, policy.Owner, policy.MonthlyPremium, policy.Deductible, string(policy.Status),
		nullString(policy.ReferringShopID), policy.StartDate, policy.EndDate, policy.CreatedAt, policy.UpdatedAt)
	return err
}

// GetPolicy loads a policy by id.
func (r *Repository) GetPolicy(ctx context.Context, policyID string) (*coverage.Policy, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("coverage repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+policyColumns+` FROM policies WHERE id = $1`, policyID)
	return scanPolicy(row)
}

// FindPolicyByDevice loads the policy of a device.
func (r *Repository) FindPolicyByDevice(ctx context.Context, deviceID string) (*coverage.Policy, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("coverage repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+policyColumns+` FROM policies WHERE device_id = $1`, deviceID)
	return scanPolicy(row)
}

// UpdatePolicyStatus applies a compare-and-set status change.
func (r *Repository) UpdatePolicyStatus(ctx context.Context, change coverage.PolicyChange) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("coverage repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE policies
SET status = $3,
	start_date = COALESCE($4, start_date),
	end_date = COALESCE($5, end_date),
	updated_at = $6
WHERE id = $1 AND status = $2`,
		change.PolicyID, string(change.From), string(change.To), change.StartDate, change.EndDate, change.At)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeviceRow(row *sql.Row) (*coverage.Device, error) {
	device, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return device, err
}

func scanDevice(row scanner) (*coverage.Device, error) {
	var device coverage.Device
	var state string
	if err := row.Scan(
		&device.ID,
		&device.Owner,
		&device.Category,
		&device.Brand,
		&device.Model,
		&device.SerialNumber,
		&device.Tier,
		&device.HealthStatus,
		&state,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		return nil, err
	}
	device.RegistrationState = coverage.RegistrationState(state)
	device.CreatedAt = device.CreatedAt.UTC()
	device.UpdatedAt = device.UpdatedAt.UTC()
	return &device, nil
}

func scanPolicy(row *sql.Row) (*coverage.Policy, error) {
	var policy coverage.Policy
	var status string
	var referringShop sql.NullString
	var start, end sql.NullTime
	if err := row.Scan(
		&policy.ID,
		&policy.DeviceID,
		&policy.Owner,
		&policy.MonthlyPremium,
		&policy.Deductible,
		&status,
		&referringShop,
		&start,
		&end,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	policy.Status = coverage.PolicyStatus(status)
	policy.ReferringShopID = referringShop.String
	policy.StartDate = timePtr(start)
	policy.EndDate = timePtr(end)
	policy.CreatedAt = policy.CreatedAt.UTC()
	policy.UpdatedAt = policy.UpdatedAt.UTC()
	return &policy, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
