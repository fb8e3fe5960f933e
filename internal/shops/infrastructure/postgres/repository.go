package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	shops "github.com/sk1972-mend/mendinsurance/internal/shops/domain"
)

const shopColumns = `id, owner_id, business_name, business_address, business_phone, business_email,
	certifications, equipment, specializations, tier, status, reviewed_by, reviewed_at, review_note,
	created_at, updated_at`

// Repository is a Postgres implementation of shops.Repository. Capability
// lists are stored as JSONB arrays.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new application.
func (r *Repository) Insert(ctx context.Context, shop *shops.Shop) error {
	if r == nil || r.db == nil {
		return errors.New("shop repo: nil db")
	}
	if shop == nil {
		return errors.New("shop repo: nil shop")
	}
	certs, equip, specs, err := marshalLists(shop)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO repair_shops (
	id, owner_id, business_name, business_address, business_phone, business_email,
	certifications, equipment, specializations, tier, status, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)`, shop.ID, shop.OwnerID, shop.BusinessName, shop.BusinessAddress, shop.BusinessPhone, shop.BusinessEmail,
		certs, equip, specs, string(shop.Tier), string(shop.Status), shop.CreatedAt, shop.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shops.ErrAlreadyApplied
	}
	return err
}

// Get loads a shop by id.
func (r *Repository) Get(ctx context.Context, shopID string) (*shops.Shop, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("shop repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM repair_shops WHERE id = $1`, shopID)
	shop, err := scanShop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return shop, err
}

// FindByOwner loads the shop of an owner.
func (r *Repository) FindByOwner(ctx context.Context, ownerID string) (*shops.Shop, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("shop repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM repair_shops WHERE owner_id = $1`, ownerID)
	shop, err := scanShop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return shop, err
}

// List returns shops with status, or all when status is empty.
func (r *Repository) List(ctx context.Context, status shops.Status) ([]shops.Shop, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("shop repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+shopColumns+`
FROM repair_shops
WHERE ($1 = '' OR status = $1)
ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []shops.Shop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *shop)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyReview applies a compare-and-set review.
func (r *Repository) ApplyReview(ctx context.Context, review shops.Review) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("shop repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE repair_shops
SET status = $3, reviewed_by = $4, reviewed_at = $5, review_note = $6, updated_at = $5
WHERE id = $1 AND status = $2`,
		review.ShopID, string(review.From), string(review.To), review.ReviewedBy, review.At, review.Note)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateTier stores a recomputed tier with its inputs.
func (r *Repository) UpdateTier(ctx context.Context, change shops.TierChange) error {
	if r == nil || r.db == nil {
		return errors.New("shop repo: nil db")
	}
	certs, err := json.Marshal(change.Certifications)
	if err != nil {
		return err
	}
	equip, err := json.Marshal(change.Equipment)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE repair_shops
SET certifications = $2, equipment = $3, tier = $4, updated_at = $5
WHERE id = $1`, change.ShopID, certs, equip, string(change.Tier), change.At)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shops.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShop(row scanner) (*shops.Shop, error) {
	var shop shops.Shop
	var certs, equip, specs []byte
	var tier, status string
	var reviewedBy, note sql.NullString
	var reviewedAt sql.NullTime
	if err := row.Scan(
		&shop.ID,
		&shop.OwnerID,
		&shop.BusinessName,
		&shop.BusinessAddress,
		&shop.BusinessPhone,
		&shop.BusinessEmail,
		&certs,
		&equip,
		&specs,
		&tier,
		&status,
		&reviewedBy,
		&reviewedAt,
		&note,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, target := range []struct {
		raw []byte
		dst *[]string
	}{{certs, &shop.Certifications}, {equip, &shop.Equipment}, {specs, &shop.Specializations}} {
		if len(target.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(target.raw, target.dst); err != nil {
			return nil, err
		}
	}
	shop.Tier = shops.Tier(tier)
	shop.Status = shops.Status(status)
	shop.ReviewedBy = reviewedBy.String
	shop.ReviewNote = note.String
	if reviewedAt.Valid {
		at := reviewedAt.Time.UTC()
		shop.ReviewedAt = &at
	}
	shop.CreatedAt = shop.CreatedAt.UTC()
	shop.UpdatedAt = shop.UpdatedAt.UTC()
	return &shop, nil
}

func marshalLists(shop *shops.Shop) ([]byte, []byte, []byte, error) {
	certs, err := json.Marshal(nonNil(shop.Certifications))
	if err != nil {
		return nil, nil, nil, err
	}
	equip, err := json.Marshal(nonNil(shop.Equipment))
	if err != nil {
		return nil, nil, nil, err
	}
	specs, err := json.Marshal(nonNil(shop.Specializations))
	if err != nil {
		return nil, nil, nil, err
	}
	return certs, equip, specs, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
