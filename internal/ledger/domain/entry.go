package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("ledger: amount must be positive")
	ErrEmptyReference  = errors.New("ledger: empty reference")
	ErrReferenceReused = errors.New("ledger: reference already used for a different entry")
)

// Kind is the kind of a ledger entry.
type Kind string

const (
	KindCommission Kind = "commission"
	KindPayout     Kind = "payout"
)

// Entry is an immutable credit to a shop wallet. Entries are never updated
// or deleted; (Kind, Reference) is unique.
type Entry struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	ShopID     string          `json:"shop_id"`
	PolicyID   string          `json:"policy_id,omitempty"`
	ClaimID    string          `json:"claim_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Validate checks an entry before it is appended.
func (e Entry) Validate() error {
	if e.ShopID == "" {
		return errors.New("ledger: empty shop id")
	}
	if e.Reference == "" {
		return ErrEmptyReference
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch e.Kind {
	case KindCommission, KindPayout:
		return nil
	default:
		return errors.New("ledger: unknown entry kind")
	}
}

// SameAs reports whether a stored entry records the same fact as e, which
// makes a repeated append a harmless retry.
func (e Entry) SameAs(other Entry) bool {
	return e.Kind == other.Kind &&
		e.ShopID == other.ShopID &&
		e.Reference == other.Reference &&
		e.Amount.Equal(other.Amount)
}

// Repository appends and reads ledger entries.
type Repository interface {
	// Append stores entry unless (Kind, Reference) exists. It returns the
	// stored entry and whether this call created it.
	Append(ctx context.Context, entry *Entry) (*Entry, bool, error)
	Balance(ctx context.Context, shopID string) (decimal.Decimal, error)
	ListByShop(ctx context.Context, shopID string, from, to time.Time) ([]Entry, error)
}
