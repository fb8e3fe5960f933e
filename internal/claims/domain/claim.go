package claims

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("claims: claim not found")
	ErrPolicyNotFound     = errors.New("claims: policy not found")
	ErrInvalidTransition  = errors.New("claims: invalid status transition")
	ErrConcurrentUpdate   = errors.New("claims: claim changed concurrently")
	ErrPolicyNotActive    = errors.New("claims: policy is not active")
	ErrSerialNotVerified  = errors.New("claims: serial number not verified")
	ErrClaimNotVerifiable = errors.New("claims: claim cannot be verified in its current status")
)

// Claim is a damage claim against one policy.
type Claim struct {
	ID                   string           `json:"id"`
	PolicyID             string           `json:"policy_id"`
	DeviceID             string           `json:"device_id"`
	OwnerID              string           `json:"owner_id"`
	DeviceSerial         string           `json:"device_serial"`
	IssueDescription     string           `json:"issue_description"`
	DamageCategory       DamageCategory   `json:"damage_category"`
	RepairType           RepairType       `json:"repair_type"`
	Status               Status           `json:"status"`
	SerialMatch          *bool            `json:"serial_match"`
	VerificationSerial   string           `json:"verification_serial,omitempty"`
	VerificationAttempts int              `json:"verification_attempts"`
	AssignedShopID       string           `json:"assigned_shop_id,omitempty"`
	RepairCostAgreed     *decimal.Decimal `json:"repair_cost_agreed,omitempty"`
	RepairNotes          string           `json:"repair_notes,omitempty"`
	FiledAt              time.Time        `json:"filed_at"`
	VerifiedAt           *time.Time       `json:"verified_at,omitempty"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	ClosedAt             *time.Time       `json:"closed_at,omitempty"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Verified reports whether the claim's serial was matched.
func (c *Claim) Verified() bool {
	return c.SerialMatch != nil && *c.SerialMatch
}

// NormalizeSerial trims and upper-cases a serial number for comparison.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// SerialMatches compares a submitted serial with the registered one. The
// comparison is exact after normalization.
func SerialMatches(registered, submitted string) bool {
	want := NormalizeSerial(registered)
	return want != "" && want == NormalizeSerial(submitted)
}

// Change is a compare-and-set update of a claim. It applies only while the
// stored status equals From. Zero-valued fields leave columns untouched,
// and a stored serial match of true is never overwritten.
type Change struct {
	ClaimID            string
	From               Status
	To                 Status
	At                 time.Time
	SerialMatch        *bool
	VerificationSerial string
	AttemptDelta       int
	AssignedShopID     string
	VerifiedAt         *time.Time
	CompletedAt        *time.Time
	ClosedAt           *time.Time
	RepairNotes        string
	RepairCost         *decimal.Decimal
	RepairType         RepairType
}

// Apply mutates c the way a successful Change updates the stored row.
func (ch Change) Apply(c *Claim) {
	c.Status = ch.To
	if ch.SerialMatch != nil && !c.Verified() {
		match := *ch.SerialMatch
		c.SerialMatch = &match
	}
	if ch.VerificationSerial != "" {
		c.VerificationSerial = ch.VerificationSerial
	}
	c.VerificationAttempts += ch.AttemptDelta
	if ch.AssignedShopID != "" {
		c.AssignedShopID = ch.AssignedShopID
	}
	if ch.VerifiedAt != nil {
		c.VerifiedAt = ch.VerifiedAt
	}
	if ch.CompletedAt != nil {
		c.CompletedAt = ch.CompletedAt
	}
	if ch.ClosedAt != nil {
		c.ClosedAt = ch.ClosedAt
	}
	if ch.RepairNotes != "" {
		c.RepairNotes = ch.RepairNotes
	}
	if ch.RepairCost != nil {
		cost := *ch.RepairCost
		c.RepairCostAgreed = &cost
	}
	if ch.RepairType != "" {
		c.RepairType = ch.RepairType
	}
	c.UpdatedAt = ch.At
}

// Filter narrows the admin oversight list.
type Filter struct {
	Status Status
	// Query matches the device serial, claim id or description.
	Query string
	Limit int
}

// Matches reports whether c passes the filter.
func (f Filter) Matches(c Claim) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	q := strings.TrimSpace(f.Query)
	if q == "" {
		return true
	}
	if strings.Contains(c.DeviceSerial, NormalizeSerial(q)) || c.ID == q {
		return true
	}
	return strings.Contains(strings.ToLower(c.IssueDescription), strings.ToLower(q))
}

// Repository persists claims. Lookups return nil, nil for a missing claim.
type Repository interface {
	Insert(ctx context.Context, claim *Claim) error
	Get(ctx context.Context, claimID string) (*Claim, error)
	// FindOpenByDevice returns the newest open claim of a device.
	FindOpenByDevice(ctx context.Context, deviceID string) (*Claim, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Claim, error)
	ListByShop(ctx context.Context, shopID string, statuses []Status) ([]Claim, error)
	Search(ctx context.Context, filter Filter) ([]Claim, error)
	// Update applies change and reports whether the status precondition held.
	Update(ctx context.Context, change Change) (bool, error)
}
