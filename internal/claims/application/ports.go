package application

import (
	"context"

	"github.com/shopspring/decimal"
)

// CoveredDevice is the coverage view of a device the claims flow needs.
type CoveredDevice struct {
	DeviceID     string `json:"device_id"`
	Owner        string `json:"owner"`
	SerialNumber string `json:"serial_number"`
	Category     string `json:"category"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Tier         int    `json:"tier"`
	PolicyID     string `json:"policy_id,omitempty"`
	PolicyStatus string `json:"policy_status,omitempty"`
}

// PolicyActive is the coverage status that allows claims.
const PolicyActive = "active"

// CoverageReader looks up devices and policies. Lookups return nil, nil when
// nothing is found.
type CoverageReader interface {
	DeviceForPolicy(ctx context.Context, policyID string) (*CoveredDevice, error)
	DeviceBySerial(ctx context.Context, serial string) (*CoveredDevice, error)
}

// ShopResolver answers shop identity questions for shop users.
type ShopResolver interface {
	ShopIDForOwner(ctx context.Context, owner string) (string, error)
	IsApproved(ctx context.Context, shopID string) (bool, error)
}

// PayoutRecorder credits a shop once a claim closes. It must be idempotent
// on the claim id.
type PayoutRecorder interface {
	RecordClaimPayout(ctx context.Context, shopID, claimID string, amount decimal.Decimal) error
}

// EventPublisher emits claim events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}
