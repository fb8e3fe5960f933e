package coverage

import (
	"context"
	"time"
)

// Repository persists devices and policies. Lookups return nil, nil for a
// missing record.
type Repository interface {
	InsertDevice(ctx context.Context, device *Device) error
	MarkDeviceComplete(ctx context.Context, deviceID string, at time.Time) error
	DeleteDevice(ctx context.Context, deviceID string) error
	GetDevice(ctx context.Context, deviceID string) (*Device, error)
	FindDeviceBySerial(ctx context.Context, serial string) (*Device, error)
	ListDevicesByOwner(ctx context.Context, owner string) ([]Device, error)
	ListIncomplete(ctx context.Context) ([]Device, error)

	InsertPolicy(ctx context.Context, policy *Policy) error
	GetPolicy(ctx context.Context, policyID string) (*Policy, error)
	FindPolicyByDevice(ctx context.Context, deviceID string) (*Policy, error)
	// UpdatePolicyStatus applies change only while the policy is still in
	// change.From. It reports whether a row was updated.
	UpdatePolicyStatus(ctx context.Context, change PolicyChange) (bool, error)
}
