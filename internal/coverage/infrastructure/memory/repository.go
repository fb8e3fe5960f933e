package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	coverage "github.com/sk1972-mend/mendinsurance/internal/coverage/domain"
)

// Repository is an in-memory coverage repository for demo/testing.
type Repository struct {
	mu       sync.RWMutex
	devices  map[string]coverage.Device
	serials  map[string]string
	policies map[string]coverage.Policy
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{
		devices:  make(map[string]coverage.Device),
		serials:  make(map[string]string),
		policies: make(map[string]coverage.Policy),
	}
}

// InsertDevice stores a device; serial numbers are unique.
func (r *Repository) InsertDevice(ctx context.Context, device *coverage.Device) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.serials[device.SerialNumber]; exists {
		return coverage.ErrDuplicateSerial
	}
	r.devices[device.ID] = *device
	r.serials[device.SerialNumber] = device.ID
	return nil
}

// MarkDeviceComplete finishes the registration saga of a device.
func (r *Repository) MarkDeviceComplete(ctx context.Context, deviceID string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return coverage.ErrDeviceNotFound
	}
	device.RegistrationState = coverage.RegistrationComplete
	device.UpdatedAt = at
	r.devices[deviceID] = device
	return nil
}

// DeleteDevice removes a device. Deleting a missing device is not an error.
func (r *Repository) DeleteDevice(ctx context.Context, deviceID string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if device, ok := r.devices[deviceID]; ok {
		delete(r.serials, device.SerialNumber)
		delete(r.devices, deviceID)
	}
	return nil
}

// GetDevice loads a device by id.
func (r *Repository) GetDevice(ctx context.Context, deviceID string) (*coverage.Device, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return nil, nil
	}
	return &device, nil
}

// FindDeviceBySerial loads a device by normalized serial.
func (r *Repository) FindDeviceBySerial(ctx context.Context, serial string) (*coverage.Device, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.serials[serial]
	if !ok {
		return nil, nil
	}
	device := r.devices[id]
	return &device, nil
}

// ListDevicesByOwner returns an owner's devices, newest first.
func (r *Repository) ListDevicesByOwner(ctx context.Context, owner string) ([]coverage.Device, error) {
	_ = ctx
	return r.filterDevices(func(d coverage.Device) bool { return d.Owner == owner }), nil
}

// ListIncomplete returns devices whose registration did not finish.
func (r *Repository) ListIncomplete(ctx context.Context) ([]coverage.Device, error) {
	_ = ctx
	return r.filterDevices(func(d coverage.Device) bool {
		return d.RegistrationState == coverage.RegistrationIncomplete
	}), nil
}

func (r *Repository) filterDevices(keep func(coverage.Device) bool) []coverage.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []coverage.Device
	for _, device := range r.devices {
		if keep(device) {
			out = append(out, device)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// InsertPolicy stores a policy; one policy per device.
func (r *Repository) InsertPolicy(ctx context.Context, policy *coverage.Policy) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.policies {
		if existing.DeviceID == policy.DeviceID {
			return coverage.ErrInvalidPolicyTransition
		}
	}
	r.policies[policy.ID] = *policy
	return nil
}

// GetPolicy loads a policy by id.
func (r *Repository) GetPolicy(ctx context.Context, policyID string) (*coverage.Policy, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy, ok := r.policies[policyID]
	if !ok {
		return nil, nil
	}
	return &policy, nil
}

// FindPolicyByDevice loads the policy of a device.
func (r *Repository) FindPolicyByDevice(ctx context.Context, deviceID string) (*coverage.Policy, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, policy := range r.policies {
		if policy.DeviceID == deviceID {
			p := policy
			return &p, nil
		}
	}
	return nil, nil
}

// UpdatePolicyStatus applies a compare-and-set status change.
func (r *Repository) UpdatePolicyStatus(ctx context.Context, change coverage.PolicyChange) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	policy, ok := r.policies[change.PolicyID]
	if !ok || policy.Status != change.From {
		return false, nil
	}
	policy.Status = change.To
	if change.StartDate != nil {
		policy.StartDate = change.StartDate
	}
	if change.EndDate != nil {
		policy.EndDate = change.EndDate
	}
	policy.UpdatedAt = change.At
	r.policies[change.PolicyID] = policy
	return true, nil
}
