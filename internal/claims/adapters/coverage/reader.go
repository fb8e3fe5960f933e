package coverage

import (
	"context"
	"errors"

	claimsapp "github.com/sk1972-mend/mendinsurance/internal/claims/application"
	coverage "github.com/sk1972-mend/mendinsurance/internal/coverage/domain"
)

// Reader exposes devices and policies of the coverage context to claims.
type Reader struct {
	repo coverage.Repository
}

// NewReader constructs a reader.
func NewReader(repo coverage.Repository) (*Reader, error) {
	if repo == nil {
		return nil, errors.New("coverage reader: nil repo")
	}
	return &Reader{repo: repo}, nil
}

// DeviceForPolicy loads the device behind a policy. A policy whose device
// never completed registration is treated as unknown.
func (r *Reader) DeviceForPolicy(ctx context.Context, policyID string) (*claimsapp.CoveredDevice, error) {
	policy, err := r.repo.GetPolicy(ctx, policyID)
	if err != nil || policy == nil {
		return nil, err
	}
	device, err := r.repo.GetDevice(ctx, policy.DeviceID)
	if err != nil || device == nil {
		return nil, err
	}
	if device.RegistrationState != coverage.RegistrationComplete {
		return nil, nil
	}
	return covered(device, policy), nil
}

// DeviceBySerial loads a registered device and its policy by serial.
// Devices whose registration never completed are treated as unknown.
func (r *Reader) DeviceBySerial(ctx context.Context, serial string) (*claimsapp.CoveredDevice, error) {
	device, err := r.repo.FindDeviceBySerial(ctx, coverage.NormalizeSerial(serial))
	if err != nil || device == nil {
		return nil, err
	}
	if device.RegistrationState != coverage.RegistrationComplete {
		return nil, nil
	}
	policy, err := r.repo.FindPolicyByDevice(ctx, device.ID)
	if err != nil {
		return nil, err
	}
	return covered(device, policy), nil
}

func covered(device *coverage.Device, policy *coverage.Policy) *claimsapp.CoveredDevice {
	out := &claimsapp.CoveredDevice{
		DeviceID:     device.ID,
		Owner:        device.Owner,
		SerialNumber: device.SerialNumber,
		Category:     device.Category,
		Brand:        device.Brand,
		Model:        device.Model,
		Tier:         device.Tier,
	}
	if policy != nil {
		out.PolicyID = policy.ID
		out.PolicyStatus = string(policy.Status)
	}
	return out
}
