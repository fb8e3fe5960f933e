package application

import (
	"context"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
	"github.com/sk1972-mend/mendinsurance/internal/observability/metrics"
)

// ScanOutcome classifies a scanned serial number.
type ScanOutcome string

const (
	// ScanNotFound: no registered device carries the serial.
	ScanNotFound ScanOutcome = "not_found"
	// ScanNotCovered: the device exists without an active policy.
	ScanNotCovered ScanOutcome = "not_covered"
	// ScanCoverageVerified: active policy, but no open claim this shop can work on.
	ScanCoverageVerified ScanOutcome = "coverage_verified"
	// ScanClaimReady: active policy and an open claim; the workbench unlocks.
	ScanClaimReady ScanOutcome = "claim_ready"
)

// ScanResult is the scanner view of a serial number.
type ScanResult struct {
	Outcome           ScanOutcome    `json:"outcome"`
	Serial            string         `json:"serial"`
	Device            *CoveredDevice `json:"device,omitempty"`
	PolicyStatus      string         `json:"policy_status,omitempty"`
	Claim             *claims.Claim  `json:"claim,omitempty"`
	WorkbenchUnlocked bool           `json:"workbench_unlocked"`
}

// Scan looks a serial up for the shop scanner. Coverage alone never unlocks
// the workbench: that needs an open claim the actor may work on.
func (s *Service) Scan(ctx context.Context, actor auth.Actor, serial string) (*ScanResult, error) {
	if err := actor.Require("scan device", auth.RoleShop, auth.RoleAdmin); err != nil {
		return nil, err
	}
	normalized := claims.NormalizeSerial(serial)
	if normalized == "" {
		return nil, apperr.Validation("serial", "required")
	}
	shopID := ""
	if !actor.IsAdmin() {
		id, err := s.actorShop(ctx, actor)
		if err != nil {
			return nil, err
		}
		shopID = id
	}

	result, err := s.scan(ctx, actor, shopID, normalized)
	if err != nil {
		return nil, err
	}
	metrics.IncScanOutcome(string(result.Outcome))
	return result, nil
}

func (s *Service) scan(ctx context.Context, actor auth.Actor, shopID, serial string) (*ScanResult, error) {
	result := &ScanResult{Serial: serial}
	device, err := s.coverage.DeviceBySerial(ctx, serial)
	if err != nil {
		return nil, apperr.Persistence(err, "lookup device")
	}
	if device == nil {
		result.Outcome = ScanNotFound
		return result, nil
	}
	result.Device = device
	result.PolicyStatus = device.PolicyStatus
	if device.PolicyStatus != PolicyActive {
		result.Outcome = ScanNotCovered
		return result, nil
	}

	open, err := s.repo.FindOpenByDevice(ctx, device.DeviceID)
	if err != nil {
		return nil, apperr.Persistence(err, "lookup open claim")
	}
	if open == nil || !(actor.IsAdmin() || open.AssignedShopID == "" || open.AssignedShopID == shopID) {
		result.Outcome = ScanCoverageVerified
		return result, nil
	}
	result.Outcome = ScanClaimReady
	result.Claim = open
	result.WorkbenchUnlocked = true
	return result, nil
}
