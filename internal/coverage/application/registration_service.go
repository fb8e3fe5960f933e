package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	catalog "github.com/sk1972-mend/mendinsurance/internal/catalog/domain"
	coverage "github.com/sk1972-mend/mendinsurance/internal/coverage/domain"
	"github.com/sk1972-mend/mendinsurance/internal/observability/metrics"
)

// ShopDirectory confirms that a referring shop exists.
type ShopDirectory interface {
	ShopExists(ctx context.Context, shopID string) (bool, error)
}

// CommissionCrediter credits a referring shop when a policy activates.
type CommissionCrediter interface {
	CreditActivation(ctx context.Context, shopID, policyID string, premium decimal.Decimal) error
}

// RegisterRequest is a device registration request. Owner is honoured only
// for admins registering on behalf of a customer.
type RegisterRequest struct {
	Owner           string `json:"owner,omitempty"`
	Category        string `json:"category"`
	Brand           string `json:"brand"`
	Model           string `json:"model"`
	SerialNumber    string `json:"serial_number"`
	ReferringShopID string `json:"referring_shop_id,omitempty"`
}

// Registration is a registered device and its pending policy.
type Registration struct {
	Device coverage.Device `json:"device"`
	Policy coverage.Policy `json:"policy"`
}

// DeviceCoverage pairs a device with its policy for dashboards.
type DeviceCoverage struct {
	Device coverage.Device  `json:"device"`
	Policy *coverage.Policy `json:"policy,omitempty"`
}

// RepairResult reports what RepairIncomplete did to an orphaned device.
type RepairResult struct {
	DeviceID string `json:"device_id"`
	Action   string `json:"action"`
}

const (
	RepairCompleted = "completed"
	RepairRemoved   = "removed"
)

// Service registers devices and manages the policy lifecycle.
type Service struct {
	repo       coverage.Repository
	catalog    *catalog.Catalog
	audit      audit.Logger
	shops      ShopDirectory
	commission CommissionCrediter
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithShopDirectory validates referring shop ids against a directory.
func WithShopDirectory(shops ShopDirectory) Option {
	return func(s *Service) {
		s.shops = shops
	}
}

// WithCommissionCrediter credits referring shops on policy activation.
func WithCommissionCrediter(crediter CommissionCrediter) Option {
	return func(s *Service) {
		s.commission = crediter
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a coverage service.
func NewService(repo coverage.Repository, cat *catalog.Catalog, auditLog audit.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("coverage: nil repo")
	}
	if cat == nil {
		return nil, errors.New("coverage: nil catalog")
	}
	if auditLog == nil {
		return nil, errors.New("coverage: nil audit logger")
	}
	s := &Service{
		repo:    repo,
		catalog: cat,
		audit:   auditLog,
		logger:  zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Register creates a device and its pending policy. Pricing always comes
// from the catalog. The device is written first as incomplete, then the
// policy, then the device is marked complete; a failed policy insert
// deletes the device again.
func (s *Service) Register(ctx context.Context, actor auth.Actor, req RegisterRequest) (*Registration, error) {
	start := time.Now()
	reg, err := s.register(ctx, actor, req)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveRegistration(result, time.Since(start))
	return reg, err
}

func (s *Service) register(ctx context.Context, actor auth.Actor, req RegisterRequest) (*Registration, error) {
	if err := actor.Require("register device", auth.RoleCustomer, auth.RoleAdmin); err != nil {
		return nil, err
	}
	owner := actor.Subject
	if actor.IsAdmin() {
		owner = strings.TrimSpace(req.Owner)
		if owner == "" {
			return nil, apperr.Validation("owner", "required when registering on behalf of a customer")
		}
	}

	serial := coverage.NormalizeSerial(req.SerialNumber)
	if !coverage.ValidSerial(serial) {
		return nil, apperr.Validation("serial_number", fmt.Sprintf("must be at least %d characters of letters, digits or hyphens", coverage.MinSerialLength))
	}
	if !catalog.Category(req.Category).Valid() {
		return nil, apperr.Validation("category", "unknown device category")
	}
	pricing, ok := s.catalog.Resolve(req.Category, req.Brand, req.Model)
	if !ok {
		return nil, apperr.Validation("model", "device selection is incomplete or not covered")
	}
	referringShop := strings.TrimSpace(req.ReferringShopID)
	if referringShop != "" && s.shops != nil {
		exists, err := s.shops.ShopExists(ctx, referringShop)
		if err != nil {
			return nil, apperr.Persistence(err, "lookup referring shop")
		}
		if !exists {
			return nil, apperr.Validation("referring_shop_id", "unknown shop")
		}
	}

	existing, err := s.repo.FindDeviceBySerial(ctx, serial)
	if err != nil {
		return nil, apperr.Persistence(err, "lookup serial")
	}
	if existing != nil {
		return nil, apperr.Precondition(coverage.ErrDuplicateSerial, "serial %s is already registered", serial)
	}

	now := s.now()
	device := &coverage.Device{
		ID:                uuid.NewString(),
		Owner:             owner,
		Category:          req.Category,
		Brand:             req.Brand,
		Model:             req.Model,
		SerialNumber:      serial,
		Tier:              pricing.Tier,
		HealthStatus:      coverage.HealthGood,
		RegistrationState: coverage.RegistrationIncomplete,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.InsertDevice(ctx, device); err != nil {
		if errors.Is(err, coverage.ErrDuplicateSerial) {
			return nil, apperr.Precondition(err, "serial %s is already registered", serial)
		}
		return nil, apperr.Persistence(err, "insert device")
	}

	policy := &coverage.Policy{
		ID:              uuid.NewString(),
		DeviceID:        device.ID,
		Owner:           owner,
		MonthlyPremium:  pricing.MonthlyPremium,
		Deductible:      pricing.Deductible,
		Status:          coverage.PolicyPending,
		ReferringShopID: referringShop,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.InsertPolicy(ctx, policy); err != nil {
		return nil, s.compensate(ctx, device.ID, err)
	}

	if err := s.repo.MarkDeviceComplete(ctx, device.ID, now); err != nil {
		// Device and policy both exist; the device stays incomplete until
		// RepairIncomplete marks it complete.
		return nil, apperr.Persistence(fmt.Errorf("device %s left incomplete: %w", device.ID, err), "complete registration")
	}
	device.RegistrationState = coverage.RegistrationComplete

	s.logAudit(ctx, audit.NewEntry(actor, "device.register", "device", device.ID, map[string]any{
		"policy_id": policy.ID,
		"tier":      pricing.Tier,
		"serial":    serial,
	}))
	return &Registration{Device: *device, Policy: *policy}, nil
}

func (s *Service) compensate(ctx context.Context, deviceID string, cause error) error {
	if err := s.repo.DeleteDevice(ctx, deviceID); err != nil {
		metrics.IncCompensation(metrics.ResultError)
		s.logger.Error("registration compensation failed",
			zap.String("device_id", deviceID),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return apperr.Persistence(fmt.Errorf("device %s left incomplete: %w", deviceID, errors.Join(cause, err)), "insert policy")
	}
	metrics.IncCompensation(metrics.ResultSuccess)
	return apperr.Persistence(cause, "insert policy")
}

// ListDevices returns the actor's devices with their policies.
func (s *Service) ListDevices(ctx context.Context, actor auth.Actor) ([]DeviceCoverage, error) {
	if err := actor.Require("list devices", auth.RoleCustomer, auth.RoleAdmin); err != nil {
		return nil, err
	}
	devices, err := s.repo.ListDevicesByOwner(ctx, actor.Subject)
	if err != nil {
		return nil, apperr.Persistence(err, "list devices")
	}
	out := make([]DeviceCoverage, 0, len(devices))
	for _, device := range devices {
		if device.RegistrationState != coverage.RegistrationComplete {
			continue
		}
		policy, err := s.repo.FindPolicyByDevice(ctx, device.ID)
		if err != nil {
			return nil, apperr.Persistence(err, "load policy")
		}
		out = append(out, DeviceCoverage{Device: device, Policy: policy})
	}
	return out, nil
}

// ListIncomplete returns devices orphaned by a failed registration.
func (s *Service) ListIncomplete(ctx context.Context, actor auth.Actor) ([]coverage.Device, error) {
	if err := actor.Require("list incomplete registrations", auth.RoleAdmin); err != nil {
		return nil, err
	}
	devices, err := s.repo.ListIncomplete(ctx)
	if err != nil {
		return nil, apperr.Persistence(err, "list incomplete registrations")
	}
	return devices, nil
}

// RepairIncomplete finishes or rolls back an incomplete registration: a
// device whose policy exists is marked complete, otherwise it is removed.
func (s *Service) RepairIncomplete(ctx context.Context, actor auth.Actor, deviceID string) (*RepairResult, error) {
	if err := actor.Require("repair registration", auth.RoleAdmin); err != nil {
		return nil, err
	}
	device, err := s.repo.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, apperr.Persistence(err, "load device")
	}
	if device == nil {
		return nil, apperr.NotFound(coverage.ErrDeviceNotFound, "device", deviceID)
	}
	if device.RegistrationState != coverage.RegistrationIncomplete {
		return nil, apperr.Precondition(coverage.ErrNotIncomplete, "device %s is %s", deviceID, device.RegistrationState)
	}
	policy, err := s.repo.FindPolicyByDevice(ctx, deviceID)
	if err != nil {
		return nil, apperr.Persistence(err, "load policy")
	}

	result := &RepairResult{DeviceID: deviceID}
	if policy != nil {
		if err := s.repo.MarkDeviceComplete(ctx, deviceID, s.now()); err != nil {
			return nil, apperr.Persistence(err, "complete registration")
		}
		result.Action = RepairCompleted
	} else {
		if err := s.repo.DeleteDevice(ctx, deviceID); err != nil {
			return nil, apperr.Persistence(err, "remove device")
		}
		result.Action = RepairRemoved
	}
	s.logAudit(ctx, audit.NewEntry(actor, "device.repair", "device", deviceID, result))
	return result, nil
}

// GetPolicy loads a policy visible to the actor.
func (s *Service) GetPolicy(ctx context.Context, actor auth.Actor, policyID string) (*coverage.Policy, error) {
	if err := actor.Require("get policy", auth.RoleCustomer, auth.RoleAdmin); err != nil {
		return nil, err
	}
	policy, err := s.loadPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && policy.Owner != actor.Subject {
		return nil, apperr.NotFound(coverage.ErrPolicyNotFound, "policy", policyID)
	}
	return policy, nil
}

// ActivatePolicy moves a pending policy to active once payment cleared.
func (s *Service) ActivatePolicy(ctx context.Context, actor auth.Actor, policyID string) (*coverage.Policy, error) {
	policy, err := s.changePolicy(ctx, actor, policyID, coverage.PolicyActive)
	if err != nil {
		return nil, err
	}
	if policy.ReferringShopID != "" && s.commission != nil {
		if err := s.commission.CreditActivation(ctx, policy.ReferringShopID, policy.ID, policy.MonthlyPremium); err != nil {
			// The credit is keyed by policy id, so the payment callback can
			// safely retry it.
			s.logger.Warn("activation commission not credited",
				zap.String("policy_id", policy.ID),
				zap.String("shop_id", policy.ReferringShopID),
				zap.Error(err))
		}
	}
	return policy, nil
}

// CancelPolicy cancels a pending or active policy.
func (s *Service) CancelPolicy(ctx context.Context, actor auth.Actor, policyID string) (*coverage.Policy, error) {
	return s.changePolicy(ctx, actor, policyID, coverage.PolicyCancelled)
}

// ExpirePolicy ends an active policy.
func (s *Service) ExpirePolicy(ctx context.Context, actor auth.Actor, policyID string) (*coverage.Policy, error) {
	return s.changePolicy(ctx, actor, policyID, coverage.PolicyExpired)
}

func (s *Service) changePolicy(ctx context.Context, actor auth.Actor, policyID string, to coverage.PolicyStatus) (*coverage.Policy, error) {
	if err := actor.Require("change policy status", auth.RoleAdmin); err != nil {
		return nil, err
	}
	policy, err := s.loadPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !policy.Status.CanTransition(to) {
		return nil, apperr.Precondition(coverage.ErrInvalidPolicyTransition, "policy %s cannot move from %s to %s", policyID, policy.Status, to)
	}

	now := s.now()
	change := coverage.PolicyChange{PolicyID: policyID, From: policy.Status, To: to, At: now}
	switch to {
	case coverage.PolicyActive:
		change.StartDate = &now
	case coverage.PolicyExpired, coverage.PolicyCancelled:
		change.EndDate = &now
	}
	updated, err := s.repo.UpdatePolicyStatus(ctx, change)
	if err != nil {
		return nil, apperr.Persistence(err, "update policy status")
	}
	if !updated {
		return nil, apperr.Precondition(coverage.ErrConcurrentUpdate, "policy %s changed concurrently", policyID)
	}

	from := policy.Status
	policy.Status = to
	policy.UpdatedAt = now
	if change.StartDate != nil {
		policy.StartDate = change.StartDate
	}
	if change.EndDate != nil {
		policy.EndDate = change.EndDate
	}
	s.logAudit(ctx, audit.NewEntry(actor, "policy."+string(to), "policy", policyID, map[string]string{
		"from": string(from),
		"to":   string(to),
	}))
	return policy, nil
}

func (s *Service) loadPolicy(ctx context.Context, policyID string) (*coverage.Policy, error) {
	if strings.TrimSpace(policyID) == "" {
		return nil, apperr.Validation("policy_id", "required")
	}
	policy, err := s.repo.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, apperr.Persistence(err, "load policy")
	}
	if policy == nil {
		return nil, apperr.NotFound(coverage.ErrPolicyNotFound, "policy", policyID)
	}
	return policy, nil
}

func (s *Service) logAudit(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
