package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	catalog "github.com/sk1972-mend/mendinsurance/internal/catalog/domain"
	coverage "github.com/sk1972-mend/mendinsurance/internal/coverage/domain"
	"github.com/sk1972-mend/mendinsurance/internal/coverage/infrastructure/memory"
)

var (
	customer = auth.Actor{Subject: "user-1", Role: auth.RoleCustomer}
	admin    = auth.Actor{Subject: "admin-1", Role: auth.RoleAdmin}
	shopUser = auth.Actor{Subject: "shop-owner-1", Role: auth.RoleShop}
)

// faultyRepo injects store failures into the registration saga.
type faultyRepo struct {
	*memory.Repository
	policyErr error
	deleteErr error
}

func (r *faultyRepo) InsertPolicy(ctx context.Context, policy *coverage.Policy) error {
	if r.policyErr != nil {
		return r.policyErr
	}
	return r.Repository.InsertPolicy(ctx, policy)
}

func (r *faultyRepo) DeleteDevice(ctx context.Context, deviceID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Repository.DeleteDevice(ctx, deviceID)
}

type recordingCrediter struct {
	shopID   string
	policyID string
	premium  decimal.Decimal
}

func (c *recordingCrediter) CreditActivation(ctx context.Context, shopID, policyID string, premium decimal.Decimal) error {
	c.shopID, c.policyID, c.premium = shopID, policyID, premium
	return nil
}

type staticShops map[string]bool

func (s staticShops) ShopExists(ctx context.Context, shopID string) (bool, error) {
	return s[shopID], nil
}

func newTestService(t *testing.T, repo coverage.Repository, opts ...Option) (*Service, *audit.MemoryLog) {
	t.Helper()
	log := audit.NewMemoryLog()
	opts = append(opts, WithClock(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }))
	svc, err := NewService(repo, catalog.Default(), log, opts...)
	require.NoError(t, err)
	return svc, log
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		Category:     "smartphone",
		Brand:        "Apple",
		Model:        "iPhone 15 Pro Max",
		SerialNumber: " f2lxk0abcd12 ",
	}
}

func TestRegister_CreatesDeviceAndPendingPolicy(t *testing.T) {
	repo := memory.NewRepository()
	svc, log := newTestService(t, repo)

	reg, err := svc.Register(context.Background(), customer, validRequest())
	require.NoError(t, err)

	assert.Equal(t, "F2LXK0ABCD12", reg.Device.SerialNumber)
	assert.Equal(t, 4, reg.Device.Tier)
	assert.Equal(t, coverage.HealthGood, reg.Device.HealthStatus)
	assert.Equal(t, coverage.RegistrationComplete, reg.Device.RegistrationState)
	assert.Equal(t, "user-1", reg.Device.Owner)

	assert.Equal(t, coverage.PolicyPending, reg.Policy.Status)
	assert.Equal(t, reg.Device.ID, reg.Policy.DeviceID)
	assert.True(t, reg.Policy.MonthlyPremium.Equal(decimal.NewFromInt(14)))
	assert.True(t, reg.Policy.Deductible.Equal(decimal.NewFromInt(100)))

	stored, err := repo.GetDevice(context.Background(), reg.Device.ID)
	require.NoError(t, err)
	assert.Equal(t, coverage.RegistrationComplete, stored.RegistrationState)
	assert.Len(t, log.Entries("device.register"), 1)
}

func TestRegister_ShortSerialWritesNothing(t *testing.T) {
	repo := memory.NewRepository()
	svc, _ := newTestService(t, repo)
	req := validRequest()
	req.SerialNumber = "ABC123"

	_, err := svc.Register(context.Background(), customer, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "serial_number", apperr.FieldOf(err))

	devices, _ := repo.ListDevicesByOwner(context.Background(), "user-1")
	assert.Empty(t, devices)
}

func TestRegister_UnknownModelIsValidationError(t *testing.T) {
	svc, _ := newTestService(t, memory.NewRepository())
	req := validRequest()
	req.Model = "iPhone 3G"

	_, err := svc.Register(context.Background(), customer, req)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "model", apperr.FieldOf(err))
}

func TestRegister_DuplicateSerialIsPrecondition(t *testing.T) {
	svc, _ := newTestService(t, memory.NewRepository())
	_, err := svc.Register(context.Background(), customer, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.SerialNumber = "F2LXK0ABCD12"
	_, err = svc.Register(context.Background(), auth.Actor{Subject: "user-2", Role: auth.RoleCustomer}, req)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
}

func TestRegister_ShopCannotRegister(t *testing.T) {
	svc, _ := newTestService(t, memory.NewRepository())
	_, err := svc.Register(context.Background(), shopUser, validRequest())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestRegister_AdminOnBehalfRequiresOwner(t *testing.T) {
	svc, _ := newTestService(t, memory.NewRepository())
	_, err := svc.Register(context.Background(), admin, validRequest())
	assert.Equal(t, "owner", apperr.FieldOf(err))

	req := validRequest()
	req.Owner = "user-9"
	reg, err := svc.Register(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, "user-9", reg.Device.Owner)
}

func TestRegister_UnknownReferringShop(t *testing.T) {
	svc, _ := newTestService(t, memory.NewRepository(), WithShopDirectory(staticShops{"shop-1": true}))
	req := validRequest()
	req.ReferringShopID = "shop-404"

	_, err := svc.Register(context.Background(), customer, req)
	assert.Equal(t, "referring_shop_id", apperr.FieldOf(err))
}

func TestRegister_PolicyFailureCompensates(t *testing.T) {
	repo := &faultyRepo{Repository: memory.NewRepository(), policyErr: errors.New("connection reset")}
	svc, _ := newTestService(t, repo)

	_, err := svc.Register(context.Background(), customer, validRequest())
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.True(t, apperr.Retryable(err))

	devices, _ := repo.ListDevicesByOwner(context.Background(), "user-1")
	assert.Empty(t, devices, "device must be removed by compensation")

	// The serial is free again, so a retry succeeds.
	repo.policyErr = nil
	_, err = svc.Register(context.Background(), customer, validRequest())
	require.NoError(t, err)
}

func TestRegister_FailedCompensationLeavesIncompleteDevice(t *testing.T) {
	repo := &faultyRepo{
		Repository: memory.NewRepository(),
		policyErr:  errors.New("connection reset"),
		deleteErr:  errors.New("connection reset"),
	}
	svc, _ := newTestService(t, repo)

	_, regErr := svc.Register(context.Background(), customer, validRequest())
	require.Error(t, regErr)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(regErr))

	incomplete, err := svc.ListIncomplete(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Contains(t, regErr.Error(), incomplete[0].ID, "the orphan's device id is reported")

	// The customer dashboard hides the orphan.
	listed, err := svc.ListDevices(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, listed)

	repo.deleteErr = nil
	result, err := svc.RepairIncomplete(context.Background(), admin, incomplete[0].ID)
	require.NoError(t, err)
	assert.Equal(t, RepairRemoved, result.Action)

	incomplete, _ = svc.ListIncomplete(context.Background(), admin)
	assert.Empty(t, incomplete)
}

func TestRepairIncomplete_RejectsCompleteDevice(t *testing.T) {
	svc, _ := newTestService(t, memory.NewRepository())
	reg, err := svc.Register(context.Background(), customer, validRequest())
	require.NoError(t, err)

	_, err = svc.RepairIncomplete(context.Background(), admin, reg.Device.ID)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))

	_, err = svc.RepairIncomplete(context.Background(), customer, reg.Device.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestPolicyLifecycle(t *testing.T) {
	crediter := &recordingCrediter{}
	svc, _ := newTestService(t, memory.NewRepository(),
		WithShopDirectory(staticShops{"shop-1": true}),
		WithCommissionCrediter(crediter))
	req := validRequest()
	req.ReferringShopID = "shop-1"
	reg, err := svc.Register(context.Background(), customer, req)
	require.NoError(t, err)

	_, err = svc.ExpirePolicy(context.Background(), admin, reg.Policy.ID)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err), "pending cannot expire")

	_, err = svc.ActivatePolicy(context.Background(), customer, reg.Policy.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	active, err := svc.ActivatePolicy(context.Background(), admin, reg.Policy.ID)
	require.NoError(t, err)
	assert.Equal(t, coverage.PolicyActive, active.Status)
	require.NotNil(t, active.StartDate)
	assert.Equal(t, "shop-1", crediter.shopID)
	assert.True(t, crediter.premium.Equal(decimal.NewFromInt(14)))

	_, err = svc.ActivatePolicy(context.Background(), admin, reg.Policy.ID)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))

	expired, err := svc.ExpirePolicy(context.Background(), admin, reg.Policy.ID)
	require.NoError(t, err)
	assert.Equal(t, coverage.PolicyExpired, expired.Status)
	assert.NotNil(t, expired.EndDate)

	_, err = svc.CancelPolicy(context.Background(), admin, reg.Policy.ID)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
}

func TestGetPolicy_HidesOtherOwners(t *testing.T) {
	svc, _ := newTestService(t, memory.NewRepository())
	reg, err := svc.Register(context.Background(), customer, validRequest())
	require.NoError(t, err)

	_, err = svc.GetPolicy(context.Background(), auth.Actor{Subject: "user-2", Role: auth.RoleCustomer}, reg.Policy.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	policy, err := svc.GetPolicy(context.Background(), customer, reg.Policy.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.Policy.ID, policy.ID)
}
