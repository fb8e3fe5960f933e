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
	"github.com/sk1972-mend/mendinsurance/internal/claims/application/events"
	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
	"github.com/sk1972-mend/mendinsurance/internal/claims/infrastructure/memory"
)

const registeredSerial = "SN-12345678"

var (
	customer  = auth.Actor{Subject: "user-1", Role: auth.RoleCustomer}
	stranger  = auth.Actor{Subject: "user-2", Role: auth.RoleCustomer}
	shopUser  = auth.Actor{Subject: "owner-1", Role: auth.RoleShop}
	otherShop = auth.Actor{Subject: "owner-2", Role: auth.RoleShop}
	admin     = auth.Actor{Subject: "admin-1", Role: auth.RoleAdmin}
)

type fakeCoverage struct {
	devices map[string]*CoveredDevice
}

func newFakeCoverage() *fakeCoverage {
	return &fakeCoverage{devices: map[string]*CoveredDevice{
		"policy-active": {
			DeviceID: "device-1", Owner: "user-1", SerialNumber: registeredSerial,
			PolicyID: "policy-active", PolicyStatus: "active",
		},
		"policy-pending": {
			DeviceID: "device-2", Owner: "user-1", SerialNumber: "SN-PENDING-1",
			PolicyID: "policy-pending", PolicyStatus: "pending",
		},
	}}
}

func (f *fakeCoverage) DeviceForPolicy(ctx context.Context, policyID string) (*CoveredDevice, error) {
	return f.devices[policyID], nil
}

func (f *fakeCoverage) DeviceBySerial(ctx context.Context, serial string) (*CoveredDevice, error) {
	for _, device := range f.devices {
		if device.SerialNumber == serial {
			return device, nil
		}
	}
	return nil, nil
}

type fakeShops struct {
	owners   map[string]string
	approved map[string]bool
}

func (f fakeShops) ShopIDForOwner(ctx context.Context, owner string) (string, error) {
	return f.owners[owner], nil
}

func (f fakeShops) IsApproved(ctx context.Context, shopID string) (bool, error) {
	return f.approved[shopID], nil
}

type recordingPublisher struct {
	events []any
}

func (p *recordingPublisher) Publish(ctx context.Context, event any) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(match func(any) bool) int {
	n := 0
	for _, event := range p.events {
		if match(event) {
			n++
		}
	}
	return n
}

type recordingPayouts struct {
	calls map[string]decimal.Decimal
	err   error
}

func (p *recordingPayouts) RecordClaimPayout(ctx context.Context, shopID, claimID string, amount decimal.Decimal) error {
	if p.err != nil {
		return p.err
	}
	if p.calls == nil {
		p.calls = make(map[string]decimal.Decimal)
	}
	p.calls[claimID] = amount
	return nil
}

type fixture struct {
	svc       *Service
	repo      *memory.Repository
	publisher *recordingPublisher
	payouts   *recordingPayouts
	audit     *audit.MemoryLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      memory.NewRepository(),
		publisher: &recordingPublisher{},
		payouts:   &recordingPayouts{},
		audit:     audit.NewMemoryLog(),
	}
	shops := fakeShops{
		owners:   map[string]string{"owner-1": "shop-1", "owner-2": "shop-2"},
		approved: map[string]bool{"shop-1": true, "shop-2": true},
	}
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(f.repo, newFakeCoverage(), shops, f.audit,
		WithPublisher(f.publisher),
		WithPayoutRecorder(f.payouts),
		WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) file(t *testing.T, category claims.DamageCategory) *claims.Claim {
	t.Helper()
	claim, err := f.svc.FileClaim(context.Background(), customer, FileClaimRequest{PolicyID: "policy-active", Category: category})
	require.NoError(t, err)
	return claim
}

func isStatusChange(event any) bool {
	_, ok := event.(events.ClaimStatusChanged)
	return ok
}

func TestFileClaim_RoutesAndDefaultsDescription(t *testing.T) {
	f := newFixture(t)
	claim := f.file(t, claims.DamageBattery)

	assert.Equal(t, claims.StatusFiled, claim.Status)
	assert.Equal(t, claims.RepairLocal, claim.RepairType)
	assert.Nil(t, claim.SerialMatch)
	assert.Equal(t, "Battery Issues", claim.IssueDescription)
	assert.Equal(t, registeredSerial, claim.DeviceSerial)
	assert.Equal(t, 1, f.publisher.count(func(e any) bool { _, ok := e.(events.ClaimFiled); return ok }))

	water, err := f.svc.FileClaim(context.Background(), customer, FileClaimRequest{
		PolicyID: "policy-active", Category: claims.DamageWater, Description: "  dropped in a lake ",
	})
	require.NoError(t, err)
	assert.Equal(t, claims.RepairMailIn, water.RepairType)
	assert.Equal(t, "dropped in a lake", water.IssueDescription)
}

func TestFileClaim_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.FileClaim(ctx, customer, FileClaimRequest{PolicyID: "policy-pending", Category: claims.DamageScreen})
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))

	_, err = f.svc.FileClaim(ctx, customer, FileClaimRequest{PolicyID: "policy-missing", Category: claims.DamageScreen})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.FileClaim(ctx, stranger, FileClaimRequest{PolicyID: "policy-active", Category: claims.DamageScreen})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.FileClaim(ctx, customer, FileClaimRequest{PolicyID: "policy-active", Category: "fire"})
	assert.Equal(t, "category", apperr.FieldOf(err))

	_, err = f.svc.FileClaim(ctx, shopUser, FileClaimRequest{PolicyID: "policy-active", Category: claims.DamageScreen})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	all, _ := f.repo.Search(ctx, claims.Filter{})
	assert.Empty(t, all, "rejected filings write nothing")
}

func TestVerify_NormalizationAndMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	result, err := f.svc.Verify(ctx, shopUser, claim.ID, "SN-12345679")
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Equal(t, claims.StatusFiled, result.Claim.Status)
	require.NotNil(t, result.Claim.SerialMatch)
	assert.False(t, *result.Claim.SerialMatch)
	assert.Equal(t, 1, result.Claim.VerificationAttempts)

	result, err = f.svc.Verify(ctx, shopUser, claim.ID, " sn-12345678 ")
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, claims.StatusInProgress, result.Claim.Status)
	assert.True(t, result.Claim.Verified())
	assert.Equal(t, "shop-1", result.Claim.AssignedShopID)
	assert.NotNil(t, result.Claim.VerifiedAt)
	assert.Equal(t, 2, result.Claim.VerificationAttempts)
}

func TestVerify_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	_, err := f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	changes := f.publisher.count(isStatusChange)
	audits := len(f.audit.Entries("claim.verify"))

	again, err := f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	assert.True(t, again.Match)
	assert.True(t, again.AlreadyVerified)
	assert.Equal(t, claims.StatusInProgress, again.Claim.Status)
	assert.Equal(t, changes, f.publisher.count(isStatusChange))
	assert.Equal(t, audits, len(f.audit.Entries("claim.verify")))

	// A later mismatch is recorded but never clears the match.
	miss, err := f.svc.Verify(ctx, shopUser, claim.ID, "SN-00000000")
	require.NoError(t, err)
	assert.False(t, miss.Match)
	assert.True(t, miss.Claim.Verified())
	assert.Equal(t, claims.StatusInProgress, miss.Claim.Status)
}

func TestVerify_AccessAndTerminalClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	_, err := f.svc.Verify(ctx, customer, claim.ID, registeredSerial)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, otherShop, claim.ID, registeredSerial)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusFlagged, "duplicate report")
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))

	_, err = f.svc.Verify(ctx, shopUser, "missing", registeredSerial)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSetStatus_Gating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	_, err := f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusVerifiedComplete, "")
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	_, err = f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusClosed, "")
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	_, err = f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusInProgress, "")
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err), "verification is not a manual transition")
	_, err = f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusAssigned, "")
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	_, err = f.svc.SetStatus(ctx, admin, claim.ID, "lost", "")
	assert.Equal(t, "status", apperr.FieldOf(err))

	_, err = f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, shopUser, claim.ID, claims.StatusInProgress, "")
	assert.ErrorIs(t, err, claims.ErrSerialNotVerified)

	_, err = f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, shopUser, claim.ID, claims.StatusClosed, "")
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err), "in_progress cannot close directly")

	flagged, err := f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusFlagged, "suspicious")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusFlagged, flagged.Status)
	closed, err := f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)
	assert.Empty(t, f.payouts.calls, "no agreed cost, no payout")
}

func TestSetStatus_ShopMustBeAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	_, err := f.svc.SetStatus(ctx, shopUser, claim.ID, claims.StatusFlagged, "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, otherShop, claim.ID, claims.StatusFlagged, "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

// racingRepo flags a claim right after it is read, like a concurrent admin.
type racingRepo struct {
	*memory.Repository
	raced bool
}

func (r *racingRepo) Get(ctx context.Context, claimID string) (*claims.Claim, error) {
	claim, err := r.Repository.Get(ctx, claimID)
	if claim != nil && !r.raced {
		r.raced = true
		_, _ = r.Repository.Update(ctx, claims.Change{ClaimID: claimID, From: claim.Status, To: claims.StatusFlagged, At: time.Now()})
	}
	return claim, err
}

func TestAssignShop_ConcurrentChangeIsRejected(t *testing.T) {
	repo := &racingRepo{Repository: memory.NewRepository()}
	shops := fakeShops{owners: map[string]string{}, approved: map[string]bool{"shop-1": true}}
	svc, err := NewService(repo, newFakeCoverage(), shops, audit.NewMemoryLog())
	require.NoError(t, err)
	ctx := context.Background()

	claim, err := svc.FileClaim(ctx, customer, FileClaimRequest{PolicyID: "policy-active", Category: claims.DamageScreen})
	require.NoError(t, err)

	_, err = svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, claims.ErrConcurrentUpdate)

	stored, err := repo.Repository.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusFlagged, stored.Status, "the concurrent change is not overwritten")
}

func TestAssignShop_RequiresApprovedShop(t *testing.T) {
	f := newFixture(t)
	claim := f.file(t, claims.DamageScreen)

	_, err := f.svc.AssignShop(context.Background(), admin, claim.ID, "shop-9")
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))

	_, err = f.svc.AssignShop(context.Background(), shopUser, claim.ID, "shop-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestScenario_BatteryClaimToClosure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claim := f.file(t, claims.DamageBattery)
	assert.Equal(t, claims.RepairLocal, claim.RepairType)
	assert.Equal(t, claims.StatusFiled, claim.Status)

	verified, err := f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	assert.True(t, verified.Claim.Verified())
	assert.Equal(t, claims.StatusInProgress, verified.Claim.Status)

	cost := decimal.NewFromInt(89)
	done, err := f.svc.Complete(ctx, shopUser, claim.ID, CompleteRequest{RepairNotes: "battery replaced", RepairCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, claims.StatusVerifiedComplete, done.Status)
	require.NotNil(t, done.CompletedAt)

	closed, err := f.svc.SetStatus(ctx, shopUser, claim.ID, claims.StatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusClosed, closed.Status)
	require.Contains(t, f.payouts.calls, claim.ID)
	assert.True(t, f.payouts.calls[claim.ID].Equal(cost))

	for _, target := range claims.Statuses() {
		_, err := f.svc.SetStatus(ctx, admin, claim.ID, target, "")
		assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err), target)
	}
	_, err = f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
}

func TestScenario_FullForwardPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	assigned, err := f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusAssigned, assigned.Status)

	queue, err := f.svc.ShopQueue(ctx, shopUser)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	_, err = f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, shopUser, claim.ID, claims.StatusVerifiedComplete, "")
	require.NoError(t, err)
	closed, err := f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusClosed, "")
	require.NoError(t, err)
	assert.NotNil(t, closed.CompletedAt)
	assert.NotNil(t, closed.ClosedAt)

	queue, err = f.svc.ShopQueue(ctx, shopUser)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestStartRequiresVerifiedSerial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yes := true
	require.NoError(t, f.repo.Insert(ctx, &claims.Claim{
		ID: "c-seeded", OwnerID: "user-1", DeviceID: "device-1", DeviceSerial: registeredSerial,
		Status: claims.StatusAssigned, AssignedShopID: "shop-1", SerialMatch: &yes,
	}))

	started, err := f.svc.SetStatus(ctx, shopUser, "c-seeded", claims.StatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusInProgress, started.Status)
}

func TestPayoutFailureKeepsClosure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)
	_, err := f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	cost := decimal.NewFromInt(40)
	_, err = f.svc.Complete(ctx, shopUser, claim.ID, CompleteRequest{RepairCost: &cost})
	require.NoError(t, err)

	f.payouts.err = errors.New("ledger unavailable")
	closed, err := f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusClosed, closed.Status)
	assert.Empty(t, f.payouts.calls)

	f.payouts.err = nil
	_, err = f.svc.SettlePayout(ctx, admin, claim.ID)
	require.NoError(t, err)
	assert.Contains(t, f.payouts.calls, claim.ID)
}

func TestScan_Outcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Scan(ctx, shopUser, "SN-UNKNOWN-1")
	require.NoError(t, err)
	assert.Equal(t, ScanNotFound, result.Outcome)

	result, err = f.svc.Scan(ctx, shopUser, "sn-pending-1")
	require.NoError(t, err)
	assert.Equal(t, ScanNotCovered, result.Outcome)
	assert.False(t, result.WorkbenchUnlocked)

	result, err = f.svc.Scan(ctx, shopUser, registeredSerial)
	require.NoError(t, err)
	assert.Equal(t, ScanCoverageVerified, result.Outcome)
	assert.False(t, result.WorkbenchUnlocked)

	claim := f.file(t, claims.DamageScreen)
	result, err = f.svc.Scan(ctx, shopUser, " sn-12345678 ")
	require.NoError(t, err)
	assert.Equal(t, ScanClaimReady, result.Outcome)
	assert.True(t, result.WorkbenchUnlocked)
	assert.Equal(t, claim.ID, result.Claim.ID)

	_, err = f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	result, err = f.svc.Scan(ctx, otherShop, registeredSerial)
	require.NoError(t, err)
	assert.Equal(t, ScanCoverageVerified, result.Outcome, "claims of other shops stay locked")
	assert.Nil(t, result.Claim)

	_, err = f.svc.Scan(ctx, customer, registeredSerial)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.svc.Scan(ctx, shopUser, "  ")
	assert.Equal(t, "serial", apperr.FieldOf(err))
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	_, err := f.svc.Get(ctx, customer, claim.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, stranger, claim.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = f.svc.Get(ctx, shopUser, claim.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, shopUser, claim.ID)
	require.NoError(t, err)

	mine, err := f.svc.ListMine(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestOversight_FilterAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.file(t, claims.DamageScreen)
	f.file(t, claims.DamageWater)
	_, err := f.svc.SetStatus(ctx, admin, screen.ID, claims.StatusFlagged, "")
	require.NoError(t, err)

	flagged, err := f.svc.Oversight(ctx, admin, claims.Filter{Status: claims.StatusFlagged})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, screen.ID, flagged[0].ID)

	bySerial, err := f.svc.Oversight(ctx, admin, claims.Filter{Query: "sn-1234"})
	require.NoError(t, err)
	assert.Len(t, bySerial, 2)

	byText, err := f.svc.Oversight(ctx, admin, claims.Filter{Query: "liquid"})
	require.NoError(t, err)
	assert.Len(t, byText, 1)

	_, err = f.svc.Oversight(ctx, shopUser, claims.Filter{})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.svc.Oversight(ctx, admin, claims.Filter{Status: "lost"})
	assert.Equal(t, "status", apperr.FieldOf(err))
}

func TestSetStatus_FlagHoldIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageBattery)

	_, err := f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	cost := decimal.NewFromInt(120)
	_, err = f.svc.Complete(ctx, shopUser, claim.ID, CompleteRequest{RepairNotes: "new cell", RepairCost: &cost})
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, shopUser, claim.ID, claims.StatusFlagged, "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusFlagged, "suspected fraud")
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, shopUser, claim.ID, claims.StatusClosed, "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	stored, err := f.repo.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusFlagged, stored.Status)
	assert.Empty(t, f.payouts.calls)

	closed, err := f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusClosed, "dispute resolved")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusClosed, closed.Status)
	assert.Empty(t, f.payouts.calls, "closing a held claim does not pay out")

	_, err = f.svc.SettlePayout(ctx, admin, claim.ID)
	require.NoError(t, err)
	assert.True(t, f.payouts.calls[claim.ID].Equal(cost))
}

func TestTriage_SwitchesRepairType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)
	require.Equal(t, claims.RepairLocal, claim.RepairType)

	_, err := f.svc.AssignShop(ctx, admin, claim.ID, "shop-1")
	require.NoError(t, err)
	_, err = f.svc.Triage(ctx, shopUser, claim.ID, claims.RepairMailIn)
	assert.ErrorIs(t, err, claims.ErrSerialNotVerified)

	_, err = f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)

	_, err = f.svc.Triage(ctx, otherShop, claim.ID, claims.RepairMailIn)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.svc.Triage(ctx, customer, claim.ID, claims.RepairMailIn)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.svc.Triage(ctx, shopUser, claim.ID, "courier")
	assert.Equal(t, "repair_type", apperr.FieldOf(err))

	triaged, err := f.svc.Triage(ctx, shopUser, claim.ID, claims.RepairMailIn)
	require.NoError(t, err)
	assert.Equal(t, claims.RepairMailIn, triaged.RepairType)
	assert.Equal(t, claims.StatusInProgress, triaged.Status)

	stored, err := f.repo.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.RepairMailIn, stored.RepairType)

	_, err = f.svc.Triage(ctx, shopUser, claim.ID, claims.RepairMailIn)
	require.NoError(t, err)
	assert.Len(t, f.audit.Entries("claim.triage"), 1, "an unchanged repair type writes nothing")
	assert.Equal(t, 1, f.publisher.count(func(e any) bool { _, ok := e.(events.ClaimTriaged); return ok }))
}

func TestTriage_RejectsHeldAndClosedClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.file(t, claims.DamageScreen)

	_, err := f.svc.Verify(ctx, shopUser, claim.ID, registeredSerial)
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusFlagged, "duplicate report")
	require.NoError(t, err)

	_, err = f.svc.Triage(ctx, shopUser, claim.ID, claims.RepairMailIn)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))

	_, err = f.svc.SetStatus(ctx, admin, claim.ID, claims.StatusClosed, "")
	require.NoError(t, err)
	_, err = f.svc.Triage(ctx, admin, claim.ID, claims.RepairMailIn)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))

	stored, err := f.repo.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.RepairLocal, stored.RepairType)
}
