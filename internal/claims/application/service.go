package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	"github.com/sk1972-mend/mendinsurance/internal/claims/application/events"
	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
	"github.com/sk1972-mend/mendinsurance/internal/eventing"
	"github.com/sk1972-mend/mendinsurance/internal/observability/metrics"
)

const (
	maxDescriptionLength = 2000
	defaultOversightSize = 100
	maxOversightSize     = 500
)

// FileClaimRequest is a customer's damage report.
type FileClaimRequest struct {
	PolicyID    string                `json:"policy_id"`
	Category    claims.DamageCategory `json:"category"`
	Description string                `json:"description"`
}

// CompleteRequest finalizes a repair.
type CompleteRequest struct {
	RepairNotes string           `json:"repair_notes"`
	RepairCost  *decimal.Decimal `json:"repair_cost,omitempty"`
}

// VerifyResult is the outcome of a serial verification.
type VerifyResult struct {
	Match           bool          `json:"match"`
	AlreadyVerified bool          `json:"already_verified"`
	Claim           *claims.Claim `json:"claim"`
}

// Service implements claim intake, verification and lifecycle operations.
type Service struct {
	repo      claims.Repository
	coverage  CoverageReader
	shops     ShopResolver
	router    *claims.Router
	audit     audit.Logger
	publisher EventPublisher
	payouts   PayoutRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithRouter replaces the default routing table.
func WithRouter(router *claims.Router) Option {
	return func(s *Service) {
		if router != nil {
			s.router = router
		}
	}
}

// WithPublisher assigns the event publisher.
func WithPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithPayoutRecorder assigns the payout ledger.
func WithPayoutRecorder(payouts PayoutRecorder) Option {
	return func(s *Service) {
		s.payouts = payouts
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

// NewService constructs a claims service.
func NewService(repo claims.Repository, coverage CoverageReader, shops ShopResolver, auditLog audit.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("claims: nil repo")
	}
	if coverage == nil {
		return nil, errors.New("claims: nil coverage reader")
	}
	if shops == nil {
		return nil, errors.New("claims: nil shop resolver")
	}
	if auditLog == nil {
		return nil, errors.New("claims: nil audit logger")
	}
	s := &Service{
		repo:     repo,
		coverage: coverage,
		shops:    shops,
		router:   claims.DefaultRouter(),
		audit:    auditLog,
		logger:   zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Route exposes the configured routing decision.
func (s *Service) Route(category claims.DamageCategory) claims.RepairType {
	return s.router.Route(category)
}

// FileClaim creates a claim against an active policy. Nothing is written
// when the policy is missing or not active.
func (s *Service) FileClaim(ctx context.Context, actor auth.Actor, req FileClaimRequest) (*claims.Claim, error) {
	if err := actor.Require("file claim", auth.RoleCustomer, auth.RoleAdmin); err != nil {
		return nil, err
	}
	policyID := strings.TrimSpace(req.PolicyID)
	if policyID == "" {
		return nil, apperr.Validation("policy_id", "required")
	}
	if !req.Category.Valid() {
		return nil, apperr.Validation("category", "unknown damage category")
	}
	description := strings.TrimSpace(req.Description)
	if len(description) > maxDescriptionLength {
		return nil, apperr.Validation("description", "too long")
	}
	if description == "" {
		description = req.Category.Label()
	}

	device, err := s.coverage.DeviceForPolicy(ctx, policyID)
	if err != nil {
		return nil, apperr.Persistence(err, "load policy")
	}
	if device == nil || (!actor.IsAdmin() && device.Owner != actor.Subject) {
		return nil, apperr.NotFound(claims.ErrPolicyNotFound, "policy", policyID)
	}
	if device.PolicyStatus != PolicyActive {
		return nil, apperr.Precondition(claims.ErrPolicyNotActive, "policy %s is %s, claims need an active policy", policyID, device.PolicyStatus)
	}

	now := s.now()
	claim := &claims.Claim{
		ID:               uuid.NewString(),
		PolicyID:         policyID,
		DeviceID:         device.DeviceID,
		OwnerID:          device.Owner,
		DeviceSerial:     claims.NormalizeSerial(device.SerialNumber),
		IssueDescription: description,
		DamageCategory:   req.Category,
		RepairType:       s.router.Route(req.Category),
		Status:           claims.StatusFiled,
		FiledAt:          now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, claim); err != nil {
		return nil, apperr.Persistence(err, "insert claim")
	}
	metrics.IncClaimFiled(string(claim.RepairType))

	s.logAudit(ctx, audit.NewEntry(actor, "claim.file", "claim", claim.ID, map[string]string{
		"policy_id":   policyID,
		"category":    string(claim.DamageCategory),
		"repair_type": string(claim.RepairType),
	}))
	s.publish(ctx, events.ClaimFiled{
		ClaimID:        claim.ID,
		PolicyID:       claim.PolicyID,
		DeviceID:       claim.DeviceID,
		DamageCategory: string(claim.DamageCategory),
		RepairType:     string(claim.RepairType),
		OccurredAt:     now,
	})
	return claim, nil
}

// Verify compares a shop-submitted serial with the registered device. A
// match moves the claim to in_progress; repeating it is a no-op. A mismatch
// never changes the status and may always be retried.
func (s *Service) Verify(ctx context.Context, actor auth.Actor, claimID, serial string) (*VerifyResult, error) {
	if err := actor.Require("verify serial", auth.RoleShop, auth.RoleAdmin); err != nil {
		return nil, err
	}
	submitted := claims.NormalizeSerial(serial)
	if submitted == "" {
		return nil, apperr.Validation("serial", "required")
	}
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	shopID, err := s.authorizeShopWork(ctx, actor, claim, false)
	if err != nil {
		return nil, err
	}
	switch claim.Status {
	case claims.StatusClosed, claims.StatusFlagged, claims.StatusVerifiedComplete:
		return nil, apperr.Precondition(claims.ErrClaimNotVerifiable, "claim %s is %s", claim.ID, claim.Status)
	}

	if !claims.SerialMatches(claim.DeviceSerial, submitted) {
		return s.recordMismatch(ctx, actor, claim, submitted)
	}
	if claim.Verified() {
		metrics.IncVerification("replay")
		return &VerifyResult{Match: true, AlreadyVerified: true, Claim: claim}, nil
	}

	next, ok := claims.Next(claim.Status, claims.EventVerifySerial)
	if !ok {
		return nil, apperr.Precondition(claims.ErrClaimNotVerifiable, "claim %s is %s", claim.ID, claim.Status)
	}
	now := s.now()
	match := true
	change := claims.Change{
		ClaimID:            claim.ID,
		From:               claim.Status,
		To:                 next,
		At:                 now,
		SerialMatch:        &match,
		VerificationSerial: submitted,
		AttemptDelta:       1,
		VerifiedAt:         &now,
	}
	if claim.AssignedShopID == "" {
		change.AssignedShopID = shopID
	}
	updated, err := s.repo.Update(ctx, change)
	if err != nil {
		return nil, apperr.Persistence(err, "record verification")
	}
	if !updated {
		// A concurrent verification of the same serial wins the race.
		current, err := s.load(ctx, claim.ID)
		if err != nil {
			return nil, err
		}
		if current.Verified() {
			metrics.IncVerification("replay")
			return &VerifyResult{Match: true, AlreadyVerified: true, Claim: current}, nil
		}
		return nil, apperr.Precondition(claims.ErrConcurrentUpdate, "claim %s changed concurrently", claim.ID)
	}

	from := claim.Status
	change.Apply(claim)
	metrics.IncVerification("match")
	metrics.IncClaimTransition(string(from), string(claim.Status))
	s.logAudit(ctx, audit.NewEntry(actor, "claim.verify", "claim", claim.ID, map[string]string{
		"from": string(from),
		"to":   string(claim.Status),
	}))
	s.publish(ctx, events.SerialVerified{
		ClaimID:    claim.ID,
		ShopID:     claim.AssignedShopID,
		Actor:      actor.Subject,
		OccurredAt: now,
	})
	s.publish(ctx, events.ClaimStatusChanged{
		ClaimID:        claim.ID,
		From:           string(from),
		To:             string(claim.Status),
		Event:          string(claims.EventVerifySerial),
		AssignedShopID: claim.AssignedShopID,
		Actor:          actor.Subject,
		OccurredAt:     now,
	})
	return &VerifyResult{Match: true, Claim: claim}, nil
}

func (s *Service) recordMismatch(ctx context.Context, actor auth.Actor, claim *claims.Claim, submitted string) (*VerifyResult, error) {
	mismatch := false
	change := claims.Change{
		ClaimID:      claim.ID,
		From:         claim.Status,
		To:           claim.Status,
		At:           s.now(),
		SerialMatch:  &mismatch,
		AttemptDelta: 1,
	}
	if !claim.Verified() {
		change.VerificationSerial = submitted
	}
	updated, err := s.repo.Update(ctx, change)
	if err != nil {
		return nil, apperr.Persistence(err, "record verification")
	}
	if !updated {
		return nil, apperr.Precondition(claims.ErrConcurrentUpdate, "claim %s changed concurrently", claim.ID)
	}
	change.Apply(claim)
	metrics.IncVerification("mismatch")
	s.logAudit(ctx, audit.NewEntry(actor, "claim.verify_mismatch", "claim", claim.ID, map[string]int{
		"attempts": claim.VerificationAttempts,
	}))
	return &VerifyResult{Match: false, Claim: claim}, nil
}

// SetStatus moves a claim to target through the transition table. Serial
// verification cannot be reached this way.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, claimID string, target claims.Status, note string) (*claims.Claim, error) {
	if err := actor.Require("change claim status", auth.RoleShop, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, apperr.Validation("status", "unknown claim status")
	}
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeShopWork(ctx, actor, claim, true); err != nil {
		return nil, err
	}
	ev, ok := claims.EventFor(claim.Status, target)
	if !ok {
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "cannot move claim from %s to %s", claim.Status, target)
	}
	if ev == claims.EventAssign {
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "assigning a claim requires a shop, use the assign operation")
	}
	if (ev == claims.EventFlag || claim.Status == claims.StatusFlagged) && !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins place or release a claim hold")
	}
	if target == claims.StatusInProgress && !claim.Verified() {
		return nil, apperr.Precondition(claims.ErrSerialNotVerified, "claim %s needs a matching serial before work starts", claim.ID)
	}

	now := s.now()
	change := claims.Change{ClaimID: claim.ID, From: claim.Status, To: target, At: now}
	switch target {
	case claims.StatusVerifiedComplete:
		change.CompletedAt = &now
	case claims.StatusClosed:
		change.ClosedAt = &now
	}
	if err := s.commit(ctx, actor, claim, change, ev, strings.TrimSpace(note)); err != nil {
		return nil, err
	}
	return claim, nil
}

// AssignShop hands a filed claim to an approved shop.
func (s *Service) AssignShop(ctx context.Context, actor auth.Actor, claimID, shopID string) (*claims.Claim, error) {
	if err := actor.Require("assign claim", auth.RoleAdmin); err != nil {
		return nil, err
	}
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return nil, apperr.Validation("shop_id", "required")
	}
	approved, err := s.shops.IsApproved(ctx, shopID)
	if err != nil {
		return nil, apperr.Persistence(err, "load shop")
	}
	if !approved {
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "shop %s is not an approved partner", shopID)
	}
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	next, ok := claims.Next(claim.Status, claims.EventAssign)
	if !ok {
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "cannot assign a %s claim", claim.Status)
	}
	change := claims.Change{ClaimID: claim.ID, From: claim.Status, To: next, At: s.now(), AssignedShopID: shopID}
	if err := s.commit(ctx, actor, claim, change, claims.EventAssign, ""); err != nil {
		return nil, err
	}
	return claim, nil
}

// Complete finalizes a verified repair with notes and the agreed cost.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, claimID string, req CompleteRequest) (*claims.Claim, error) {
	if err := actor.Require("complete repair", auth.RoleShop, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if req.RepairCost != nil && req.RepairCost.IsNegative() {
		return nil, apperr.Validation("repair_cost", "must not be negative")
	}
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeShopWork(ctx, actor, claim, true); err != nil {
		return nil, err
	}
	next, ok := claims.Next(claim.Status, claims.EventComplete)
	if !ok {
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "cannot complete a %s claim", claim.Status)
	}
	if !claim.Verified() {
		return nil, apperr.Precondition(claims.ErrSerialNotVerified, "claim %s has no verified serial", claim.ID)
	}

	now := s.now()
	change := claims.Change{
		ClaimID:     claim.ID,
		From:        claim.Status,
		To:          next,
		At:          now,
		CompletedAt: &now,
		RepairNotes: strings.TrimSpace(req.RepairNotes),
		RepairCost:  req.RepairCost,
	}
	if err := s.commit(ctx, actor, claim, change, claims.EventComplete, ""); err != nil {
		return nil, err
	}
	return claim, nil
}

// Triage lets the shop working a verified claim switch it between the local
// and mail-in workspaces. The status is unchanged and compare-and-set.
func (s *Service) Triage(ctx context.Context, actor auth.Actor, claimID string, repairType claims.RepairType) (*claims.Claim, error) {
	if err := actor.Require("triage claim", auth.RoleShop, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if !repairType.Valid() {
		return nil, apperr.Validation("repair_type", "must be local or mail_in")
	}
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	shopID, err := s.authorizeShopWork(ctx, actor, claim, true)
	if err != nil {
		return nil, err
	}
	switch claim.Status {
	case claims.StatusFiled, claims.StatusAssigned, claims.StatusInProgress:
	default:
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "cannot triage a %s claim", claim.Status)
	}
	if !claim.Verified() {
		return nil, apperr.Precondition(claims.ErrSerialNotVerified, "claim %s needs a matching serial before triage", claim.ID)
	}
	if claim.RepairType == repairType {
		return claim, nil
	}

	now := s.now()
	previous := claim.RepairType
	updated, err := s.repo.Update(ctx, claims.Change{
		ClaimID:    claim.ID,
		From:       claim.Status,
		To:         claim.Status,
		At:         now,
		RepairType: repairType,
	})
	if err != nil {
		return nil, apperr.Persistence(err, "update claim")
	}
	if !updated {
		return nil, apperr.Precondition(claims.ErrConcurrentUpdate, "claim %s is no longer %s", claim.ID, claim.Status)
	}
	claim.RepairType = repairType
	claim.UpdatedAt = now

	s.logAudit(ctx, audit.NewEntry(actor, "claim.triage", "claim", claim.ID, map[string]string{
		"from": string(previous),
		"to":   string(repairType),
	}))
	s.publish(ctx, events.ClaimTriaged{
		ClaimID:    claim.ID,
		From:       string(previous),
		To:         string(repairType),
		ShopID:     shopID,
		Actor:      actor.Subject,
		OccurredAt: now,
	})
	return claim, nil
}

// SettlePayout re-attempts the payout of a closed claim.
func (s *Service) SettlePayout(ctx context.Context, actor auth.Actor, claimID string) (*claims.Claim, error) {
	if err := actor.Require("settle payout", auth.RoleAdmin); err != nil {
		return nil, err
	}
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != claims.StatusClosed {
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "claim %s is %s, payouts follow closure", claim.ID, claim.Status)
	}
	if !payable(claim) {
		return nil, apperr.Precondition(claims.ErrInvalidTransition, "claim %s has no assigned shop or agreed cost", claim.ID)
	}
	if s.payouts == nil {
		return nil, apperr.Precondition(errors.New("claims: payouts disabled"), "payout ledger not configured")
	}
	if err := s.payouts.RecordClaimPayout(ctx, claim.AssignedShopID, claim.ID, *claim.RepairCostAgreed); err != nil {
		return nil, err
	}
	return claim, nil
}

// Get returns a claim visible to the actor.
func (s *Service) Get(ctx context.Context, actor auth.Actor, claimID string) (*claims.Claim, error) {
	if err := actor.Require("get claim", auth.RoleCustomer, auth.RoleShop, auth.RoleAdmin); err != nil {
		return nil, err
	}
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case auth.RoleAdmin:
		return claim, nil
	case auth.RoleCustomer:
		if claim.OwnerID == actor.Subject {
			return claim, nil
		}
	case auth.RoleShop:
		shopID, err := s.shops.ShopIDForOwner(ctx, actor.Subject)
		if err != nil {
			return nil, apperr.Persistence(err, "resolve shop")
		}
		if shopID != "" && claim.AssignedShopID == shopID {
			return claim, nil
		}
	}
	return nil, apperr.NotFound(claims.ErrNotFound, "claim", claimID)
}

// ListMine returns the customer's own claims.
func (s *Service) ListMine(ctx context.Context, actor auth.Actor) ([]claims.Claim, error) {
	if err := actor.Require("list claims", auth.RoleCustomer); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByOwner(ctx, actor.Subject)
	if err != nil {
		return nil, apperr.Persistence(err, "list claims")
	}
	return list, nil
}

// ShopQueue returns the assigned and in-progress claims of the actor's shop.
func (s *Service) ShopQueue(ctx context.Context, actor auth.Actor) ([]claims.Claim, error) {
	if err := actor.Require("read shop queue", auth.RoleShop); err != nil {
		return nil, err
	}
	shopID, err := s.actorShop(ctx, actor)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByShop(ctx, shopID, []claims.Status{claims.StatusAssigned, claims.StatusInProgress})
	if err != nil {
		return nil, apperr.Persistence(err, "list shop queue")
	}
	return list, nil
}

// Oversight lists claims for admins with an optional status filter and a
// serial or description search.
func (s *Service) Oversight(ctx context.Context, actor auth.Actor, filter claims.Filter) ([]claims.Claim, error) {
	if err := actor.Require("claim oversight", auth.RoleAdmin); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("status", "unknown claim status")
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultOversightSize
	case filter.Limit > maxOversightSize:
		filter.Limit = maxOversightSize
	}
	filter.Query = strings.TrimSpace(filter.Query)
	list, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence(err, "search claims")
	}
	return list, nil
}

func (s *Service) commit(ctx context.Context, actor auth.Actor, claim *claims.Claim, change claims.Change, ev claims.Event, note string) error {
	updated, err := s.repo.Update(ctx, change)
	if err != nil {
		return apperr.Persistence(err, "update claim")
	}
	if !updated {
		return apperr.Precondition(claims.ErrConcurrentUpdate, "claim %s is no longer %s", claim.ID, change.From)
	}
	from := claim.Status
	change.Apply(claim)
	metrics.IncClaimTransition(string(from), string(claim.Status))

	metadata := map[string]string{
		"event": string(ev),
		"from":  string(from),
		"to":    string(claim.Status),
	}
	if note != "" {
		metadata["note"] = note
	}
	s.logAudit(ctx, audit.NewEntry(actor, "claim.status", "claim", claim.ID, metadata))
	s.publish(ctx, events.ClaimStatusChanged{
		ClaimID:        claim.ID,
		From:           string(from),
		To:             string(claim.Status),
		Event:          string(ev),
		AssignedShopID: claim.AssignedShopID,
		Actor:          actor.Subject,
		Note:           note,
		OccurredAt:     change.At,
	})

	// Closing a held claim leaves the payout to an explicit SettlePayout.
	if claim.Status == claims.StatusClosed && from != claims.StatusFlagged && payable(claim) && s.payouts != nil {
		if err := s.payouts.RecordClaimPayout(ctx, claim.AssignedShopID, claim.ID, *claim.RepairCostAgreed); err != nil {
			s.logger.Error("claim payout failed",
				zap.String("claim_id", claim.ID),
				zap.String("shop_id", claim.AssignedShopID),
				zap.Error(err))
		}
	}
	return nil
}

func payable(claim *claims.Claim) bool {
	return claim.AssignedShopID != "" && claim.RepairCostAgreed != nil && claim.RepairCostAgreed.IsPositive()
}

// authorizeShopWork checks that a shop user may act on claim and returns
// their shop id. Admins pass with an empty id. With requireAssigned the
// claim must already belong to the actor's shop.
func (s *Service) authorizeShopWork(ctx context.Context, actor auth.Actor, claim *claims.Claim, requireAssigned bool) (string, error) {
	if actor.IsAdmin() {
		return "", nil
	}
	shopID, err := s.actorShop(ctx, actor)
	if err != nil {
		return "", err
	}
	if claim.AssignedShopID == "" {
		if requireAssigned {
			return "", apperr.Forbidden("claim is not assigned to your shop")
		}
		return shopID, nil
	}
	if claim.AssignedShopID != shopID {
		return "", apperr.Forbidden("claim is assigned to another shop")
	}
	return shopID, nil
}

func (s *Service) actorShop(ctx context.Context, actor auth.Actor) (string, error) {
	shopID, err := s.shops.ShopIDForOwner(ctx, actor.Subject)
	if err != nil {
		return "", apperr.Persistence(err, "resolve shop")
	}
	if shopID == "" {
		return "", apperr.Forbidden("no approved shop for this account")
	}
	return shopID, nil
}

func (s *Service) load(ctx context.Context, claimID string) (*claims.Claim, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return nil, apperr.Validation("claim_id", "required")
	}
	claim, err := s.repo.Get(ctx, claimID)
	if err != nil {
		return nil, apperr.Persistence(err, "load claim")
	}
	if claim == nil {
		return nil, apperr.NotFound(claims.ErrNotFound, "claim", claimID)
	}
	return claim, nil
}

func (s *Service) publish(ctx context.Context, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("claim event publish failed", zap.String("event", eventing.TypeName(event)), zap.Error(err))
	}
}

func (s *Service) logAudit(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
