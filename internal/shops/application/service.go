package application

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/apperr"
	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	"github.com/sk1972-mend/mendinsurance/internal/observability/metrics"
	shops "github.com/sk1972-mend/mendinsurance/internal/shops/domain"
)

// ApplyRequest is a partner shop application.
type ApplyRequest struct {
	BusinessName    string   `json:"business_name"`
	BusinessAddress string   `json:"business_address"`
	BusinessPhone   string   `json:"business_phone"`
	BusinessEmail   string   `json:"business_email"`
	Certifications  []string `json:"certifications"`
	Equipment       []string `json:"equipment"`
	Specializations []string `json:"specializations"`
}

// Service handles shop applications and reviews.
type Service struct {
	repo   shops.Repository
	audit  audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes the service.
type Option func(*Service)

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

// NewService constructs a shop service.
func NewService(repo shops.Repository, auditLog audit.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("shops: nil repo")
	}
	if auditLog == nil {
		return nil, errors.New("shops: nil audit logger")
	}
	s := &Service{
		repo:   repo,
		audit:  auditLog,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Apply records a shop application for the actor. The tier is computed from
// the declared capabilities and stays fixed until an admin re-evaluates it.
func (s *Service) Apply(ctx context.Context, actor auth.Actor, req ApplyRequest) (*shops.Shop, error) {
	if err := actor.Require("apply as shop", auth.RoleCustomer, auth.RoleShop); err != nil {
		return nil, err
	}
	shop, err := buildApplication(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByOwner(ctx, actor.Subject)
	if err != nil {
		return nil, apperr.Persistence(err, "lookup application")
	}
	if existing != nil {
		return nil, apperr.Precondition(shops.ErrAlreadyApplied, "an application already exists (status %s)", existing.Status)
	}

	now := s.now()
	shop.ID = uuid.NewString()
	shop.OwnerID = actor.Subject
	shop.Status = shops.StatusPending
	shop.CreatedAt = now
	shop.UpdatedAt = now
	if err := s.repo.Insert(ctx, shop); err != nil {
		if errors.Is(err, shops.ErrAlreadyApplied) {
			return nil, apperr.Precondition(err, "an application already exists")
		}
		return nil, apperr.Persistence(err, "insert application")
	}

	s.logAudit(ctx, audit.NewEntry(actor, "shop.apply", "shop", shop.ID, map[string]any{
		"tier": shop.Tier,
	}))
	return shop, nil
}

func buildApplication(req ApplyRequest) (*shops.Shop, error) {
	required := []struct {
		field string
		value string
	}{
		{"business_name", req.BusinessName},
		{"business_address", req.BusinessAddress},
		{"business_phone", req.BusinessPhone},
		{"business_email", req.BusinessEmail},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperr.Validation(r.field, "required")
		}
	}
	email := strings.TrimSpace(req.BusinessEmail)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("business_email", "not a valid email address")
	}

	certs := shops.Normalize(req.Certifications)
	equip := shops.Normalize(req.Equipment)
	specs := shops.Normalize(req.Specializations)
	if len(specs) == 0 {
		return nil, apperr.Validation("specializations", "at least one specialization is required")
	}
	if bad := shops.UnknownSpecializations(specs); len(bad) > 0 {
		return nil, apperr.Validation("specializations", "unknown: "+strings.Join(bad, ", "))
	}
	if err := validateCapabilities(certs, equip); err != nil {
		return nil, err
	}

	return &shops.Shop{
		BusinessName:    strings.TrimSpace(req.BusinessName),
		BusinessAddress: strings.TrimSpace(req.BusinessAddress),
		BusinessPhone:   strings.TrimSpace(req.BusinessPhone),
		BusinessEmail:   email,
		Certifications:  certs,
		Equipment:       equip,
		Specializations: specs,
		Tier:            shops.ComputeTier(certs, equip),
	}, nil
}

func validateCapabilities(certs, equip []string) error {
	if bad := shops.UnknownCertifications(certs); len(bad) > 0 {
		return apperr.Validation("certifications", "unknown: "+strings.Join(bad, ", "))
	}
	if bad := shops.UnknownEquipment(equip); len(bad) > 0 {
		return apperr.Validation("equipment", "unknown: "+strings.Join(bad, ", "))
	}
	return nil
}

// Review applies an admin decision: pending shops are approved or rejected,
// approved shops may be suspended.
func (s *Service) Review(ctx context.Context, actor auth.Actor, shopID string, decision shops.Decision, note string) (*shops.Shop, error) {
	if err := actor.Require("review shop", auth.RoleAdmin); err != nil {
		return nil, err
	}
	switch decision {
	case shops.DecisionApprove, shops.DecisionReject, shops.DecisionSuspend:
	default:
		return nil, apperr.Validation("decision", "must be approve, reject or suspend")
	}
	shop, err := s.load(ctx, shopID)
	if err != nil {
		return nil, err
	}
	next, ok := shops.NextStatus(shop.Status, decision)
	if !ok {
		return nil, apperr.Precondition(shops.ErrInvalidTransition, "cannot %s a %s shop", decision, shop.Status)
	}

	now := s.now()
	note = strings.TrimSpace(note)
	updated, err := s.repo.ApplyReview(ctx, shops.Review{
		ShopID:     shopID,
		From:       shop.Status,
		To:         next,
		ReviewedBy: actor.Subject,
		Note:       note,
		At:         now,
	})
	if err != nil {
		return nil, apperr.Persistence(err, "apply review")
	}
	if !updated {
		return nil, apperr.Precondition(shops.ErrConcurrentUpdate, "shop %s changed concurrently", shopID)
	}
	metrics.IncShopDecision(string(decision))

	from := shop.Status
	shop.Status = next
	shop.ReviewedBy = actor.Subject
	shop.ReviewedAt = &now
	shop.ReviewNote = note
	shop.UpdatedAt = now
	s.logAudit(ctx, audit.NewEntry(actor, "shop.review", "shop", shopID, map[string]string{
		"decision": string(decision),
		"from":     string(from),
		"to":       string(next),
	}))
	return shop, nil
}

// ReevaluateTier recomputes a shop's tier from updated capabilities.
func (s *Service) ReevaluateTier(ctx context.Context, actor auth.Actor, shopID string, certifications, equipment []string) (*shops.Shop, error) {
	if err := actor.Require("reevaluate shop tier", auth.RoleAdmin); err != nil {
		return nil, err
	}
	certs := shops.Normalize(certifications)
	equip := shops.Normalize(equipment)
	if err := validateCapabilities(certs, equip); err != nil {
		return nil, err
	}
	shop, err := s.load(ctx, shopID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tier := shops.ComputeTier(certs, equip)
	if err := s.repo.UpdateTier(ctx, shops.TierChange{
		ShopID:         shopID,
		Certifications: certs,
		Equipment:      equip,
		Tier:           tier,
		At:             now,
	}); err != nil {
		return nil, apperr.Persistence(err, "update tier")
	}

	previous := shop.Tier
	shop.Certifications = certs
	shop.Equipment = equip
	shop.Tier = tier
	shop.UpdatedAt = now
	s.logAudit(ctx, audit.NewEntry(actor, "shop.reevaluate", "shop", shopID, map[string]string{
		"from": string(previous),
		"to":   string(tier),
	}))
	return shop, nil
}

// List returns shops filtered by status for the admin review queue.
func (s *Service) List(ctx context.Context, actor auth.Actor, status shops.Status) ([]shops.Shop, error) {
	if err := actor.Require("list shops", auth.RoleAdmin); err != nil {
		return nil, err
	}
	switch status {
	case "", shops.StatusPending, shops.StatusApproved, shops.StatusRejected, shops.StatusSuspended:
	default:
		return nil, apperr.Validation("status", "unknown shop status")
	}
	list, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, apperr.Persistence(err, "list shops")
	}
	return list, nil
}

// Mine returns the actor's own application.
func (s *Service) Mine(ctx context.Context, actor auth.Actor) (*shops.Shop, error) {
	if err := actor.Require("get own shop", auth.RoleCustomer, auth.RoleShop); err != nil {
		return nil, err
	}
	shop, err := s.repo.FindByOwner(ctx, actor.Subject)
	if err != nil {
		return nil, apperr.Persistence(err, "lookup application")
	}
	if shop == nil {
		return nil, apperr.NotFound(shops.ErrNotFound, "shop for owner", actor.Subject)
	}
	return shop, nil
}

// ShopExists reports whether a shop id is known.
func (s *Service) ShopExists(ctx context.Context, shopID string) (bool, error) {
	shop, err := s.repo.Get(ctx, shopID)
	if err != nil {
		return false, err
	}
	return shop != nil, nil
}

// IsApproved reports whether a shop may take work.
func (s *Service) IsApproved(ctx context.Context, shopID string) (bool, error) {
	shop, err := s.repo.Get(ctx, shopID)
	if err != nil {
		return false, err
	}
	return shop != nil && shop.Status == shops.StatusApproved, nil
}

// ShopIDForOwner returns the approved shop operated by owner, or "" when
// the owner has none.
func (s *Service) ShopIDForOwner(ctx context.Context, owner string) (string, error) {
	shop, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return "", err
	}
	if shop == nil || shop.Status != shops.StatusApproved {
		return "", nil
	}
	return shop.ID, nil
}

func (s *Service) load(ctx context.Context, shopID string) (*shops.Shop, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, apperr.Validation("shop_id", "required")
	}
	shop, err := s.repo.Get(ctx, shopID)
	if err != nil {
		return nil, apperr.Persistence(err, "load shop")
	}
	if shop == nil {
		return nil, apperr.NotFound(shops.ErrNotFound, "shop", shopID)
	}
	return shop, nil
}

func (s *Service) logAudit(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
