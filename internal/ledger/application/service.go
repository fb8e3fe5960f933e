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
	ledger "github.com/sk1972-mend/mendinsurance/internal/ledger/domain"
	"github.com/sk1972-mend/mendinsurance/internal/observability/metrics"
)

// DefaultCommissionRate is the share of a monthly premium credited to the
// referring shop when a policy activates.
var DefaultCommissionRate = decimal.RequireFromString("0.15")

// ShopResolver maps a shop user to the approved shop they operate.
type ShopResolver interface {
	ShopIDForOwner(ctx context.Context, owner string) (string, error)
}

// CommissionCredit credits a shop for a policy.
type CommissionCredit struct {
	ShopID     string          `json:"shop_id"`
	PolicyID   string          `json:"policy_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"`
}

// Payout credits a shop for a closed repair claim.
type Payout struct {
	ShopID  string
	ClaimID string
	Amount  decimal.Decimal
}

// Service owns the shop ledger.
type Service struct {
	repo   ledger.Repository
	shops  ShopResolver
	audit  audit.Logger
	rate   decimal.Decimal
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithCommissionRate overrides the activation commission rate.
func WithCommissionRate(rate decimal.Decimal) Option {
	return func(s *Service) {
		if rate.IsPositive() && rate.LessThanOrEqual(decimal.NewFromInt(1)) {
			s.rate = rate
		}
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

// NewService constructs a ledger service.
func NewService(repo ledger.Repository, shops ShopResolver, auditLog audit.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("ledger: nil repo")
	}
	if shops == nil {
		return nil, errors.New("ledger: nil shop resolver")
	}
	if auditLog == nil {
		return nil, errors.New("ledger: nil audit logger")
	}
	s := &Service{
		repo:   repo,
		shops:  shops,
		audit:  auditLog,
		rate:   DefaultCommissionRate,
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

// CommissionRate returns the configured activation commission rate.
func (s *Service) CommissionRate() decimal.Decimal {
	return s.rate
}

// CreditCommission appends a commission entry. A repeated reference returns
// the original entry without writing.
func (s *Service) CreditCommission(ctx context.Context, credit CommissionCredit) (*ledger.Entry, error) {
	if strings.TrimSpace(credit.ShopID) == "" {
		return nil, apperr.Validation("shop_id", "required")
	}
	if strings.TrimSpace(credit.Reference) == "" {
		return nil, apperr.Validation("reference", "required")
	}
	occurred := s.now()
	if credit.OccurredAt != nil {
		occurred = credit.OccurredAt.UTC()
	}
	return s.append(ctx, ledger.Entry{
		Kind:       ledger.KindCommission,
		ShopID:     credit.ShopID,
		PolicyID:   credit.PolicyID,
		Amount:     credit.Amount,
		Reference:  strings.TrimSpace(credit.Reference),
		OccurredAt: occurred,
	})
}

// CreditActivation credits the referring shop its share of the first
// monthly premium of a policy. The policy id is the idempotency key.
func (s *Service) CreditActivation(ctx context.Context, shopID, policyID string, premium decimal.Decimal) error {
	_, err := s.CreditCommission(ctx, CommissionCredit{
		ShopID:    shopID,
		PolicyID:  policyID,
		Amount:    premium.Mul(s.rate).Round(2),
		Reference: "activation:" + policyID,
	})
	return err
}

// RecordPayout credits a shop for a closed claim, once per claim.
func (s *Service) RecordPayout(ctx context.Context, payout Payout) (*ledger.Entry, error) {
	if strings.TrimSpace(payout.ShopID) == "" {
		return nil, apperr.Validation("shop_id", "required")
	}
	if strings.TrimSpace(payout.ClaimID) == "" {
		return nil, apperr.Validation("claim_id", "required")
	}
	return s.append(ctx, ledger.Entry{
		Kind:       ledger.KindPayout,
		ShopID:     payout.ShopID,
		ClaimID:    payout.ClaimID,
		Amount:     payout.Amount,
		Reference:  payout.ClaimID,
		OccurredAt: s.now(),
	})
}

func (s *Service) append(ctx context.Context, entry ledger.Entry) (*ledger.Entry, error) {
	if !entry.Amount.IsPositive() {
		return nil, apperr.Validation("amount", "must be positive")
	}
	if err := entry.Validate(); err != nil {
		return nil, apperr.Validation("entry", err.Error())
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now()

	stored, created, err := s.repo.Append(ctx, &entry)
	if err != nil {
		return nil, apperr.Persistence(err, "append ledger entry")
	}
	if stored == nil {
		return nil, apperr.Persistence(errors.New("append returned no entry"), "append ledger entry")
	}
	if !created {
		if !stored.SameAs(entry) {
			return nil, apperr.Precondition(ledger.ErrReferenceReused, "reference %s already credited %s to shop %s", entry.Reference, stored.Amount, stored.ShopID)
		}
		s.logger.Debug("ledger entry replayed",
			zap.String("kind", string(entry.Kind)),
			zap.String("reference", entry.Reference))
		return stored, nil
	}

	metrics.IncLedgerEntry(string(entry.Kind))
	s.logAudit(ctx, audit.NewEntry(auth.Actor{Subject: "system", Role: auth.RoleAdmin},
		"ledger."+string(entry.Kind), "shop", entry.ShopID, map[string]string{
			"reference": entry.Reference,
			"amount":    entry.Amount.StringFixed(2),
		}))
	return stored, nil
}

// WalletBalance returns the derived balance of a shop.
func (s *Service) WalletBalance(ctx context.Context, actor auth.Actor, shopID string) (decimal.Decimal, error) {
	shopID, err := s.resolveShop(ctx, actor, shopID)
	if err != nil {
		return decimal.Zero, err
	}
	balance, err := s.repo.Balance(ctx, shopID)
	if err != nil {
		return decimal.Zero, apperr.Persistence(err, "wallet balance")
	}
	return balance, nil
}

// Revenue builds the revenue dashboard for the last months calendar months.
// Shop users always see their own shop; admins name one.
func (s *Service) Revenue(ctx context.Context, actor auth.Actor, shopID string, months int) (*ledger.RevenueSummary, error) {
	if months < 0 || months > ledger.MaxRevenueMonths {
		return nil, apperr.Validation("months", "must be between 1 and 24")
	}
	if months == 0 {
		months = 6
	}
	shopID, err := s.resolveShop(ctx, actor, shopID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from := ledger.WindowStart(now, months)
	to := ledger.MonthStart(now).AddDate(0, 1, 0)
	entries, err := s.repo.ListByShop(ctx, shopID, from, to)
	if err != nil {
		return nil, apperr.Persistence(err, "list ledger entries")
	}
	balance, err := s.repo.Balance(ctx, shopID)
	if err != nil {
		return nil, apperr.Persistence(err, "wallet balance")
	}
	summary := ledger.BuildRevenue(shopID, entries, balance, months, now)
	return &summary, nil
}

func (s *Service) resolveShop(ctx context.Context, actor auth.Actor, shopID string) (string, error) {
	if err := actor.Require("read shop revenue", auth.RoleShop, auth.RoleAdmin); err != nil {
		return "", err
	}
	if actor.IsAdmin() {
		if strings.TrimSpace(shopID) == "" {
			return "", apperr.Validation("shop_id", "required for admin")
		}
		return shopID, nil
	}
	own, err := s.shops.ShopIDForOwner(ctx, actor.Subject)
	if err != nil {
		return "", apperr.Persistence(err, "resolve shop")
	}
	if own == "" {
		return "", apperr.Forbidden("no approved shop for this account")
	}
	if shopID != "" && shopID != own {
		return "", apperr.Forbidden("shop users can only read their own revenue")
	}
	return own, nil
}

func (s *Service) logAudit(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
