package shops

import (
	"context"
	"time"
)

// Decision is an admin review decision.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionSuspend Decision = "suspend"
)

// reviewTransitions maps (current status, decision) to the next status.
var reviewTransitions = map[Status]map[Decision]Status{
	StatusPending: {
		DecisionApprove: StatusApproved,
		DecisionReject:  StatusRejected,
	},
	StatusApproved: {
		DecisionSuspend: StatusSuspended,
	},
}

// NextStatus returns the status a decision leads to from current.
func NextStatus(current Status, decision Decision) (Status, bool) {
	next, ok := reviewTransitions[current][decision]
	return next, ok
}

// Review is a compare-and-set review update.
type Review struct {
	ShopID     string
	From       Status
	To         Status
	ReviewedBy string
	Note       string
	At         time.Time
}

// TierChange is an explicit tier recomputation.
type TierChange struct {
	ShopID         string
	Certifications []string
	Equipment      []string
	Tier           Tier
	At             time.Time
}

// Repository persists shops. Lookups return nil, nil for a missing record.
type Repository interface {
	Insert(ctx context.Context, shop *Shop) error
	Get(ctx context.Context, shopID string) (*Shop, error)
	FindByOwner(ctx context.Context, ownerID string) (*Shop, error)
	List(ctx context.Context, status Status) ([]Shop, error)
	// ApplyReview updates the status only while it is still review.From.
	ApplyReview(ctx context.Context, review Review) (bool, error)
	UpdateTier(ctx context.Context, change TierChange) error
}
