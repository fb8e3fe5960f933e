package memory

import (
	"context"
	"sort"
	"sync"

	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
)

// Repository is an in-memory claim repository for demo/testing.
type Repository struct {
	mu     sync.RWMutex
	claims map[string]claims.Claim
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{claims: make(map[string]claims.Claim)}
}

// Insert stores a claim.
func (r *Repository) Insert(ctx context.Context, claim *claims.Claim) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[claim.ID] = *claim
	return nil
}

// Get loads a claim.
func (r *Repository) Get(ctx context.Context, claimID string) (*claims.Claim, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	claim, ok := r.claims[claimID]
	if !ok {
		return nil, nil
	}
	return &claim, nil
}

// FindOpenByDevice returns the newest open claim of a device.
func (r *Repository) FindOpenByDevice(ctx context.Context, deviceID string) (*claims.Claim, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *claims.Claim
	for _, claim := range r.claims {
		if claim.DeviceID != deviceID || !claim.Status.Open() {
			continue
		}
		if found == nil || claim.FiledAt.After(found.FiledAt) {
			c := claim
			found = &c
		}
	}
	return found, nil
}

// ListByOwner returns an owner's claims, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]claims.Claim, error) {
	return r.collect(func(c claims.Claim) bool { return c.OwnerID == ownerID }, 0), nil
}

// ListByShop returns claims assigned to a shop in the given statuses.
func (r *Repository) ListByShop(ctx context.Context, shopID string, statuses []claims.Status) ([]claims.Claim, error) {
	wanted := make(map[claims.Status]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}
	return r.collect(func(c claims.Claim) bool {
		return c.AssignedShopID == shopID && (len(wanted) == 0 || wanted[c.Status])
	}, 0), nil
}

// Search returns claims passing filter, newest first.
func (r *Repository) Search(ctx context.Context, filter claims.Filter) ([]claims.Claim, error) {
	return r.collect(filter.Matches, filter.Limit), nil
}

// Update applies a compare-and-set change.
func (r *Repository) Update(ctx context.Context, change claims.Change) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[change.ClaimID]
	if !ok || claim.Status != change.From {
		return false, nil
	}
	change.Apply(&claim)
	r.claims[claim.ID] = claim
	return true, nil
}

func (r *Repository) collect(keep func(claims.Claim) bool, limit int) []claims.Claim {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]claims.Claim, 0)
	for _, claim := range r.claims {
		if keep(claim) {
			out = append(out, claim)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FiledAt.Equal(out[j].FiledAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FiledAt.After(out[j].FiledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
