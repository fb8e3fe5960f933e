package memory

import (
	"context"
	"sort"
	"sync"

	shops "github.com/sk1972-mend/mendinsurance/internal/shops/domain"
)

// Repository is an in-memory shop repository for demo/testing.
type Repository struct {
	mu    sync.RWMutex
	shops map[string]shops.Shop
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{shops: make(map[string]shops.Shop)}
}

// Insert stores a new application; one per owner.
func (r *Repository) Insert(ctx context.Context, shop *shops.Shop) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shops {
		if existing.OwnerID == shop.OwnerID {
			return shops.ErrAlreadyApplied
		}
	}
	r.shops[shop.ID] = clone(*shop)
	return nil
}

// Get loads a shop by id.
func (r *Repository) Get(ctx context.Context, shopID string) (*shops.Shop, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	shop, ok := r.shops[shopID]
	if !ok {
		return nil, nil
	}
	out := clone(shop)
	return &out, nil
}

// FindByOwner loads the shop of an owner.
func (r *Repository) FindByOwner(ctx context.Context, ownerID string) (*shops.Shop, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, shop := range r.shops {
		if shop.OwnerID == ownerID {
			out := clone(shop)
			return &out, nil
		}
	}
	return nil, nil
}

// List returns shops with status, or all when status is empty, oldest first.
func (r *Repository) List(ctx context.Context, status shops.Status) ([]shops.Shop, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []shops.Shop
	for _, shop := range r.shops {
		if status == "" || shop.Status == status {
			out = append(out, clone(shop))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ApplyReview applies a compare-and-set review.
func (r *Repository) ApplyReview(ctx context.Context, review shops.Review) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.shops[review.ShopID]
	if !ok || shop.Status != review.From {
		return false, nil
	}
	at := review.At
	shop.Status = review.To
	shop.ReviewedBy = review.ReviewedBy
	shop.ReviewedAt = &at
	shop.ReviewNote = review.Note
	shop.UpdatedAt = review.At
	r.shops[review.ShopID] = shop
	return true, nil
}

// UpdateTier stores a recomputed tier with its inputs.
func (r *Repository) UpdateTier(ctx context.Context, change shops.TierChange) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.shops[change.ShopID]
	if !ok {
		return shops.ErrNotFound
	}
	shop.Certifications = append([]string(nil), change.Certifications...)
	shop.Equipment = append([]string(nil), change.Equipment...)
	shop.Tier = change.Tier
	shop.UpdatedAt = change.At
	r.shops[change.ShopID] = shop
	return nil
}

func clone(shop shops.Shop) shops.Shop {
	shop.Certifications = append([]string(nil), shop.Certifications...)
	shop.Equipment = append([]string(nil), shop.Equipment...)
	shop.Specializations = append([]string(nil), shop.Specializations...)
	if shop.ReviewedAt != nil {
		at := *shop.ReviewedAt
		shop.ReviewedAt = &at
	}
	return shop
}
