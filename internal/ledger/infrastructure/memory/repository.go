package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	ledger "github.com/sk1972-mend/mendinsurance/internal/ledger/domain"
)

type refKey struct {
	kind      ledger.Kind
	reference string
}

// Repository is an in-memory ledger for demo/testing.
type Repository struct {
	mu      sync.RWMutex
	entries []ledger.Entry
	refs    map[refKey]int
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{refs: make(map[refKey]int)}
}

// Append stores an entry unless its (kind, reference) is taken.
func (r *Repository) Append(ctx context.Context, entry *ledger.Entry) (*ledger.Entry, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	key := refKey{kind: entry.Kind, reference: entry.Reference}
	if idx, ok := r.refs[key]; ok {
		existing := r.entries[idx]
		return &existing, false, nil
	}
	r.refs[key] = len(r.entries)
	r.entries = append(r.entries, *entry)
	stored := *entry
	return &stored, true, nil
}

// Balance sums every entry of a shop.
func (r *Repository) Balance(ctx context.Context, shopID string) (decimal.Decimal, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, entry := range r.entries {
		if entry.ShopID == shopID {
			total = total.Add(entry.Amount)
		}
	}
	return total, nil
}

// ListByShop returns entries of a shop with from <= occurred_at < to.
func (r *Repository) ListByShop(ctx context.Context, shopID string, from, to time.Time) ([]ledger.Entry, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ledger.Entry, 0)
	for _, entry := range r.entries {
		if entry.ShopID != shopID {
			continue
		}
		if entry.OccurredAt.Before(from) || !entry.OccurredAt.Before(to) {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}
