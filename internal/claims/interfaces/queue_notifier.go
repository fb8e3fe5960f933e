package interfaces

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/claims/application/events"
	"github.com/sk1972-mend/mendinsurance/internal/eventing"
)

// QueueNotifier logs shop queue notifications for claim events. It stands
// in for the messaging channel that tells a shop new work has arrived.
type QueueNotifier struct {
	logger *zap.Logger
}

// NewQueueNotifier constructs a notifier.
func NewQueueNotifier(logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{logger: logger}
}

// Subscribe attaches the notifier to bus.
func (n *QueueNotifier) Subscribe(bus *eventing.InMemoryBus) {
	bus.Subscribe(eventing.TypeName(events.ClaimFiled{}), n.handleFiled)
	bus.Subscribe(eventing.TypeName(events.ClaimStatusChanged{}), n.handleStatusChanged)
	bus.Subscribe(eventing.TypeName(events.SerialVerified{}), n.handleVerified)
	bus.Subscribe(eventing.TypeName(events.ClaimTriaged{}), n.handleTriaged)
}

func (n *QueueNotifier) handleFiled(ctx context.Context, event any) error {
	_ = ctx
	filed, ok := event.(events.ClaimFiled)
	if !ok {
		return errors.New("queue notifier: unexpected event type")
	}
	n.logger.Info("claim filed",
		zap.String("claim_id", filed.ClaimID),
		zap.String("repair_type", filed.RepairType),
		zap.String("category", filed.DamageCategory))
	return nil
}

func (n *QueueNotifier) handleStatusChanged(ctx context.Context, event any) error {
	_ = ctx
	changed, ok := event.(events.ClaimStatusChanged)
	if !ok {
		return errors.New("queue notifier: unexpected event type")
	}
	if changed.To == "assigned" {
		n.logger.Info("claim queued for shop",
			zap.String("claim_id", changed.ClaimID),
			zap.String("shop_id", changed.AssignedShopID))
		return nil
	}
	n.logger.Debug("claim status changed",
		zap.String("claim_id", changed.ClaimID),
		zap.String("from", changed.From),
		zap.String("to", changed.To),
		zap.String("actor", changed.Actor))
	return nil
}

func (n *QueueNotifier) handleVerified(ctx context.Context, event any) error {
	_ = ctx
	verified, ok := event.(events.SerialVerified)
	if !ok {
		return errors.New("queue notifier: unexpected event type")
	}
	n.logger.Info("serial verified, workbench unlocked",
		zap.String("claim_id", verified.ClaimID),
		zap.String("shop_id", verified.ShopID))
	return nil
}

func (n *QueueNotifier) handleTriaged(ctx context.Context, event any) error {
	_ = ctx
	triaged, ok := event.(events.ClaimTriaged)
	if !ok {
		return errors.New("queue notifier: unexpected event type")
	}
	n.logger.Info("claim triaged",
		zap.String("claim_id", triaged.ClaimID),
		zap.String("shop_id", triaged.ShopID),
		zap.String("repair_type", triaged.To))
	return nil
}
