package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	ledgerapp "github.com/sk1972-mend/mendinsurance/internal/ledger/application"
)

// PayoutRecorder books closed-claim payouts on the shop ledger.
type PayoutRecorder struct {
	ledger *ledgerapp.Service
}

// NewPayoutRecorder constructs a recorder.
func NewPayoutRecorder(service *ledgerapp.Service) (*PayoutRecorder, error) {
	if service == nil {
		return nil, errors.New("payout recorder: nil ledger service")
	}
	return &PayoutRecorder{ledger: service}, nil
}

// RecordClaimPayout appends the payout entry of a claim.
func (p *PayoutRecorder) RecordClaimPayout(ctx context.Context, shopID, claimID string, amount decimal.Decimal) error {
	_, err := p.ledger.RecordPayout(ctx, ledgerapp.Payout{ShopID: shopID, ClaimID: claimID, Amount: amount})
	return err
}
