package coverage

import (
	"time"

	"github.com/shopspring/decimal"
)

// PolicyStatus is the lifecycle status of a policy.
type PolicyStatus string

const (
	PolicyPending   PolicyStatus = "pending"
	PolicyActive    PolicyStatus = "active"
	PolicyCancelled PolicyStatus = "cancelled"
	PolicyExpired   PolicyStatus = "expired"
)

var policyTransitions = map[PolicyStatus][]PolicyStatus{
	PolicyPending: {PolicyActive, PolicyCancelled},
	PolicyActive:  {PolicyCancelled, PolicyExpired},
}

// CanTransition reports whether a policy may move from s to next.
func (s PolicyStatus) CanTransition(next PolicyStatus) bool {
	for _, allowed := range policyTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Policy is the protection plan of exactly one device.
type Policy struct {
	ID              string          `json:"id"`
	DeviceID        string          `json:"device_id"`
	Owner           string          `json:"owner"`
	MonthlyPremium  decimal.Decimal `json:"monthly_premium"`
	Deductible      decimal.Decimal `json:"deductible"`
	Status          PolicyStatus    `json:"status"`
	ReferringShopID string          `json:"referring_shop_id,omitempty"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PolicyChange is a compare-and-set status update.
type PolicyChange struct {
	PolicyID  string
	From      PolicyStatus
	To        PolicyStatus
	StartDate *time.Time
	EndDate   *time.Time
	At        time.Time
}
