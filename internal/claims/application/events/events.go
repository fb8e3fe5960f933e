package events

import "time"

// ClaimFiled is raised when a customer files a claim.
type ClaimFiled struct {
	ClaimID        string
	PolicyID       string
	DeviceID       string
	DamageCategory string
	RepairType     string
	OccurredAt     time.Time
}

// ClaimStatusChanged is raised after every committed status transition.
type ClaimStatusChanged struct {
	ClaimID        string
	From           string
	To             string
	Event          string
	AssignedShopID string
	Actor          string
	Note           string
	OccurredAt     time.Time
}

// SerialVerified is raised when a shop's submitted serial first matches the
// registered device.
type SerialVerified struct {
	ClaimID    string
	ShopID     string
	Actor      string
	OccurredAt time.Time
}

// ClaimTriaged is raised when a shop changes the repair type of a verified
// claim.
type ClaimTriaged struct {
	ClaimID    string
	From       string
	To         string
	ShopID     string
	Actor      string
	OccurredAt time.Time
}

// All returns one sample of every claim event for registry setup.
func All() []any {
	return []any{ClaimFiled{}, ClaimStatusChanged{}, SerialVerified{}, ClaimTriaged{}}
}

func (e ClaimFiled) AggregateKey() string         { return e.ClaimID }
func (e ClaimFiled) EventTime() time.Time         { return e.OccurredAt }
func (e ClaimStatusChanged) AggregateKey() string { return e.ClaimID }
func (e ClaimStatusChanged) EventTime() time.Time { return e.OccurredAt }
func (e SerialVerified) AggregateKey() string     { return e.ClaimID }
func (e SerialVerified) EventTime() time.Time     { return e.OccurredAt }
func (e ClaimTriaged) AggregateKey() string       { return e.ClaimID }
func (e ClaimTriaged) EventTime() time.Time       { return e.OccurredAt }
