package claims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_DefaultTable(t *testing.T) {
	router := DefaultRouter()
	cases := map[DamageCategory]RepairType{
		DamageScreen:     RepairLocal,
		DamageBattery:    RepairLocal,
		DamagePhysical:   RepairLocal,
		DamageWater:      RepairMailIn,
		DamageLogicBoard: RepairMailIn,
		DamageUnknown:    RepairMailIn,
	}
	for category, want := range cases {
		assert.Equal(t, want, router.Route(category), category)
		// Pure: same input, same answer.
		assert.Equal(t, want, router.Route(category), category)
	}
	assert.Equal(t, RepairMailIn, router.Route("toaster"))
}

func TestNewRouter_RejectsPartialTable(t *testing.T) {
	table := DefaultRoutes()
	delete(table, DamageWater)
	_, err := NewRouter(table)
	assert.ErrorIs(t, err, ErrIncompleteRoutes)

	table = DefaultRoutes()
	table[DamageWater] = "courier"
	_, err = NewRouter(table)
	assert.Error(t, err)

	table = DefaultRoutes()
	table[DamageWater] = RepairLocal
	router, err := NewRouter(table)
	require.NoError(t, err)
	assert.Equal(t, RepairLocal, router.Route(DamageWater))
}

func TestDamageLabels(t *testing.T) {
	for _, category := range DamageCategories() {
		assert.NotEmpty(t, category.Label(), category)
	}
	assert.Equal(t, "Battery Issues", DamageBattery.Label())
	assert.False(t, DamageCategory("fire").Valid())
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from Status
		ev   Event
		to   Status
		ok   bool
	}{
		{StatusFiled, EventAssign, StatusAssigned, true},
		{StatusFiled, EventVerifySerial, StatusInProgress, true},
		{StatusAssigned, EventStart, StatusInProgress, true},
		{StatusAssigned, EventVerifySerial, StatusInProgress, true},
		{StatusInProgress, EventComplete, StatusVerifiedComplete, true},
		{StatusVerifiedComplete, EventClose, StatusClosed, true},
		{StatusInProgress, EventFlag, StatusFlagged, true},
		{StatusFlagged, EventClose, StatusClosed, true},
		{StatusFiled, EventComplete, "", false},
		{StatusInProgress, EventClose, "", false},
		{StatusClosed, EventFlag, "", false},
		{StatusInProgress, EventVerifySerial, "", false},
	}
	for _, tc := range cases {
		to, ok := Next(tc.from, tc.ev)
		assert.Equal(t, tc.ok, ok, "%s+%s", tc.from, tc.ev)
		assert.Equal(t, tc.to, to, "%s+%s", tc.from, tc.ev)
	}
	assert.True(t, StatusClosed.Terminal())
	assert.False(t, StatusFlagged.Terminal())
}

func TestEventFor_ExcludesVerification(t *testing.T) {
	ev, ok := EventFor(StatusAssigned, StatusInProgress)
	require.True(t, ok)
	assert.Equal(t, EventStart, ev)

	_, ok = EventFor(StatusFiled, StatusInProgress)
	assert.False(t, ok)

	_, ok = EventFor(StatusFiled, StatusVerifiedComplete)
	assert.False(t, ok)

	_, ok = EventFor(StatusFiled, StatusClosed)
	assert.False(t, ok)
}

func TestSerialMatches(t *testing.T) {
	assert.True(t, SerialMatches("SN-12345678", " sn-12345678 "))
	assert.True(t, SerialMatches("SN-12345678", "SN-12345678"))
	assert.False(t, SerialMatches("SN-12345678", "SN-12345679"))
	assert.False(t, SerialMatches("SN-12345678", "SN-1234567"))
	assert.False(t, SerialMatches("", ""))
}

func TestChangeApply_NeverClearsVerifiedMatch(t *testing.T) {
	yes, no := true, false
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	claim := &Claim{Status: StatusInProgress, SerialMatch: &yes}

	Change{To: StatusInProgress, SerialMatch: &no, AttemptDelta: 1, At: now}.Apply(claim)
	assert.True(t, claim.Verified())
	assert.Equal(t, 1, claim.VerificationAttempts)

	fresh := &Claim{Status: StatusFiled}
	Change{To: StatusFiled, SerialMatch: &no, AttemptDelta: 1, At: now}.Apply(fresh)
	require.NotNil(t, fresh.SerialMatch)
	assert.False(t, *fresh.SerialMatch)
}

func TestFilterMatches(t *testing.T) {
	claim := Claim{ID: "c-1", DeviceSerial: "F2LXK0ABCD12", IssueDescription: "Cracked screen", Status: StatusFiled}
	assert.True(t, Filter{Query: "f2lxk0"}.Matches(claim))
	assert.True(t, Filter{Query: "cracked"}.Matches(claim))
	assert.True(t, Filter{Query: "c-1", Status: StatusFiled}.Matches(claim))
	assert.False(t, Filter{Status: StatusClosed}.Matches(claim))
	assert.False(t, Filter{Query: "water"}.Matches(claim))
	assert.False(t, Filter{Query: "F2LXK_"}.Matches(claim), "wildcards are literal")
	assert.False(t, Filter{Query: "%screen"}.Matches(claim))
}
