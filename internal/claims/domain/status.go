package claims

// Status is the lifecycle state of a claim.
type Status string

const (
	StatusFiled            Status = "filed"
	StatusAssigned         Status = "assigned"
	StatusInProgress       Status = "in_progress"
	StatusVerifiedComplete Status = "verified_complete"
	StatusClosed           Status = "closed"
	StatusFlagged          Status = "flagged"
)

// Event drives a status transition.
type Event string

const (
	EventAssign       Event = "assign"
	EventVerifySerial Event = "verify_serial"
	EventStart        Event = "start"
	EventComplete     Event = "complete"
	EventClose        Event = "close"
	EventFlag         Event = "flag"
)

// transitions is the single authority on legal claim transitions.
var transitions = map[Status]map[Event]Status{
	StatusFiled: {
		EventAssign:       StatusAssigned,
		EventVerifySerial: StatusInProgress,
		EventFlag:         StatusFlagged,
	},
	StatusAssigned: {
		EventStart:        StatusInProgress,
		EventVerifySerial: StatusInProgress,
		EventFlag:         StatusFlagged,
	},
	StatusInProgress: {
		EventComplete: StatusVerifiedComplete,
		EventFlag:     StatusFlagged,
	},
	StatusVerifiedComplete: {
		EventClose: StatusClosed,
		EventFlag:  StatusFlagged,
	},
	StatusFlagged: {
		EventClose: StatusClosed,
	},
}

// Statuses returns every status.
func Statuses() []Status {
	return []Status{StatusFiled, StatusAssigned, StatusInProgress, StatusVerifiedComplete, StatusClosed, StatusFlagged}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusFiled, StatusAssigned, StatusInProgress, StatusVerifiedComplete, StatusClosed, StatusFlagged:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Open reports whether a claim in s still awaits repair work.
func (s Status) Open() bool {
	return s == StatusFiled || s == StatusAssigned || s == StatusInProgress
}

// OpenStatuses lists the statuses for which Open is true.
func OpenStatuses() []Status {
	return []Status{StatusFiled, StatusAssigned, StatusInProgress}
}

// Next returns the status reached from `from` by ev.
func Next(from Status, ev Event) (Status, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// EventFor finds the event that moves a claim from `from` to `to` through a
// manual status change. Serial verification is excluded: it is only
// reachable through the verification flow.
func EventFor(from, to Status) (Event, bool) {
	for ev, target := range transitions[from] {
		if ev == EventVerifySerial {
			continue
		}
		if target == to {
			return ev, true
		}
	}
	return "", false
}
