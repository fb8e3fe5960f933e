package coverage

import (
	"strings"
	"time"
)

// RegistrationState tracks the registration saga of a device.
type RegistrationState string

const (
	RegistrationIncomplete RegistrationState = "incomplete"
	RegistrationComplete   RegistrationState = "complete"
)

// HealthGood is the health status recorded at registration.
const HealthGood = "good"

// MinSerialLength is the shortest accepted serial number.
const MinSerialLength = 8

// Device is a registered customer device.
type Device struct {
	ID                string            `json:"id"`
	Owner             string            `json:"owner"`
	Category          string            `json:"category"`
	Brand             string            `json:"brand"`
	Model             string            `json:"model"`
	SerialNumber      string            `json:"serial_number"`
	Tier              int               `json:"tier"`
	HealthStatus      string            `json:"health_status"`
	RegistrationState RegistrationState `json:"registration_state"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NormalizeSerial trims and upper-cases a serial number. Verification
// compares serials only in this form.
func NormalizeSerial(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidSerial reports whether a normalized serial is at least
// MinSerialLength characters of letters, digits and hyphens.
func ValidSerial(serial string) bool {
	if len(serial) < MinSerialLength {
		return false
	}
	for _, r := range serial {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
