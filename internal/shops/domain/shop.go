package shops

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("shops: not found")
	ErrAlreadyApplied    = errors.New("shops: owner already has an application")
	ErrInvalidTransition = errors.New("shops: invalid review transition")
	ErrConcurrentUpdate  = errors.New("shops: record changed concurrently")
	ErrUnknownCapability = errors.New("shops: unknown certification or equipment")
)

// Tier is the capability tier of a repair shop.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierAdvanced Tier = "advanced"
	TierExpert   Tier = "expert"
)

// Status is the review status of a shop.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

// Certification and equipment identifiers accepted on applications.
const (
	CertApple   = "apple"
	CertSamsung = "samsung"
	CertGoogle  = "google"
	CertCompTIA = "comptia"
	CertIFixit  = "ifixit"

	EquipSoldering          = "soldering"
	EquipUltrasonic         = "ultrasonic"
	EquipSeparator          = "separator"
	EquipBatteryCalibration = "battery_calibration"
	EquipDiagnostic         = "diagnostic"
)

var (
	knownCertifications = map[string]struct{}{
		CertApple: {}, CertSamsung: {}, CertGoogle: {}, CertCompTIA: {}, CertIFixit: {},
	}
	knownEquipment = map[string]struct{}{
		EquipSoldering: {}, EquipUltrasonic: {}, EquipSeparator: {}, EquipBatteryCalibration: {}, EquipDiagnostic: {},
	}
	knownSpecializations = map[string]struct{}{
		"smartphone": {}, "tablet": {}, "laptop": {}, "console": {}, "wearable": {}, "drone": {}, "audio": {},
	}
)

// Shop is a partner repair shop and its application.
type Shop struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	BusinessName    string     `json:"business_name"`
	BusinessAddress string     `json:"business_address"`
	BusinessPhone   string     `json:"business_phone"`
	BusinessEmail   string     `json:"business_email"`
	Certifications  []string   `json:"certifications"`
	Equipment       []string   `json:"equipment"`
	Specializations []string   `json:"specializations"`
	Tier            Tier       `json:"tier"`
	Status          Status     `json:"status"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote      string     `json:"review_note,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ComputeTier derives the shop tier from its certifications and equipment.
// Duplicates count once.
func ComputeTier(certifications, equipment []string) Tier {
	certs := Normalize(certifications)
	equip := Normalize(equipment)
	switch {
	case len(certs) >= 4 && len(equip) >= 4:
		return TierExpert
	case len(certs) >= 2 && contains(equip, EquipSoldering):
		return TierAdvanced
	default:
		return TierBasic
	}
}

// Normalize lower-cases, trims, de-duplicates and sorts a capability list.
func Normalize(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

// UnknownCertifications returns the entries not on the accepted list.
func UnknownCertifications(values []string) []string {
	return unknown(values, knownCertifications)
}

// UnknownEquipment returns the entries not on the accepted list.
func UnknownEquipment(values []string) []string {
	return unknown(values, knownEquipment)
}

// UnknownSpecializations returns the entries that are not device categories.
func UnknownSpecializations(values []string) []string {
	return unknown(values, knownSpecializations)
}

func unknown(values []string, known map[string]struct{}) []string {
	var out []string
	for _, value := range values {
		if _, ok := known[value]; !ok {
			out = append(out, value)
		}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
