package model

import "strings"

type Guardian struct {
	Base
	GuardianID       string    `gorm:"uniqueIndex" json:"guardian_id"`
	Name             string    `json:"name"`
	Email            string    `gorm:"unique" json:"email"`
	Pass             string    `json:"-"`
	Phone            string    `json:"phone,omitempty"`
	City             string    `json:"city,omitempty"`
	Location         string    `json:"location,omitempty"`
	AadhaarURL       string    `json:"aadhaar_url,omitempty"`
	PanURL           string    `json:"pan_url,omitempty"`
	ProfileCompleted bool      `json:"profile_completed"`
	Sessions         []Session `json:"sessions,omitempty"`
}

// NormalizeGuardianID maps user input to the canonical comparison form.
// Guardian ids are stored as issued (Guardian001) but matched
// case-insensitively.
func NormalizeGuardianID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
