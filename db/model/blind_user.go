package model

import "strings"

type BlindUser struct {
	Base
	BlindID       string `gorm:"uniqueIndex" json:"blind_id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
	ExpoPushToken string `json:"-"`
	// Set by the accept step of a connection decision, empty otherwise.
	GuardianID string `json:"guardian_id,omitempty"`
}

// NormalizeBlindID maps user input to the canonical stored form (BLIND001).
func NormalizeBlindID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
