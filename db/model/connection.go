package model

import (
	"database/sql/driver"
	"time"
)

type ConnectionStatus string

const (
	StatusPending  ConnectionStatus = "pending"
	StatusAccepted ConnectionStatus = "accepted"
	StatusRejected ConnectionStatus = "rejected"
	StatusRemoved  ConnectionStatus = "removed"
)

func (s *ConnectionStatus) Scan(value any) error {
	*s = ConnectionStatus(value.(string))
	return nil
}

func (s ConnectionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Active statuses block a new request for the same pair.
func (s ConnectionStatus) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

type Connection struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	BlindID    string           `gorm:"index:idx_conn_pair" json:"blind_id"`
	GuardianID string           `gorm:"index:idx_conn_pair" json:"guardian_id"`
	Status     ConnectionStatus `gorm:"index" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	BlindUser  *BlindUser       `gorm:"foreignKey:BlindID;references:BlindID" json:"blind_user,omitempty"`
}

// BlindUserPublic is the slice of a blind user a guardian may see before
// accepting the request. Contact fields stay back until acceptance.
type BlindUserPublic struct {
	BlindID string `json:"blind_id"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
}

// PendingConnection is a Connection with the preloaded blind user redacted
// to public fields. Field names and json tags mirror Connection so clients
// decoding into either shape agree.
type PendingConnection struct {
	ID         uint             `json:"id"`
	BlindID    string           `json:"blind_id"`
	GuardianID string           `json:"guardian_id"`
	Status     ConnectionStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	BlindUser  *BlindUserPublic `json:"blind_user,omitempty"`
}

func (c Connection) PendingView() PendingConnection {
	out := PendingConnection{
		ID:         c.ID,
		BlindID:    c.BlindID,
		GuardianID: c.GuardianID,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.BlindUser != nil {
		out.BlindUser = &BlindUserPublic{
			BlindID: c.BlindUser.BlindID,
			Name:    c.BlindUser.Name,
			Age:     c.BlindUser.Age,
			Gender:  c.BlindUser.Gender,
		}
	}
	return out
}
