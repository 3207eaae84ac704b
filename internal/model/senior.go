package model

import "time"

type Senior struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"date_of_birth"`
	Phone       string    `json:"phone"`
	PhotoKey    string    `json:"photo_key"`
	HasPIN      bool      `json:"has_pin"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SeniorProfile is the display profile returned by a successful PIN login.
type SeniorProfile struct {
	SeniorID   int64  `json:"senior_id"`
	Name       string `json:"name"`
	PhotoKey   string `json:"photo_key"`
	GuardianID int64  `json:"guardian_id"`
}
