package model

import "time"

type Guardian struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	PhotoKey  string    `json:"photo_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CareLink ties a senior to a guardian. One guardian per senior is marked
// primary and receives the scanner's reminder notifications.
type CareLink struct {
	ID         int64     `json:"id"`
	SeniorID   int64     `json:"senior_id"`
	GuardianID int64     `json:"guardian_id"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}
