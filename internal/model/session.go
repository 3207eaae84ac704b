package model

import "time"

type Session struct {
	ID         int64     `json:"id"`
	Token      string    `json:"-"`
	GuardianID *int64    `json:"guardian_id"`
	SeniorID   *int64    `json:"senior_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type LoginCode struct {
	ID        int64      `json:"id"`
	Code      string     `json:"-"`
	Email     string     `json:"email"`
	Purpose   string     `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}
