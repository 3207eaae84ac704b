package model

import "time"

type Medication struct {
	ID           int64     `json:"id"`
	SeniorID     int64     `json:"senior_id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Times        []string  `json:"times"`
	Instructions string    `json:"instructions"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Medication log statuses.
const (
	LogStatusPending = "pending"
	LogStatusTaken   = "taken"
	LogStatusSnoozed = "snoozed"
	LogStatusMissed  = "missed"
)

type MedicationLog struct {
	ID            int64      `json:"id"`
	MedicationID  int64      `json:"medication_id"`
	SeniorID      int64      `json:"senior_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        string     `json:"status"`
	TakenAt       *time.Time `json:"taken_at"`
	SnoozedUntil  *time.Time `json:"snoozed_until"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ScheduleEntry is a medication log joined with its medication's display
// fields, as shown on the senior's daily schedule.
type ScheduleEntry struct {
	MedicationLog
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage"`
	Instructions   string `json:"instructions"`
}
