package model

import "time"

// Notification type constants
const (
	NotifTypeMedicationDue    = "medication_due"
	NotifTypeMedicationMissed = "medication_missed"
	NotifTypeEmergency        = "emergency"
	NotifTypeVitalRecorded    = "vital_recorded"
)

// Notification urgency levels. 1 is high (missed dose, emergency), 2 normal.
const (
	UrgencyHigh   = 1
	UrgencyNormal = 2
)

type Notification struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	SeniorID   *int64    `json:"senior_id"`
	GuardianID *int64    `json:"guardian_id"`
	Urgency    int       `json:"urgency"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}
