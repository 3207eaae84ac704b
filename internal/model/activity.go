package model

import "time"

// Activity type constants
const (
	ActivityMedicationTaken = "medication_taken"
	ActivityVitalRecorded   = "vital_recorded"
	ActivityEmergency       = "emergency"
	ActivityAppOpened       = "app_opened"
)

type ActivityLog struct {
	ID           int64     `json:"id"`
	SeniorID     int64     `json:"senior_id"`
	ActivityType string    `json:"activity_type"`
	Detail       string    `json:"detail"`
	CreatedAt    time.Time `json:"created_at"`
}
