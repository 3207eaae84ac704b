package model

import "time"

// Vital type constants
const (
	VitalBloodPressure = "blood_pressure"
	VitalHeartRate     = "heart_rate"
	VitalGlucose       = "glucose"
	VitalWeight        = "weight"
	VitalOxygen        = "oxygen"
)

type HealthVital struct {
	ID         int64     `json:"id"`
	SeniorID   int64     `json:"senior_id"`
	VitalType  string    `json:"vital_type"`
	Value      string    `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}
