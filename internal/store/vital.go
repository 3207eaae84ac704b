package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avikal/sahaay/internal/model"
)

type VitalStore struct {
	db *sql.DB
}

func NewVitalStore(db *sql.DB) *VitalStore {
	return &VitalStore{db: db}
}

func (s *VitalStore) Record(seniorID int64, vitalType, value, unit string, recordedAt time.Time) (*model.HealthVital, error) {
	result, err := s.db.Exec(
		`INSERT INTO health_vitals (senior_id, vital_type, value, unit, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		seniorID, vitalType, value, unit, recordedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert vital: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var v model.HealthVital
	err = s.db.QueryRow(
		`SELECT id, senior_id, vital_type, value, unit, recorded_at FROM health_vitals WHERE id = ?`, id,
	).Scan(&v.ID, &v.SeniorID, &v.VitalType, &v.Value, &v.Unit, &v.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("query vital: %w", err)
	}
	return &v, nil
}

// ListBySenior returns recent vitals for a senior, optionally filtered by
// type, newest first.
func (s *VitalStore) ListBySenior(seniorID int64, vitalType string, limit int) ([]model.HealthVital, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, senior_id, vital_type, value, unit, recorded_at
	          FROM health_vitals WHERE senior_id = ?`
	args := []any{seniorID}
	if vitalType != "" {
		query += ` AND vital_type = ?`
		args = append(args, vitalType)
	}
	query += ` ORDER BY recorded_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vitals: %w", err)
	}
	defer rows.Close()

	var vitals []model.HealthVital
	for rows.Next() {
		var v model.HealthVital
		if err := rows.Scan(&v.ID, &v.SeniorID, &v.VitalType, &v.Value, &v.Unit, &v.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan vital: %w", err)
		}
		vitals = append(vitals, v)
	}
	return vitals, rows.Err()
}

// Latest returns the most recent reading of each vital type for a senior.
func (s *VitalStore) Latest(seniorID int64) ([]model.HealthVital, error) {
	rows, err := s.db.Query(
		`SELECT v.id, v.senior_id, v.vital_type, v.value, v.unit, v.recorded_at
		 FROM health_vitals v
		 JOIN (SELECT vital_type, MAX(recorded_at) AS latest
		       FROM health_vitals WHERE senior_id = ? GROUP BY vital_type) m
		   ON m.vital_type = v.vital_type AND m.latest = v.recorded_at
		 WHERE v.senior_id = ?`,
		seniorID, seniorID,
	)
	if err != nil {
		return nil, fmt.Errorf("latest vitals: %w", err)
	}
	defer rows.Close()

	var vitals []model.HealthVital
	for rows.Next() {
		var v model.HealthVital
		if err := rows.Scan(&v.ID, &v.SeniorID, &v.VitalType, &v.Value, &v.Unit, &v.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan vital: %w", err)
		}
		vitals = append(vitals, v)
	}
	return vitals, rows.Err()
}
