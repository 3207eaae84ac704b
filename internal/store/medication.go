package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/avikal/sahaay/internal/model"
)

type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(db *sql.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

const medicationCols = `id, senior_id, name, dosage, times, instructions, active, created_at, updated_at`

func scanMedication(scanner interface{ Scan(...any) error }) (*model.Medication, error) {
	var m model.Medication
	var times string
	err := scanner.Scan(&m.ID, &m.SeniorID, &m.Name, &m.Dosage, &times, &m.Instructions, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(times), &m.Times); err != nil {
		return nil, fmt.Errorf("decode times: %w", err)
	}
	return &m, nil
}

func encodeTimes(times []string) (string, error) {
	if times == nil {
		times = []string{}
	}
	data, err := json.Marshal(times)
	if err != nil {
		return "", fmt.Errorf("encode times: %w", err)
	}
	return string(data), nil
}

func (s *MedicationStore) Create(seniorID int64, name, dosage string, times []string, instructions string) (*model.Medication, error) {
	encoded, err := encodeTimes(times)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO medications (senior_id, name, dosage, times, instructions) VALUES (?, ?, ?, ?, ?)`,
		seniorID, name, dosage, encoded, instructions,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MedicationStore) GetByID(id int64) (*model.Medication, error) {
	row := s.db.QueryRow(`SELECT `+medicationCols+` FROM medications WHERE id = ?`, id)
	m, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query medication: %w", err)
	}
	return m, nil
}

// ListBySenior returns a senior's medications, active ones first.
func (s *MedicationStore) ListBySenior(seniorID int64) ([]model.Medication, error) {
	rows, err := s.db.Query(
		`SELECT `+medicationCols+` FROM medications WHERE senior_id = ? ORDER BY active DESC, created_at ASC`,
		seniorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()
	return collectMedications(rows)
}

// ListActive returns every active medication across all seniors. The reminder
// scanner works off this set.
func (s *MedicationStore) ListActive() ([]model.Medication, error) {
	rows, err := s.db.Query(
		`SELECT ` + medicationCols + ` FROM medications WHERE active = 1 ORDER BY senior_id, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list active medications: %w", err)
	}
	defer rows.Close()
	return collectMedications(rows)
}

func collectMedications(rows *sql.Rows) ([]model.Medication, error) {
	var meds []model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		meds = append(meds, *m)
	}
	return meds, rows.Err()
}

func (s *MedicationStore) Update(id int64, name, dosage string, times []string, instructions string) (*model.Medication, error) {
	encoded, err := encodeTimes(times)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`UPDATE medications SET name = ?, dosage = ?, times = ?, instructions = ?, updated_at = datetime('now') WHERE id = ?`,
		name, dosage, encoded, instructions, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update medication: %w", err)
	}
	return s.GetByID(id)
}

// Deactivate soft-deletes a medication by clearing the active flag. Existing
// logs keep pointing at it.
func (s *MedicationStore) Deactivate(id int64) error {
	_, err := s.db.Exec(
		`UPDATE medications SET active = 0, updated_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deactivate medication: %w", err)
	}
	return nil
}

func (s *MedicationStore) Reactivate(id int64) error {
	_, err := s.db.Exec(
		`UPDATE medications SET active = 1, updated_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("reactivate medication: %w", err)
	}
	return nil
}
