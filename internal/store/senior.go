package store

import (
	"database/sql"
	"fmt"

	"github.com/avikal/sahaay/internal/model"
)

type SeniorStore struct {
	db *sql.DB
}

func NewSeniorStore(db *sql.DB) *SeniorStore {
	return &SeniorStore{db: db}
}

const seniorCols = `id, name, date_of_birth, phone, photo_key, pin IS NOT NULL, active, created_at, updated_at`

func scanSenior(scanner interface{ Scan(...any) error }) (*model.Senior, error) {
	var m model.Senior
	err := scanner.Scan(&m.ID, &m.Name, &m.DateOfBirth, &m.Phone, &m.PhotoKey, &m.HasPIN, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SeniorStore) Create(name, dateOfBirth, phone string) (*model.Senior, error) {
	result, err := s.db.Exec(
		`INSERT INTO seniors (name, date_of_birth, phone) VALUES (?, ?, ?)`,
		name, dateOfBirth, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert senior: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *SeniorStore) GetByID(id int64) (*model.Senior, error) {
	row := s.db.QueryRow(`SELECT `+seniorCols+` FROM seniors WHERE id = ?`, id)
	m, err := scanSenior(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query senior: %w", err)
	}
	return m, nil
}

// ListForGuardian returns the seniors linked to a guardian.
func (s *SeniorStore) ListForGuardian(guardianID int64) ([]model.Senior, error) {
	rows, err := s.db.Query(
		`SELECT sr.id, sr.name, sr.date_of_birth, sr.phone, sr.photo_key, sr.pin IS NOT NULL, sr.active, sr.created_at, sr.updated_at
		 FROM seniors sr
		 JOIN care_links cl ON cl.senior_id = sr.id
		 WHERE cl.guardian_id = ?
		 ORDER BY sr.created_at ASC`,
		guardianID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seniors for guardian: %w", err)
	}
	defer rows.Close()

	var seniors []model.Senior
	for rows.Next() {
		m, err := scanSenior(rows)
		if err != nil {
			return nil, fmt.Errorf("scan senior: %w", err)
		}
		seniors = append(seniors, *m)
	}
	return seniors, rows.Err()
}

func (s *SeniorStore) Update(id int64, name, dateOfBirth, phone string) (*model.Senior, error) {
	_, err := s.db.Exec(
		`UPDATE seniors SET name = ?, date_of_birth = ?, phone = ?, updated_at = datetime('now') WHERE id = ?`,
		name, dateOfBirth, phone, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update senior: %w", err)
	}
	return s.GetByID(id)
}

func (s *SeniorStore) SetPhotoKey(id int64, key string) error {
	_, err := s.db.Exec(
		`UPDATE seniors SET photo_key = ?, updated_at = datetime('now') WHERE id = ?`,
		key, id,
	)
	if err != nil {
		return fmt.Errorf("set senior photo key: %w", err)
	}
	return nil
}

func (s *SeniorStore) SetPIN(id int64, hashedPIN string) error {
	_, err := s.db.Exec(`UPDATE seniors SET pin = ?, updated_at = datetime('now') WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *SeniorStore) ClearPIN(id int64) error {
	_, err := s.db.Exec(`UPDATE seniors SET pin = NULL, updated_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

func (s *SeniorStore) GetPINHash(id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRow(`SELECT pin FROM seniors WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("senior not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}

// Delete removes a senior and everything owned by them. The per-table order
// mirrors the app's account-deletion sequence; the whole thing runs in one
// transaction so a mid-sequence failure leaves no partial state.
func (s *SeniorStore) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM activity_logs WHERE senior_id = ?`,
		`DELETE FROM health_vitals WHERE senior_id = ?`,
		`DELETE FROM medication_logs WHERE senior_id = ?`,
		`DELETE FROM medications WHERE senior_id = ?`,
		`DELETE FROM notifications WHERE senior_id = ?`,
		`DELETE FROM sessions WHERE senior_id = ?`,
		`DELETE FROM care_links WHERE senior_id = ?`,
		`DELETE FROM seniors WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("cascade delete senior: %w", err)
		}
	}

	return tx.Commit()
}
