package store

import (
	"database/sql"
	"fmt"

	"github.com/avikal/sahaay/internal/model"
)

type GuardianStore struct {
	db *sql.DB
}

func NewGuardianStore(db *sql.DB) *GuardianStore {
	return &GuardianStore{db: db}
}

const guardianCols = `id, name, email, phone, photo_key, created_at, updated_at`

func scanGuardian(scanner interface{ Scan(...any) error }) (*model.Guardian, error) {
	var g model.Guardian
	err := scanner.Scan(&g.ID, &g.Name, &g.Email, &g.Phone, &g.PhotoKey, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GuardianStore) Create(name, email, phone string) (*model.Guardian, error) {
	result, err := s.db.Exec(
		`INSERT INTO guardians (name, email, phone) VALUES (?, ?, ?)`,
		name, email, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert guardian: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GuardianStore) GetByID(id int64) (*model.Guardian, error) {
	row := s.db.QueryRow(`SELECT `+guardianCols+` FROM guardians WHERE id = ?`, id)
	g, err := scanGuardian(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query guardian: %w", err)
	}
	return g, nil
}

func (s *GuardianStore) GetByEmail(email string) (*model.Guardian, error) {
	row := s.db.QueryRow(`SELECT `+guardianCols+` FROM guardians WHERE email = ?`, email)
	g, err := scanGuardian(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query guardian by email: %w", err)
	}
	return g, nil
}

// GetByPhone matches the stored phone exactly. Callers that need lenient
// matching retry with GetByPhoneDigits.
func (s *GuardianStore) GetByPhone(phone string) (*model.Guardian, error) {
	row := s.db.QueryRow(`SELECT `+guardianCols+` FROM guardians WHERE phone = ?`, phone)
	g, err := scanGuardian(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query guardian by phone: %w", err)
	}
	return g, nil
}

// GetByPhoneDigits matches after stripping formatting characters from the
// stored phone, so "+91 98765-43210" matches "919876543210".
func (s *GuardianStore) GetByPhoneDigits(digits string) (*model.Guardian, error) {
	row := s.db.QueryRow(
		`SELECT `+guardianCols+` FROM guardians
		 WHERE replace(replace(replace(replace(phone, ' ', ''), '-', ''), '+', ''), '(', '') = ?
		    OR replace(replace(replace(replace(replace(phone, ' ', ''), '-', ''), '+', ''), '(', ''), ')', '') = ?`,
		digits, digits,
	)
	g, err := scanGuardian(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query guardian by phone digits: %w", err)
	}
	return g, nil
}

func (s *GuardianStore) Update(id int64, name, phone string) (*model.Guardian, error) {
	_, err := s.db.Exec(
		`UPDATE guardians SET name = ?, phone = ?, updated_at = datetime('now') WHERE id = ?`,
		name, phone, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update guardian: %w", err)
	}
	return s.GetByID(id)
}

func (s *GuardianStore) SetPhotoKey(id int64, key string) error {
	_, err := s.db.Exec(
		`UPDATE guardians SET photo_key = ?, updated_at = datetime('now') WHERE id = ?`,
		key, id,
	)
	if err != nil {
		return fmt.Errorf("set guardian photo key: %w", err)
	}
	return nil
}

func (s *GuardianStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM guardians WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete guardian: %w", err)
	}
	return nil
}

// LinkSenior attaches a senior to a guardian. The first link for a senior
// becomes the primary one.
func (s *GuardianStore) LinkSenior(seniorID, guardianID int64, isPrimary bool) (*model.CareLink, error) {
	var existing int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM care_links WHERE senior_id = ?`, seniorID,
	).Scan(&existing); err != nil {
		return nil, fmt.Errorf("count care links: %w", err)
	}
	if existing == 0 {
		isPrimary = true
	}

	result, err := s.db.Exec(
		`INSERT INTO care_links (senior_id, guardian_id, is_primary) VALUES (?, ?, ?)`,
		seniorID, guardianID, isPrimary,
	)
	if err != nil {
		return nil, fmt.Errorf("insert care link: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var link model.CareLink
	err = s.db.QueryRow(
		`SELECT id, senior_id, guardian_id, is_primary, created_at FROM care_links WHERE id = ?`, id,
	).Scan(&link.ID, &link.SeniorID, &link.GuardianID, &link.IsPrimary, &link.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query care link: %w", err)
	}
	return &link, nil
}

func (s *GuardianStore) UnlinkSenior(seniorID, guardianID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM care_links WHERE senior_id = ? AND guardian_id = ?`,
		seniorID, guardianID,
	)
	if err != nil {
		return fmt.Errorf("delete care link: %w", err)
	}
	return nil
}

// PrimaryGuardianID returns the primary guardian for a senior, or 0 if the
// senior has no links.
func (s *GuardianStore) PrimaryGuardianID(seniorID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT guardian_id FROM care_links WHERE senior_id = ?
		 ORDER BY is_primary DESC, created_at ASC LIMIT 1`,
		seniorID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query primary guardian: %w", err)
	}
	return id, nil
}

// ListForSenior returns all guardians linked to a senior, primary first.
func (s *GuardianStore) ListForSenior(seniorID int64) ([]model.Guardian, error) {
	rows, err := s.db.Query(
		`SELECT g.id, g.name, g.email, g.phone, g.photo_key, g.created_at, g.updated_at
		 FROM guardians g
		 JOIN care_links cl ON cl.guardian_id = g.id
		 WHERE cl.senior_id = ?
		 ORDER BY cl.is_primary DESC, cl.created_at ASC`,
		seniorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list guardians for senior: %w", err)
	}
	defer rows.Close()

	var guardians []model.Guardian
	for rows.Next() {
		g, err := scanGuardian(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guardian: %w", err)
		}
		guardians = append(guardians, *g)
	}
	return guardians, rows.Err()
}
