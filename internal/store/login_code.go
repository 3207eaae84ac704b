package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/avikal/sahaay/internal/model"
)

type LoginCodeStore struct {
	db *sql.DB
}

func NewLoginCodeStore(db *sql.DB) *LoginCodeStore {
	return &LoginCodeStore{db: db}
}

const loginCodeCols = `id, code, email, purpose, expires_at, used_at, attempts, created_at`

func scanLoginCode(scanner interface{ Scan(...any) error }) (*model.LoginCode, error) {
	var lc model.LoginCode
	var usedAt sql.NullTime
	err := scanner.Scan(&lc.ID, &lc.Code, &lc.Email, &lc.Purpose, &lc.ExpiresAt, &usedAt, &lc.Attempts, &lc.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		lc.UsedAt = &usedAt.Time
	}
	return &lc, nil
}

// generateCode returns a 6-digit numeric code (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create generates a new 6-digit code with a 15-minute expiry. Any previous
// pending codes for the same email are invalidated first.
func (s *LoginCodeStore) Create(email, purpose string) (*model.LoginCode, error) {
	_, err := s.db.Exec(
		`UPDATE login_codes SET used_at = datetime('now') WHERE email = ? AND used_at IS NULL AND expires_at > datetime('now')`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(15 * time.Minute)

	result, err := s.db.Exec(
		`INSERT INTO login_codes (code, email, purpose, expires_at) VALUES (?, ?, ?, ?)`,
		code, email, purpose, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert login code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+loginCodeCols+` FROM login_codes WHERE id = ?`, id)
	return scanLoginCode(row)
}

// GetByEmailAndCode returns the matching valid code, or nil if not
// found/expired/used.
func (s *LoginCodeStore) GetByEmailAndCode(email, code string) (*model.LoginCode, error) {
	row := s.db.QueryRow(
		`SELECT `+loginCodeCols+` FROM login_codes
		 WHERE email = ? AND code = ? AND expires_at > datetime('now') AND used_at IS NULL`,
		email, code,
	)
	lc, err := scanLoginCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get login code: %w", err)
	}
	return lc, nil
}

// GetLatestByEmail returns the most recent valid code for an email, used for
// attempt-count enforcement against brute forcing.
func (s *LoginCodeStore) GetLatestByEmail(email string) (*model.LoginCode, error) {
	row := s.db.QueryRow(
		`SELECT `+loginCodeCols+` FROM login_codes
		 WHERE email = ? AND expires_at > datetime('now') AND used_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`,
		email,
	)
	lc, err := scanLoginCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest login code: %w", err)
	}
	return lc, nil
}

// IncrementAttempts increments the attempt count and returns the new value.
func (s *LoginCodeStore) IncrementAttempts(id int64) (int, error) {
	_, err := s.db.Exec(`UPDATE login_codes SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}

	var attempts int
	err = s.db.QueryRow(`SELECT attempts FROM login_codes WHERE id = ?`, id).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	return attempts, nil
}

func (s *LoginCodeStore) MarkUsed(id int64) error {
	_, err := s.db.Exec(`UPDATE login_codes SET used_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark login code used: %w", err)
	}
	return nil
}

func (s *LoginCodeStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM login_codes WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired login codes: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
