package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/avikal/sahaay/internal/model"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionCols = `id, token, guardian_id, senior_id, expires_at, created_at`

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var guardianID, seniorID sql.NullInt64
	err := scanner.Scan(&s.ID, &s.Token, &guardianID, &seniorID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if guardianID.Valid {
		s.GuardianID = &guardianID.Int64
	}
	if seniorID.Valid {
		s.SeniorID = &seniorID.Int64
	}
	return &s, nil
}

func (s *SessionStore) create(guardianID, seniorID *int64, ttl time.Duration) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)
	expiresAt := time.Now().UTC().Add(ttl)

	var gID, sID sql.NullInt64
	if guardianID != nil {
		gID = sql.NullInt64{Int64: *guardianID, Valid: true}
	}
	if seniorID != nil {
		sID = sql.NullInt64{Int64: *seniorID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO sessions (token, guardian_id, senior_id, expires_at) VALUES (?, ?, ?, ?)`,
		token, gID, sID, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// CreateForGuardian creates a guardian session with a crypto-random token and
// 90-day expiry.
func (s *SessionStore) CreateForGuardian(guardianID int64) (*model.Session, error) {
	return s.create(&guardianID, nil, 90*24*time.Hour)
}

// CreateForSenior creates a senior session. Senior devices stay signed in for
// a year; re-entering the PIN on every open defeats the simplified UI.
func (s *SessionStore) CreateForSenior(seniorID int64) (*model.Session, error) {
	return s.create(nil, &seniorID, 365*24*time.Hour)
}

// GetByToken returns the session for the given token, or nil if expired or not found.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > datetime('now')`,
		token,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *SessionStore) DeleteByGuardianID(guardianID int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE guardian_id = ?`, guardianID)
	if err != nil {
		return fmt.Errorf("delete sessions by guardian: %w", err)
	}
	return nil
}
