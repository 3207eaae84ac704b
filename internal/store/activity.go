package store

import (
	"database/sql"
	"fmt"

	"github.com/avikal/sahaay/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Append inserts an activity log entry. Entries are never updated or deleted
// except by the senior cascade.
func (s *ActivityStore) Append(seniorID int64, activityType, detail string) (*model.ActivityLog, error) {
	if detail == "" {
		detail = "{}"
	}
	result, err := s.db.Exec(
		`INSERT INTO activity_logs (senior_id, activity_type, detail) VALUES (?, ?, ?)`,
		seniorID, activityType, detail,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var l model.ActivityLog
	err = s.db.QueryRow(
		`SELECT id, senior_id, activity_type, detail, created_at FROM activity_logs WHERE id = ?`, id,
	).Scan(&l.ID, &l.SeniorID, &l.ActivityType, &l.Detail, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	return &l, nil
}

// ListBySenior returns the most recent entries for a senior, newest first.
func (s *ActivityStore) ListBySenior(seniorID int64, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, senior_id, activity_type, detail, created_at
		 FROM activity_logs WHERE senior_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		seniorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ActivityLog
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(&l.ID, &l.SeniorID, &l.ActivityType, &l.Detail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
