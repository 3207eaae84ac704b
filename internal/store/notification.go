package store

import (
	"database/sql"
	"fmt"

	"github.com/avikal/sahaay/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationCols = `id, type, title, message, senior_id, guardian_id, urgency, read, created_at`

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var seniorID, guardianID sql.NullInt64
	err := scanner.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &seniorID, &guardianID, &n.Urgency, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if seniorID.Valid {
		n.SeniorID = &seniorID.Int64
	}
	if guardianID.Valid {
		n.GuardianID = &guardianID.Int64
	}
	return &n, nil
}

func (s *NotificationStore) Create(notifType, title, message string, seniorID, guardianID *int64, urgency int) (*model.Notification, error) {
	var sID, gID sql.NullInt64
	if seniorID != nil {
		sID = sql.NullInt64{Int64: *seniorID, Valid: true}
	}
	if guardianID != nil {
		gID = sql.NullInt64{Int64: *guardianID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO notifications (type, title, message, senior_id, guardian_id, urgency) VALUES (?, ?, ?, ?, ?, ?)`,
		notifType, title, message, sID, gID, urgency,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *NotificationStore) GetByID(id int64) (*model.Notification, error) {
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query notification: %w", err)
	}
	return n, nil
}

// ListForGuardian returns a guardian's notifications, newest first.
func (s *NotificationStore) ListForGuardian(guardianID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications
		 WHERE guardian_id = ? ORDER BY created_at DESC LIMIT ?`,
		guardianID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifs = append(notifs, *n)
	}
	return notifs, rows.Err()
}

func (s *NotificationStore) UnreadCount(guardianID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE guardian_id = ? AND read = 0`,
		guardianID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationStore) MarkRead(id int64) error {
	_, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(guardianID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET read = 1 WHERE guardian_id = ? AND read = 0`,
		guardianID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
