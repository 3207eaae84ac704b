package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avikal/sahaay/internal/model"
)

type MedicationLogStore struct {
	db *sql.DB
}

func NewMedicationLogStore(db *sql.DB) *MedicationLogStore {
	return &MedicationLogStore{db: db}
}

const medicationLogCols = `id, medication_id, senior_id, scheduled_time, status, taken_at, snoozed_until, created_at`

func scanMedicationLog(scanner interface{ Scan(...any) error }) (*model.MedicationLog, error) {
	var l model.MedicationLog
	var takenAt, snoozedUntil sql.NullTime
	err := scanner.Scan(&l.ID, &l.MedicationID, &l.SeniorID, &l.ScheduledTime, &l.Status, &takenAt, &snoozedUntil, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if takenAt.Valid {
		l.TakenAt = &takenAt.Time
	}
	if snoozedUntil.Valid {
		l.SnoozedUntil = &snoozedUntil.Time
	}
	return &l, nil
}

// Create inserts a log with the given status and scheduled time.
func (s *MedicationLogStore) Create(medicationID, seniorID int64, scheduledTime time.Time, status string) (*model.MedicationLog, error) {
	result, err := s.db.Exec(
		`INSERT INTO medication_logs (medication_id, senior_id, scheduled_time, status) VALUES (?, ?, ?, ?)`,
		medicationID, seniorID, scheduledTime.UTC(), status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MedicationLogStore) GetByID(id int64) (*model.MedicationLog, error) {
	row := s.db.QueryRow(`SELECT `+medicationLogCols+` FROM medication_logs WHERE id = ?`, id)
	l, err := scanMedicationLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query medication log: %w", err)
	}
	return l, nil
}

// ExistsInWindow reports whether any log exists for the medication and senior
// with a scheduled time inside [start, end]. This pre-insert check is the only
// guard against duplicate reminder logs.
func (s *MedicationLogStore) ExistsInWindow(medicationID, seniorID int64, start, end time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM medication_logs
		 WHERE medication_id = ? AND senior_id = ? AND scheduled_time >= ? AND scheduled_time <= ?`,
		medicationID, seniorID, start.UTC(), end.UTC(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check log exists: %w", err)
	}
	return count > 0, nil
}

// ListPendingBefore returns pending logs whose scheduled time is strictly
// before the cutoff. The missed sweep uses this.
func (s *MedicationLogStore) ListPendingBefore(cutoff time.Time) ([]model.MedicationLog, error) {
	rows, err := s.db.Query(
		`SELECT `+medicationLogCols+` FROM medication_logs
		 WHERE status = ? AND scheduled_time < ?
		 ORDER BY scheduled_time ASC`,
		model.LogStatusPending, cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending logs: %w", err)
	}
	defer rows.Close()
	return collectMedicationLogs(rows)
}

// ListBySeniorDay returns all logs for a senior within a calendar day's
// bounds, joined with the medication's display fields.
func (s *MedicationLogStore) ListBySeniorDay(seniorID int64, dayStart, dayEnd time.Time) ([]model.ScheduleEntry, error) {
	rows, err := s.db.Query(
		`SELECT l.id, l.medication_id, l.senior_id, l.scheduled_time, l.status, l.taken_at, l.snoozed_until, l.created_at,
		        m.name, m.dosage, m.instructions
		 FROM medication_logs l
		 JOIN medications m ON m.id = l.medication_id
		 WHERE l.senior_id = ? AND l.scheduled_time >= ? AND l.scheduled_time <= ?
		 ORDER BY l.scheduled_time ASC`,
		seniorID, dayStart.UTC(), dayEnd.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list logs for day: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		var e model.ScheduleEntry
		var takenAt, snoozedUntil sql.NullTime
		err := rows.Scan(
			&e.ID, &e.MedicationID, &e.SeniorID, &e.ScheduledTime, &e.Status, &takenAt, &snoozedUntil, &e.CreatedAt,
			&e.MedicationName, &e.Dosage, &e.Instructions,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		if takenAt.Valid {
			e.TakenAt = &takenAt.Time
		}
		if snoozedUntil.Valid {
			e.SnoozedUntil = &snoozedUntil.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkTaken sets the log to taken unconditionally. The prior status is not
// checked, so a missed log can be overwritten after the fact.
func (s *MedicationLogStore) MarkTaken(id int64, takenAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE medication_logs SET status = ?, taken_at = ? WHERE id = ?`,
		model.LogStatusTaken, takenAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark log taken: %w", err)
	}
	return nil
}

// MarkSnoozed sets the log to snoozed until the given time, unconditionally.
func (s *MedicationLogStore) MarkSnoozed(id int64, until time.Time) error {
	_, err := s.db.Exec(
		`UPDATE medication_logs SET status = ?, snoozed_until = ? WHERE id = ?`,
		model.LogStatusSnoozed, until.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark log snoozed: %w", err)
	}
	return nil
}

// MarkMissed flips a log to missed.
func (s *MedicationLogStore) MarkMissed(id int64) error {
	_, err := s.db.Exec(
		`UPDATE medication_logs SET status = ? WHERE id = ?`,
		model.LogStatusMissed, id,
	)
	if err != nil {
		return fmt.Errorf("mark log missed: %w", err)
	}
	return nil
}

func collectMedicationLogs(rows *sql.Rows) ([]model.MedicationLog, error) {
	var logs []model.MedicationLog
	for rows.Next() {
		l, err := scanMedicationLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}
