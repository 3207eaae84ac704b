package store

import (
	"testing"
	"time"

	"github.com/avikal/sahaay/internal/model"
)

func TestExistsInWindow(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)
	ms := NewMedicationStore(db)
	ls := NewMedicationLogStore(db)

	senior, _ := ss.Create("Kamala", "", "")
	med, _ := ms.Create(senior.ID, "Metformin", "500mg", []string{"10:00"}, "")

	day := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC)

	exists, err := ls.ExistsInWindow(med.ID, senior.ID, dayStart, dayEnd)
	if err != nil {
		t.Fatalf("exists in window: %v", err)
	}
	if exists {
		t.Error("no log yet, expected false")
	}

	if _, err := ls.Create(med.ID, senior.ID, day, model.LogStatusPending); err != nil {
		t.Fatalf("create log: %v", err)
	}

	exists, _ = ls.ExistsInWindow(med.ID, senior.ID, dayStart, dayEnd)
	if !exists {
		t.Error("expected log within the same day")
	}

	// The next calendar day is a fresh window.
	nextStart := dayStart.AddDate(0, 0, 1)
	nextEnd := dayEnd.AddDate(0, 0, 1)
	exists, _ = ls.ExistsInWindow(med.ID, senior.ID, nextStart, nextEnd)
	if exists {
		t.Error("log should not leak into the next day's window")
	}
}

func TestMarkTakenOverwritesMissed(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)
	ms := NewMedicationStore(db)
	ls := NewMedicationLogStore(db)

	senior, _ := ss.Create("Kamala", "", "")
	med, _ := ms.Create(senior.ID, "Metformin", "500mg", []string{"10:00"}, "")
	logEntry, _ := ls.Create(med.ID, senior.ID, time.Now().Add(-2*time.Hour), model.LogStatusPending)

	if err := ls.MarkMissed(logEntry.ID); err != nil {
		t.Fatalf("mark missed: %v", err)
	}

	// Transitions do not check prior state: a missed log can be overwritten
	// after the fact.
	takenAt := time.Now()
	if err := ls.MarkTaken(logEntry.ID, takenAt); err != nil {
		t.Fatalf("mark taken: %v", err)
	}

	got, _ := ls.GetByID(logEntry.ID)
	if got.Status != model.LogStatusTaken {
		t.Errorf("status = %q, want taken", got.Status)
	}
	if got.TakenAt == nil {
		t.Error("taken_at should be set")
	}
}

func TestListPendingBefore(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)
	ms := NewMedicationStore(db)
	ls := NewMedicationLogStore(db)

	senior, _ := ss.Create("Kamala", "", "")
	med, _ := ms.Create(senior.ID, "Metformin", "500mg", []string{"10:00"}, "")

	cutoff := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	stale, _ := ls.Create(med.ID, senior.ID, cutoff.Add(-time.Minute), model.LogStatusPending)
	ls.Create(med.ID, senior.ID, cutoff, model.LogStatusPending)          // exactly at cutoff: excluded
	ls.Create(med.ID, senior.ID, cutoff.Add(time.Minute), model.LogStatusPending)

	taken, _ := ls.Create(med.ID, senior.ID, cutoff.Add(-time.Hour), model.LogStatusPending)
	ls.MarkTaken(taken.ID, time.Now())

	got, err := ls.ListPendingBefore(cutoff)
	if err != nil {
		t.Fatalf("list pending before: %v", err)
	}
	if len(got) != 1 || got[0].ID != stale.ID {
		t.Errorf("got %d stale logs, want exactly the one before the cutoff", len(got))
	}
}

func TestListBySeniorDay(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)
	ms := NewMedicationStore(db)
	ls := NewMedicationLogStore(db)

	senior, _ := ss.Create("Kamala", "", "")
	med, _ := ms.Create(senior.ID, "Metformin", "500mg", []string{"10:00"}, "after breakfast")

	day := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	ls.Create(med.ID, senior.ID, day, model.LogStatusPending)

	entries, err := ls.ListBySeniorDay(senior.ID,
		time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("list by senior day: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].MedicationName != "Metformin" || entries[0].Dosage != "500mg" {
		t.Errorf("join fields missing: %+v", entries[0])
	}
}
