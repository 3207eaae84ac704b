package reminder

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/avikal/sahaay/internal/database"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
)

type fixture struct {
	db       *sql.DB
	scanner  *Scanner
	notifier *fakeNotifier
	senior   *model.Senior
	guardian *model.Guardian
	meds     *store.MedicationStore
	logs     *store.MedicationLogStore
	notifs   *store.NotificationStore
}

type fakeNotifier struct {
	delivered []*model.Notification
}

func (f *fakeNotifier) Notify(n *model.Notification) {
	f.delivered = append(f.delivered, n)
}

func setupScanner(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gs := store.NewGuardianStore(db)
	ss := store.NewSeniorStore(db)
	ms := store.NewMedicationStore(db)
	ls := store.NewMedicationLogStore(db)
	ns := store.NewNotificationStore(db)

	guardian, err := gs.Create("Avikal", "avikal@example.com", "+91 99999 88888")
	if err != nil {
		t.Fatalf("create guardian: %v", err)
	}
	senior, err := ss.Create("Kamala", "1948-03-12", "")
	if err != nil {
		t.Fatalf("create senior: %v", err)
	}
	if _, err := gs.LinkSenior(senior.ID, guardian.ID, true); err != nil {
		t.Fatalf("link senior: %v", err)
	}

	notifier := &fakeNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scanner := NewScanner(ms, ls, ss, gs, ns, notifier, logger)

	return &fixture{
		db:       db,
		scanner:  scanner,
		notifier: notifier,
		senior:   senior,
		guardian: guardian,
		meds:     ms,
		logs:     ls,
		notifs:   ns,
	}
}

// at pins the scanner clock to a specific local time of day.
func (f *fixture) at(hour, min int) time.Time {
	now := time.Date(2026, 8, 28, hour, min, 0, 0, Zone())
	f.scanner.SetNow(func() time.Time { return now })
	return now
}

func (f *fixture) countLogs(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM medication_logs").Scan(&n); err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}

func (f *fixture) countNotifications(t *testing.T, urgency int) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE urgency = ?", urgency).Scan(&n); err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

func TestDueWindowBoundary(t *testing.T) {
	cases := []struct {
		name string
		min  int
		due  bool
	}{
		{"exactly 15 minutes after", 15, true},
		{"16 minutes after", 16, false},
		{"exactly 15 minutes before", -15, true},
		{"16 minutes before", -16, false},
		{"on the minute", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupScanner(t)
			if _, err := f.meds.Create(f.senior.ID, "Metformin", "500mg", []string{"10:00"}, ""); err != nil {
				t.Fatalf("create medication: %v", err)
			}

			now := time.Date(2026, 8, 28, 10, 0, 0, 0, Zone()).Add(time.Duration(tc.min) * time.Minute)
			f.scanner.SetNow(func() time.Time { return now })

			summary := f.scanner.RunOnce()

			wantDue := 0
			if tc.due {
				wantDue = 1
			}
			if summary.MedicationsDue != wantDue {
				t.Errorf("medications_due = %d, want %d", summary.MedicationsDue, wantDue)
			}
			if got := f.countLogs(t); got != wantDue {
				t.Errorf("log count = %d, want %d", got, wantDue)
			}
		})
	}
}

func TestDueScanSecondRunIsNoOp(t *testing.T) {
	f := setupScanner(t)
	f.meds.Create(f.senior.ID, "Metformin", "500mg", []string{"10:00"}, "after breakfast")

	f.at(10, 10)
	summary := f.scanner.RunOnce()
	if summary.MedicationsDue != 1 {
		t.Fatalf("first run medications_due = %d, want 1", summary.MedicationsDue)
	}
	if got := f.countLogs(t); got != 1 {
		t.Fatalf("log count = %d, want 1", got)
	}
	if got := f.countNotifications(t, model.UrgencyNormal); got != 1 {
		t.Fatalf("urgency-2 notification count = %d, want 1", got)
	}

	// Two minutes later the existence check finds the just-created row.
	f.at(10, 12)
	summary = f.scanner.RunOnce()
	if summary.MedicationsDue != 0 {
		t.Errorf("second run medications_due = %d, want 0", summary.MedicationsDue)
	}
	if got := f.countLogs(t); got != 1 {
		t.Errorf("log count after second run = %d, want 1", got)
	}
	if got := f.countNotifications(t, model.UrgencyNormal); got != 1 {
		t.Errorf("notification count after second run = %d, want 1", got)
	}
}

func TestDueNotificationContent(t *testing.T) {
	f := setupScanner(t)
	f.meds.Create(f.senior.ID, "Metformin", "500mg", []string{"10:00"}, "")

	f.at(10, 10)
	f.scanner.RunOnce()

	if len(f.notifier.delivered) != 1 {
		t.Fatalf("delivered %d notifications, want 1", len(f.notifier.delivered))
	}
	n := f.notifier.delivered[0]
	if n.Title != "💊 Medicine Time for Kamala" {
		t.Errorf("title = %q", n.Title)
	}
	if n.Urgency != model.UrgencyNormal {
		t.Errorf("urgency = %d, want %d", n.Urgency, model.UrgencyNormal)
	}
	if n.Type != model.NotifTypeMedicationDue {
		t.Errorf("type = %q", n.Type)
	}
	if n.GuardianID == nil || *n.GuardianID != f.guardian.ID {
		t.Error("notification should be addressed to the primary guardian")
	}
}

func TestMissedThresholdBoundary(t *testing.T) {
	f := setupScanner(t)
	med, _ := f.meds.Create(f.senior.ID, "Metformin", "500mg", []string{"10:00"}, "")

	now := f.at(11, 0)

	// Exactly 60 minutes old: not yet missed.
	logEntry, err := f.logs.Create(med.ID, f.senior.ID, now.Add(-60*time.Minute), model.LogStatusPending)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}

	summary := f.scanner.RunOnce()
	if summary.MissedUpdated != 0 {
		t.Errorf("missed_updated at 60 minutes = %d, want 0", summary.MissedUpdated)
	}
	got, _ := f.logs.GetByID(logEntry.ID)
	if got.Status != model.LogStatusPending {
		t.Errorf("status at 60 minutes = %q, want pending", got.Status)
	}

	// One minute later it crosses the threshold.
	f.at(11, 1)
	summary = f.scanner.RunOnce()
	if summary.MissedUpdated != 1 {
		t.Errorf("missed_updated at 61 minutes = %d, want 1", summary.MissedUpdated)
	}
	got, _ = f.logs.GetByID(logEntry.ID)
	if got.Status != model.LogStatusMissed {
		t.Errorf("status at 61 minutes = %q, want missed", got.Status)
	}
	if got := f.countNotifications(t, model.UrgencyHigh); got != 1 {
		t.Errorf("urgency-1 notification count = %d, want 1", got)
	}

	// The status flip removes the row from the pending set; re-running does
	// not flag it again.
	f.at(11, 30)
	summary = f.scanner.RunOnce()
	if summary.MissedUpdated != 0 {
		t.Errorf("missed_updated on re-run = %d, want 0", summary.MissedUpdated)
	}
	if got := f.countNotifications(t, model.UrgencyHigh); got != 1 {
		t.Errorf("urgency-1 notification count after re-run = %d, want 1", got)
	}
}

func TestInactiveMedicationSkipped(t *testing.T) {
	f := setupScanner(t)
	med, _ := f.meds.Create(f.senior.ID, "Metformin", "500mg", []string{"10:00"}, "")
	f.meds.Deactivate(med.ID)

	f.at(10, 10)
	summary := f.scanner.RunOnce()
	if summary.MedicationsDue != 0 {
		t.Errorf("medications_due = %d, want 0 for inactive medication", summary.MedicationsDue)
	}
}

func TestMultipleTimesOneDue(t *testing.T) {
	f := setupScanner(t)
	f.meds.Create(f.senior.ID, "Amlodipine", "5mg", []string{"08:00", "20:00"}, "")

	f.at(8, 5)
	summary := f.scanner.RunOnce()
	if summary.MedicationsDue != 1 {
		t.Errorf("medications_due = %d, want 1 (only the morning slot)", summary.MedicationsDue)
	}
}

func TestScannerSummaryCheckedAt(t *testing.T) {
	f := setupScanner(t)
	now := f.at(14, 30)

	summary := f.scanner.RunOnce()
	if !summary.CheckedAt.Equal(now) {
		t.Errorf("checked_at = %v, want %v", summary.CheckedAt, now)
	}
	if summary.CheckedAt.Location() != Zone() {
		t.Errorf("checked_at zone = %v, want app zone", summary.CheckedAt.Location())
	}
}
