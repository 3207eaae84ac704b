package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
)

const (
	// dueWindow is the symmetric window around a configured dose time. A
	// medication is due when |now - T| <= dueWindow.
	dueWindow = 15 * time.Minute

	// missedAfter is how long a pending log may sit before it is flagged
	// missed. Fixed for all medication types.
	missedAfter = time.Hour

	defaultInterval = 60 * time.Second
)

// appZone is the product's deployment locale. Dose times are stored as
// facility-local clock times, so the scan clock must match.
var appZone = time.FixedZone("IST", 5*3600+30*60)

// Summary reports what one scan did.
type Summary struct {
	MedicationsDue int       `json:"medications_due"`
	MissedUpdated  int       `json:"missed_updated"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Notifier fans a notification out to its guardian (push, email, realtime).
type Notifier interface {
	Notify(n *model.Notification)
}

// Scanner periodically turns configured dose times into pending medication
// logs and flags stale pending logs as missed.
type Scanner struct {
	mu            sync.RWMutex
	medications   *store.MedicationStore
	logs          *store.MedicationLogStore
	seniors       *store.SeniorStore
	guardians     *store.GuardianStore
	notifications *store.NotificationStore
	notifier      Notifier
	logger        *slog.Logger
	interval      time.Duration
	now           func() time.Time
	cancel        context.CancelFunc
	done          chan struct{}
}

func NewScanner(
	medications *store.MedicationStore,
	logs *store.MedicationLogStore,
	seniors *store.SeniorStore,
	guardians *store.GuardianStore,
	notifications *store.NotificationStore,
	notifier Notifier,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		medications:   medications,
		logs:          logs,
		seniors:       seniors,
		guardians:     guardians,
		notifications: notifications,
		notifier:      notifier,
		logger:        logger,
		interval:      defaultInterval,
		now:           time.Now,
	}
}

// Start begins the scan loop.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce()
			}
		}
	}()
}

// Stop gracefully stops the scan loop.
func (s *Scanner) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunOnce performs a single scan: the due pass and the missed sweep.
// Per-item failures are logged and skipped so one bad row doesn't starve the
// rest of the run.
func (s *Scanner) RunOnce() Summary {
	now := s.now().In(appZone)
	summary := Summary{CheckedAt: now}

	summary.MedicationsDue = s.scanDue(now)
	summary.MissedUpdated = s.sweepMissed(now)

	s.logger.Info("scan complete",
		"medications_due", summary.MedicationsDue,
		"missed_updated", summary.MissedUpdated,
	)
	return summary
}

// scanDue creates a pending log and a normal-urgency notification for each
// (medication, time) pair inside the due window, unless a log already exists
// for that medication today. The existence check is the only duplicate guard;
// two overlapping scans can both pass it.
func (s *Scanner) scanDue(now time.Time) int {
	meds, err := s.medications.ListActive()
	if err != nil {
		s.logger.Error("list active medications", "error", err)
		return 0
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, appZone)
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, appZone)

	nowMinutes := now.Hour()*60 + now.Minute()

	due := 0
	for _, med := range meds {
		for _, t := range med.Times {
			scheduled, ok := timeOfDayOn(now, t)
			if !ok {
				s.logger.Warn("bad dose time", "medication_id", med.ID, "time", t)
				continue
			}
			// The comparison is minute-of-day based, so seconds within the
			// scan instant never move a dose across the boundary.
			medMinutes := scheduled.Hour()*60 + scheduled.Minute()
			if absInt(nowMinutes-medMinutes) > int(dueWindow/time.Minute) {
				continue
			}

			exists, err := s.logs.ExistsInWindow(med.ID, med.SeniorID, dayStart, dayEnd)
			if err != nil {
				s.logger.Error("check existing log", "medication_id", med.ID, "error", err)
				continue
			}
			if exists {
				continue
			}

			if _, err := s.logs.Create(med.ID, med.SeniorID, scheduled, model.LogStatusPending); err != nil {
				s.logger.Error("create pending log", "medication_id", med.ID, "error", err)
				continue
			}
			due++

			s.notifyGuardian(med.SeniorID, model.NotifTypeMedicationDue, model.UrgencyNormal,
				"💊 Medicine Time", fmt.Sprintf("%s (%s) is due now", med.Name, med.Dosage))
		}
	}
	return due
}

// sweepMissed flips pending logs older than the missed threshold and emits a
// high-urgency notification for each. The status flip removes the row from
// the pending set, so a log is flagged missed exactly once.
func (s *Scanner) sweepMissed(now time.Time) int {
	stale, err := s.logs.ListPendingBefore(now.Add(-missedAfter))
	if err != nil {
		s.logger.Error("list stale pending logs", "error", err)
		return 0
	}

	missed := 0
	for _, l := range stale {
		if err := s.logs.MarkMissed(l.ID); err != nil {
			s.logger.Error("mark log missed", "log_id", l.ID, "error", err)
			continue
		}
		missed++

		med, err := s.medications.GetByID(l.MedicationID)
		name := "a medication"
		if err == nil && med != nil {
			name = med.Name
		}
		s.notifyGuardian(l.SeniorID, model.NotifTypeMedicationMissed, model.UrgencyHigh,
			"⚠️ Missed Dose", fmt.Sprintf("%s scheduled at %s was not taken", name,
				l.ScheduledTime.In(appZone).Format("3:04 PM")))
	}
	return missed
}

func (s *Scanner) notifyGuardian(seniorID int64, notifType string, urgency int, title, message string) {
	senior, err := s.seniors.GetByID(seniorID)
	if err != nil || senior == nil {
		s.logger.Error("load senior for notification", "senior_id", seniorID, "error", err)
		return
	}
	guardianID, err := s.guardians.PrimaryGuardianID(seniorID)
	if err != nil {
		s.logger.Error("resolve primary guardian", "senior_id", seniorID, "error", err)
		return
	}

	title = fmt.Sprintf("%s for %s", title, senior.Name)
	var gID *int64
	if guardianID != 0 {
		gID = &guardianID
	}
	n, err := s.notifications.Create(notifType, title, message, &seniorID, gID, urgency)
	if err != nil {
		s.logger.Error("create notification", "senior_id", seniorID, "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

// timeOfDayOn resolves an "HH:MM" string onto the calendar date of ref.
func timeOfDayOn(ref time.Time, hhmm string) (time.Time, bool) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), parsed.Hour(), parsed.Minute(), 0, 0, appZone), true
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// SetNow overrides the scanner's clock. Tests use this to pin the instant.
func (s *Scanner) SetNow(now func() time.Time) {
	s.now = now
}

// SetInterval overrides the tick interval before Start.
func (s *Scanner) SetInterval(d time.Duration) {
	s.interval = d
}

// Zone returns the fixed scan zone.
func Zone() *time.Location {
	return appZone
}
