package store

import (
	"testing"
	"time"

	"github.com/avikal/sahaay/internal/model"
)

func TestSeniorCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)

	senior, err := ss.Create("Kamala Devi", "1948-03-12", "+91 98765 43210")
	if err != nil {
		t.Fatalf("create senior: %v", err)
	}
	if senior.ID == 0 {
		t.Error("expected non-zero id")
	}
	if senior.HasPIN {
		t.Error("new senior should not have a PIN")
	}
	if !senior.Active {
		t.Error("new senior should be active")
	}

	got, err := ss.GetByID(senior.ID)
	if err != nil {
		t.Fatalf("get senior: %v", err)
	}
	if got == nil || got.Name != "Kamala Devi" {
		t.Errorf("got %+v, want name Kamala Devi", got)
	}
}

func TestSeniorPINLifecycle(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)

	senior, _ := ss.Create("Raman", "", "")

	if err := ss.SetPIN(senior.ID, "$2a$10$fakehash"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	got, _ := ss.GetByID(senior.ID)
	if !got.HasPIN {
		t.Error("expected HasPIN after SetPIN")
	}

	hash, err := ss.GetPINHash(senior.ID)
	if err != nil {
		t.Fatalf("get pin hash: %v", err)
	}
	if hash != "$2a$10$fakehash" {
		t.Errorf("hash = %q", hash)
	}

	if err := ss.ClearPIN(senior.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	got, _ = ss.GetByID(senior.ID)
	if got.HasPIN {
		t.Error("expected HasPIN false after ClearPIN")
	}
}

func TestSeniorDeleteCascade(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)
	gs := NewGuardianStore(db)
	ms := NewMedicationStore(db)
	ls := NewMedicationLogStore(db)
	as := NewActivityStore(db)
	vs := NewVitalStore(db)
	ns := NewNotificationStore(db)
	sess := NewSessionStore(db)

	guardian, _ := gs.Create("Avikal", "avikal@example.com", "+91 99999 88888")
	senior, _ := ss.Create("Kamala Devi", "1948-03-12", "")
	if _, err := gs.LinkSenior(senior.ID, guardian.ID, true); err != nil {
		t.Fatalf("link senior: %v", err)
	}

	med, _ := ms.Create(senior.ID, "Metformin", "500mg", []string{"10:00"}, "after breakfast")
	ls.Create(med.ID, senior.ID, time.Now(), model.LogStatusPending)
	as.Append(senior.ID, model.ActivityAppOpened, "{}")
	vs.Record(senior.ID, model.VitalHeartRate, "72", "bpm", time.Now())
	ns.Create(model.NotifTypeMedicationDue, "t", "m", &senior.ID, &guardian.ID, model.UrgencyNormal)
	sess.CreateForSenior(senior.ID)

	if err := ss.Delete(senior.ID); err != nil {
		t.Fatalf("delete senior: %v", err)
	}

	for _, table := range []string{
		"activity_logs", "health_vitals", "medication_logs", "medications",
		"notifications", "sessions", "care_links",
	} {
		if n := countRows(t, db, table, senior.ID); n != 0 {
			t.Errorf("%s: %d rows remain after cascade", table, n)
		}
	}

	got, _ := ss.GetByID(senior.ID)
	if got != nil {
		t.Error("senior row should be gone")
	}

	// The guardian is untouched.
	g, _ := gs.GetByID(guardian.ID)
	if g == nil {
		t.Error("guardian should survive senior deletion")
	}
}

func TestListForGuardian(t *testing.T) {
	db := openTestDB(t)
	ss := NewSeniorStore(db)
	gs := NewGuardianStore(db)

	guardian, _ := gs.Create("Avikal", "a@example.com", "")
	other, _ := gs.Create("Meera", "m@example.com", "")

	s1, _ := ss.Create("Kamala", "", "")
	s2, _ := ss.Create("Raman", "", "")
	gs.LinkSenior(s1.ID, guardian.ID, true)
	gs.LinkSenior(s2.ID, other.ID, true)

	seniors, err := ss.ListForGuardian(guardian.ID)
	if err != nil {
		t.Fatalf("list for guardian: %v", err)
	}
	if len(seniors) != 1 || seniors[0].ID != s1.ID {
		t.Errorf("got %d seniors, want just %d", len(seniors), s1.ID)
	}
}
