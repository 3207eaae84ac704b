package store

import "testing"

func TestPushSubscriptionUpsert(t *testing.T) {
	db := openTestDB(t)
	gs := NewGuardianStore(db)
	ps := NewPushStore(db)

	guardian, _ := gs.Create("Avikal", "a@example.com", "")

	sub, err := ps.CreateSubscription(guardian.ID, "https://push.example/ep1", "p256dh-key", "auth-key", "Pixel")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	// Re-subscribing the same endpoint updates in place.
	again, err := ps.CreateSubscription(guardian.ID, "https://push.example/ep1", "new-p256dh", "new-auth", "Pixel")
	if err != nil {
		t.Fatalf("re-create subscription: %v", err)
	}
	if again.ID != sub.ID {
		t.Errorf("upsert created a new row: %d != %d", again.ID, sub.ID)
	}
	if again.P256dhKey != "new-p256dh" {
		t.Errorf("p256dh = %q, want updated key", again.P256dhKey)
	}

	subs, _ := ps.ListByGuardian(guardian.ID)
	if len(subs) != 1 {
		t.Errorf("subscription count = %d, want 1", len(subs))
	}
}

func TestPreferenceDefaultsEnabled(t *testing.T) {
	db := openTestDB(t)
	gs := NewGuardianStore(db)
	ps := NewPushStore(db)

	guardian, _ := gs.Create("Avikal", "a@example.com", "")

	// No row means enabled.
	enabled, err := ps.IsPreferenceEnabled(guardian.ID, "medication_missed")
	if err != nil {
		t.Fatalf("is preference enabled: %v", err)
	}
	if !enabled {
		t.Error("missing preference should default to enabled")
	}

	if err := ps.SetPreference(guardian.ID, "medication_missed", false); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	enabled, _ = ps.IsPreferenceEnabled(guardian.ID, "medication_missed")
	if enabled {
		t.Error("disabled preference should report false")
	}
}
