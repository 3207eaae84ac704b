package store

import "testing"

func TestGuardianPhoneLookup(t *testing.T) {
	db := openTestDB(t)
	gs := NewGuardianStore(db)

	// Stored with formatting, as onboarding forms often submit it.
	created, err := gs.Create("Avikal", "avikal@example.com", "+91 98765-43210")
	if err != nil {
		t.Fatalf("create guardian: %v", err)
	}

	got, err := gs.GetByPhone("+91 98765-43210")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Error("raw phone lookup failed")
	}

	// Digits-only lookup matches despite the stored formatting.
	got, err = gs.GetByPhoneDigits("919876543210")
	if err != nil {
		t.Fatalf("get by phone digits: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Error("digits-only lookup should match formatted stored phone")
	}

	got, _ = gs.GetByPhoneDigits("911111111111")
	if got != nil {
		t.Error("unexpected match for unknown digits")
	}
}

func TestLinkSeniorFirstLinkIsPrimary(t *testing.T) {
	db := openTestDB(t)
	gs := NewGuardianStore(db)
	ss := NewSeniorStore(db)

	senior, _ := ss.Create("Kamala", "", "")
	g1, _ := gs.Create("Avikal", "a@example.com", "")
	g2, _ := gs.Create("Meera", "m@example.com", "")

	// Not asked to be primary, but the first link is promoted.
	link, err := gs.LinkSenior(senior.ID, g1.ID, false)
	if err != nil {
		t.Fatalf("link senior: %v", err)
	}
	if !link.IsPrimary {
		t.Error("first link should be primary")
	}

	link2, _ := gs.LinkSenior(senior.ID, g2.ID, false)
	if link2.IsPrimary {
		t.Error("second link should not be primary")
	}

	primary, err := gs.PrimaryGuardianID(senior.ID)
	if err != nil {
		t.Fatalf("primary guardian: %v", err)
	}
	if primary != g1.ID {
		t.Errorf("primary = %d, want %d", primary, g1.ID)
	}
}

func TestPrimaryGuardianIDNoLinks(t *testing.T) {
	db := openTestDB(t)
	gs := NewGuardianStore(db)
	ss := NewSeniorStore(db)

	senior, _ := ss.Create("Kamala", "", "")
	primary, err := gs.PrimaryGuardianID(senior.ID)
	if err != nil {
		t.Fatalf("primary guardian: %v", err)
	}
	if primary != 0 {
		t.Errorf("primary = %d, want 0 for unlinked senior", primary)
	}
}
