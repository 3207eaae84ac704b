package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/database"
	"github.com/avikal/sahaay/internal/store"
)

func setupAuthDB(t *testing.T) (*store.SessionStore, *store.GuardianStore, *store.SeniorStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewGuardianStore(db), store.NewSeniorStore(db)
}

func TestRequireAuthNoToken(t *testing.T) {
	ss, _, _ := setupAuthDB(t)

	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss, _, _ := setupAuthDB(t)

	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthGuardianSession(t *testing.T) {
	ss, gs, _ := setupAuthDB(t)

	guardian, _ := gs.Create("Avikal", "a@example.com", "")
	sess, _ := ss.CreateForGuardian(guardian.ID)

	var gotAC auth.AuthContext
	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.GuardianID != guardian.ID {
		t.Errorf("GuardianID = %d, want %d", gotAC.GuardianID, guardian.ID)
	}
	if gotAC.Role != auth.RoleGuardian {
		t.Errorf("Role = %q, want guardian", gotAC.Role)
	}
}

func TestRequireAuthSeniorSessionBearer(t *testing.T) {
	ss, _, seniors := setupAuthDB(t)

	senior, _ := seniors.Create("Kamala", "", "")
	sess, _ := ss.CreateForSenior(senior.ID)

	var gotAC auth.AuthContext
	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAC, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.SeniorID != senior.ID {
		t.Errorf("SeniorID = %d, want %d", gotAC.SeniorID, senior.ID)
	}
	if gotAC.Role != auth.RoleSenior {
		t.Errorf("Role = %q, want senior", gotAC.Role)
	}
}

func TestRequireGuardianForbidsSeniors(t *testing.T) {
	ctx := auth.WithAuth(httptest.NewRequest("GET", "/", nil).Context(), auth.AuthContext{
		SeniorID: 1,
		Role:     auth.RoleSenior,
	})
	req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler := RequireGuardian(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
