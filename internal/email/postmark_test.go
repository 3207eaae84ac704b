package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureServer(t *testing.T) (*httptest.Server, *postmarkEmail, *http.Request) {
	t.Helper()
	var captured postmarkEmail
	var capturedReq http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = *r.Clone(r.Context())
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured, &capturedReq
}

func TestSendAlertLinksToApp(t *testing.T) {
	srv, captured, req := captureServer(t)

	c := NewClient("token-123", "alerts@sahaay.care", "https://app.sahaay.care", WithAPIURL(srv.URL))
	if err := c.SendAlert("to@example.com", "Missed dose", "Kamala missed Metformin at 10:00."); err != nil {
		t.Fatalf("send alert: %v", err)
	}

	if !strings.HasSuffix(captured.TextBody, "Open your dashboard: https://app.sahaay.care") {
		t.Errorf("text body does not link to the app: %q", captured.TextBody)
	}
	if strings.Contains(captured.TextBody, srv.URL) {
		t.Errorf("text body leaks the API URL: %q", captured.TextBody)
	}
	if !strings.Contains(captured.HtmlBody, `href="https://app.sahaay.care"`) {
		t.Errorf("html body does not link to the app: %q", captured.HtmlBody)
	}
	if got := req.Header.Get("X-Postmark-Server-Token"); got != "token-123" {
		t.Errorf("server token header = %q, want %q", got, "token-123")
	}
	if req.URL.Path != "/email" {
		t.Errorf("request path = %q, want /email", req.URL.Path)
	}
}

func TestSendLoginCodeSubjects(t *testing.T) {
	srv, captured, _ := captureServer(t)
	c := NewClient("token-123", "alerts@sahaay.care", "https://app.sahaay.care", WithAPIURL(srv.URL))

	if err := c.SendLoginCode("to@example.com", "483920", "register"); err != nil {
		t.Fatalf("send login code: %v", err)
	}
	if captured.Subject != "Welcome to Sahaay" {
		t.Errorf("register subject = %q", captured.Subject)
	}
	if !strings.Contains(captured.TextBody, "483920") {
		t.Errorf("text body missing code: %q", captured.TextBody)
	}

	if err := c.SendLoginCode("to@example.com", "483920", "login"); err != nil {
		t.Fatalf("send login code: %v", err)
	}
	if captured.Subject != "Sign in to Sahaay" {
		t.Errorf("login subject = %q", captured.Subject)
	}
}

func TestSendUnconfigured(t *testing.T) {
	c := NewClient("", "alerts@sahaay.care", "https://app.sahaay.care")
	if err := c.SendAlert("to@example.com", "title", "message"); err == nil {
		t.Fatal("expected error when server token is missing")
	}
}
