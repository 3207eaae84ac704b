package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/billing"
	"github.com/avikal/sahaay/internal/email"
	"github.com/avikal/sahaay/internal/handler"
	"github.com/avikal/sahaay/internal/middleware"
	"github.com/avikal/sahaay/internal/photo"
	"github.com/avikal/sahaay/internal/push"
	"github.com/avikal/sahaay/internal/reminder"
	"github.com/avikal/sahaay/internal/store"
	ws "github.com/avikal/sahaay/internal/websocket"
)

// Config carries the external-service configuration the server wires up.
type Config struct {
	BaseURL string
	Push    push.Config
	Photo   photo.Config
	Billing billing.Config
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	seniorH        *handler.SeniorHandler
	medicationH    *handler.MedicationHandler
	scheduleH      *handler.ScheduleHandler
	functionsH     *handler.FunctionsHandler
	notificationH  *handler.NotificationHandler
	vitalH         *handler.VitalHandler
	activityH      *handler.ActivityHandler
	emergencyH     *handler.EmergencyHandler
	pushH          *handler.PushHandler
	photoH         *handler.PhotoHandler
	billingH       *handler.BillingHandler
	sessionStore   *store.SessionStore
	loginCodeStore *store.LoginCodeStore
	rateLimiter    *middleware.RateLimiter
	scanner        *reminder.Scanner
	logger         *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	guardianStore := store.NewGuardianStore(db)
	seniorStore := store.NewSeniorStore(db)
	medicationStore := store.NewMedicationStore(db)
	logStore := store.NewMedicationLogStore(db)
	activityStore := store.NewActivityStore(db)
	vitalStore := store.NewVitalStore(db)
	notificationStore := store.NewNotificationStore(db)
	sessionStore := store.NewSessionStore(db)
	loginCodeStore := store.NewLoginCodeStore(db)
	pushStore := store.NewPushStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)

	var pushSvc *push.Service
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
	}

	notifier := push.NewNotifier(pushSvc, pushStore, guardianStore, emailClient, hub, logger.With("component", "notifier"))

	scanner := reminder.NewScanner(medicationStore, logStore, seniorStore, guardianStore, notificationStore, notifier, logger.With("component", "reminder"))

	validator := auth.NewValidator(guardianStore, seniorStore, logger.With("component", "credential"))

	photoStore := photo.NewStore(cfg.Photo)
	stripeClient := billing.NewClient(cfg.Billing)

	var pushH *handler.PushHandler
	if pushSvc != nil {
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(guardianStore, seniorStore, sessionStore, loginCodeStore, validator, emailClient, logger.With("component", "auth")),
		seniorH:        handler.NewSeniorHandler(seniorStore, guardianStore, hub, logger.With("component", "senior")),
		medicationH:    handler.NewMedicationHandler(medicationStore, seniorStore, hub, logger.With("component", "medication")),
		scheduleH:      handler.NewScheduleHandler(logStore),
		functionsH:     handler.NewFunctionsHandler(logStore, activityStore, scanner, hub, logger.With("component", "functions")),
		notificationH:  handler.NewNotificationHandler(notificationStore),
		vitalH:         handler.NewVitalHandler(vitalStore, activityStore, hub, logger.With("component", "vital")),
		activityH:      handler.NewActivityHandler(activityStore),
		emergencyH:     handler.NewEmergencyHandler(seniorStore, guardianStore, notificationStore, activityStore, notifier, logger.With("component", "emergency")),
		pushH:          pushH,
		photoH:         handler.NewPhotoHandler(photoStore, seniorStore, guardianStore, logger.With("component", "photo")),
		billingH:       handler.NewBillingHandler(stripeClient, guardianStore, subscriptionStore, cfg.BaseURL, logger.With("component", "billing")),
		sessionStore:   sessionStore,
		loginCodeStore: loginCodeStore,
		rateLimiter:    middleware.NewRateLimiter(),
		scanner:        scanner,
		logger:         logger,
	}
}

// Scanner returns the reminder scanner so main can start and stop it.
func (s *Server) Scanner() *reminder.Scanner {
	return s.scanner
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// LoginCodeStore returns the login code store for cleanup tasks.
func (s *Server) LoginCodeStore() *store.LoginCodeStore {
	return s.loginCodeStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /auth/verify", s.rateLimitedHandler(s.authH.Verify))
	outerMux.HandleFunc("POST /auth/senior", s.rateLimitedHandler(s.authH.SeniorLogin))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Scheduler-invoked function endpoints with permissive CORS
	functionsMux := http.NewServeMux()
	functionsMux.HandleFunc("POST /functions/log-medication", s.functionsH.LogMedication)
	functionsMux.HandleFunc("POST /functions/medication-reminders", s.functionsH.MedicationReminders)
	outerMux.Handle("/functions/", middleware.CORS(functionsMux))

	// Stripe calls this with its own signature; session auth does not apply.
	outerMux.HandleFunc("POST /webhooks/stripe", s.billingH.HandleStripeWebhook)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Senior profile routes (guardian only)
	guardianOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireGuardian(h)
	}
	mux.Handle("POST /api/seniors", guardianOnly(s.seniorH.Create))
	mux.Handle("GET /api/seniors", guardianOnly(s.seniorH.List))
	mux.Handle("GET /api/seniors/{id}", guardianOnly(s.seniorH.Get))
	mux.Handle("PUT /api/seniors/{id}", guardianOnly(s.seniorH.Update))
	mux.Handle("DELETE /api/seniors/{id}", guardianOnly(s.seniorH.Delete))
	mux.Handle("POST /api/seniors/{id}/pin", guardianOnly(s.seniorH.SetPIN))
	mux.Handle("DELETE /api/seniors/{id}/pin", guardianOnly(s.seniorH.ClearPIN))

	// Medication routes
	mux.Handle("POST /api/medications", guardianOnly(s.medicationH.Create))
	mux.Handle("GET /api/seniors/{id}/medications", guardianOnly(s.medicationH.ListBySenior))
	mux.Handle("PUT /api/medications/{id}", guardianOnly(s.medicationH.Update))
	mux.Handle("DELETE /api/medications/{id}", guardianOnly(s.medicationH.Delete))

	// Schedule routes
	mux.Handle("GET /api/seniors/{id}/schedule", guardianOnly(s.scheduleH.ForSenior))
	mux.HandleFunc("GET /api/schedule", s.scheduleH.Mine)

	// Notification routes
	mux.Handle("GET /api/notifications", guardianOnly(s.notificationH.List))
	mux.Handle("GET /api/notifications/unread-count", guardianOnly(s.notificationH.UnreadCount))
	mux.Handle("POST /api/notifications/{id}/read", guardianOnly(s.notificationH.MarkRead))
	mux.Handle("POST /api/notifications/read-all", guardianOnly(s.notificationH.MarkAllRead))

	// Vitals and activity
	mux.HandleFunc("POST /api/vitals", s.vitalH.Record)
	mux.Handle("GET /api/seniors/{id}/vitals", guardianOnly(s.vitalH.ListBySenior))
	mux.Handle("GET /api/seniors/{id}/vitals/latest", guardianOnly(s.vitalH.Latest))
	mux.Handle("GET /api/seniors/{id}/activity", guardianOnly(s.activityH.ListBySenior))

	// Senior-facing routes
	mux.HandleFunc("POST /api/emergency", s.emergencyH.Trigger)
	mux.HandleFunc("GET /api/contacts", s.seniorH.Contacts)

	// Photo routes
	mux.Handle("POST /api/seniors/{id}/photo", guardianOnly(s.photoH.UploadSeniorPhoto))
	mux.Handle("DELETE /api/seniors/{id}/photo", guardianOnly(s.photoH.DeleteSeniorPhoto))
	mux.Handle("POST /api/guardians/{id}/photo", guardianOnly(s.photoH.UploadGuardianPhoto))
	mux.Handle("DELETE /api/guardians/{id}/photo", guardianOnly(s.photoH.DeleteGuardianPhoto))
	mux.HandleFunc("GET /api/photos/{key...}", s.photoH.Serve)

	// Push notification routes
	if s.pushH != nil {
		mux.Handle("POST /api/push/subscribe", guardianOnly(s.pushH.Subscribe))
		mux.Handle("DELETE /api/push/subscriptions/{id}", guardianOnly(s.pushH.Unsubscribe))
		mux.Handle("GET /api/push/subscriptions", guardianOnly(s.pushH.ListSubscriptions))
		mux.Handle("GET /api/push/vapid-key", guardianOnly(s.pushH.GetVAPIDKey))
		mux.Handle("GET /api/push/preferences", guardianOnly(s.pushH.GetPreferences))
		mux.Handle("PUT /api/push/preferences", guardianOnly(s.pushH.UpdatePreferences))
		mux.Handle("POST /api/push/test", guardianOnly(s.pushH.TestNotification))
	}

	// Billing routes
	mux.Handle("POST /api/billing/checkout", guardianOnly(s.billingH.CreateCheckoutSession))
	mux.Handle("POST /api/billing/portal", guardianOnly(s.billingH.BillingPortal))
	mux.Handle("GET /api/billing/subscription", guardianOnly(s.billingH.CurrentSubscription))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
