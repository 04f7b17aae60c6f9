package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kartquake/kartquake/internal/backup"
	"github.com/kartquake/kartquake/internal/billing"
	"github.com/kartquake/kartquake/internal/handler"
	"github.com/kartquake/kartquake/internal/llm"
	"github.com/kartquake/kartquake/internal/locator"
	"github.com/kartquake/kartquake/internal/maps"
	"github.com/kartquake/kartquake/internal/middleware"
	"github.com/kartquake/kartquake/internal/planner"
	"github.com/kartquake/kartquake/internal/push"
	"github.com/kartquake/kartquake/internal/store"
	ws "github.com/kartquake/kartquake/internal/websocket"
)

// Config collects everything the HTTP layer needs beyond the database.
type Config struct {
	JWTSecret []byte
	LLM       llm.Config
	MapsKey   string
	Billing   billing.Config
	Push      push.Config
	Backup    backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH       *handler.AuthHandler
	userH       *handler.UserHandler
	chatH       *handler.ChatHandler
	intentH     *handler.IntentHandler
	planH       *handler.PlanHandler
	watchlistH  *handler.WatchlistHandler
	membershipH *handler.MembershipHandler
	billingH    *handler.BillingHandler
	pushH       *handler.PushHandler
	backupH     *handler.BackupHandler

	jwtSecret     []byte
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	tripStore := store.NewTripStore(db)
	intentStore := store.NewIntentStore(db)
	watchlistStore := store.NewWatchlistStore(db)
	locationStore := store.NewLocationStore(db)
	membershipStore := store.NewMembershipStore(db)
	pushStore := store.NewPushStore(db)

	llmClient := llm.NewClient(cfg.LLM)

	var augmenter *planner.Augmenter
	var resolver *locator.Resolver
	if cfg.MapsKey != "" {
		mapsClient := maps.NewClient(cfg.MapsKey)
		resolver = locator.NewResolver(locationStore, mapsClient)
		augmenter = planner.NewAugmenter(resolver, mapsClient)
	} else {
		resolver = locator.NewResolver(locationStore, nil)
	}

	plannerSvc := planner.NewService(userStore, tripStore, intentStore, watchlistStore, membershipStore, llmClient, augmenter)

	var pushSvc *push.Service
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push)
	}

	billingClient := billing.NewClient(cfg.Billing)
	backupMgr := backup.NewManager(cfg.Backup, db)

	var pushH *handler.PushHandler
	if pushSvc != nil {
		pushH = handler.NewPushHandler(pushSvc, pushStore)
	}

	return &Server{
		db:  db,
		hub: hub,

		authH:       handler.NewAuthHandler(userStore, cfg.JWTSecret),
		userH:       handler.NewUserHandler(userStore),
		chatH:       handler.NewChatHandler(userStore, tripStore, intentStore, llmClient),
		intentH:     handler.NewIntentHandler(userStore, intentStore),
		planH:       handler.NewPlanHandler(plannerSvc, hub, pushSvc, pushStore),
		watchlistH:  handler.NewWatchlistHandler(watchlistStore, intentStore),
		membershipH: handler.NewMembershipHandler(membershipStore, userStore, resolver),
		billingH:    handler.NewBillingHandler(billingClient, userStore),
		pushH:       pushH,
		backupH:     handler.NewBackupHandler(backupMgr),

		jwtSecret:     cfg.JWTSecret,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/guest", s.rateLimitedHandler(s.authH.Guest, 10))
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register, 10))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login, 10))
	outerMux.HandleFunc("POST /api/billing/webhook", s.billingH.Webhook)

	// Protected routes behind bearer auth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireUser(s.jwtSecret)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("GET /ws", authMiddleware(http.HandlerFunc(ws.HandleWebSocket(s.hub))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc, limit int) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, limit, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Profile
	mux.HandleFunc("GET /api/me", s.userH.Me)
	mux.HandleFunc("PATCH /api/me", s.userH.UpdateMe)

	// Chat assistant
	mux.HandleFunc("POST /api/chat", s.rateLimitedHandler(s.chatH.Message, 30))

	// Item intents
	mux.HandleFunc("GET /api/items", s.intentH.List)
	mux.HandleFunc("POST /api/items", s.intentH.Create)
	mux.HandleFunc("PATCH /api/items/{id}", s.intentH.Update)

	// Plans
	mux.HandleFunc("POST /api/plans/build", s.rateLimitedHandler(s.planH.Build, 20))
	mux.HandleFunc("POST /api/plans/price", s.rateLimitedHandler(s.planH.Build, 20))

	// Watchlist
	mux.HandleFunc("POST /api/watchlist/toggle", s.watchlistH.Toggle)
	mux.HandleFunc("GET /api/watchlist", s.watchlistH.List)
	mux.HandleFunc("GET /api/watchlist/price-drops", s.watchlistH.PriceDrops)

	// Store memberships
	mux.HandleFunc("POST /api/memberships", s.membershipH.Create)
	mux.HandleFunc("GET /api/memberships", s.membershipH.List)

	// Billing
	mux.HandleFunc("POST /api/billing/checkout", s.billingH.Checkout)

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
	}

	// Admin
	mux.HandleFunc("POST /api/admin/backup", s.backupH.Run)
	mux.HandleFunc("GET /api/admin/backup/status", s.backupH.Status)
}
