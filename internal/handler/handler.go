package handler

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/events"
	"github.com/set-night/bountyhub/internal/middleware"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/set-night/bountyhub/internal/telegram"
)

// Handler holds all dependencies needed by the HTTP API.
type Handler struct {
	cfg         *config.Config
	accounts    *service.AccountService
	ledger      *service.LedgerService
	tasks       *service.TaskService
	platforms   *service.PlatformService
	withdrawals *service.WithdrawalService
	gifts       *service.GiftService
	bus         *events.Bus
	opsLog      *telegram.OpsLogger
	upgrader    websocket.Upgrader
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg         *config.Config
	Accounts    *service.AccountService
	Ledger      *service.LedgerService
	Tasks       *service.TaskService
	Platforms   *service.PlatformService
	Withdrawals *service.WithdrawalService
	Gifts       *service.GiftService
	Bus         *events.Bus
	OpsLog      *telegram.OpsLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	h := &Handler{
		cfg:         deps.Cfg,
		accounts:    deps.Accounts,
		ledger:      deps.Ledger,
		tasks:       deps.Tasks,
		platforms:   deps.Platforms,
		withdrawals: deps.Withdrawals,
		gifts:       deps.Gifts,
		bus:         deps.Bus,
		opsLog:      deps.OpsLog,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Routes builds the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.AccountHeader, middleware.AdminHeader, idempotencyHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts", h.register)
		r.Post("/sessions", h.login)
		r.Get("/platforms", h.listPlatforms)
		r.Get("/platforms/{id}", h.getPlatform)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AccountLoader(h.accounts))

			r.Post("/platforms/{id}/join", h.join)
			r.Post("/claims/{id}/proof", h.submitProof)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.me)
				r.Get("/ledger", h.myLedger)
				r.Get("/tasks", h.myTasks)
				r.Get("/messages", h.myMessages)
				r.Post("/messages/read", h.markMessagesRead)
				r.Get("/team", h.myTeam)
				r.Get("/referral/qr.png", h.referralQR)
				r.Put("/payout", h.bindPayout)
				r.Post("/withdrawals", h.withdraw)
				r.Get("/events", h.events)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminOnly(h.cfg))

			r.Get("/accounts", h.adminAccounts)
			r.Put("/accounts/{id}/ban", h.adminBan)
			r.Get("/claims/review", h.reviewQueue)
			r.Post("/claims/{id}/audit", h.audit)
			r.Post("/claims/{id}/retry-fanout", h.retryFanOut)
			r.Post("/gifts", h.gift)
			r.Post("/platforms", h.createPlatform)
			r.Put("/platforms/{id}/status", h.setPlatformStatus)
			r.Get("/reports/commissions.xlsx", h.commissionReport)
		})
	})
	return r
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}
