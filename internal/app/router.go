package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phraseforge/phraseforge/internal/accounts"
	"github.com/phraseforge/phraseforge/internal/apperrors"
	"github.com/phraseforge/phraseforge/internal/audit"
	"github.com/phraseforge/phraseforge/internal/auth"
	"github.com/phraseforge/phraseforge/internal/config"
	"github.com/phraseforge/phraseforge/internal/orgs"
	"github.com/phraseforge/phraseforge/internal/slangs"
	"github.com/phraseforge/phraseforge/internal/templates"
)

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(pool *pgxpool.Pool, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(ContentTypeJSON)

	accountsSvc := accounts.NewService(pool)
	auditor := audit.NewWriter(pool)

	requireAuth := auth.RequireAuth(accountsSvc, cfg.JWTSecret)

	// Health checks (no authentication)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(pool))

	// Authentication
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", auth.HandleRegister(accountsSvc, auditor, cfg.JWTSecret, cfg.SessionDays))
		r.With(LoginRateLimitMiddleware(cfg.LoginRateLimitRPM)).
			Post("/login", auth.HandleLogin(accountsSvc, auditor, cfg.JWTSecret, cfg.SessionDays))
		r.With(requireAuth).Get("/me", auth.HandleMe())
	})

	// Organization management
	r.Route("/org", func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/", orgs.HandleCreate(pool, auditor))
		r.Get("/", orgs.HandleGet(pool))
		r.Post("/join", orgs.HandleJoin(pool, auditor))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireOrgAdmin)

			r.Post("/invite", orgs.HandleInvite(pool, auditor))
			r.Patch("/members/{id}/role", orgs.HandleUpdateMemberRole(pool, auditor))
			r.Delete("/members/{id}", orgs.HandleRemoveMember(pool, auditor))
		})
	})

	// Shared vocabulary
	r.Route("/slangs", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", slangs.HandleList(pool))
		r.Get("/prompt", slangs.HandlePrompt(pool))
		r.Post("/personal", slangs.HandleAddPersonal(pool))
		r.Delete("/personal/{id}", slangs.HandleDeletePersonal(pool))
		r.Get("/org", slangs.HandleListOrg(pool))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireOrgAdmin)

			r.Post("/org", slangs.HandleAddOrg(pool))
			r.Patch("/org/{id}/approve", slangs.HandleApproveOrg(pool))
			r.Delete("/org/{id}", slangs.HandleDeleteOrg(pool))
		})
	})

	// Message templates
	r.Route("/templates", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", templates.HandleList(pool))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireOrgAdmin)

			r.Post("/", templates.HandleCreate(pool))
			r.Patch("/{id}", templates.HandleUpdate(pool))
			r.Delete("/{id}", templates.HandleDelete(pool))
		})
	})

	return r
}

// handleHealthz returns a simple liveness check
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleReadyz returns a readiness check that includes database connectivity
func handleReadyz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Database connection failed")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "ready",
			"db":     "ok",
		})
	}
}
