package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"telereport/internal/api"
	"telereport/internal/middleware"
)

// SetupRoutes mounts the review console API on the router.
func SetupRoutes(r *chi.Mux, a *api.API, redisClient *redis.Client, allowedOrigins []string) {
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(middleware.CORSOptions(allowedOrigins)))
	r.Use(middleware.RateLimit(redisClient))

	// Health check for deployment platforms
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Console auth routes
	r.Post("/api/admin/signin", a.Signin)
	r.Post("/api/admin/signout", a.Signout)

	// Everything below requires a valid console session
	r.Group(func(r chi.Router) {
		r.Use(a.RequireSession)

		// Report review routes
		r.Get("/api/admin/reports", a.ListReports)
		r.Get("/api/admin/reports/pending", a.ListPendingReports)
		r.Get("/api/admin/reports/detail", a.GetReport)
		r.Put("/api/admin/reports/status", a.SetReportStatus)
		r.Get("/api/admin/stats", a.Stats)

		// User administration routes
		r.Get("/api/admin/users", a.ListUsers)
		r.Put("/api/admin/users/block", a.BlockUser)
		r.Put("/api/admin/users/unblock", a.UnblockUser)
		r.Post("/api/admin/users/tokens", a.GrantTokens)

		// Purchase verification routes
		r.Get("/api/admin/transactions/pending", a.ListPendingTransactions)
		r.Put("/api/admin/transactions/verify", a.VerifyTransaction)
	})

	// WebSocket feed of report events (token passed as query parameter)
	r.Get("/ws/feed", a.FeedSocket)
}
