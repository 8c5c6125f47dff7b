package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"neurostack/backend/config"
	"neurostack/backend/database"
	"neurostack/backend/handlers"
	"neurostack/backend/logger"
	"neurostack/backend/middleware"
)

// Rate limiter for auth endpoints (10 requests per minute)
var authRateLimiter = middleware.NewRateLimiter(10, time.Minute)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize session store with configured secret and timeout
	if err := handlers.InitSession(); err != nil {
		log.Fatal("Failed to init session:", err)
	}

	if err := database.Init(); err != nil {
		log.Fatal("Failed to init database:", err)
	}

	// Initialize structured logging
	slog.SetDefault(slog.New(logger.NewDBHandler(database.DB)))
	go logger.CleanupOldLogs(database.DB, config.C.Logs.MaxAge)

	slog.Info("server starting", "source", "main", "listen", config.C.Listen, "public_url", config.C.PublicURL)

	mux := http.NewServeMux()

	// Health check (unauthenticated, for load balancers)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Auth routes (public, rate limited)
	mux.HandleFunc("POST /api/auth/register", authRateLimiter.LimitFunc(handlers.Register))
	mux.HandleFunc("POST /api/auth/login", authRateLimiter.LimitFunc(handlers.Login))
	mux.HandleFunc("POST /api/auth/logout", handlers.Logout)
	mux.HandleFunc("GET /api/auth/me", handlers.Me)

	// Log routes (require a session; mutations re-verify it themselves)
	mux.HandleFunc("POST /api/logs", middleware.RequireAuth(handlers.CreateLog))
	mux.HandleFunc("PATCH /api/logs", middleware.RequireAuth(handlers.UpdateLog))
	mux.HandleFunc("GET /api/logs", middleware.RequireAuth(handlers.GetLogs))
	mux.HandleFunc("DELETE /api/logs/{id}", middleware.RequireAuth(handlers.DeleteLog))
	mux.HandleFunc("GET /api/logs/heatmap", middleware.RequireAuth(handlers.GetHeatmap))
	mux.HandleFunc("GET /api/logs/trends", middleware.RequireAuth(handlers.GetTrends))

	// Drug-name autocomplete proxy
	mux.HandleFunc("GET /api/rxterms", handlers.RxTerms)

	// Wrap all routes with security headers
	handler := middleware.SecurityHeaders(mux)

	fmt.Printf("Server running at %s (public: %s)\n", config.C.Listen, config.C.PublicURL)
	if config.C.TLS.Enabled {
		slog.Info("starting server with TLS", "source", "main")
		log.Fatal(http.ListenAndServeTLS(config.C.Listen, config.C.TLS.Cert, config.C.TLS.Key, handler))
	} else {
		log.Fatal(http.ListenAndServe(config.C.Listen, handler))
	}
}
