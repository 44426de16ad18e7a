package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"viora-backend/internal/nurse"
	"viora-backend/internal/platform/logger"
)

type HealthChecker interface {
	PingContext(ctx context.Context) error
}

func newRouter(h *nurse.Handler, db HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	// CORS for the mobile app
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeStatus(w, http.StatusOK, map[string]string{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"db":     "unhealthy: " + err.Error(),
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok", "db": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		nurse.RegisterRoutes(r, h)
	})

	return r
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
