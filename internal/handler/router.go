/*
Package handler provides the read-only HTTP ops API for the chat server.

This file defines the main Router, applying middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers.
The API only observes the directory; all mutations go through the UDP
protocol.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/GuahBy/projetISY/internal/pkg/limiter"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
	"github.com/GuahBy/projetISY/internal/pkg/resp"
)

const (
	QueryRate  = 5
	QueryBurst = 10
)

// Router sets up the HTTP routing table (chi.Router) for the ops API.
func Router(deps *AppDeps) http.Handler {
	queryLimiter := limiter.NewAddrRateLimiter(rate.Limit(QueryRate), QueryBurst)

	r := chi.NewRouter()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "projetISY chat server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(rateLimitMiddleware(queryLimiter))

		api.Get("/users", HandleListUsers(deps))
		api.Get("/groups", HandleListGroups(deps))
		api.Get("/stats", HandleStats(deps))
	})

	return r
}

// rateLimitMiddleware rejects requests above the per-address query rate.
func rateLimitMiddleware(l *limiter.AddrRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.RemoteAddr) {
				logx.Warn("Ops API rate limit exceeded.", "addr", r.RemoteAddr)
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
