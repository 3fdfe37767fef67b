package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/fiore/internal/http/auth"
	"github.com/MrJamesThe3rd/fiore/internal/http/dashboard"
	"github.com/MrJamesThe3rd/fiore/internal/http/gate"
	"github.com/MrJamesThe3rd/fiore/internal/http/record"
	"github.com/MrJamesThe3rd/fiore/internal/http/upload"
)

// ProtectedPaths require the loggedIn session cookie.
var ProtectedPaths = []string{"/dashboard"}

func New(
	allowedOrigins []string,
	authH *auth.Handler,
	dashboardH *dashboard.Handler,
	recordsV1 *record.Handler,
	uploadsV1 *upload.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(gate.New(ProtectedPaths...))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	authH.Routes(router)

	router.Route("/dashboard", dashboardH.Routes)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/records", recordsV1.Routes)
		r.Route("/uploads", uploadsV1.Routes)
	})

	return router
}
