package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-hosting-bot/internal/usecase"
)

// Server is the operator-facing HTTP surface: health, metrics and a small
// read-only admin API. It never serves hosted user content; that comes
// straight from the blob store's public URLs.
type Server struct {
	statsUC usecase.StatsUseCase
	userUC  usecase.UserUseCase
	auth    *AuthManager
	apiKey  string
	log     *zerolog.Logger
}

func NewServer(statsUC usecase.StatsUseCase, userUC usecase.UserUseCase, auth *AuthManager, apiKey string, logger *zerolog.Logger) *Server {
	return &Server{
		statsUC: statsUC,
		userUC:  userUC,
		auth:    auth,
		apiKey:  apiKey,
		log:     logger,
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.statusPageHandler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", s.tokenHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Get("/stats", statsHandler(s.statsUC))
			r.Get("/users", usersListHandler(s.userUC))
		})
	})

	return r
}

const statusPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Hosting Bot</title></head>
<body>
<h1>Hosting Bot</h1>
<p>The service is up. Talk to the bot on Telegram to host your pages.</p>
<p><a href="/health">health</a> &middot; <a href="/metrics">metrics</a></p>
</body>
</html>
`

// statusPageHandler serves the static landing page at the root path.
func (s *Server) statusPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(statusPage))
	}
}

// tokenHandler exchanges the static API key for a short-lived JWT.
func (s *Server) tokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		hdr := r.Header.Get("Authorization")
		if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if strings.TrimSpace(hdr[7:]) != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint()
		if err != nil {
			s.log.Error().Err(err).Msg("token mint failed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
