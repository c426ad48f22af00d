package http

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riddleme-service/internal/app"
)

// Options configures the HTTP surface.
type Options struct {
	// AdminSecret enables JWT protection of admin routes when non-empty.
	AdminSecret      string
	LeaderboardLimit int
	RequestTimeout   time.Duration
}

// Server bundles the router with the riddle and scoring use cases.
type Server struct {
	r        *chi.Mux
	riddles  *app.RiddleService
	scoring  *app.ScoringService
	feed     *FeedHandler
	validate *validator.Validate
	opts     Options
}

// NewServer installs middleware and registers routes.
func NewServer(riddles *app.RiddleService, scoring *app.ScoringService, feed *app.Feed, opts Options) *Server {
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = app.DefaultLeaderboardLimit
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		r:        chi.NewRouter(),
		riddles:  riddles,
		scoring:  scoring,
		feed:     NewFeedHandler(riddles, scoring, feed),
		validate: newValidator(),
		opts:     opts,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)

	s.r.Group(func(r chi.Router) {
		r.Use(instrument)
		r.Use(chimw.Timeout(opts.RequestTimeout))
		r.Use(jsonContentType)

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Route("/api", func(r chi.Router) {
			r.Get("/riddle/current", s.handleCurrent)
			r.Post("/riddle/answer", s.handleAnswer)
			r.Post("/riddle/skip", s.handleSkip)
			r.With(requireAdmin([]byte(opts.AdminSecret))).Post("/riddle/regenerate", s.handleRegenerate)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/players/{username}", s.handlePlayer)
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no route for " + r.URL.Path})
		})
	})

	s.r.Handle("/metrics", promhttp.Handler())
	s.r.Get("/ws", s.feed.ServeWS)
	return s
}

// Router exposes the router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// newValidator reports field errors using their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}
