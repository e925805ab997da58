// Package httpserver exposes the WeFixIt JSON API over HTTP.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/and161185/wefixit/internal/service"
)

// DefaultMaxBody bounds request bodies, uploads included.
const DefaultMaxBody = 10 << 20

// Options configures the HTTP surface.
type Options struct {
	Name        string   // reported by GET /
	CORSOrigins []string // "*" allows any origin
	UploadDir   string   // served read-only at /uploads/; empty disables the mount
	MaxBody     int64
}

// Server wires services into HTTP handlers.
type Server struct {
	log       *zap.Logger
	auth      service.AuthService
	reviews   service.ReviewService
	portfolio service.PortfolioService
	projects  service.ProjectService

	name      string
	origins   []string
	uploadDir string
	maxBody   int64
}

// New constructs a Server with injected services.
func New(log *zap.Logger, auth service.AuthService, reviews service.ReviewService,
	portfolio service.PortfolioService, projects service.ProjectService, opts Options) *Server {
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		log:       log,
		auth:      auth,
		reviews:   reviews,
		portfolio: portfolio,
		projects:  projects,
		name:      opts.Name,
		origins:   opts.CORSOrigins,
		uploadDir: opts.UploadDir,
		maxBody:   opts.MaxBody,
	}
}

// anyOrigin reports whether origins contain the "*" wildcard. Credentials
// are only allowed for an explicit origin list.
func anyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(s.log))
	r.Use(Recover(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: !anyOrigin(s.origins),
		MaxAge:           600,
	}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", s.root)
	if s.uploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.With(s.requireAdmin).Get("/me", s.me)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", s.listReviews)
			r.Post("/", s.createReview)
			r.Get("/{id}", s.getReview)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Put("/{id}", s.updateReview)
				r.Delete("/{id}", s.deleteReview)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", s.listPortfolio)
			r.Get("/{id}", s.getPortfolio)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/", s.createPortfolio)
				r.Put("/{id}", s.updatePortfolio)
				r.Delete("/{id}", s.deletePortfolio)
			})
		})

		r.Get("/projects", s.listProjects)
		r.Get("/projects/", s.listProjects)
	})
	return r
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "name": s.name})
}
