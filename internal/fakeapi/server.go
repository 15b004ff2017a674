package fakeapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/recruit-portal/internal/catalog"
)

// Server is a local stand-in for the recruitment backend. It speaks the
// same wire contract and keeps everything in memory.
type Server struct {
	apiKey         string
	requestTimeout time.Duration
	router         *chi.Mux
	backend        *backend
}

// Option configures the server
type Option func(*Server)

// WithAPIKey requires every request to carry key in x-api-key
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithRequestTimeout bounds handler run time
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// WithClock overrides the time source used for submission timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.backend.now = now
	}
}

// NewServer creates a server seeded from the catalog. A nil loader starts
// empty.
func NewServer(loader *catalog.Loader, opts ...Option) *Server {
	s := &Server{
		requestTimeout: 60 * time.Second,
		backend:        newBackend(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if loader != nil {
		s.backend.seed(loader)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "x-api-key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Route("/user", func(r chi.Router) {
			r.Post("/login", s.handleUserLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)

				r.Put("/profile", s.handleUpdateProfile)
				r.Get("/domain", s.handleListDomains)
				r.Post("/domain/apply", s.handleApplyDomains)
				r.Get("/questionnaire/{domainId}", s.handleGetQuestionnaire)

				r.Get("/response", s.handleListResponses)
				r.Post("/response", s.handleCreateResponse)
				r.Put("/response/{id}", s.handleUpdateResponse)

				r.Get("/task/{domainId}", s.handleListTasks)
				r.Get("/submission/{domainId}", s.handleListSubmissions)
				r.Post("/submission", s.handleCreateSubmission)
				r.Put("/submission/{id}", s.handleUpdateSubmission)

				r.Get("/interview", s.handleMyInterviews)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Use(s.requireAdmin)

				r.Route("/domain", func(r chi.Router) {
					r.Get("/", s.handleListDomains)
					r.Post("/", s.handleAdminCreateDomain)
					r.Get("/{id}", s.handleAdminGetDomain)
					r.Put("/{id}", s.handleAdminUpdateDomain)
					r.Delete("/{id}", s.handleAdminDeleteDomain)
				})
				r.Route("/task", func(r chi.Router) {
					r.Get("/", s.handleAdminListTasks)
					r.Post("/", s.handleAdminCreateTask)
					r.Put("/{id}", s.handleAdminUpdateTask)
					r.Delete("/{id}", s.handleAdminDeleteTask)
				})
				r.Route("/questionnaire", func(r chi.Router) {
					r.Get("/", s.handleAdminListQuestionnaires)
					r.Post("/", s.handleAdminCreateQuestionnaire)
					r.Put("/{id}", s.handleAdminUpdateQuestionnaire)
					r.Delete("/{id}", s.handleAdminDeleteQuestionnaire)
				})
				r.Route("/interview", func(r chi.Router) {
					r.Get("/", s.handleAdminListInterviews)
					r.Post("/", s.handleAdminScheduleInterview)
					r.Get("/{id}", s.handleAdminGetInterview)
					r.Put("/{id}", s.handleAdminRescheduleInterview)
					r.Delete("/{id}", s.handleAdminCancelInterview)
				})
				r.Route("/whitelist", func(r chi.Router) {
					r.Get("/", s.handleAdminListWhitelist)
					r.Post("/", s.handleAdminAddWhitelist)
					r.Delete("/{id}", s.handleAdminRemoveWhitelist)
				})

				r.Get("/user", s.handleAdminListUsers)
				r.Get("/response", s.handleAdminListResponses)
				r.Get("/submission", s.handleAdminListSubmissions)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
