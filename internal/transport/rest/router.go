package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/employee-directory/api"
	"github.com/frahmantamala/employee-directory/internal/auth"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/internal/transport/middleware"
	"github.com/frahmantamala/employee-directory/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

var errNoDatabase = errors.New("database not configured")

// Dependencies are the handlers and settings the router mounts. Nil
// handlers leave their routes out.
type Dependencies struct {
	DB              Pinger
	Gate            *auth.Gate
	AuthHandler     *auth.Handler
	EmployeeHandler *employee.Handler
	Metrics         *metrics.Metrics
	MetricsPath     string
	AllowedOrigins  []string
	// UploadDir is served under /uploads; empty disables it.
	UploadDir string
	Logger    *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	healthHandler := NewHealthHandler(deps.DB)
	base := transport.NewBaseHandler(logger)

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(api.Document())
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, deps.Metrics.Handler())
	}

	if deps.UploadDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
		router.Handle("/uploads/*", noDirectoryListing(base, files))
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if deps.AuthHandler != nil {
			r.Post("/users/register", deps.AuthHandler.Register)
			r.Post("/users/login", deps.AuthHandler.Login)
		}

		if deps.Gate == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(deps.Gate.Middleware)
			pr.Use(middleware.SubjectContext)

			if deps.AuthHandler != nil {
				pr.Get("/users/me", deps.AuthHandler.Me)
			}

			if deps.EmployeeHandler != nil {
				pr.Route("/employees", func(er chi.Router) {
					er.Post("/", deps.EmployeeHandler.CreateEmployee)       // POST /employees
					er.Get("/", deps.EmployeeHandler.ListEmployees)         // GET /employees
					er.Get("/{id}", deps.EmployeeHandler.GetEmployee)       // GET /employees/:id
					er.Put("/{id}", deps.EmployeeHandler.UpdateEmployee)    // PUT /employees/:id
					er.Delete("/{id}", deps.EmployeeHandler.DeleteEmployee) // DELETE /employees/:id
				})
			}
		})
	})
}

func noDirectoryListing(base *transport.BaseHandler, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			base.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
