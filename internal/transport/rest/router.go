package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/auth"
	"github.com/frahmantamala/org-management/internal/department"
	"github.com/frahmantamala/org-management/internal/orgchart"
	"github.com/frahmantamala/org-management/internal/role"
	"github.com/frahmantamala/org-management/internal/transport/middleware"
	"github.com/frahmantamala/org-management/internal/transport/swagger"
	"github.com/frahmantamala/org-management/internal/user"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the domain handlers mounted under /api/v1. A nil handler
// leaves its routes unmounted.
type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	User       *user.Handler
	OrgChart   *orgchart.Handler
	Role       *role.Handler
	Department *department.Handler

	// Validator checks requests against the OpenAPI document when set.
	Validator *middleware.RequestValidator
}

func RegisterAllRoutes(router *chi.Mux, cfg *internal.Config, h Handlers, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(cfg.Server.Origins()))
	if cfg.Observability.Tracing.Enabled {
		router.Use(middleware.Tracing)
	}
	if cfg.Observability.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(middleware.LoggingMiddleware(logger))

	if cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	// Serve the OpenAPI document at root (outside API prefix)
	specPath := cfg.Server.OpenAPISpecPath
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, specPath)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	// Mount API under /api/v1 to match the OpenAPI paths
	router.Route("/api/v1", func(r chi.Router) {
		if h.Validator != nil {
			r.Use(h.Validator.Middleware)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.OrgChart != nil {
				pr.Get("/org-chart", h.OrgChart.GetOrgChart)
				pr.Get("/org-chart/visible", h.OrgChart.GetVisibleUsers)
			}

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.Get("/users", h.User.ListUsers)
				pr.Get("/users/{id}", h.User.GetUser)
			}

			if h.Role != nil {
				pr.Get("/roles", h.Role.GetRoles)
				pr.Get("/roles/{id}", h.Role.GetRole)
			}

			if h.Department != nil {
				pr.Get("/departments", h.Department.GetDepartments)
				pr.Get("/departments/{id}", h.Department.GetDepartment)
			}

			if h.RBAC == nil {
				return
			}

			// Organization admin routes
			pr.Group(func(ar chi.Router) {
				ar.Use(h.RBAC.RequireAdmin())

				if h.User != nil {
					ar.Post("/users", h.User.CreateUser)
					ar.Patch("/users/{id}", h.User.UpdateUser)
					ar.Put("/users/{id}/manager", h.User.AssignManager)
					ar.Put("/users/{id}/role", h.User.ChangeRole)
					ar.Post("/users/{id}/approve", h.User.ApproveUser)
					ar.Post("/users/{id}/deactivate", h.User.DeactivateUser)
					ar.Get("/users/{id}/eligible-managers", h.User.EligibleManagers)
				}

				if h.Role != nil {
					ar.Post("/roles", h.Role.CreateRole)
					ar.Patch("/roles/{id}", h.Role.UpdateRole)
					ar.Delete("/roles/{id}", h.Role.DeleteRole)
				}

				if h.Department != nil {
					ar.Post("/departments", h.Department.CreateDepartment)
					ar.Patch("/departments/{id}", h.Department.UpdateDepartment)
					ar.Delete("/departments/{id}", h.Department.DeleteDepartment)
				}
			})
		})
	})
}
