package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/auth"
	"github.com/fakturo/billing-api/internal/config"
	"github.com/fakturo/billing-api/internal/database"
	"github.com/fakturo/billing-api/internal/http/handler"
	"github.com/fakturo/billing-api/internal/http/middleware"

	_ "github.com/fakturo/billing-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	clientHandler    *handler.ClientHandler
	contactHandler   *handler.ContactHandler
	projectHandler   *handler.ProjectHandler
	productHandler   *handler.ProductHandler
	documentHandler  *handler.DocumentHandler
	lifecycleHandler *handler.DocumentLifecycleHandler
	templateHandler  *handler.TemplateHandler
	settingsHandler  *handler.SettingsHandler
	activityHandler  *handler.ActivityHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	clientHandler *handler.ClientHandler,
	contactHandler *handler.ContactHandler,
	projectHandler *handler.ProjectHandler,
	productHandler *handler.ProductHandler,
	documentHandler *handler.DocumentHandler,
	lifecycleHandler *handler.DocumentLifecycleHandler,
	templateHandler *handler.TemplateHandler,
	settingsHandler *handler.SettingsHandler,
	activityHandler *handler.ActivityHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		clientHandler:    clientHandler,
		contactHandler:   contactHandler,
		projectHandler:   projectHandler,
		productHandler:   productHandler,
		documentHandler:  documentHandler,
		lifecycleHandler: lifecycleHandler,
		templateHandler:  templateHandler,
		settingsHandler:  settingsHandler,
		activityHandler:  activityHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Clients
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", rt.clientHandler.List)
				r.Post("/", rt.clientHandler.Create)
				r.Get("/{id}", rt.clientHandler.GetByID)
				r.Put("/{id}", rt.clientHandler.Update)
				r.Delete("/{id}", rt.clientHandler.Delete)
			})

			// Contacts
			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", rt.contactHandler.List)
				r.Post("/", rt.contactHandler.Create)
				r.Get("/{id}", rt.contactHandler.GetByID)
				r.Put("/{id}", rt.contactHandler.Update)
				r.Delete("/{id}", rt.contactHandler.Delete)
			})

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Get("/{id}", rt.projectHandler.GetByID)
				r.Put("/{id}", rt.projectHandler.Update)
				r.Delete("/{id}", rt.projectHandler.Delete)
			})

			// Products
			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.productHandler.List)
				r.Post("/", rt.productHandler.Create)
				r.Get("/{id}", rt.productHandler.GetByID)
				r.Put("/{id}", rt.productHandler.Update)
				r.Delete("/{id}", rt.productHandler.Delete)
			})

			// Documents
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", rt.documentHandler.List)
				r.Post("/", rt.documentHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.documentHandler.GetByID)
					r.Put("/", rt.documentHandler.Update)
					r.Delete("/", rt.documentHandler.Delete)

					// Items: every mutation recomputes and persists the totals
					r.Get("/items", rt.documentHandler.ListItems)
					r.Post("/items", rt.documentHandler.AddItem)
					r.Put("/items/{itemId}", rt.documentHandler.UpdateItem)
					r.Delete("/items/{itemId}", rt.documentHandler.RemoveItem)

					// Lifecycle
					r.Post("/send", rt.lifecycleHandler.Send)
					r.Post("/approve", rt.lifecycleHandler.Approve)
					r.Post("/reject", rt.lifecycleHandler.Reject)
					r.Post("/cancel", rt.lifecycleHandler.Cancel)
					r.Post("/duplicate", rt.lifecycleHandler.Duplicate)
					r.Post("/convert", rt.lifecycleHandler.Convert)

					// Payments
					r.Get("/payments", rt.lifecycleHandler.ListPayments)
					r.Post("/payments", rt.lifecycleHandler.RecordPayment)

					// Rendering
					r.Get("/pdf", rt.lifecycleHandler.RenderPDF)
				})
			})

			// Templates
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", rt.templateHandler.List)
				r.Get("/{id}", rt.templateHandler.GetByID)
				r.Put("/{id}", rt.templateHandler.Update)
			})

			// Settings
			r.Route("/settings", func(r chi.Router) {
				r.Get("/profile", rt.settingsHandler.GetProfile)
				r.Put("/profile", rt.settingsHandler.UpdateProfile)
				r.Get("/logo", rt.settingsHandler.GetLogo)
				r.Post("/logo", rt.settingsHandler.UploadLogo)
				r.Delete("/logo", rt.settingsHandler.DeleteLogo)
				r.Get("/numbering", rt.settingsHandler.GetNumbering)
				r.Put("/numbering", rt.settingsHandler.UpdateNumbering)
			})

			// Activity log
			r.Get("/activities", rt.activityHandler.List)
		})
	})

	return r
}
