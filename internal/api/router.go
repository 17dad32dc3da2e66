package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shopkube/shopkube/internal/api/handlers"
	mw "github.com/shopkube/shopkube/internal/api/middleware"
	"github.com/shopkube/shopkube/internal/config"
	"github.com/shopkube/shopkube/internal/domain"
	"github.com/shopkube/shopkube/internal/service"
	"github.com/shopkube/shopkube/internal/store"
)

// App holds the router plus the process-wide request counters surfaced by
// the runtime section of /api/metrics.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, gateway domain.ClusterGateway, runner domain.DeploymentRunner, logger *zap.Logger) *App {
	// Stores
	storeRepo := store.NewStoreRepo(db)
	auditRepo := store.NewAuditRepo(db)

	// Services share one keyed lock set so a provision and a deprovision for
	// the same name cannot interleave.
	locks := service.NewKeyedLocks()
	provisionSvc := service.NewProvisionService(
		storeRepo, auditRepo, gateway, runner, locks,
		config.IngressDomain(), config.IsProduction(), logger)
	deprovisionSvc := service.NewDeprovisionService(
		storeRepo, auditRepo, gateway, runner, locks,
		config.NamespaceSettleWait(), logger)
	statusSvc := service.NewStatusService(storeRepo, gateway, logger)

	// Handlers
	storeHandler := handlers.NewStoreHandler(provisionSvc, deprovisionSvc, statusSvc, storeRepo)
	auditHandler := handlers.NewAuditHandler(auditRepo)
	adminHandler := handlers.NewAdminHandler(storeRepo, auditRepo, logger)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	adminHandler.SetRuntimeStats(app.runtimeStats)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler(db))
		r.Get("/metrics", adminHandler.Metrics)
		r.Get("/audit-logs", auditHandler.List)
		r.Post("/admin/reset", adminHandler.Reset)

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", storeHandler.List)
			r.With(mw.RateLimitWindow(config.CreateLimitPerHour(), time.Hour,
				"store creation limit reached")).Post("/", storeHandler.Create)
			r.Get("/{name}/status", storeHandler.Status)
			r.With(mw.RateLimitWindow(config.DeleteLimitPerQuarterHour(), 15*time.Minute,
				"store deletion limit reached")).Delete("/{name}", storeHandler.Delete)
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// runtimeStats feeds the runtime section of /api/metrics.
func (app *App) runtimeStats() map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(app.startTime)

	return map[string]any{
		"uptime_seconds": uptime.Seconds(),
		"uptime_human":   uptime.Round(time.Second).String(),
		"request_count":  app.requestCount.Load(),
		"error_count":    app.errorCount.Load(),
		"goroutines":     runtime.NumGoroutine(),
		"memory": map[string]any{
			"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
			"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
			"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
			"num_gc":         memStats.NumGC,
		},
	}
}
