// Package server exposes Proxy Guard scoring and the forensic audit trail
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/auth"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/forensic"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/metrics"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/ratelimit"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

// Deps are the collaborators the HTTP layer needs. Provider, Issuer,
// Limiter and Metrics may be nil.
type Deps struct {
	Forensic    *forensic.Service
	Assessments store.AssessmentRepo
	Events      store.EventRepo
	Provider    llm.Provider
	Limiter     ratelimit.Limiter
	Issuer      *auth.Issuer
	Metrics     *metrics.Recorder
	Logger      *zap.Logger

	Thresholds proxyguard.Thresholds
	Iris       proxyguard.IrisRange
}

// Handler serves the API routes.
type Handler struct {
	deps Deps
	log  *zap.Logger
}

// NewRouter builds the gin engine with recovery, logging and metrics
// middleware and every route registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Thresholds == (proxyguard.Thresholds{}) {
		deps.Thresholds = proxyguard.DefaultThresholds()
	}
	if deps.Iris == (proxyguard.IrisRange{}) {
		deps.Iris = proxyguard.DefaultIrisRange()
	}
	h := &Handler{deps: deps, log: deps.Logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(RequestMetrics(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/healthz", h.Health)

	api := router.Group("/api/v1")
	api.POST("/proxy-guard/score", h.Score)
	api.POST("/assessments", h.CreateAssessment)
	api.POST("/ai/generate", RateLimit(deps.Limiter, deps.Logger), h.Generate)

	protected := api.Group("", RequireAuth(deps.Issuer))
	protected.GET("/assessments", h.ListAssessments)
	protected.GET("/assessments/:id", h.GetAssessment)
	protected.GET("/llm/usage", h.LLMUsage)

	return router
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, timeouts Timeouts, log *zap.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  timeouts.Read,
		WriteTimeout: timeouts.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Timeouts bounds request I/O and graceful shutdown.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}
