package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/auth"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/config"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/forensic"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/logging"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/metrics"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/ratelimit"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		log, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cmd, cfg, log)
	},
}

func serve(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *zap.Logger) error {
	st, err := openStore(cmd, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	rec := metrics.New()

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("LLM provider not configured, forensic narratives disabled")
		provider = nil
	case err != nil:
		return fmt.Errorf("configure LLM provider: %w", err)
	default:
		log.Info("LLM provider ready", zap.String("model", provider.ModelID()))
	}

	svc := forensic.NewService(st.AssessmentRepo(), provider, forensic.Options{
		Thresholds:       cfg.Thresholds,
		QueueSize:        cfg.Forensic.QueueSize,
		BatchParallelism: cfg.Forensic.BatchParallelism,
		ReportTimeout:    cfg.Forensic.ReportTimeout,
		Metrics:          rec,
		Logger:           log.Named("forensic"),
	})
	defer svc.Close()
	th := svc.Thresholds()
	log.Info("forensic service ready",
		zap.Bool("narratives", svc.HasNarrator()),
		zap.Float64("latency_max_ms", th.LatencyMaxMs),
		zap.Float64("cadence_variance_threshold", th.CadenceVarianceThreshold),
		zap.Float64("gaze_drift_threshold", th.GazeDriftThreshold),
	)

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	var issuer *auth.Issuer
	if cfg.Auth.Secret != "" {
		issuer, err = auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.Issuer)
		if err != nil {
			return fmt.Errorf("configure auth: %w", err)
		}
	} else {
		log.Warn("auth secret not set, audit routes are unauthenticated")
	}

	router := server.NewRouter(server.Deps{
		Forensic:    svc,
		Assessments: st.AssessmentRepo(),
		Events:      st.EventRepo(),
		Provider:    provider,
		Limiter:     limiter,
		Issuer:      issuer,
		Metrics:     rec,
		Logger:      log.Named("http"),
		Thresholds:  th,
		Iris:        cfg.Iris,
	})

	return server.Run(ctx, cfg.Server.Addr, router, server.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	}, log)
}

// newLimiter prefers Redis and falls back to an in-process window when no
// address is configured or Redis does not answer.
func newLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (ratelimit.Limiter, func()) {
	memory := func() (ratelimit.Limiter, func()) {
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window), func() {}
	}
	if cfg.Redis.Addr == "" {
		return memory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, using in-memory rate limiter",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		client.Close()
		return memory()
	}

	log.Info("rate limiting via redis", zap.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedisLimiter(client, cfg.RateLimit.Limit, cfg.RateLimit.Window), func() { client.Close() }
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}
