package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"campussecurity/internal/config"
	"campussecurity/internal/logger"
	"campussecurity/internal/model"
	"campussecurity/internal/obs"
	"campussecurity/internal/queue"
	"campussecurity/internal/store"
)

// Worker drains the security event queue, logs every event and counts
// critical alerts. It only makes sense with QUEUE_BACKEND=redis; the memory
// queue is consumed inside the API process.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.Env, cfg.LogLevel, "campus-worker", os.Stdout)
	if cfg.QueueBackend != "redis" {
		log.Fatal().Str("queue_backend", cfg.QueueBackend).Msg("worker requires QUEUE_BACKEND=redis")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := obs.New()
	if cfg.WorkerMetrics != "" {
		go serveMetrics(ctx, cfg.WorkerMetrics, metrics, log)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	q := queue.NewRedisQueue(redisClient, queue.DefaultRedisKey)
	if !q.Healthy(ctx) {
		log.Warn().Str("addr", cfg.RedisAddr).Msg("redis not reachable yet, will keep retrying")
	}

	handle := queue.LogEvents(log.With().Str("component", "events").Logger(), func(e model.SecurityEvent) {
		metrics.CriticalAlerts.Inc()
	})
	bad := func(msg queue.Message, err error) {
		log.Warn().Err(err).Str("type", msg.Type).Msg("dropping undecodable event")
	}

	log.Info().Str("queue", queue.DefaultRedisKey).Msg("worker started, waiting for events")
	if err := queue.ConsumeEvents(ctx, q, handle, bad); err != nil {
		log.Fatal().Err(err).Msg("queue consume failed")
	}
	log.Info().Msg("worker stopped")
}

func serveMetrics(ctx context.Context, addr string, metrics *obs.Metrics, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving worker metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server failed")
	}
}
