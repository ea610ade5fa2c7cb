package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"campussecurity/internal/access"
	"campussecurity/internal/auth"
	"campussecurity/internal/cloudinary"
	"campussecurity/internal/config"
	"campussecurity/internal/faceclient"
	"campussecurity/internal/httpapi"
	"campussecurity/internal/ids"
	"campussecurity/internal/logger"
	"campussecurity/internal/model"
	"campussecurity/internal/obs"
	"campussecurity/internal/queue"
	"campussecurity/internal/recognition"
	"campussecurity/internal/records"
	"campussecurity/internal/session"
	"campussecurity/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.Env, cfg.LogLevel, "campus-api", os.Stdout)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func runHTTP(cfg config.App, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := obs.New()

	seed, err := records.LoadSeed(cfg.SeedFile)
	if err != nil {
		return err
	}
	gen := ids.NewTimeSeeded()
	if cfg.RNGSeed != 0 {
		gen = ids.NewGenerator(cfg.RNGSeed)
	}

	var redisClient *redis.Client
	if cfg.SessionBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
	}

	kv, closeKV, err := openSessionStore(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeKV()
	log.Info().Str("backend", cfg.SessionBackend).Msg("session store ready")

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(256)
		// nobody else can drain an in-process queue
		go func() {
			_ = queue.ConsumeEvents(ctx, q, eventHandler(log, metrics), badMessage(log))
		}()
	} else {
		q = queue.NewRedisQueue(redisClient, queue.DefaultRedisKey)
	}
	publisher := queue.NewEventPublisher(q, func(t model.EventType) {
		metrics.EventsPublished.WithLabelValues(string(t)).Inc()
	})

	repos := records.NewMemory(seed, gen)
	recs := records.NewService(repos, gen,
		records.WithLatency(records.Latency{
			Read:  cfg.ReadLatency,
			Write: cfg.WriteLatency,
			Event: cfg.EventLatency,
			Face:  cfg.FaceLatency,
		}),
		records.WithSink(publisher),
		records.WithLogger(component(log, "records")),
	)

	sessions := session.NewManager(repos.Users, kv,
		session.WithLoginDelay(cfg.LoginDelay),
		session.WithTTL(cfg.RefreshTTL),
		session.WithLogger(component(log, "session")),
	)

	cdn := cloudinary.New(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret, cfg.CloudinaryFolder)
	if cfg.CloudinaryEnabled() {
		log.Info().Str("cloud", cfg.CloudinaryCloud).Msg("cloudinary configured")
	} else {
		log.Info().Msg("cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)
	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Warn().Err(err).Msg("face service not available, recognitions will use the local matcher")
		}
	}

	recognizer := recognition.NewService(face, recs.Students,
		access.NewService(recs.Events, cfg.AccessDedupWindow),
		recognition.WithSnapshots(cdn),
		recognition.WithLogger(component(log, "recognition")),
		recognition.WithObserver(func(source string, matched bool) {
			outcome := "unmatched"
			if matched {
				outcome = "matched"
			}
			metrics.Recognitions.WithLabelValues(source, outcome).Inc()
		}),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Records:  recs,
		Sessions: sessions,
		Issuer: auth.Issuer{
			Name:       cfg.JWTIssuer,
			Key:        []byte(cfg.JWTSigningKey),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Recognition: recognizer,
		Uploads:     cdn,
		Metrics:     metrics,
		Health: []httpapi.HealthCheck{
			{Name: "sessions", Check: kv.Healthy},
			{Name: "queue", Check: q.Healthy},
		},
		Log:             component(log, "http"),
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	// give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}
	log.Info().Msg("server exited")
	return nil
}

func component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func eventHandler(log zerolog.Logger, metrics *obs.Metrics) func(model.SecurityEvent) {
	return queue.LogEvents(component(log, "events"), func(model.SecurityEvent) {
		metrics.CriticalAlerts.Inc()
	})
}

func badMessage(log zerolog.Logger) func(queue.Message, error) {
	return func(msg queue.Message, err error) {
		log.Warn().Err(err).Str("type", msg.Type).Msg("dropping undecodable event")
	}
}
