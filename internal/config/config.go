package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	LogLevel        string
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	FaceServiceURL  string
	FaceSkip        bool
	SessionBackend  string
	RedisAddr       string
	DatabaseURL     string
	SQLitePath      string
	QueueBackend    string
	WorkerMetrics   string
	RateLimitPerMin int
	CORSOrigins     []string
	SeedFile        string
	RNGSeed         int64

	ReadLatency       time.Duration
	WriteLatency      time.Duration
	EventLatency      time.Duration
	FaceLatency       time.Duration
	LoginDelay        time.Duration
	AccessDedupWindow time.Duration

	CloudinaryCloud  string
	CloudinaryKey    string
	CloudinarySecret string
	CloudinaryFolder string
}

// Load returns application config populated from environment variables with
// sensible defaults, rejecting combinations that cannot start.
func Load() (App, error) {
	cfg := App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTIssuer:       getEnv("JWT_ISSUER", "campus-security"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:       durationEnv("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:      durationEnv("REFRESH_TTL", 24*time.Hour),
		FaceServiceURL:  getEnv("FACE_SERVICE_URL", "http://localhost:5000"),
		FaceSkip:        boolEnv("FACE_SKIP", false),
		SessionBackend:  getEnv("SESSION_BACKEND", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/campus.db"),
		QueueBackend:    getEnv("QUEUE_BACKEND", "memory"),
		WorkerMetrics:   getEnv("WORKER_METRICS_ADDR", ""),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
		CORSOrigins:     listEnv("CORS_ORIGINS", []string{"*"}),
		SeedFile:        getEnv("SEED_FILE", ""),
		RNGSeed:         int64(intEnv("RNG_SEED", 0)),

		ReadLatency:       durationEnv("READ_LATENCY", 300*time.Millisecond),
		WriteLatency:      durationEnv("WRITE_LATENCY", 500*time.Millisecond),
		EventLatency:      durationEnv("EVENT_LATENCY", 200*time.Millisecond),
		FaceLatency:       durationEnv("FACE_LATENCY", 1500*time.Millisecond),
		LoginDelay:        durationEnv("LOGIN_DELAY", time.Second),
		AccessDedupWindow: durationEnv("ACCESS_DEDUP_WINDOW", 5*time.Minute),

		CloudinaryCloud:  getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinarySecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "campus-security"),
	}
	if err := cfg.Validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c App) Validate() error {
	var errs []error
	switch c.SessionBackend {
	case "memory", "sqlite":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for SESSION_BACKEND=redis"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for SESSION_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	if c.SessionBackend == "sqlite" && c.SQLitePath == "" {
		errs = append(errs, errors.New("SQLITE_PATH is required for SESSION_BACKEND=sqlite"))
	}
	switch c.QueueBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for QUEUE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown QUEUE_BACKEND %q", c.QueueBackend))
	}
	if c.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL < c.AccessTTL {
		errs = append(errs, errors.New("ACCESS_TTL must be positive and not exceed REFRESH_TTL"))
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MIN must not be negative"))
	}
	return errors.Join(errs...)
}

// CloudinaryEnabled reports whether image uploads are configured.
func (c App) CloudinaryEnabled() bool {
	return c.CloudinaryCloud != "" && c.CloudinaryKey != "" && c.CloudinarySecret != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Dur("fallback", fallback).Msg("invalid duration, using fallback")
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			log.Warn().Str("key", key).Bool("fallback", fallback).Msg("invalid bool, using fallback")
			return fallback
		}
		return b
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			log.Warn().Str("key", key).Int("fallback", fallback).Msg("invalid int, using fallback")
			return fallback
		}
		return n
	}
	return fallback
}
