package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campussecurity/internal/auth"
	"campussecurity/internal/cloudinary"
	"campussecurity/internal/httpmiddleware"
	"campussecurity/internal/model"
	"campussecurity/internal/obs"
	"campussecurity/internal/recognition"
	"campussecurity/internal/records"
	"campussecurity/internal/session"
)

// Uploader stores images for the dashboard. *cloudinary.Client satisfies it.
type Uploader interface {
	Enabled() bool
	UploadBase64(ctx context.Context, data, subfolder string) (*cloudinary.UploadResult, error)
	UploadBytes(ctx context.Context, data []byte, filename, subfolder string) (*cloudinary.UploadResult, error)
}

// HealthCheck is one dependency reported by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) bool
}

// Deps is everything the API needs. Uploads and Metrics may be nil.
type Deps struct {
	Records     *records.Service
	Sessions    *session.Manager
	Issuer      auth.Issuer
	Recognition *recognition.Service
	Uploads     Uploader
	Metrics     *obs.Metrics
	Health      []HealthCheck
	Log         zerolog.Logger

	RateLimitPerMin int
	CORSOrigins     []string
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	h := &Handler{d: d}

	r := gin.New()
	r.Use(httpmiddleware.Recovery(d.Log))
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(d.Log, "/healthz", "/metrics"))
	if d.Metrics != nil {
		r.Use(httpmiddleware.Metrics(d.Metrics))
	}
	r.Use(cors.New(corsConfig(d.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())

	var onLimit func()
	if d.Metrics != nil {
		onLimit = d.Metrics.RateLimited.Inc
	}
	r.Use(httpmiddleware.NewRateLimiter(d.RateLimitPerMin, onLimit).GinMiddleware())

	r.GET("/healthz", h.Healthz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/signup", h.Signup)
		v1.POST("/auth/refresh", h.Refresh)
	}

	authed := v1.Group("", auth.Authenticate(d.Issuer, d.Sessions))
	{
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/me", h.Me)

		authed.GET("/dashboard", h.Dashboard)

		authed.GET("/students", h.ListStudents)
		authed.GET("/students/:id", h.GetStudent)
		authed.POST("/students/recognize", h.Recognize)

		authed.GET("/visitors", h.ListVisitors)
		authed.POST("/visitors", h.AddVisitor)

		authed.GET("/vehicles", h.ListVehicles)
		authed.POST("/vehicles", h.AddVehicle)

		authed.GET("/lost-items", h.ListLostItems)
		authed.POST("/lost-items", h.AddLostItem)

		authed.GET("/events", h.ListEvents)
		authed.POST("/events", h.AddEvent)

		authed.POST("/uploads", h.Upload)
	}

	admin := authed.Group("/users", auth.RequireRole(model.RoleAdmin))
	{
		admin.GET("", h.ListUsers)
		admin.POST("", h.AddUser)
		admin.GET("/:id", h.GetUser)
		admin.PUT("/:id", h.UpdateUser)
		admin.DELETE("/:id", h.DeleteUser)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders: []string{httpmiddleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// Handler serves the dashboard API.
type Handler struct {
	d Deps
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	status, code := "ok", http.StatusOK
	for _, hc := range h.d.Health {
		ok := hc.Check(ctx)
		checks[hc.Name] = ok
		if !ok {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
