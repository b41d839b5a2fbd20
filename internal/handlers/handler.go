package handlers

import (
	"net/http"
	"time"

	lf "lost_and_found"
	"lost_and_found/internal/logger"
	"lost_and_found/internal/metrics"
	"lost_and_found/internal/models"
	"lost_and_found/internal/security"
	"lost_and_found/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const statusOK = "ok"

// Options tune transport behaviour that depends on the environment.
type Options struct {
	// SecureCookie sets the Secure flag on the session cookie (production).
	SecureCookie bool
	// SessionTTL is the cookie max-age; it matches the token lifetime.
	SessionTTL time.Duration
	// Diagnostics adds the underlying cause to 5xx bodies (non-production).
	Diagnostics bool
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = security.DefaultSessionTTL
	}
	return &Handler{services: services, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health and metrics endpoints
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.signUp)
		auth.GET("/verify", h.verifyEmail)
		auth.POST("/login", h.signIn)
		auth.POST("/logout", h.signOut)
		auth.POST("/resend-verification", h.resendVerification)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authenticate)
	{
		api.GET("/me", h.me)
		h.registerAdminRoutes(api)
	}
}

func (h *Handler) registerAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin", h.requireRole(models.RoleAdmin))
	{
		admin.GET("/events", h.listEvents)
		admin.GET("/ws", h.eventStream)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  lost_and_found.HealthResponse
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, lf.HealthResponse{Status: statusOK})
}
