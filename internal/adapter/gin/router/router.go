package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"notes-service/internal/adapter/gin/handler"
	"notes-service/internal/adapter/gin/middleware"
	"notes-service/pkg/logger"
)

const swaggerDocPath = "/notes.swagger.json"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RateLimiter produces the limiting middleware mounted on /api.
type RateLimiter interface {
	Handler() gin.HandlerFunc
}

// Dependencies is everything the router wires together. RateLimiter and
// Metrics are optional.
type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	NoteHandler    *handler.NoteHandler
	Verifier       middleware.TokenVerifier
	RateLimiter    RateLimiter
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	DB             Pinger
	RequestTimeout time.Duration
	MaxBodyBytes   int64 // 0 disables the cap
	SwaggerFile    string
	Log            *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(deps.Log))
	router.Use(logger.RequestID())
	router.Use(middleware.Logger(deps.Log))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Handler())
	}

	router.GET("/health", health(deps.DB))
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}
	if deps.SwaggerFile != "" {
		router.GET("/swagger/*any", swagger(deps.SwaggerFile))
	}

	api := router.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Handler())
	}
	api.Use(middleware.BodyLimit(deps.MaxBodyBytes))
	api.Use(middleware.ContextTimeout(deps.RequestTimeout))

	requireAuth := middleware.RequireAuth(deps.Verifier, deps.Log)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", deps.AuthHandler.Register)
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.GET("/me", requireAuth, deps.AuthHandler.Me)
	}

	notes := api.Group("/notes", requireAuth)
	{
		notes.GET("", deps.NoteHandler.ListNotes)
		notes.POST("", deps.NoteHandler.CreateNote)
		notes.GET("/:id", deps.NoteHandler.GetNote)
		notes.PUT("/:id", deps.NoteHandler.UpdateNote)
		notes.DELETE("/:id", deps.NoteHandler.DeleteNote)
	}

	return router
}

func health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		database := "up"

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				status, code, database = "unhealthy", http.StatusServiceUnavailable, "down"
			}
		}

		c.JSON(code, gin.H{
			"status":   status,
			"service":  "notes-service",
			"database": database,
		})
	}
}

// swagger serves the OpenAPI document and the UI pointing at it.
func swagger(file string) gin.HandlerFunc {
	ui := gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger" + swaggerDocPath)))
	return func(c *gin.Context) {
		if c.Param("any") == swaggerDocPath {
			c.File(file)
			return
		}
		ui(c)
	}
}
