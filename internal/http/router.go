package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"resilience-llm/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	resilienceH *ResilienceHandler,
	memoryH *MemoryHandler,
	jwtSvc *service.JWTService,
) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Middlewares basicos: logging, recovery, JSON content-type y request-id.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware(), requestIDMiddleware())

	r.GET("/health", resilienceH.Health)
	r.GET("/api", resilienceH.APIInfo)
	r.POST("/resilience", resilienceH.PostResilience)

	auth := r.Group("/auth")
	auth.POST("/token", memoryH.IssueToken)

	memory := r.Group("/memory", JWTAuthMiddleware(jwtSvc))
	memory.GET("/:user_id/patterns", memoryH.GetPatterns)
	memory.DELETE("/:user_id", memoryH.ClearHistory)

	// Cualquier ruta o metodo desconocido responde JSON, no HTML.
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorEnvelope("Endpoint not found. Use /api for API information."))
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorEnvelope("Method not allowed for this endpoint."))
	})

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// requestIDMiddleware asigna un id por request para correlacionar logs.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}
