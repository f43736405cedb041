package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resilience-llm/internal/domain"
	"resilience-llm/internal/service"
)

// ResilienceHandler mantiene dependencias para el endpoint principal del
// agente y los endpoints informativos.
type ResilienceHandler struct {
	logger      *zap.Logger
	workflow    *service.ResilienceWorkflow
	limiter     service.RateLimiter
	inputVal    InputValidator
	responseVal ResponseValidator
}

// NewResilienceHandler crea una instancia de ResilienceHandler.
func NewResilienceHandler(logger *zap.Logger, workflow *service.ResilienceWorkflow, limiter service.RateLimiter) *ResilienceHandler {
	return &ResilienceHandler{
		logger:   logger,
		workflow: workflow,
		limiter:  limiter,
	}
}

func errorEnvelope(message string) gin.H {
	return gin.H{
		"status":  string(domain.StatusError),
		"agent":   domain.AgentName,
		"message": message,
	}
}

// Health maneja GET /health.
func (h *ResilienceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"agent":   domain.AgentName,
		"version": domain.AgentVersion,
		"message": "Resilience Coach Agent is running",
	})
}

// APIInfo maneja GET /api con la descripcion de la superficie publica.
func (h *ResilienceHandler) APIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"agent":   domain.AgentName,
		"version": domain.AgentVersion,
		"status":  "running",
		"endpoints": gin.H{
			"api_info": gin.H{
				"path":        "/api",
				"method":      "GET",
				"description": "API information",
			},
			"health": gin.H{
				"path":        "/health",
				"method":      "GET",
				"description": "Health check endpoint",
			},
			"resilience": gin.H{
				"path":            "/resilience",
				"method":          "POST",
				"description":     "Main agent interaction endpoint",
				"required_fields": []string{"agent", "input_text"},
				"optional_fields": []string{"metadata"},
			},
		},
	})
}

// PostResilience maneja POST /resilience: valida la envoltura, sanea el
// input, aplica el limite por usuario y corre el workflow completo.
func (h *ResilienceHandler) PostResilience(c *gin.Context) {
	var req struct {
		Agent     *string                `json:"agent"`
		InputText *string                `json:"input_text"`
		Metadata  domain.RequestMetadata `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resilience request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorEnvelope("Request body must be a JSON object"))
		return
	}

	if req.Agent == nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Missing required field: agent"))
		return
	}
	if *req.Agent != domain.AgentName {
		c.JSON(http.StatusBadRequest, errorEnvelope(
			"Invalid agent name. Expected: '"+domain.AgentName+"', got: '"+*req.Agent+"'"))
		return
	}
	if req.InputText == nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Missing required field: input_text"))
		return
	}

	sanitized, err := h.inputVal.ValidateInput(*req.InputText)
	if err != nil {
		h.logger.Warn("invalid input", zap.String("reason", err.Error()))
		c.JSON(http.StatusBadRequest, errorEnvelope(err.Error()))
		return
	}

	metadata, err := h.inputVal.ValidateMetadata(req.Metadata)
	if err != nil {
		h.logger.Warn("invalid metadata", zap.String("reason", err.Error()))
		c.JSON(http.StatusBadRequest, errorEnvelope(err.Error()))
		return
	}

	userID := metadata.UserID
	if userID == "" {
		userID = "anonymous"
	}
	if h.limiter != nil && !h.limiter.Allow(userID) {
		h.logger.Warn("rate limit exceeded", zap.String("user_id", userID))
		c.JSON(http.StatusTooManyRequests, errorEnvelope(
			"Rate limit exceeded. Please wait a moment before trying again."))
		return
	}

	h.logger.Info("processing resilience request", zap.String("user_id", userID))

	result := h.workflow.Process(c.Request.Context(), sanitized, metadata)

	if err := h.responseVal.ValidateResponse(&result); err != nil {
		h.logger.Error("invalid response generated", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorEnvelope(
			"Failed to generate valid response. Please try again."))
		return
	}

	c.JSON(http.StatusOK, result)
}
