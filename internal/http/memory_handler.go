package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resilience-llm/internal/service"
)

// MemoryHandler expone la superficie administrativa: emision de tokens,
// consulta de patrones y borrado de historial por usuario.
type MemoryHandler struct {
	logger *zap.Logger
	memory *service.MemoryService
	jwtSvc *service.JWTService
}

// NewMemoryHandler crea una instancia de MemoryHandler.
func NewMemoryHandler(logger *zap.Logger, memory *service.MemoryService, jwtSvc *service.JWTService) *MemoryHandler {
	return &MemoryHandler{
		logger: logger,
		memory: memory,
		jwtSvc: jwtSvc,
	}
}

// IssueToken maneja POST /auth/token: intercambia la clave de operador por
// un access token de vida corta.
func (h *MemoryHandler) IssueToken(c *gin.Context) {
	var req struct {
		AdminKey string `json:"admin_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.jwtSvc.VerifyAdminKey(req.AdminKey)
	if err != nil {
		if errors.Is(err, service.ErrAdminKeyUnset) {
			h.logger.Error("admin key not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "admin access not configured"})
			return
		}
		h.logger.Warn("admin key rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.jwtSvc.AccessTTL().Seconds()),
	})
}

// GetPatterns maneja GET /memory/:user_id/patterns.
func (h *MemoryHandler) GetPatterns(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	pattern := h.memory.GetEmotionalPatterns(c.Request.Context(), userID, 10)
	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"patterns": pattern,
	})
}

// ClearHistory maneja DELETE /memory/:user_id. Idempotente: borrar un
// historial inexistente reporta deleted=false con 200.
func (h *MemoryHandler) ClearHistory(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	deleted := h.memory.ClearUserHistory(c.Request.Context(), userID)
	if claims, ok := GetAuthClaims(c); ok {
		h.logger.Info("history cleared",
			zap.String("user_id", userID),
			zap.String("operator_role", claims.Role),
			zap.Bool("deleted", deleted),
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"deleted": deleted,
	})
}
