package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bgaming-proxy/internal/config"
	"bgaming-proxy/internal/services"
)

type AuthHandler struct {
	jwtService *services.JWTService
	cfg        *config.Config
}

func NewAuthHandler(jwtService *services.JWTService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		cfg:        cfg,
	}
}

type TokenRequest struct {
	OperatorKey    string `json:"operator_key" binding:"required"`
	OperatorSecret string `json:"operator_secret" binding:"required"`
}

// IssueToken exchanges operator credentials for a bearer token for the
// session API.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	keyOK := subtle.ConstantTimeCompare([]byte(req.OperatorKey), []byte(h.cfg.OperatorKey)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(req.OperatorSecret), []byte(h.cfg.OperatorSecret)) == 1
	if !keyOK || !secretOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid operator credentials"})
		return
	}

	token, err := h.jwtService.GenerateToken(req.OperatorKey, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64((24 * time.Hour).Seconds()),
	})
}
