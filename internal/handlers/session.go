package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"bgaming-proxy/internal/config"
	"bgaming-proxy/internal/models"
	"bgaming-proxy/internal/services"
)

type SessionHandler struct {
	sessions   *services.SessionStore
	translator *services.Translator
	signer     *services.Signer
	games      []models.Game
	cfg        *config.Config
}

func NewSessionHandler(sessions *services.SessionStore, translator *services.Translator, signer *services.Signer, cfg *config.Config) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		translator: translator,
		signer:     signer,
		games:      models.DefaultGames(),
		cfg:        cfg,
	}
}

type CreateSessionRequest struct {
	Game        string `json:"game" binding:"required"`
	Currency    string `json:"currency"`
	Player      string `json:"player" binding:"required"`
	OperatorKey string `json:"operator_key" binding:"required"`
	Mode        string `json:"mode"`
}

// CreateSession issues a new internal play session and the signed entry URL
// the player is redirected to.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Missing required parameters",
			"details": err.Error(),
		})
		return
	}

	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.Mode == "" {
		req.Mode = "real"
	}

	session, sessionURL, err := h.createSession(&req, c.ClientIP())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":     "error",
			"message":    err.Error(),
			"request_ip": c.ClientIP(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"message": gin.H{
			"session_data": session,
			"session_url":  sessionURL,
		},
		"request_ip": c.ClientIP(),
	})
}

func (h *SessionHandler) createSession(req *CreateSessionRequest, requestIP string) (*models.Session, string, error) {
	game, found := models.FindGame(h.games, req.Game)
	if !found {
		return nil, "", errors.New("Game not found")
	}
	if !game.Enabled {
		return nil, "", errors.New("Game found, however this game is disabled.")
	}

	// Best effort: a racing creation can briefly leave two live sessions.
	h.sessions.InvalidatePrevious(req.Player, req.OperatorKey)

	session := h.sessions.Create(services.CreateSessionParams{
		PlayerID:   req.Player,
		OperatorID: req.OperatorKey,
		GameID:     game.Slug,
		GameGID:    game.GID,
		Currency:   req.Currency,
		Provider:   game.Provider,
		Mode:       req.Mode,
	})

	entrySignature := h.signer.Sign(session.TokenInternal)
	sessionURL := fmt.Sprintf("%s?token=%s&entry=%s&player_id=%s",
		h.cfg.EntrySessionURL, session.TokenInternal, entrySignature, req.Player)

	log.Printf("Created session %s for player %s (game %s, ip %s)",
		session.TokenInternal, req.Player, game.Slug, requestIP)

	return session, sessionURL, nil
}

// EntrySession redeems a signed entry link and returns the rewritten game
// content.
func (h *SessionHandler) EntrySession(c *gin.Context) {
	token := c.Query("token")
	entry := c.Query("entry")
	playerID := c.Query("player_id")

	if token == "" || entry == "" || playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required parameters",
		})
		return
	}

	session, err := h.sessions.Find(playerID, token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Session not found",
		})
		return
	}

	if !h.signer.Verify(entry, token) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Entry invalid, create new session",
		})
		return
	}

	if _, err := h.sessions.UpdateState(playerID, token, models.StateEntry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Not able to change session state",
		})
		return
	}

	session, err = h.sessions.Update(playerID, token, func(sess *models.Session) {
		sess.UserAgent = models.UserAgentMeta{
			UserAgent: c.Request.UserAgent(),
			PlayerIP:  c.ClientIP(),
		}
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Not able to change session state",
		})
		return
	}

	content, err := h.translator.RequestSession(session)
	if err != nil {
		log.Printf("Failed to retrieve origin game for session %s: %v", token, err)
		if _, stateErr := h.sessions.UpdateState(playerID, token, models.StateFailed); stateErr != nil {
			log.Printf("Failed to mark session %s failed: %v", token, stateErr)
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Error trying to retrieve origin game, please refresh",
		})
		return
	}

	if _, err := h.sessions.UpdateState(playerID, token, models.StateStarted); err != nil {
		log.Printf("Failed to mark session %s started: %v", token, err)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(content))
}
