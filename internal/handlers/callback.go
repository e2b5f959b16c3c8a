package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bgaming-proxy/internal/models"
	"bgaming-proxy/internal/services"
)

type CallbackHandler struct {
	translator *services.Translator
	sessions   *services.SessionStore
	ledger     *services.Ledger
}

func NewCallbackHandler(translator *services.Translator, sessions *services.SessionStore, ledger *services.Ledger) *CallbackHandler {
	return &CallbackHandler{
		translator: translator,
		sessions:   sessions,
		ledger:     ledger,
	}
}

// HandleCallback proxies a gameplay command. Whatever goes wrong, the
// embedded game client always gets HTTP 200 with any error inside the JSON
// envelope; a transport-level 5xx would break its parsing.
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in callback handler: %v", r)
			c.JSON(http.StatusOK, models.ErrorResponse(500, "Internal server error", 0))
		}
	}()

	gameID, sessionID, token := splitCallbackPath(c.Param("path"))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		playerID := h.resolvePlayer(c, nil, token, sessionID)
		c.JSON(http.StatusOK, models.ErrorResponse(400, "Invalid request", h.ledger.GetBalance(playerID)))
		return
	}

	var req models.CallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		playerID := h.resolvePlayer(c, nil, token, sessionID)
		c.JSON(http.StatusOK, models.ErrorResponse(400, "Invalid request", h.ledger.GetBalance(playerID)))
		return
	}

	playerID := h.resolvePlayer(c, &req, token, sessionID)

	log.Printf("Game callback: %s %s (command %s, player %s)", c.Request.Method, c.Request.URL.Path, req.Command, playerID)

	resp := h.translator.HandleCommand(&services.RelayRequest{
		GameID:    gameID,
		SessionID: sessionID,
		Token:     token,
		PlayerID:  playerID,
		Command:   req.Command,
		Bet:       req.Bet,
		Body:      body,
		UserAgent: c.Request.UserAgent(),
	})

	c.JSON(http.StatusOK, resp)
}

// resolvePlayer correlates the callback to a session via the upstream token
// bound at entry; the query/body/token fallbacks keep unknown callers on an
// isolated ledger account.
func (h *CallbackHandler) resolvePlayer(c *gin.Context, req *models.CallbackRequest, token, sessionID string) string {
	if session, err := h.sessions.FindByOriginalToken(token); err == nil {
		return session.PlayerID
	}
	if playerID := c.Query("player_id"); playerID != "" {
		return playerID
	}
	if req != nil && req.PlayerID != "" {
		return req.PlayerID
	}
	if token != "" {
		return token
	}
	if sessionID != "" {
		return sessionID
	}
	return "demo_player"
}

// splitCallbackPath parses the provider's /{game}/{session}/{token} path
// suffix.
func splitCallbackPath(path string) (gameID, sessionID, token string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 0 {
		gameID = segments[0]
	}
	if len(segments) > 1 {
		sessionID = segments[1]
	}
	if len(segments) > 2 {
		token = segments[2]
	}
	return gameID, sessionID, token
}
