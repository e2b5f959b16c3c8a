package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// LaunchGame is the demo launcher: it creates a session for the requested
// game and returns a page embedding the entry URL in an iframe.
func (h *SessionHandler) LaunchGame(c *gin.Context) {
	gameID := c.Param("gameID")

	req := &CreateSessionRequest{
		Game:        "softswiss:" + gameID,
		Currency:    c.DefaultQuery("currency", "USD"),
		Player:      c.DefaultQuery("player", "demo_player"),
		OperatorKey: c.DefaultQuery("operator", "demo_operator"),
		Mode:        "real",
	}

	_, sessionURL, err := h.createSession(req, c.ClientIP())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":     "error",
			"message":    err.Error(),
			"request_ip": c.ClientIP(),
		})
		return
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>BGaming - %s</title>
    <style>
        body, html { margin: 0; padding: 0; height: 100%%; overflow: hidden; }
        iframe { width: 100%%; height: 100%%; border: none; }
    </style>
</head>
<body>
    <iframe src="%s" allowfullscreen></iframe>
</body>
</html>`, gameID, sessionURL)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// Home lists the configured games with launch links.
func (h *SessionHandler) Home(c *gin.Context) {
	var items strings.Builder
	for _, game := range h.games {
		if !game.Enabled {
			continue
		}
		name := strings.TrimPrefix(game.Slug, "softswiss:")
		items.WriteString(fmt.Sprintf(`        <div class="game-item">
            <a href="/api/bgaming/launch/%s" target="_blank">%s</a>
        </div>
`, name, name))
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>BGaming Launcher</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        h1 { color: #333; }
        .game-list { margin: 20px 0; }
        .game-item { margin: 10px 0; padding: 10px; border: 1px solid #ddd; border-radius: 4px; }
        .game-item a { text-decoration: none; color: #007bff; font-weight: bold; }
        .game-item a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1>BGaming Game Launcher</h1>
    <p>Click on a game to launch it:</p>

    <div class="game-list">
%s    </div>
</body>
</html>`, items.String())

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// Asset serves the locally hosted bootstrap script referenced by the
// rewritten game content.
func (h *SessionHandler) Asset(c *gin.Context) {
	assetName := c.Param("assetName")

	if assetName == "custom.js" {
		c.Data(http.StatusOK, "application/javascript", []byte("window.localStorage.clear();"))
		return
	}

	c.String(http.StatusNotFound, "Asset not found")
}
