package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"bgaming-proxy/internal/config"
	"bgaming-proxy/internal/handlers"
	"bgaming-proxy/internal/models"
	"bgaming-proxy/internal/services"
)

const demoPage = `<html><head></head><body><div id="game"></div>` +
	`<script>var cfg = {\"play_token\":\"upstream-play-token\",\"other\":1};</script>` +
	`</body></html>`

type testEnv struct {
	router   *gin.Engine
	sessions *services.SessionStore
	ledger   *services.Ledger
	signer   *services.Signer
	cfg      *config.Config
}

func newTestEnv(t *testing.T, upstream http.Handler) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		UpstreamPlayURL:      server.URL + "/play",
		UpstreamAPIURL:       server.URL + "/api",
		BundleURL:            server.URL + "/bundle.js",
		CallbackBaseURL:      "http://localhost:8080/api/bgaming/callback",
		EntrySessionURL:      "http://localhost:8080/api/bgaming/entry-session",
		PublicBaseURL:        "http://localhost:8080",
		CurrencyCode:         "ZEROBYTE",
		CurrencySymbol:       "$",
		StartingBalanceCents: 10000000,
		SessionTTL:           time.Minute,
		SigningSecret:        "someSecretKey",
	}

	ledger := services.NewLedger(cfg.StartingBalanceCents, nil)
	sessions := services.NewSessionStore(services.NewMemorySessionCache(cfg.SessionTTL), nil)
	signer := services.NewSigner(cfg.SigningSecret)
	translator := services.NewTranslator(ledger, sessions, services.NewUpstreamClient(cfg), cfg)

	sessionHandler := handlers.NewSessionHandler(sessions, translator, signer, cfg)
	callbackHandler := handlers.NewCallbackHandler(translator, sessions, ledger)

	router := gin.New()
	router.POST("/api/sessions", sessionHandler.CreateSession)
	router.GET("/api/bgaming/entry-session", sessionHandler.EntrySession)
	router.Any("/api/bgaming/callback/*path", callbackHandler.HandleCallback)

	return &testEnv{
		router:   router,
		sessions: sessions,
		ledger:   ledger,
		signer:   signer,
		cfg:      cfg,
	}
}

func demoUpstream() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/play/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, demoPage)
	})
	mux.HandleFunc("/bundle.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "boot();")
	})
	return mux
}

func createSession(t *testing.T, env *testEnv) (*models.Session, string) {
	t.Helper()

	body := `{"game": "softswiss:AlohaKingElvis", "player": "player_1", "operator_key": "op_1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status  string `json:"status"`
		Message struct {
			SessionData *models.Session `json:"session_data"`
			SessionURL  string          `json:"session_url"`
		} `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.Message.SessionData, resp.Message.SessionURL
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, demoUpstream())

	session, sessionURL := createSession(t, env)

	if session.State != models.StateInit {
		t.Errorf("Expected state %s, got %s", models.StateInit, session.State)
	}
	if session.TokenInternal == "" {
		t.Error("Session should carry an internal token")
	}

	parsed, err := url.Parse(sessionURL)
	if err != nil {
		t.Fatalf("Failed to parse session URL: %v", err)
	}
	query := parsed.Query()
	if query.Get("token") != session.TokenInternal {
		t.Errorf("Session URL token mismatch: %s", sessionURL)
	}
	if query.Get("player_id") != "player_1" {
		t.Errorf("Session URL player mismatch: %s", sessionURL)
	}
	if !env.signer.Verify(query.Get("entry"), session.TokenInternal) {
		t.Error("Entry signature in session URL should verify")
	}
}

func TestCreateSessionMissingParams(t *testing.T) {
	env := newTestEnv(t, demoUpstream())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"game": "softswiss:AlohaKingElvis"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateSessionUnknownGame(t *testing.T) {
	env := newTestEnv(t, demoUpstream())

	body := `{"game": "softswiss:NoSuchGame", "player": "player_1", "operator_key": "op_1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Game not found") {
		t.Errorf("Expected game-not-found message, got %s", w.Body.String())
	}
}

func TestCreateSessionOverrulesPrevious(t *testing.T) {
	env := newTestEnv(t, demoUpstream())

	first, _ := createSession(t, env)
	second, _ := createSession(t, env)

	if first.TokenInternal == second.TokenInternal {
		t.Fatal("Each creation should issue a fresh token")
	}

	overruled, err := env.sessions.Find("player_1", first.TokenInternal)
	if err != nil {
		t.Fatalf("Failed to re-find first session: %v", err)
	}
	if overruled.State != models.StateOverruleInvalidation {
		t.Errorf("Previous pending session should be overruled, got %s", overruled.State)
	}
}

func entryURL(session *models.Session, entry string) string {
	return fmt.Sprintf("/api/bgaming/entry-session?token=%s&entry=%s&player_id=%s",
		session.TokenInternal, entry, session.PlayerID)
}

func TestEntrySession(t *testing.T) {
	env := newTestEnv(t, demoUpstream())
	session, _ := createSession(t, env)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, entryURL(session, env.signer.Sign(session.TokenInternal)), nil)
	req.Header.Set("User-Agent", "test-agent/1.0")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected HTML response, got %s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "boot();") {
		t.Error("Game content should carry the injected bundle")
	}

	started, err := env.sessions.Find(session.PlayerID, session.TokenInternal)
	if err != nil {
		t.Fatalf("Failed to re-find session: %v", err)
	}
	if started.State != models.StateStarted {
		t.Errorf("Expected state %s after entry, got %s", models.StateStarted, started.State)
	}
	if started.TokenOriginal != "upstream-play-token" {
		t.Errorf("Upstream token should be bound, got %q", started.TokenOriginal)
	}
	if started.UserAgent.UserAgent != "test-agent/1.0" {
		t.Errorf("Entry should record the player user agent, got %q", started.UserAgent.UserAgent)
	}
}

func TestEntrySessionMissingParams(t *testing.T) {
	env := newTestEnv(t, demoUpstream())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/bgaming/entry-session?token=abc", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestEntrySessionNotFound(t *testing.T) {
	env := newTestEnv(t, demoUpstream())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/bgaming/entry-session?token=no-such-token&entry=sig&player_id=player_1", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEntrySessionBadSignature(t *testing.T) {
	env := newTestEnv(t, demoUpstream())
	session, _ := createSession(t, env)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, entryURL(session, "forged-signature"), nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}

	unchanged, err := env.sessions.Find(session.PlayerID, session.TokenInternal)
	if err != nil {
		t.Fatalf("Failed to re-find session: %v", err)
	}
	if unchanged.State != models.StateInit {
		t.Errorf("A forged entry must not advance the session, got %s", unchanged.State)
	}
}

func TestEntrySessionCannotBeReplayed(t *testing.T) {
	env := newTestEnv(t, demoUpstream())
	session, _ := createSession(t, env)
	entry := env.signer.Sign(session.TokenInternal)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, entryURL(session, entry), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("First entry should succeed, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, entryURL(session, entry), nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("A started session must reject re-entry, got %d", w.Code)
	}
}

func TestEntrySessionUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/play/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	env := newTestEnv(t, mux)
	session, _ := createSession(t, env)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, entryURL(session, env.signer.Sign(session.TokenInternal)), nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	failed, err := env.sessions.Find(session.PlayerID, session.TokenInternal)
	if err != nil {
		t.Fatalf("Failed to re-find session: %v", err)
	}
	if failed.State != models.StateFailed {
		t.Errorf("Expected state %s after upstream failure, got %s", models.StateFailed, failed.State)
	}
}
