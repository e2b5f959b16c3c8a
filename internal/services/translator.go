package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"bgaming-proxy/internal/config"
	"bgaming-proxy/internal/models"
)

var (
	// ErrTokenNotSelectable means the provider page no longer carries a play
	// token where expected. That is an upstream contract change, fatal for
	// the request.
	ErrTokenNotSelectable = errors.New("play token not selectable")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// upstream error classification for the fresh-session retry
const (
	upstreamCodeUnknownSession = 204
	upstreamDescUnknownSession = "unknown_exception"
)

// Translator produces the player-facing content: rewritten game markup on
// entry, and gameplay responses with the locally tracked balance and
// currency substituted in.
type Translator struct {
	ledger   *Ledger
	sessions *SessionStore
	upstream *UpstreamClient
	cfg      *config.Config
}

func NewTranslator(ledger *Ledger, sessions *SessionStore, upstream *UpstreamClient, cfg *config.Config) *Translator {
	return &Translator{
		ledger:   ledger,
		sessions: sessions,
		upstream: upstream,
		cfg:      cfg,
	}
}

// inBetween returns the first occurrence of content between two literal
// markers, or "" when either marker is missing.
func inBetween(content, start, end string) string {
	from := strings.Index(content, start)
	if from == -1 {
		return ""
	}
	rest := content[from+len(start):]
	to := strings.Index(rest, end)
	if to == -1 {
		return ""
	}
	return rest[:to]
}

// extractPlayToken pulls the provider-issued play token out of the demo
// page. The token appears JSON-escaped inside inline markup and plain inside
// script state; both forms are tried.
func extractPlayToken(content string) string {
	if token := inBetween(content, `\"play_token\":\"`, `\",\"`); token != "" {
		return token
	}
	return inBetween(content, `"play_token":"`, `"`)
}

// RequestSession bootstraps the upstream demo session for a found session
// and returns the rewritten game content.
func (t *Translator) RequestSession(session *models.Session) (string, error) {
	parts := strings.Split(session.GameIDOriginal, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("malformed original game id %q", session.GameIDOriginal)
	}
	originalGameID := parts[1]

	result, err := t.upstream.BootstrapDemo(originalGameID, "FUN", session.UserAgent.UserAgent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if result.Status != 200 {
		return "", fmt.Errorf("%w: bootstrap returned status %d", ErrUpstreamUnavailable, result.Status)
	}

	content := string(result.Body)

	playToken := extractPlayToken(content)
	if playToken == "" {
		log.Printf("Not able to select play_token, even though the status & original game data seem correct")
		return "", ErrTokenNotSelectable
	}

	// Bind the upstream token so gameplay callbacks can correlate back to
	// this session.
	if _, err := t.sessions.Update(session.PlayerID, session.TokenInternal, func(sess *models.Session) {
		sess.TokenOriginal = playToken
	}); err != nil {
		return "", fmt.Errorf("failed to bind original token: %v", err)
	}

	rewriter := NewContentRewriter(DefaultRewriteRules(t.cfg.CallbackBaseURL, t.cfg.PublicBaseURL, session.GameID))
	content = rewriter.Apply(content)

	bundle, err := t.upstream.FetchBundle()
	if err != nil {
		log.Printf("Failed to load bundle: %v", err)
		bundle = `console.error("Failed to load bundle");`
	}
	content = InjectAfterBody(content, fmt.Sprintf(`<script type="text/javascript">%s</script>`, bundle))

	return content, nil
}

// RelayRequest is one gameplay command in flight. attempted marks that the
// fresh-session recovery already ran, bounding it to a single shot.
type RelayRequest struct {
	GameID    string
	SessionID string
	Token     string
	PlayerID  string
	Command   models.Command
	Bet       int64
	Body      []byte
	UserAgent string

	attempted bool
}

// HandleCommand relays a gameplay command upstream and returns the response
// the embedded client receives. It never fails outward: every fault is
// embedded in the envelope with the locally controlled balance.
func (t *Translator) HandleCommand(req *RelayRequest) models.UpstreamResponse {
	// The attempted flag flips on the first fresh-session recovery, so the
	// loop runs at most twice.
	for {
		resp, retry := t.relayOnce(req)
		if !retry {
			return resp
		}
	}
}

func (t *Translator) relayOnce(req *RelayRequest) (models.UpstreamResponse, bool) {
	debited := int64(0)
	if req.Command == models.CommandSpin && req.Bet > 0 {
		if _, err := t.ledger.ProcessBet(req.PlayerID, req.Bet); err != nil {
			log.Printf("Bet rejected for player %s: %v", req.PlayerID, err)
			return t.errorEnvelope(req.PlayerID, 100, "insufficient funds"), false
		}
		debited = req.Bet
	}

	result, err := t.upstream.RelayCommand(req.GameID, req.SessionID, req.Token, req.Body)
	if err != nil {
		log.Printf("Error with upstream API: %v", err)
		t.refund(req.PlayerID, debited)
		return t.errorEnvelope(req.PlayerID, 500, fmt.Sprintf("Error connecting to game server: %v", err)), false
	}

	var resp models.UpstreamResponse
	if jsonErr := json.Unmarshal(result.Body, &resp); jsonErr != nil {
		log.Printf("Unparseable upstream response (status %d): %v", result.Status, jsonErr)
		t.refund(req.PlayerID, debited)
		return t.errorEnvelope(req.PlayerID, result.Status, "Unparseable response from game server"), false
	}

	if len(resp.Errors) > 0 {
		if req.Command == models.CommandInit && !req.attempted && isUnknownSession(resp.Errors[0]) {
			log.Printf("Received unknown_exception on init, retrying with a fresh session")
			req.attempted = true
			if fresh, freshErr := t.freshToken(req); freshErr == nil {
				req.Token = fresh
				return models.UpstreamResponse{}, true
			} else {
				log.Printf("Fresh session attempt failed: %v", freshErr)
			}
		}

		t.refund(req.PlayerID, debited)
		resp.Balance = &models.Balance{Game: 0, Wallet: t.ledger.GetBalance(req.PlayerID)}
		return resp, false
	}

	switch req.Command {
	case models.CommandSpin:
		t.settleSpin(req, &resp, debited)
	case models.CommandFreespin:
		t.settleFreespin(req, &resp)
	default:
		// init, close and anything else: substitution only, no ledger
		// mutation.
		if resp.Balance != nil {
			resp.Balance = &models.Balance{Game: 0, Wallet: t.ledger.GetBalance(req.PlayerID)}
		}
	}

	t.overrideCurrency(&resp)
	return resp, false
}

// settleSpin reconciles the upfront debit with the authoritative outcome and
// credits any win.
func (t *Translator) settleSpin(req *RelayRequest, resp *models.UpstreamResponse, debited int64) {
	bet := debited
	if resp.Outcome != nil && resp.Outcome.Bet > 0 {
		bet = resp.Outcome.Bet
	}
	if bet != debited {
		if _, err := t.ledger.Adjust(req.PlayerID, debited-bet); err != nil {
			log.Printf("Failed to reconcile bet for player %s: %v", req.PlayerID, err)
		}
	}

	win := int64(0)
	if resp.Outcome != nil {
		win = resp.Outcome.Win
	}
	if win > 0 {
		if _, err := t.ledger.ProcessWin(req.PlayerID, win); err != nil {
			log.Printf("Failed to credit win for player %s: %v", req.PlayerID, err)
		}
	}

	log.Printf("Spin for player %s: bet=%d win=%d", req.PlayerID, bet, win)

	if resp.Balance != nil {
		resp.Balance = &models.Balance{Game: win, Wallet: t.ledger.GetBalance(req.PlayerID)}
	}
}

// settleFreespin credits the win only: freespins carry no stake.
func (t *Translator) settleFreespin(req *RelayRequest, resp *models.UpstreamResponse) {
	win := int64(0)
	if resp.Outcome != nil {
		win = resp.Outcome.Win
	}
	if win > 0 {
		if _, err := t.ledger.ProcessWin(req.PlayerID, win); err != nil {
			log.Printf("Failed to credit freespin win for player %s: %v", req.PlayerID, err)
		}
	}

	if resp.Balance != nil {
		resp.Balance = &models.Balance{Game: win, Wallet: t.ledger.GetBalance(req.PlayerID)}
	}
}

func (t *Translator) overrideCurrency(resp *models.UpstreamResponse) {
	if resp.Options == nil {
		return
	}
	if _, ok := resp.Options["currency"]; !ok {
		return
	}

	currency := models.Currency{
		Code:     t.cfg.CurrencyCode,
		Symbol:   t.cfg.CurrencySymbol,
		Subunits: 100,
		Exponent: 2,
	}
	data, err := json.Marshal(currency)
	if err != nil {
		return
	}
	resp.Options["currency"] = data
}

// freshToken re-establishes the upstream session: bootstrap plus token
// extraction, same as entry.
func (t *Translator) freshToken(req *RelayRequest) (string, error) {
	result, err := t.upstream.BootstrapDemo(req.GameID, t.cfg.CurrencyCode, req.UserAgent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if result.Status != 200 {
		return "", fmt.Errorf("%w: bootstrap returned status %d", ErrUpstreamUnavailable, result.Status)
	}

	token := extractPlayToken(string(result.Body))
	if token == "" {
		return "", ErrTokenNotSelectable
	}
	return token, nil
}

func (t *Translator) refund(playerID string, debited int64) {
	if debited <= 0 {
		return
	}
	if _, err := t.ledger.ProcessWin(playerID, debited); err != nil {
		log.Printf("Failed to refund bet for player %s: %v", playerID, err)
		return
	}
	log.Printf("Refunded bet of %d to player %s after upstream error", debited, playerID)
}

func (t *Translator) errorEnvelope(playerID string, code int, desc string) models.UpstreamResponse {
	return models.ErrorResponse(code, desc, t.ledger.GetBalance(playerID))
}

func isUnknownSession(e models.UpstreamError) bool {
	return e.Code == upstreamCodeUnknownSession && e.Desc == upstreamDescUnknownSession
}
