package services

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"bgaming-proxy/internal/config"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

// bootstrapTimeout bounds the demo-page fetch. A slow upstream is treated as
// a failure, not retried.
const bootstrapTimeout = 4 * time.Second

// UpstreamResult carries the provider's raw status and body. Non-2xx
// statuses are data for the translator to classify, not errors.
type UpstreamResult struct {
	Status int
	Body   []byte
}

// UpstreamClient issues the outbound calls to the game provider: session
// bootstrap, gameplay command relay and the bundle fetch.
type UpstreamClient struct {
	playURL   string
	apiURL    string
	bundleURL string

	bootstrapClient *http.Client
	relayClient     *http.Client
}

func NewUpstreamClient(cfg *config.Config) *UpstreamClient {
	return &UpstreamClient{
		playURL:         cfg.UpstreamPlayURL,
		apiURL:          cfg.UpstreamAPIURL,
		bundleURL:       cfg.BundleURL,
		bootstrapClient: &http.Client{Timeout: bootstrapTimeout},
		relayClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

// BootstrapDemo fetches the provider's demo play page for a game. The page
// embeds the play token the translator extracts.
func (c *UpstreamClient) BootstrapDemo(gameID, server, userAgent string) (*UpstreamResult, error) {
	url := fmt.Sprintf("%s/%s/%s?server=demo", c.playURL, gameID, server)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build bootstrap request: %v", err)
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.bootstrapClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch demo page: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read demo page: %v", err)
	}

	return &UpstreamResult{Status: resp.StatusCode, Body: body}, nil
}

// RelayCommand forwards the original request body to the provider's
// session-scoped API endpoint with the browser-mimicking header set the
// embedded client would send itself.
func (c *UpstreamClient) RelayCommand(gameID, sessionID, token string, body []byte) (*UpstreamResult, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", c.apiURL, gameID, sessionID, token)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build relay request: %v", err)
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://demo.bgaming-network.com")
	req.Header.Set("Referer", fmt.Sprintf("https://demo.bgaming-network.com/games/%s?play_token=%s", gameID, token))
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := c.relayClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to relay command: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read relay response: %v", err)
	}

	return &UpstreamResult{Status: resp.StatusCode, Body: respBody}, nil
}

// FetchBundle downloads the game bundle injected into the rewritten markup.
func (c *UpstreamClient) FetchBundle() (string, error) {
	resp, err := c.bootstrapClient.Get(c.bundleURL)
	if err != nil {
		return "", fmt.Errorf("failed to load bundle: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read bundle: %v", err)
	}
	return string(body), nil
}
