package sportmonks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

const (
	DefaultBaseURL  = "https://api.sportmonks.com/v3/football"
	userAgent       = "Iris/1.0 (Sportmonks fixtures dashboard)"
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 6 << 20
	maxMessageBytes = 240
	tokenParam      = "api_token"
)

// Client implements the VendorAdapter interface for the Sportmonks v3 football API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Entry
}

// Ensure Client implements VendorAdapter
var _ contracts.VendorAdapter = (*Client)(nil)

// Options configures a Client; zero values fall back to defaults
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new Sportmonks client
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        logger.Component("sportmonks"),
	}
}

// Get performs a single GET against {baseURL}/{endpoint} with caller params and the
// token as api_token. Non-2xx responses return *HTTPError. No retries.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string, token string) ([]byte, error) {
	fullURL := c.buildURL(endpoint, params, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(urlErr.URL)
		}
		c.log.WithFields(logger.Fields{"url": redactURL(fullURL)}).WithError(err).Warn("request failed")
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.log.WithFields(logger.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("request complete")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    abbreviateBody(body),
		}
	}

	return body, nil
}

func (c *Client) buildURL(endpoint string, params map[string]string, token string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set(tokenParam, token)

	return fmt.Sprintf("%s/%s?%s", c.baseURL, strings.TrimLeft(endpoint, "/"), values.Encode())
}

// SupportsEndpoint checks if this adapter knows the given endpoint
func (c *Client) SupportsEndpoint(endpoint string) bool {
	root := strings.SplitN(strings.Trim(endpoint, "/"), "/", 2)[0]
	supportedEndpoints := map[string]bool{
		"fixtures":     true,
		"livescores":   true,
		"leagues":      true,
		"seasons":      true,
		"teams":        true,
		"standings":    true,
		"schedules":    true,
		"predictions":  true,
		"venues":       true,
		"states":       true,
		"participants": true,
	}
	return supportedEndpoints[root]
}

// DecodeFixtures extracts fixtures from a response envelope
func (c *Client) DecodeFixtures(payload []byte) ([]models.Fixture, error) {
	return DecodeFixtures(payload)
}

// DecodeLeagues extracts leagues from a response envelope
func (c *Client) DecodeLeagues(payload []byte) ([]models.League, error) {
	return DecodeLeagues(payload)
}

// HTTPError represents a non-2xx upstream response
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus exposes the status code to callers that do not import this package
func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}

// redactURL hides the token before a URL reaches the logs
func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has(tokenParam) {
		query.Set(tokenParam, "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxMessageBytes {
		return text
	}
	cut := maxMessageBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
