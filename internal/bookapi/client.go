package bookapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mmcdole/folio/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Folio/1.0"

	recommendationsPath = "/v1/recommendations"
	loginPath           = "/v1/auth/login"
	currentUserPath     = "/v1/auth/me"
	logoutPath          = "/v1/auth/logout"
)

// clientIDPrefixes tag the _client_id of each strategy so the platform
// never collapses requests for different strategies
var clientIDPrefixes = [domain.NumStrategies]string{
	domain.StrategyTopRated: "TR_",
	domain.StrategySimilar:  "SIM_",
	domain.StrategyAI:       "AI_",
}

// Options configures a Client
type Options struct {
	Timeout           time.Duration // per-request HTTP timeout, 0 means 30s
	RequestsPerSecond int           // outbound rate limit, 0 means unlimited
	Breaker           BreakerSettings
}

// Client implements domain.RecommendationRepository and
// domain.AccountRepository for the book platform REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker[[]byte]
	limiter    *limiter
	now        func() time.Time

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// NewClient creates a new book platform API client
func NewClient(baseURL, token string, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Breaker == (BreakerSettings{}) {
		opts.Breaker = DefaultBreakerSettings()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger:  logger,
		breaker: newBreaker("book-api", opts.Breaker, logger),
		limiter: newLimiter("book-api", opts.RequestsPerSecond),
		now:     time.Now,
	}
}

// SetToken replaces the bearer token used on subsequent requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// OnUnauthorized registers fn to run whenever the platform answers 401
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Ping checks that the platform answers HTTP at all
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ping failed", "url", c.baseURL, "error", err)
		return domain.ErrServerOffline
	}
	resp.Body.Close()
	return nil
}

// doRequest performs a rate-limited, breaker-guarded, authenticated request
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, method, path, contentType, payload)
	})
	if err != nil {
		if isBreakerRejection(err) {
			c.logger.Warn("request rejected by circuit breaker", "path", path, "error", err)
			return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
		}
		if errors.Is(err, domain.ErrAuthFailed) {
			c.unauthorized()
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("book api request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("book api request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrAuthFailed
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("book api error", "status", resp.StatusCode, "detail", errorDetail(body))
		return nil, fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	return body, nil
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func errorDetail(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Detail != "" {
		return resp.Detail
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

// GetRecommendations fetches one page of recommendations. Every request
// carries fresh cache-busting fields regardless of req.ForceFresh.
func (c *Client) GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	if !req.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStrategy, int(req.Strategy))
	}
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	payload, err := json.Marshal(recommendationRequest{
		RecommendationType: req.Strategy.String(),
		Limit:              limit,
		Genre:              strings.TrimSpace(req.Genre),
		Timestamp:          c.now().UnixMilli(),
		ClientID:           clientIDPrefixes[req.Strategy] + uuid.NewString(),
		Seed:               strconv.FormatUint(rand.Uint64(), 36) + req.Strategy.String(),
		ForceUnique:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, recommendationsPath, "application/json", payload)
	if err != nil {
		return nil, err
	}

	var resp recommendationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug("fetched recommendations",
		"strategy", req.Strategy.String(),
		"count", len(resp.Recommendations),
		"upstream_fallback", resp.IsFallback)
	return mapResponse(req.Strategy, &resp), nil
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	body, err := c.doRequest(ctx, http.MethodPost, loginPath, "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", domain.ErrAuthFailed)
	}

	c.SetToken(resp.AccessToken)
	result := &domain.AuthResult{Token: resp.AccessToken, Email: email}

	// The display name is optional; a failure here does not undo the login
	if user, err := c.CurrentUser(ctx); err == nil {
		result.Name = user.Name
	} else {
		c.logger.Warn("failed to fetch current user", "error", err)
	}
	return result, nil
}

// CurrentUser returns the signed-in user
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	body, err := c.doRequest(ctx, http.MethodGet, currentUserPath, "", nil)
	if err != nil {
		return nil, err
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	return mapUser(&resp), nil
}

// Logout ends the server-side session and forgets the token
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, logoutPath, "", nil)
	c.SetToken("")
	if err != nil && !errors.Is(err, domain.ErrAuthFailed) {
		return err
	}
	return nil
}

var (
	_ domain.RecommendationRepository = (*Client)(nil)
	_ domain.AccountRepository        = (*Client)(nil)
)
