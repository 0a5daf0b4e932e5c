// Package apiclient wraps calls to the protected backend. Every request
// carries the current bearer token; a 401 triggers at most one coalesced
// token refresh and one replay before the session is destroyed.
package apiclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/digitrack/digitrack-go/models"
	"github.com/digitrack/digitrack-go/utils/logger"
)

// TokenSource supplies credentials and the recovery actions the client
// needs. Injected at construction so the client never reads global state.
type TokenSource interface {
	CurrentIDToken(ctx context.Context) string
	RefreshTokens(ctx context.Context) (models.Tokens, error)
	ForceLogout(ctx context.Context)
}

type Config struct {
	// BaseURL of the protected API, e.g. "https://api.example.com/v1".
	BaseURL string
	// Timeout per round trip. Defaults to 30s.
	Timeout time.Duration
}

type Client struct {
	http    *resty.Client
	tokens  TokenSource
	refresh singleflight.Group
}

func New(cfg Config, tokens TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		tokens: tokens,
	}
}

// execute performs the request once, and on a 401 refreshes the session
// and replays exactly once. Concurrent 401s inside one expiry window share
// a single refresh call.
func (c *Client) execute(ctx context.Context, method, url string, configure func(*resty.Request)) (*resty.Response, error) {
	resp, err := c.attempt(ctx, method, url, configure)
	if err != nil {
		return nil, models.NewAuthError(models.ErrNetwork, "")
	}
	if resp.StatusCode() != 401 {
		return resp, nil
	}

	logger.LogInfo("unauthorized response, attempting token refresh",
		zap.String("method", method), zap.String("url", url))

	if _, err, _ := c.refresh.Do("refresh", func() (interface{}, error) {
		return c.tokens.RefreshTokens(ctx)
	}); err != nil {
		c.tokens.ForceLogout(ctx)
		return nil, models.NewAuthError(models.ErrUnauthorized, "")
	}

	retry, err := c.attempt(ctx, method, url, configure)
	if err != nil {
		return nil, models.NewAuthError(models.ErrNetwork, "")
	}
	if retry.StatusCode() == 401 {
		c.tokens.ForceLogout(ctx)
		return nil, models.NewAuthError(models.ErrUnauthorized, "")
	}
	return retry, nil
}

func (c *Client) attempt(ctx context.Context, method, url string, configure func(*resty.Request)) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())

	if token := c.tokens.CurrentIDToken(ctx); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if configure != nil {
		configure(req)
	}
	return req.Execute(method, url)
}

// checkStatus maps a resolved non-401 response to the error taxonomy.
func checkStatus(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	switch resp.StatusCode() {
	case 400:
		return models.NewAuthError(models.ErrInvalidInput, "")
	case 404:
		return models.NewAuthError(models.ErrNotFound, "")
	default:
		return models.NewAuthError(models.ErrInternal, "")
	}
}
