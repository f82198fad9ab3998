// Package progress reads per-tutorial completion from the dashboard's
// progress API.
//
// The client wraps resty with a rate limiter and a circuit breaker so a
// slow or failing upstream does not hold up playground requests.
//
// Example Usage:
//
//	client := progress.NewClient(progress.Config{BaseURL: "https://learn.example.com"})
//	entries, err := client.Fetch(ctx, token)
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/resilience"
)

var (
	ErrNotConfigured = errors.New("progress api not configured")
	ErrUnavailable   = errors.New("progress api unavailable")
)

// Entry is the completion of one tutorial, in percent.
type Entry struct {
	TutorialID  string    `json:"tutorialId"`
	Progress    float64   `json:"progress"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// Config configures the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64 // requests per second, zero means unlimited
}

// Client fetches progress entries.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	enabled bool
}

// NewClient creates a client for cfg.BaseURL. An empty base URL yields a
// client whose Fetch returns ErrNotConfigured.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "codeplayground/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(math.Max(1, cfg.RateLimit)))
	}

	return &Client{
		resty:   r,
		limiter: limiter,
		breaker: resilience.New("progress-api", resilience.Settings{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		}),
		enabled: cfg.BaseURL != "",
	}
}

// Fetch returns the caller's progress entries, clamped to 0..100. token, when
// set, is forwarded as a bearer credential.
func (c *Client) Fetch(ctx context.Context, token string) ([]Entry, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	var entries []Entry
	err := c.breaker.Do(func() error {
		req := c.resty.R().SetContext(ctx).SetResult(&entries)
		if token != "" {
			req.SetAuthToken(token)
		}
		resp, err := req.Get("/api/progress")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("progress api returned %s", resp.Status())
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for i := range entries {
		entries[i].Progress = Clamp(entries[i].Progress)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Clamp bounds a percentage to 0..100. NaN counts as no progress.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Overall is the mean completion across entries.
func Overall(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = e.Progress
	}
	return stat.Mean(values, nil)
}
