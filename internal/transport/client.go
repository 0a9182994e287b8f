package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Fetch outcomes reported to the Recorder
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

// Recorder receives fetch metrics
type Recorder interface {
	Fetched(host, outcome string, d time.Duration)
}

// Config configures the page client
type Config struct {
	// Origin resolves relative urls such as "/a/b?x=1"
	Origin    string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	// RPS limits outgoing requests; zero or less means unlimited
	RPS       float64
	UserAgent string
	// MaxBody bounds accepted response bodies in bytes
	MaxBody int
}

// DefaultConfig returns client defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		Retries:   2,
		RetryWait: 500 * time.Millisecond,
		UserAgent: "pagestack/1.0",
		MaxBody:   10 << 20,
	}
}

// Client fetches page markup with retries, rate limiting and per-host
// circuit breakers
type Client struct {
	resty    *resty.Client
	origin   *url.URL
	breakers *resilience.Group
	logger   *zap.Logger
	metrics  Recorder
	maxBody  int

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder reports fetches to rec
func WithRecorder(rec Recorder) Option {
	return func(c *Client) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithBreakerSettings replaces the default breaker settings
func WithBreakerSettings(settings resilience.Settings) Option {
	return func(c *Client) {
		c.breakers = resilience.NewGroup("fetch", settings)
	}
}

type nopRecorder struct{}

func (nopRecorder) Fetched(string, string, time.Duration) {}

// NewClient creates a page client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = defaults.RetryWait
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = defaults.MaxBody
	}

	var origin *url.URL
	if cfg.Origin != "" {
		u, err := url.Parse(cfg.Origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid origin %q", cfg.Origin)
		}
		origin = u
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWait
	retryClient.RetryWaitMax = 30 * cfg.RetryWait
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	c := &Client{
		resty:   restyClient,
		origin:  origin,
		logger:  zap.NewNop(),
		metrics: nopRecorder{},
		maxBody: cfg.MaxBody,
		limiter: newLimiter(cfg.RPS),
		breakers: resilience.NewGroup("fetch", resilience.Settings{
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiter = newLimiter(rps)
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// BreakerStates reports the breaker state per host
func (c *Client) BreakerStates() map[string]resilience.State {
	return c.breakers.States()
}

// Resolve makes raw absolute against the origin
func (c *Client) Resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if c.origin != nil {
		u = c.origin.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, raw)
	}
	u.Fragment = ""
	return u, nil
}

// Fetch starts loading raw and returns a pending future. Aborting the
// future cancels the request.
func (c *Client) Fetch(ctx context.Context, raw string) *loop.Future[markup.Content] {
	ctx, cancel := context.WithCancel(ctx)
	fut := loop.NewFuture[markup.Content](cancel)

	go func() {
		defer cancel()
		page, err := c.Get(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				err = fmt.Errorf("%w: %v", loop.ErrAborted, err)
			}
			fut.Reject(err)
			return
		}
		fut.Resolve(markup.Markup(page.Body))
	}()
	return fut
}

// Get loads url and returns the decoded page
func (c *Client) Get(ctx context.Context, raw string) (*Page, error) {
	target, err := c.Resolve(raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := c.get(ctx, target)
	c.metrics.Fetched(target.Host, outcome(err), time.Since(start))
	if err != nil {
		c.logger.Debug("Fetch failed", logging.URL(target.String()), zap.Error(err))
		return nil, err
	}

	c.logger.Debug("Page fetched",
		logging.URL(page.URL),
		zap.Int("status", page.Status),
		zap.String("charset", page.Charset),
		zap.Duration("took", time.Since(start)))
	return page, nil
}

func (c *Client) get(ctx context.Context, target *url.URL) (*Page, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := resilience.Execute(c.breakers.Get(target.Host), func() (*resty.Response, error) {
		resp, err := c.resty.R().SetContext(ctx).Get(target.String())
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, &StatusError{URL: target.String(), Code: resp.StatusCode()}
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s unavailable: %w", target.Host, err)
		}
		return nil, fmt.Errorf("get %s: %w", target, err)
	}

	code := resp.StatusCode()
	if code < http.StatusOK || code >= http.StatusBadRequest {
		return nil, &StatusError{URL: target.String(), Code: code}
	}

	body := resp.Body()
	if len(body) > c.maxBody {
		return nil, fmt.Errorf("%w: %d bytes from %s", ErrTooLarge, len(body), target)
	}
	return decodePage(target.String(), code, resp.Header().Get("Content-Type"), body)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled
	case errors.Is(err, ErrEmptyBody), errors.Is(err, ErrNotMarkup), errors.Is(err, ErrTooLarge):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
