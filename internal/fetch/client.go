// Package fetch implements the retry-wrapped HTTP layer shared by all
// crawlers: one request in flight at a time, a politeness delay after every
// success, and bounded exponential backoff on failure.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/metrics"
)

// Config controls client behavior. All three crawlers share one client
// instance per run.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// Interval is slept after every successful request.
	Interval   time.Duration
	MaxRetries int
	// InsecureSkipVerify disables TLS verification. The target government
	// hosts serve misconfigured certificates; this is a per-crawler policy,
	// not a general default.
	InsecureSkipVerify bool
}

func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "laborfaq-bot/1.0"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Interval == 0 {
		c.Interval = 2 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Response is the subset of an HTTP response the parsers need.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Stats mirrors the per-client request counters. Every attempt counts toward
// TotalRequests; retries therefore show up individually.
type Stats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
}

type pauser interface {
	Pause(ctx context.Context, d time.Duration)
}

type timerPauser struct{}

func (timerPauser) Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Client issues sequential GET/POST requests through a colly collector.
type Client struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
	pause  pauser

	mu    sync.Mutex
	stats Stats
}

// New builds a Client. logger may not be nil.
func New(cfg Config, logger *zap.Logger) *Client {
	cfg.applyDefaults()

	base := colly.NewCollector(colly.Async(false), colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(newTransport(cfg.InsecureSkipVerify))

	return &Client{
		cfg:    cfg,
		base:   base,
		logger: logger,
		pause:  timerPauser{},
	}
}

func newTransport(insecure bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecure}, // #nosec G402
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
	}
}

// Get fetches rawURL with retries.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil)
}

// Post sends a form POST to rawURL with retries.
func (c *Client) Post(ctx context.Context, rawURL string, form map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPost, rawURL, form)
}

// Do executes one logical fetch: up to MaxRetries attempts with 2^attempt
// second backoff between failures, and the politeness interval after a
// success. Exhausting retries returns an error; callers treat that as "skip
// this unit of work, continue the batch".
func (c *Client) Do(ctx context.Context, method, rawURL string, form map[string]string) (*Response, error) {
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported HTTP method %q", method)
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch %s canceled: %w", rawURL, err)
		}

		c.countAttempt()
		resp, err := c.attempt(ctx, method, rawURL, form)
		if err == nil {
			c.countSuccess()
			c.pause.Pause(ctx, c.cfg.Interval)
			return resp, nil
		}

		c.countFailure()
		lastErr = err
		if attempt == c.cfg.MaxRetries-1 {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		c.logger.Warn("request failed, backing off",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		c.pause.Pause(ctx, backoff)
	}

	c.logger.Error("request failed after all retries",
		zap.String("url", rawURL),
		zap.Int("max_retries", c.cfg.MaxRetries),
		zap.Error(lastErr),
	)
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", rawURL, c.cfg.MaxRetries, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, rawURL string, form map[string]string) (*Response, error) {
	collector := c.base.Clone()
	collector.UserAgent = c.cfg.UserAgent
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.WithTransport(newTransport(c.cfg.InsecureSkipVerify))

	var (
		result   *Response
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		result = &Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		if method == http.MethodPost {
			done <- collector.Post(rawURL, form)
		} else {
			done <- collector.Visit(rawURL)
		}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", rawURL, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("response for %s: %w", rawURL, fetchErr)
		}
		if result == nil {
			return nil, fmt.Errorf("no response received for %s", rawURL)
		}
		return result, nil
	}
}

func (c *Client) countAttempt() {
	metrics.RequestsTotal.Inc()
	c.mu.Lock()
	c.stats.TotalRequests++
	c.mu.Unlock()
}

func (c *Client) countSuccess() {
	metrics.RequestsSucceeded.Inc()
	c.mu.Lock()
	c.stats.SuccessfulRequests++
	c.mu.Unlock()
}

func (c *Client) countFailure() {
	metrics.RequestsFailed.Inc()
	c.mu.Lock()
	c.stats.FailedRequests++
	c.mu.Unlock()
}

// Stats returns a copy of the running request counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
