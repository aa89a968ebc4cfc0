package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"breadth-api/pkg/market"
)

const (
	defaultBaseURL          = "https://fapi.binance.com"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 150 * time.Millisecond

	tickerPath = "/fapi/v1/ticker/24hr"
	klinesPath = "/fapi/v1/klines"
)

// errTripped aborts a request cycle after the tripwire latches. It never
// escapes the package: public calls translate it into empty results.
var errTripped = errors.New("binance: rate limit tripped")

// Client wraps access to the Binance USDT-margined futures market-data API.
//
// The client carries a one-way rate-limit tripwire. HTTP 429 (rate limit) and
// 418 (IP auto-ban) latch it: from then on every call returns empty results
// without touching the network, until ResetRateLimit is called. The latch is
// deliberately not self-healing; continuing to poll a banning exchange
// escalates the ban.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *log.Logger

	limited    atomic.Bool
	reasonMu   sync.RWMutex
	tripReason string
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API endpoint URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithLogger injects a custom logger (defaults to log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a Binance futures API client.
func NewClient(opts ...Option) *Client {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		maxRetries: defaultMaxRetries,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = httpClient
	}
	if client.logger == nil {
		client.logger = log.Default()
	}
	return client
}

// RateLimited reports whether the tripwire has latched, and why.
func (c *Client) RateLimited() (bool, string) {
	if !c.limited.Load() {
		return false, ""
	}
	c.reasonMu.RLock()
	defer c.reasonMu.RUnlock()
	return true, c.tripReason
}

// ResetRateLimit releases the tripwire so calls reach the network again.
func (c *Client) ResetRateLimit() {
	c.reasonMu.Lock()
	c.tripReason = ""
	c.reasonMu.Unlock()
	c.limited.Store(false)
	c.logf("binance: rate limit latch reset, calls resume")
}

func (c *Client) trip(status int, label string) {
	reason := fmt.Sprintf("status=%d call=%s at=%s", status, label, time.Now().UTC().Format(time.RFC3339))
	c.reasonMu.Lock()
	c.tripReason = reason
	c.reasonMu.Unlock()
	c.limited.Store(true)
	c.logf("binance: exchange returned %d, suspending all calls until operator reset (%s)", status, reason)
}

// Symbols returns every symbol listed by the 24-hour ticker endpoint,
// unfiltered. Returns an empty slice while the tripwire is latched.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	if c.limited.Load() {
		return nil, nil
	}
	body, err := c.doRequest(ctx, tickerPath, nil, "symbols")
	if err != nil {
		if errors.Is(err, errTripped) {
			return nil, nil
		}
		return nil, err
	}
	var tickers []ticker24h
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("binance: decode tickers: %w", err)
	}
	symbols := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if ticker.Symbol != "" {
			symbols = append(symbols, ticker.Symbol)
		}
	}
	return symbols, nil
}

// Klines fetches candles for one symbol. startMs and endMs bound the candle
// open times and are omitted from the request when non-positive, in which
// case the exchange returns the most recent candles up to limit, the
// still-open bucket included. Returns an empty slice while the tripwire is
// latched.
func (c *Client) Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]market.Kline, error) {
	if c.limited.Load() {
		return nil, nil
	}
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	if startMs > 0 {
		query.Set("startTime", strconv.FormatInt(startMs, 10))
	}
	if endMs > 0 {
		query.Set("endTime", strconv.FormatInt(endMs, 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.doRequest(ctx, klinesPath, query, symbol)
	if err != nil {
		if errors.Is(err, errTripped) {
			return nil, nil
		}
		return nil, err
	}
	return parseKlineRows(body, symbol)
}

// doRequest issues a GET and returns the response body. A 429 or 418 latches
// the tripwire and aborts without retrying; other failures retry with doubled
// backoff up to the retry budget.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, label string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limited.Load() {
			return nil, errTripped
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("binance: build request: %w", err)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("binance: read response: %w", readErr)
			} else if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot {
				c.trip(resp.StatusCode, label)
				return nil, errTripped
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("binance: http status %d: %s", resp.StatusCode, string(body))
			} else {
				return body, nil
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			continue
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("binance: request failed without error detail")
}

// logf prints debug output when a logger is configured.
func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
