package binance

import (
	"context"
	"net/http"
	"strings"
	"time"

	"breadth-api/pkg/market"
)

const (
	defaultProviderTimeout = 8 * time.Second
	defaultRequestInterval = 500 * time.Millisecond
	defaultQuoteSuffix     = "USDT"

	intervalFiveMin = "5m"
)

// Provider adapts the Binance futures client to the market.Provider contract.
// Symbol filtering (quote suffix plus exclusion set) happens here so the
// client stays a plain transport.
type Provider struct {
	client          *Client
	timeout         time.Duration
	requestInterval time.Duration
	quoteSuffix     string
	excludes        map[string]struct{}
}

type providerConfig struct {
	timeout         time.Duration
	requestInterval time.Duration
	quoteSuffix     string
	excludes        []string
	clientConfig    []Option
}

// ProviderOption customises the Binance provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithRequestInterval sets the pause between paginated kline requests.
func WithRequestInterval(interval time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if interval >= 0 {
			cfg.requestInterval = interval
		}
	}
}

// WithQuoteSuffix restricts ActiveSymbols to symbols with this quote suffix.
func WithQuoteSuffix(suffix string) ProviderOption {
	return func(cfg *providerConfig) {
		if suffix != "" {
			cfg.quoteSuffix = suffix
		}
	}
}

// WithExcludeSymbols removes specific symbols from ActiveSymbols.
func WithExcludeSymbols(symbols ...string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.excludes = append(cfg.excludes, symbols...)
	}
}

// WithClientOptions passes options to the underlying Binance client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientConfig = append(cfg.clientConfig, options...)
	}
}

// NewProvider constructs a Binance market provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{
		timeout:         defaultProviderTimeout,
		requestInterval: defaultRequestInterval,
		quoteSuffix:     defaultQuoteSuffix,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	excludes := make(map[string]struct{}, len(cfg.excludes))
	for _, symbol := range cfg.excludes {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol != "" {
			excludes[symbol] = struct{}{}
		}
	}

	return &Provider{
		client:          NewClient(cfg.clientConfig...),
		timeout:         cfg.timeout,
		requestInterval: cfg.requestInterval,
		quoteSuffix:     strings.ToUpper(cfg.quoteSuffix),
		excludes:        excludes,
	}
}

func init() {
	market.RegisterProvider("binance", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []ProviderOption{}
		clientOptions := []Option{}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.RequestInterval > 0 {
			opts = append(opts, WithRequestInterval(cfg.RequestInterval))
		}
		if cfg.QuoteSuffix != "" {
			opts = append(opts, WithQuoteSuffix(cfg.QuoteSuffix))
		}
		if len(cfg.ExcludeSymbols) > 0 {
			opts = append(opts, WithExcludeSymbols(cfg.ExcludeSymbols...))
		}
		if cfg.BaseURL != "" {
			clientOptions = append(clientOptions, WithBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPTimeout > 0 {
			clientOptions = append(clientOptions, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if cfg.MaxRetries > 0 {
			clientOptions = append(clientOptions, WithMaxRetries(cfg.MaxRetries))
		}
		if len(clientOptions) > 0 {
			opts = append(opts, WithClientOptions(clientOptions...))
		}
		return NewProvider(opts...), nil
	})
}

// ActiveSymbols implements market.Provider. Order follows the exchange
// listing.
func (p *Provider) ActiveSymbols(ctx context.Context) ([]string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	listed, err := p.client.Symbols(ctx)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(listed))
	for _, symbol := range listed {
		symbol = strings.ToUpper(symbol)
		if !strings.HasSuffix(symbol, p.quoteSuffix) {
			continue
		}
		if _, excluded := p.excludes[symbol]; excluded {
			continue
		}
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

// LatestClosedKline implements market.Provider. The exchange reports the
// still-forming bucket as its newest candle; that bucket is skipped so only
// closed data flows downstream.
func (p *Provider) LatestClosedKline(ctx context.Context, symbol string) (market.Kline, bool, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	klines, err := p.client.Klines(ctx, symbol, intervalFiveMin, 0, 0, 2)
	if err != nil {
		return market.Kline{}, false, err
	}
	cutoff := market.LatestClosedBucket(time.Now())
	for i := len(klines) - 1; i >= 0; i-- {
		if !klines[i].OpenTime.After(cutoff) {
			return klines[i], true, nil
		}
	}
	return market.Kline{}, false, nil
}

// KlineRange implements market.Provider.
func (p *Provider) KlineRange(ctx context.Context, symbol, interval string, start, end time.Time, limit int) ([]market.Kline, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.Klines(ctx, symbol, interval, unixMilliOrZero(start), unixMilliOrZero(end), limit)
}

// KlineRangePaged implements market.Provider. Each page gets its own call
// timeout; the walk as a whole runs under the caller's context. The next page
// starts one bucket after the last candle received, and the walk stops on an
// empty page or once the window is exhausted.
func (p *Provider) KlineRangePaged(ctx context.Context, symbol, interval string, start, end time.Time, batchLimit int) ([]market.Kline, error) {
	var all []market.Kline
	currentStart := start
	for !currentStart.After(end) {
		batch, err := p.KlineRange(ctx, symbol, interval, currentStart, end, batchLimit)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		currentStart = batch[len(batch)-1].OpenTime.Add(market.BucketInterval)

		if p.requestInterval > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(p.requestInterval):
			}
		}
	}
	return all, nil
}

// RateLimited implements market.Provider.
func (p *Provider) RateLimited() (bool, string) {
	return p.client.RateLimited()
}

// ResetRateLimit implements market.Provider.
func (p *Provider) ResetRateLimit() {
	p.client.ResetRateLimit()
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.timeout)
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
