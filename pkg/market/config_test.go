package market_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	market "breadth-api/pkg/market"
	_ "breadth-api/pkg/market/binance"
)

func TestLoadMarketConfig(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
default: binance
providers:
  binance:
    type: binance
    base_url: https://fapi.binance.com
    timeout: 6s
    http_timeout: 12s
    max_retries: 4
    request_interval: 500ms
    quote_suffix: USDT
    exclude_symbols:
      - BTCUSDT
      - ETHUSDT
`
	path := filepath.Join(dir, "market.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := market.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Default != "binance" {
		t.Fatalf("unexpected default: %s", cfg.Default)
	}
	provider := cfg.Providers["binance"]
	if provider == nil {
		t.Fatalf("provider binance missing")
	}
	if provider.RequestInterval.String() != "500ms" {
		t.Fatalf("request_interval not parsed, got %s", provider.RequestInterval)
	}
	if provider.QuoteSuffix != "USDT" {
		t.Fatalf("unexpected quote_suffix: %q", provider.QuoteSuffix)
	}
	if len(provider.ExcludeSymbols) != 2 {
		t.Fatalf("expected 2 excluded symbols, got %v", provider.ExcludeSymbols)
	}

	providers, err := cfg.BuildProviders()
	if err != nil {
		t.Fatalf("BuildProviders error: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(providers))
	}
	if _, ok := providers["binance"]; !ok {
		t.Fatalf("provider map missing binance")
	}

	defaultProvider, err := cfg.BuildDefault()
	if err != nil {
		t.Fatalf("BuildDefault error: %v", err)
	}
	if defaultProvider == nil {
		t.Fatalf("BuildDefault returned nil provider")
	}
}

func TestMarketConfigInvalidType(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
providers:
  demo:
    type: foobar
`
	path := filepath.Join(dir, "market.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := market.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}

func TestMarketConfigInvalidRequestInterval(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
providers:
  binance:
    type: binance
    request_interval: soon
`
	path := filepath.Join(dir, "market.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := market.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "request_interval") {
		t.Fatalf("expected request_interval error, got %v", err)
	}
}
