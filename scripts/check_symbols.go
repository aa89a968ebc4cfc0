// Quick diagnostic: hit the Binance futures 24h ticker endpoint directly and
// report how many USDT perpetual symbols pass the activity filter the
// collector applies. Run with: go run scripts/check_symbols.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const tickerURL = "https://fapi.binance.com/fapi/v1/ticker/24hr"

type ticker struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
	Count       int64  `json:"count"`
}

func main() {
	c := &http.Client{Timeout: 15 * time.Second}
	resp, err := c.Get(tickerURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "status %s: %s\n", resp.Status, string(body))
		os.Exit(1)
	}

	var tickers []ticker
	if err := json.Unmarshal(body, &tickers); err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		os.Exit(1)
	}

	var active []string
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, "USDT") {
			continue
		}
		vol, _ := strconv.ParseFloat(t.QuoteVolume, 64)
		if vol <= 0 || t.Count <= 0 {
			continue
		}
		active = append(active, t.Symbol)
	}
	sort.Strings(active)

	fmt.Printf("tickers: %d total, %d active USDT perpetuals\n", len(tickers), len(active))
	for _, s := range active {
		fmt.Println(s)
	}
}
