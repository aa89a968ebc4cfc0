package binance

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
)

// This test uses go-vcr to record/replay a real klines call.
// It skips by default if the cassette is absent and RECORD_CASSETTES != 1.
func TestClient_Klines_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "binance_klines.yaml")
	if _, err := os.Stat(cassette); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassette)
		}
		// Ensure parent directory exists for recording
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	assert.NotNil(t, r, "recorder should not be nil")
	defer func() { _ = r.Stop() }()

	httpClient := &http.Client{Transport: r, Timeout: 15 * time.Second}
	client := NewClient(WithHTTPClient(httpClient))
	ctx := context.Background()
	// Time bounds are omitted so the request URL stays stable for replay.
	klines, err := client.Klines(ctx, "SOLUSDT", "5m", 0, 0, 10)
	assert.NoError(t, err, "Klines should not error")
	assert.NotEmpty(t, klines, "klines should not be empty")
	for _, kline := range klines {
		assert.Equal(t, "SOLUSDT", kline.Symbol)
		assert.Greater(t, kline.Close, 0.0, "close should be positive")
		assert.GreaterOrEqual(t, kline.High, kline.Low, "high should bound low")
	}
}
