// Package alphavantage is the fallback candle source. It only serves
// plain forex pairs; OTC-suffixed symbols are declined so the chain can
// stay silent instead of fetching wrong data.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/Signaler/internal/platform/http"
	"github.com/Alias1177/Signaler/models"
)

// ErrUnsupportedSymbol is returned for symbols this vendor cannot serve.
var ErrUnsupportedSymbol = fmt.Errorf("alphavantage: unsupported symbol")

// Client is the Alpha Vantage FX_INTRADAY client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Alpha Vantage client.
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 12 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 5
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "alphavantage_client").Logger(),
	}
}

func (c *Client) Name() string { return "alphavantage" }

// GetCandles fetches intraday FX candles, oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol, interval string, count int) ([]models.Candle, error) {
	base, quote, err := splitPair(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", "FX_INTRADAY")
	q.Set("from_symbol", base)
	q.Set("to_symbol", quote)
	q.Set("interval", interval)
	q.Set("apikey", c.apiKey)
	q.Set("outputsize", "compact")

	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	seriesKey := fmt.Sprintf("Time Series FX (%s)", interval)
	raw, ok := payload[seriesKey]
	if !ok {
		c.logger.Warn().Str("symbol", symbol).Msg("no time series in response")
		return nil, fmt.Errorf("empty data returned")
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("parsing time series: %w", err)
	}

	candles := make([]models.Candle, 0, len(series))
	for ts, v := range series {
		t, err := time.Parse("2006-01-02 15:04:05", ts)
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(v["1. open"], 64)
		high, err2 := strconv.ParseFloat(v["2. high"], 64)
		low, err3 := strconv.ParseFloat(v["3. low"], 64)
		cl, err4 := strconv.ParseFloat(v["4. close"], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: t.UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cl,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no parseable candles in response")
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

// splitPair turns "EURUSD" or "EUR/USD" into base and quote currencies.
// OTC aliases have no upstream equivalent here.
func splitPair(symbol string) (base, quote string, err error) {
	if strings.Contains(symbol, "-OTC") {
		return "", "", ErrUnsupportedSymbol
	}
	s := strings.ReplaceAll(symbol, "/", "")
	if len(s) != 6 {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	return s[:3], s[3:], nil
}
