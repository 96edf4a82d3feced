// internal/exchange/binance.go
package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	binanceFuturesURL = "https://fapi.binance.com"
	binanceSpotURL    = "https://api.binance.com"
	binanceRecvWindow = "5000"
)

// Options configures the Binance REST client.
type Options struct {
	APIKey     string
	APISecret  string
	Timeout    time.Duration // per-request deadline; 0 means 10s
	Retries    int           // total attempts for transient failures; 0 means 1
	FuturesURL string        // overridable for tests
	SpotURL    string
	Logger     *zap.Logger
}

// Binance implements Client against the Binance USDT-M futures and spot
// REST APIs.
type Binance struct {
	apiKey     string
	secretKey  string
	futuresURL string
	spotURL    string
	retries    int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBinance creates a Binance client with a pooled HTTP transport.
func NewBinance(opts Options) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = 1
	}
	futuresURL := opts.FuturesURL
	if futuresURL == "" {
		futuresURL = binanceFuturesURL
	}
	spotURL := opts.SpotURL
	if spotURL == "" {
		spotURL = binanceSpotURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &Binance{
		apiKey:     opts.APIKey,
		secretKey:  opts.APISecret,
		futuresURL: futuresURL,
		spotURL:    spotURL,
		retries:    retries,
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		logger:     logger.Named("binance"),
	}
}

// sign returns the hex HMAC-SHA256 signature of the query string.
func (b *Binance) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest performs one GET against the exchange, retrying transient
// failures with bounded exponential backoff. 4xx replies are permanent.
func (b *Binance) doRequest(ctx context.Context, base, path string, params url.Values, signed bool) ([]byte, error) {
	operation := func() ([]byte, error) {
		query := url.Values{}
		for k, vs := range params {
			for _, v := range vs {
				query.Add(k, v)
			}
		}
		if signed {
			query.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
			query.Set("recvWindow", binanceRecvWindow)
			query.Set("signature", b.sign(query.Encode()))
		}

		reqURL := base + path
		if encoded := query.Encode(); encoded != "" {
			reqURL += "?" + encoded
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if signed {
			req.Header.Set("X-MBX-APIKEY", b.apiKey)
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{HTTPStatus: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			var wire struct {
				Code int    `json:"code"`
				Msg  string `json:"msg"`
			}
			if err := json.Unmarshal(body, &wire); err == nil && wire.Msg != "" {
				apiErr.Code = wire.Code
				apiErr.Message = wire.Msg
			}
			if !apiErr.retryable() {
				return nil, backoff.Permanent(apiErr)
			}
			return nil, apiErr
		}

		return body, nil
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(b.retries)),
	)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	return body, nil
}

func (b *Binance) Balances(ctx context.Context) ([]Balance, error) {
	body, err := b.doRequest(ctx, b.futuresURL, "/fapi/v2/balance", nil, true)
	if err != nil {
		return nil, err
	}

	var wire []struct {
		Asset            string `json:"asset"`
		Balance          string `json:"balance"`
		CrossUnPnl       string `json:"crossUnPnl"`
		AvailableBalance string `json:"availableBalance"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode balances: %w", err)
	}

	balances := make([]Balance, 0, len(wire))
	for _, w := range wire {
		balances = append(balances, Balance{
			Asset:        w.Asset,
			Balance:      parseFloat(w.Balance),
			CrossUnPnl:   parseFloat(w.CrossUnPnl),
			AvailableBal: parseFloat(w.AvailableBalance),
		})
	}
	return balances, nil
}

func (b *Binance) Positions(ctx context.Context) ([]Position, error) {
	body, err := b.doRequest(ctx, b.futuresURL, "/fapi/v2/positionRisk", nil, true)
	if err != nil {
		return nil, err
	}

	var wire []struct {
		Symbol                string `json:"symbol"`
		PositionAmt           string `json:"positionAmt"`
		EntryPrice            string `json:"entryPrice"`
		MarkPrice             string `json:"markPrice"`
		Notional              string `json:"notional"`
		PositionInitialMargin string `json:"positionInitialMargin"`
		UnRealizedProfit      string `json:"unRealizedProfit"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}

	positions := make([]Position, 0, len(wire))
	for _, w := range wire {
		positions = append(positions, Position{
			Symbol:        w.Symbol,
			Amount:        parseFloat(w.PositionAmt),
			EntryPrice:    parseFloat(w.EntryPrice),
			MarkPrice:     parseFloat(w.MarkPrice),
			Notional:      abs(parseFloat(w.Notional)),
			InitialMargin: parseFloat(w.PositionInitialMargin),
			UnrealizedPnL: parseFloat(w.UnRealizedProfit),
		})
	}
	return positions, nil
}

func (b *Binance) OpenOrders(ctx context.Context, symbol string) ([]Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := b.doRequest(ctx, b.futuresURL, "/fapi/v1/openOrders", params, true)
	if err != nil {
		return nil, err
	}

	var wire []struct {
		Symbol     string `json:"symbol"`
		Type       string `json:"type"`
		ReduceOnly bool   `json:"reduceOnly"`
		StopPrice  string `json:"stopPrice"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode open orders: %w", err)
	}

	orders := make([]Order, 0, len(wire))
	for _, w := range wire {
		orders = append(orders, Order{
			Symbol:     w.Symbol,
			Type:       w.Type,
			ReduceOnly: w.ReduceOnly,
			StopPrice:  parseFloat(w.StopPrice),
		})
	}
	return orders, nil
}

func (b *Binance) Tickers(ctx context.Context) ([]Ticker, error) {
	body, err := b.doRequest(ctx, b.spotURL, "/api/v3/ticker/24hr", nil, false)
	if err != nil {
		return nil, err
	}

	var wire []struct {
		Symbol             string `json:"symbol"`
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode tickers: %w", err)
	}

	tickers := make([]Ticker, 0, len(wire))
	for _, w := range wire {
		tickers = append(tickers, Ticker{
			Symbol:           w.Symbol,
			LastPrice:        parseFloat(w.LastPrice),
			PriceChangePct24: parseFloat(w.PriceChangePercent),
		})
	}
	return tickers, nil
}

func (b *Binance) Klines(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	if startTime > 0 {
		params.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := b.doRequest(ctx, b.spotURL, "/api/v3/klines", params, false)
	if err != nil {
		return nil, err
	}

	// Klines come back as positional arrays:
	// [openTime, open, high, low, close, volume, ...]
	var wire [][]interface{}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode klines: %w", err)
	}

	klines := make([]Kline, 0, len(wire))
	for _, row := range wire {
		if len(row) < 5 {
			continue
		}
		klines = append(klines, Kline{
			OpenTime: int64(asFloat(row[0])),
			Open:     asFloat(row[1]),
			High:     asFloat(row[2]),
			Low:      asFloat(row[3]),
			Close:    asFloat(row[4]),
		})
	}
	return klines, nil
}

// parseFloat tolerates the empty and absent string fields the exchange
// emits; a value that does not parse is treated as zero.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return parseFloat(t)
	default:
		return 0
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
