// internal/exchange/client.go
package exchange

import "context"

// Client is the read-only view of the exchange the monitor consumes.
// Implementations must honor the context deadline on every call; the
// monitor relies on request timeouts to keep its fan-in barriers bounded.
type Client interface {
	// Balances returns the futures account asset balances.
	Balances(ctx context.Context) ([]Balance, error)

	// Positions returns all futures position records, including flat ones.
	Positions(ctx context.Context) ([]Position, error)

	// OpenOrders returns the open orders for one symbol.
	OpenOrders(ctx context.Context, symbol string) ([]Order, error)

	// Tickers returns the 24h ticker for every spot symbol.
	Tickers(ctx context.Context) ([]Ticker, error)

	// Klines returns spot candles for symbol starting at startTime
	// (unix milliseconds). A limit of 0 uses the exchange default.
	Klines(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]Kline, error)
}

// Balance is one asset balance of the futures account.
type Balance struct {
	Asset        string
	Balance      float64
	CrossUnPnl   float64
	AvailableBal float64
}

// Position is one exchange-reported futures position. Amount is signed;
// zero means flat. InitialMargin may be zero when the exchange omits it.
type Position struct {
	Symbol        string
	Amount        float64
	EntryPrice    float64
	MarkPrice     float64
	Notional      float64
	InitialMargin float64
	UnrealizedPnL float64
}

// Order is an open futures order. Only the fields the stop-loss lookup
// needs are carried.
type Order struct {
	Symbol     string
	Type       string
	ReduceOnly bool
	StopPrice  float64
}

// Ticker is a 24h spot ticker snapshot.
type Ticker struct {
	Symbol           string
	LastPrice        float64
	PriceChangePct24 float64
}

// Kline is one spot candle.
type Kline struct {
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
}
