package monitor

import (
	"context"

	"github.com/buibui/buibui/internal/exchange"
)

// fakeClient is an in-memory exchange.Client for the monitor tests.
type fakeClient struct {
	balances  []exchange.Balance
	positions []exchange.Position
	orders    map[string][]exchange.Order
	tickers   []exchange.Ticker
	klines    map[string][]exchange.Kline // keyed by symbol + "/" + interval

	balancesErr  error
	positionsErr error
	ordersErr    map[string]error
	tickersErr   error

	klinesFn func(symbol, interval string, startTime int64, limit int) ([]exchange.Kline, error)
}

func (f *fakeClient) Balances(ctx context.Context) ([]exchange.Balance, error) {
	return f.balances, f.balancesErr
}

func (f *fakeClient) Positions(ctx context.Context) ([]exchange.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeClient) OpenOrders(ctx context.Context, symbol string) ([]exchange.Order, error) {
	if err := f.ordersErr[symbol]; err != nil {
		return nil, err
	}
	return f.orders[symbol], nil
}

func (f *fakeClient) Tickers(ctx context.Context) ([]exchange.Ticker, error) {
	return f.tickers, f.tickersErr
}

func (f *fakeClient) Klines(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]exchange.Kline, error) {
	if f.klinesFn != nil {
		return f.klinesFn(symbol, interval, startTime, limit)
	}
	return f.klines[symbol+"/"+interval], nil
}
