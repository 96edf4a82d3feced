package monitor

import (
	"context"
	"time"

	"github.com/buibui/buibui/internal/config"
	"github.com/buibui/buibui/internal/exchange"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PriceRow is one line of the price change board. Err marks a symbol whose
// data could not be resolved; its reason lives in the invalid-symbols set.
type PriceRow struct {
	Symbol     string
	LastPrice  float64
	Change15m  float64
	Change1h   float64
	ChangeAsia float64 // since today's 08:00 Asia/Shanghai open
	Change24h  float64
	Err        bool
}

// InvalidSymbol records why a symbol produced no data this cycle.
type InvalidSymbol struct {
	Symbol string
	Reason string
}

// kline lookback windows for the short-term change columns.
var changeWindows = []struct {
	interval string
	lookback time.Duration
}{
	{"15m", 15 * time.Minute},
	{"1h", time.Hour},
}

// asiaLocation resolves Asia/Shanghai, falling back to a fixed UTC+8
// offset on systems without tzdata.
var asiaLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}()

// PriceBoard computes percent changes for the configured symbols from one
// ticker snapshot plus concurrent per-symbol kline lookups.
type PriceBoard struct {
	client  exchange.Client
	logger  *zap.Logger
	workers int
	now     func() time.Time // injectable for tests
}

// NewPriceBoard creates a price board with a bounded kline fan-out pool.
func NewPriceBoard(client exchange.Client, logger *zap.Logger, workers int) *PriceBoard {
	if workers < 1 {
		workers = 1
	}
	if workers > config.MaxWorkers {
		workers = config.MaxWorkers
	}
	return &PriceBoard{
		client:  client,
		logger:  logger.Named("price_board"),
		workers: workers,
		now:     time.Now,
	}
}

// Changes returns one row per requested symbol, in the given order, plus
// the set of symbols that failed and why. A total ticker failure degrades
// every row to an error placeholder instead of aborting.
func (pb *PriceBoard) Changes(ctx context.Context, symbols []string) ([]PriceRow, []InvalidSymbol) {
	tickers, err := pb.client.Tickers(ctx)
	if err != nil {
		pb.logger.Error("failed to fetch tickers", zap.Error(err))
		rows := make([]PriceRow, len(symbols))
		for i, s := range symbols {
			rows[i] = PriceRow{Symbol: s, Err: true}
		}
		return rows, nil
	}

	tickerMap := make(map[string]exchange.Ticker, len(tickers))
	for _, t := range tickers {
		tickerMap[t.Symbol] = t
	}

	opens := pb.fetchOpens(ctx, symbols)

	rows := make([]PriceRow, 0, len(symbols))
	var invalid []InvalidSymbol
	for _, symbol := range symbols {
		ticker, ok := tickerMap[symbol]
		if !ok {
			invalid = append(invalid, InvalidSymbol{Symbol: symbol, Reason: "Ticker not found"})
			rows = append(rows, PriceRow{Symbol: symbol, Err: true})
			continue
		}

		last := ticker.LastPrice
		row := PriceRow{
			Symbol:    symbol,
			LastPrice: last,
			Change24h: ticker.PriceChangePct24,
		}
		row.Change15m = pctChange(last, opens.window[openKey{symbol, "15m"}])
		row.Change1h = pctChange(last, opens.window[openKey{symbol, "1h"}])
		row.ChangeAsia = pctChange(last, opens.asia[symbol])
		rows = append(rows, row)
	}

	return rows, invalid
}

type openKey struct {
	symbol   string
	interval string
}

type openPrices struct {
	window map[openKey]float64 // most recent kline open per lookback window
	asia   map[string]float64  // today's Asia 8AM open
}

// fetchOpens runs all kline lookups concurrently with a bounded pool.
// Each task writes its own slot; the maps are assembled after the barrier.
// Failures leave the open at zero, which pctChange treats as "no data".
func (pb *PriceBoard) fetchOpens(ctx context.Context, symbols []string) openPrices {
	type windowResult struct {
		key  openKey
		open float64
	}
	windowSlots := make([]windowResult, len(symbols)*len(changeWindows))
	asiaSlots := make([]float64, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pb.workers)

	for i, symbol := range symbols {
		for j, w := range changeWindows {
			slot := i*len(changeWindows) + j
			windowSlots[slot].key = openKey{symbol, w.interval}
			g.Go(func() error {
				start := pb.now().Add(-w.lookback).UnixMilli()
				klines, err := pb.client.Klines(gctx, symbol, w.interval, start, 0)
				if err != nil || len(klines) == 0 {
					if err != nil {
						pb.logger.Warn("kline lookup failed",
							zap.String("symbol", symbol),
							zap.String("interval", w.interval),
							zap.Error(err))
					}
					return nil
				}
				windowSlots[slot].open = klines[len(klines)-1].Open
				return nil
			})
		}

		g.Go(func() error {
			asiaSlots[i] = pb.asiaOpen(gctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	opens := openPrices{
		window: make(map[openKey]float64, len(windowSlots)),
		asia:   make(map[string]float64, len(symbols)),
	}
	for _, r := range windowSlots {
		opens.window[r.key] = r.open
	}
	for i, symbol := range symbols {
		opens.asia[symbol] = asiaSlots[i]
	}
	return opens
}

// asiaOpen returns the 1m open at today's 08:00 Asia/Shanghai, or the
// previous day's when that moment is still ahead. Zero means unavailable.
func (pb *PriceBoard) asiaOpen(ctx context.Context, symbol string) float64 {
	now := pb.now().In(asiaLocation)
	open8 := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, asiaLocation)
	if now.Before(open8) {
		open8 = open8.AddDate(0, 0, -1)
	}

	klines, err := pb.client.Klines(ctx, symbol, "1m", open8.UnixMilli(), 1)
	if err != nil || len(klines) == 0 {
		if err != nil {
			pb.logger.Warn("asia open lookup failed",
				zap.String("symbol", symbol),
				zap.Error(err))
		}
		return 0
	}
	return klines[0].Open
}

// pctChange guards against a missing or zero open price.
func pctChange(last, open float64) float64 {
	if open == 0 {
		return 0
	}
	return (last - open) / open * 100
}
