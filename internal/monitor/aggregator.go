package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/buibui/buibui/internal/config"
	"github.com/buibui/buibui/internal/exchange"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the result of one position aggregation cycle.
type Snapshot struct {
	Rows          []Row
	TotalRiskUSD  float64 // sum of resolved stop-loss dollar risk
	WalletBalance float64
	UnrealizedPnL float64
}

// Aggregator builds the per-symbol risk picture from one exchange poll.
// All dependencies are injected; there is no process-wide client state.
type Aggregator struct {
	client   exchange.Client
	coins    *config.Coins
	enricher *Enricher
	logger   *zap.Logger
	workers  int
}

// NewAggregator creates an aggregator with a bounded enrichment pool.
func NewAggregator(client exchange.Client, coins *config.Coins, format *Formatter, logger *zap.Logger, workers int) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	if workers > config.MaxWorkers {
		workers = config.MaxWorkers
	}
	return &Aggregator{
		client:   client,
		coins:    coins,
		enricher: NewEnricher(client, format, logger),
		logger:   logger.Named("aggregator"),
		workers:  workers,
	}
}

// Aggregate polls positions and balance, enriches every open position with
// its stop-loss concurrently, and returns one row per configured symbol in
// the requested order. Only the primary polls can fail; per-symbol
// enrichment failures degrade that row and never abort the cycle.
func (a *Aggregator) Aggregate(ctx context.Context, sortBy string, descending bool) (*Snapshot, error) {
	wallet, unrealized, err := a.walletBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet balance: %w", err)
	}

	raw, err := a.client.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	// Unconfigured symbols and flat positions are dropped silently; a zero
	// amount means flat, not an error.
	open := make([]exchange.Position, 0, len(raw))
	for _, p := range raw {
		if !a.coins.Contains(p.Symbol) || p.Amount == 0 {
			continue
		}
		open = append(open, p)
	}

	// Fan out the stop-loss lookups; each worker owns its result slot, so
	// no shared state is written concurrently. Enrich never fails, which
	// keeps the full fan-in barrier intact under partial outages.
	stops := make([]StopLoss, len(open))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, p := range open {
		g.Go(func() error {
			stops[i] = a.enricher.Enrich(gctx, p.Symbol, positionSide(p.Amount), p.EntryPrice, p.Notional)
			return nil
		})
	}
	_ = g.Wait()

	rows := make([]Row, 0, len(a.coins.Order))
	totalRisk := 0.0
	openSymbols := make(map[string]bool, len(open))

	for i, p := range open {
		sl := stops[i]
		totalRisk += sl.RiskUSD

		margin := p.InitialMargin
		if margin <= 0 {
			margin = marginEpsilon
		}
		riskPct := 0.0
		if wallet > 0 {
			riskPct = margin / wallet * 100
		}

		rows = append(rows, Row{
			Symbol:      p.Symbol,
			Side:        positionSide(p.Amount),
			Leverage:    int(math.Round(p.Notional / margin)),
			EntryPrice:  p.EntryPrice,
			MarkPrice:   p.MarkPrice,
			Margin:      margin,
			Notional:    p.Notional,
			PnL:         p.UnrealizedPnL,
			PnLPercent:  p.UnrealizedPnL / margin * 100,
			RiskPercent: riskPct,
			StopLoss:    sl,
			Open:        true,
		})
		openSymbols[p.Symbol] = true
	}

	// Every configured symbol without a position still gets a row, with
	// the leverage default from configuration and absent sentinels
	// everywhere else.
	for _, symbol := range a.coins.Order {
		if openSymbols[symbol] {
			continue
		}
		rows = append(rows, Row{
			Symbol:   symbol,
			Side:     SideNone,
			Leverage: int(a.coins.Symbols[symbol].Leverage),
			StopLoss: noStopLoss(),
		})
	}

	a.sortRows(rows, sortBy, descending)

	a.logger.Debug("aggregation cycle complete",
		zap.Int("open_positions", len(open)),
		zap.Int("rows", len(rows)),
		zap.Float64("total_risk_usd", totalRisk))

	return &Snapshot{
		Rows:          rows,
		TotalRiskUSD:  totalRisk,
		WalletBalance: wallet,
		UnrealizedPnL: unrealized,
	}, nil
}

// walletBalance returns the USDT balance and cross unrealized PnL.
func (a *Aggregator) walletBalance(ctx context.Context) (balance, unrealized float64, err error) {
	balances, err := a.client.Balances(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, b := range balances {
		if b.Asset == "USDT" {
			return b.Balance, b.CrossUnPnl, nil
		}
	}
	return 0, 0, nil
}

func positionSide(amount float64) Side {
	if amount > 0 {
		return SideLong
	}
	return SideShort
}

// Sort keys are computed at sort time; placeholder rows rank below every
// real position under the performance orderings.

func pnlSortKey(r Row) float64 {
	if !r.Open {
		return pnlRankAbsent
	}
	return r.PnLPercent
}

func slSortKey(r Row) float64 {
	if !r.Open {
		return slRankAbsent
	}
	return r.StopLoss.RiskUSD
}

func (a *Aggregator) sortRows(rows []Row, sortBy string, descending bool) {
	switch sortBy {
	case SortPnLPct:
		sortByKey(rows, pnlSortKey, descending)
	case SortSLUSD:
		sortByKey(rows, slSortKey, descending)
	default:
		// Configuration order; symbols missing from it sort last.
		sort.SliceStable(rows, func(i, j int) bool {
			return a.coins.IndexOf(rows[i].Symbol) < a.coins.IndexOf(rows[j].Symbol)
		})
	}
}

func sortByKey(rows []Row, key func(Row) float64, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if descending {
			return key(rows[i]) > key(rows[j])
		}
		return key(rows[i]) < key(rows[j])
	})
}
