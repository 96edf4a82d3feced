package monitor

import (
	"context"
	"strconv"

	"github.com/buibui/buibui/internal/exchange"
	"go.uber.org/zap"
)

// StopLoss is the enrichment result for one position. Display strings and
// raw numbers are carried separately: sorting and risk aggregation need the
// unformatted values.
type StopLoss struct {
	PriceText   string  // stop price, or "-"
	PercentText string  // distance from entry, or "-"
	RiskText    string  // dollar exposure, or "-"
	RiskUSD     float64 // 0 when no stop is resolved
	Percent     float64 // meaningful only when Found
	Found       bool
}

func noStopLoss() StopLoss {
	return StopLoss{
		PriceText:   absentField,
		PercentText: absentField,
		RiskText:    absentField,
	}
}

// stopOrderTypes are the order kinds recognized as protective stops.
var stopOrderTypes = map[string]bool{
	"STOP_MARKET": true,
	"STOP":        true,
}

// Enricher resolves the active protective stop for a symbol. It is safe to
// run concurrently for different symbols; every failure mode degrades to
// the "no stop loss" result and never propagates.
type Enricher struct {
	client exchange.Client
	format *Formatter
	logger *zap.Logger
}

// NewEnricher creates a stop-loss enricher.
func NewEnricher(client exchange.Client, format *Formatter, logger *zap.Logger) *Enricher {
	return &Enricher{
		client: client,
		format: format,
		logger: logger.Named("stoploss"),
	}
}

// Enrich looks up the live stop order for symbol and derives the distance
// from entry and the dollar risk. The sign convention makes a stop that
// reduces loss positive: SHORT uses (entry-stop)/entry, LONG the reverse.
func (e *Enricher) Enrich(ctx context.Context, symbol string, side Side, entry, notional float64) StopLoss {
	orders, err := e.client.OpenOrders(ctx, symbol)
	if err != nil {
		e.logger.Warn("stop-loss lookup failed",
			zap.String("symbol", symbol),
			zap.Error(err))
		return noStopLoss()
	}

	stopPrice := 0.0
	for _, o := range orders {
		if stopOrderTypes[o.Type] && o.ReduceOnly {
			stopPrice = o.StopPrice
			break
		}
	}
	if stopPrice == 0 || entry == 0 {
		return noStopLoss()
	}

	var pct float64
	if side == SideShort {
		pct = (entry - stopPrice) / entry * 100
	} else {
		pct = (stopPrice - entry) / entry * 100
	}
	riskUSD := notional * (pct / 100)

	return StopLoss{
		PriceText:   strconv.FormatFloat(stopPrice, 'f', 5, 64),
		PercentText: e.format.SignedPercent(pct, 0),
		RiskText:    e.format.SignedDollar(riskUSD),
		RiskUSD:     riskUSD,
		Percent:     pct,
		Found:       true,
	}
}
