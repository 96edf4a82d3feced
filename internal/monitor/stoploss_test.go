package monitor

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/buibui/buibui/internal/exchange"
)

func newTestEnricher(client exchange.Client) *Enricher {
	logger := zap.NewNop()
	return NewEnricher(client, NewFormatter(logger), logger)
}

func TestEnrichSignConvention(t *testing.T) {
	client := &fakeClient{orders: map[string][]exchange.Order{
		"BTCUSDT": {{Symbol: "BTCUSDT", Type: "STOP_MARKET", ReduceOnly: true, StopPrice: 90}},
	}}
	e := newTestEnricher(client)

	// A short with the stop below entry locks in profit: positive distance.
	short := e.Enrich(context.Background(), "BTCUSDT", SideShort, 100, 1000)
	if !short.Found {
		t.Fatal("short stop not found")
	}
	if math.Abs(short.Percent-10) > 1e-9 {
		t.Errorf("short Percent = %v, want +10", short.Percent)
	}
	if math.Abs(short.RiskUSD-100) > 1e-9 {
		t.Errorf("short RiskUSD = %v, want +100", short.RiskUSD)
	}

	// The same stop under a long is a loss: negative distance.
	long := e.Enrich(context.Background(), "BTCUSDT", SideLong, 100, 1000)
	if math.Abs(long.Percent+10) > 1e-9 {
		t.Errorf("long Percent = %v, want -10", long.Percent)
	}
	if math.Abs(long.RiskUSD+100) > 1e-9 {
		t.Errorf("long RiskUSD = %v, want -100", long.RiskUSD)
	}
}

func TestEnrichIgnoresNonProtectiveOrders(t *testing.T) {
	client := &fakeClient{orders: map[string][]exchange.Order{
		"BTCUSDT": {
			{Symbol: "BTCUSDT", Type: "LIMIT", ReduceOnly: true, StopPrice: 95},
			{Symbol: "BTCUSDT", Type: "STOP_MARKET", ReduceOnly: false, StopPrice: 93},
			{Symbol: "BTCUSDT", Type: "STOP", ReduceOnly: true, StopPrice: 90},
			{Symbol: "BTCUSDT", Type: "STOP_MARKET", ReduceOnly: true, StopPrice: 80},
		},
	}}
	e := newTestEnricher(client)

	// The first reduce-only stop order wins; later ones are ignored.
	sl := e.Enrich(context.Background(), "BTCUSDT", SideLong, 100, 1000)
	if !sl.Found {
		t.Fatal("stop not found")
	}
	if math.Abs(sl.Percent+10) > 1e-9 {
		t.Errorf("Percent = %v, want -10 (stop at 90)", sl.Percent)
	}
}

func TestEnrichDegradesToAbsent(t *testing.T) {
	cases := []struct {
		name   string
		client *fakeClient
		entry  float64
	}{
		{"lookup error", &fakeClient{ordersErr: map[string]error{"BTCUSDT": errors.New("boom")}}, 100},
		{"no orders", &fakeClient{}, 100},
		{"zero entry price", &fakeClient{orders: map[string][]exchange.Order{
			"BTCUSDT": {{Type: "STOP_MARKET", ReduceOnly: true, StopPrice: 90}},
		}}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sl := newTestEnricher(tc.client).Enrich(context.Background(), "BTCUSDT", SideLong, tc.entry, 1000)
			if sl.Found {
				t.Error("expected no stop loss")
			}
			if sl.PriceText != "-" || sl.PercentText != "-" || sl.RiskText != "-" {
				t.Errorf("absent fields not dashed: %+v", sl)
			}
			if sl.RiskUSD != 0 {
				t.Errorf("RiskUSD = %v, want 0", sl.RiskUSD)
			}
		})
	}
}
