package monitor

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/buibui/buibui/internal/config"
	"github.com/buibui/buibui/internal/exchange"
)

func testCoins(t *testing.T, data string) *config.Coins {
	t.Helper()
	coins, err := config.ParseCoins([]byte(data))
	if err != nil {
		t.Fatalf("failed to parse coins: %v", err)
	}
	return coins
}

func newTestAggregator(t *testing.T, client exchange.Client, coins *config.Coins) *Aggregator {
	t.Helper()
	logger := zap.NewNop()
	return NewAggregator(client, coins, NewFormatter(logger), logger, 4)
}

func usdtWallet(balance, unrealized float64) []exchange.Balance {
	return []exchange.Balance{
		{Asset: "BNB", Balance: 1.5},
		{Asset: "USDT", Balance: balance, CrossUnPnl: unrealized},
	}
}

func TestAggregateOpenPosition(t *testing.T) {
	client := &fakeClient{
		balances: usdtWallet(1000, 20),
		positions: []exchange.Position{{
			Symbol:        "BTCUSDT",
			Amount:        0.5,
			EntryPrice:    100,
			MarkPrice:     120,
			Notional:      1000,
			InitialMargin: 100,
			UnrealizedPnL: 20,
		}},
		orders: map[string][]exchange.Order{
			"BTCUSDT": {{Type: "STOP_MARKET", ReduceOnly: true, StopPrice: 90}},
		},
	}
	coins := testCoins(t, `{"BTCUSDT": {"leverage": 10, "sl_percent": 2}}`)

	snap, err := newTestAggregator(t, client, coins).Aggregate(context.Background(), SortDefault, false)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if snap.WalletBalance != 1000 || snap.UnrealizedPnL != 20 {
		t.Errorf("wallet = %v/%v, want 1000/20", snap.WalletBalance, snap.UnrealizedPnL)
	}
	if len(snap.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(snap.Rows))
	}

	row := snap.Rows[0]
	if !row.Open || row.Side != SideLong {
		t.Errorf("row = %+v, want open long", row)
	}
	if row.Leverage != 10 {
		t.Errorf("Leverage = %d, want 10 (notional/margin)", row.Leverage)
	}
	if math.Abs(row.PnLPercent-20) > 1e-9 {
		t.Errorf("PnLPercent = %v, want 20 (pnl vs margin)", row.PnLPercent)
	}
	if math.Abs(row.RiskPercent-10) > 1e-9 {
		t.Errorf("RiskPercent = %v, want 10 (margin vs wallet)", row.RiskPercent)
	}
	if !row.StopLoss.Found {
		t.Error("stop loss not resolved")
	}
	if math.Abs(snap.TotalRiskUSD+100) > 1e-9 {
		t.Errorf("TotalRiskUSD = %v, want -100", snap.TotalRiskUSD)
	}
}

func TestAggregatePlaceholdersAndFiltering(t *testing.T) {
	client := &fakeClient{
		balances: usdtWallet(1000, 0),
		positions: []exchange.Position{
			// Flat position: dropped.
			{Symbol: "ETHUSDT", Amount: 0},
			// Not configured: dropped.
			{Symbol: "DOGEUSDT", Amount: 5, EntryPrice: 1, Notional: 5, InitialMargin: 1},
			// Open short.
			{Symbol: "SOLUSDT", Amount: -10, EntryPrice: 100, MarkPrice: 100, Notional: 1000, InitialMargin: 100},
		},
	}
	coins := testCoins(t, `{
		"ETHUSDT": {"leverage": 25, "sl_percent": 2},
		"SOLUSDT": {"leverage": 10, "sl_percent": 2}
	}`)

	snap, err := newTestAggregator(t, client, coins).Aggregate(context.Background(), SortDefault, false)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	// Exactly one row per configured symbol, in config file order.
	if len(snap.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(snap.Rows))
	}
	if snap.Rows[0].Symbol != "ETHUSDT" || snap.Rows[1].Symbol != "SOLUSDT" {
		t.Errorf("row order = %s, %s; want ETHUSDT, SOLUSDT",
			snap.Rows[0].Symbol, snap.Rows[1].Symbol)
	}

	placeholder := snap.Rows[0]
	if placeholder.Open || placeholder.Side != SideNone {
		t.Errorf("placeholder = %+v, want flat NONE row", placeholder)
	}
	if placeholder.Leverage != 25 {
		t.Errorf("placeholder Leverage = %d, want configured 25", placeholder.Leverage)
	}
	if placeholder.StopLoss.PriceText != "-" {
		t.Errorf("placeholder stop = %+v, want absent", placeholder.StopLoss)
	}

	if snap.Rows[1].Side != SideShort {
		t.Errorf("SOLUSDT side = %s, want SHORT", snap.Rows[1].Side)
	}
}

func TestAggregateSortByPnL(t *testing.T) {
	client := &fakeClient{
		balances: usdtWallet(1000, 0),
		positions: []exchange.Position{
			{Symbol: "AUSDT", Amount: 1, EntryPrice: 100, Notional: 1000, InitialMargin: 100, UnrealizedPnL: 10},
			{Symbol: "BUSDT", Amount: 1, EntryPrice: 100, Notional: 1000, InitialMargin: 100, UnrealizedPnL: 50},
		},
	}
	coinsJSON := `{
		"AUSDT": {"leverage": 10, "sl_percent": 2},
		"BUSDT": {"leverage": 10, "sl_percent": 2},
		"CUSDT": {"leverage": 10, "sl_percent": 2}
	}`

	agg := newTestAggregator(t, client, testCoins(t, coinsJSON))

	desc, err := agg.Aggregate(context.Background(), SortPnLPct, true)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	wantDesc := []string{"BUSDT", "AUSDT", "CUSDT"}
	for i, symbol := range wantDesc {
		if desc.Rows[i].Symbol != symbol {
			t.Errorf("desc[%d] = %s, want %s", i, desc.Rows[i].Symbol, symbol)
		}
	}
	// The flat symbol ranks below every open position.
	if desc.Rows[2].Open {
		t.Error("expected the placeholder to sort last")
	}

	asc, err := agg.Aggregate(context.Background(), SortPnLPct, false)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	wantAsc := []string{"CUSDT", "AUSDT", "BUSDT"}
	for i, symbol := range wantAsc {
		if asc.Rows[i].Symbol != symbol {
			t.Errorf("asc[%d] = %s, want %s", i, asc.Rows[i].Symbol, symbol)
		}
	}
}

func TestAggregateZeroMargin(t *testing.T) {
	client := &fakeClient{
		balances: usdtWallet(1000, 0),
		positions: []exchange.Position{{
			Symbol:   "BTCUSDT",
			Amount:   1,
			Notional: 1000,
			// Some account modes omit the initial margin entirely.
			InitialMargin: 0,
			UnrealizedPnL: 5,
		}},
	}
	coins := testCoins(t, `{"BTCUSDT": {"leverage": 10, "sl_percent": 2}}`)

	snap, err := newTestAggregator(t, client, coins).Aggregate(context.Background(), SortDefault, false)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	row := snap.Rows[0]
	if row.Margin != marginEpsilon {
		t.Errorf("Margin = %v, want epsilon substitute", row.Margin)
	}
	if math.IsInf(row.PnLPercent, 0) || math.IsNaN(row.PnLPercent) {
		t.Errorf("PnLPercent = %v, want finite", row.PnLPercent)
	}
}

func TestAggregateEnrichmentFailureDegradesRow(t *testing.T) {
	client := &fakeClient{
		balances: usdtWallet(1000, 0),
		positions: []exchange.Position{{
			Symbol: "BTCUSDT", Amount: 1, EntryPrice: 100,
			Notional: 1000, InitialMargin: 100,
		}},
		ordersErr: map[string]error{"BTCUSDT": errors.New("rate limited")},
	}
	coins := testCoins(t, `{"BTCUSDT": {"leverage": 10, "sl_percent": 2}}`)

	snap, err := newTestAggregator(t, client, coins).Aggregate(context.Background(), SortDefault, false)
	if err != nil {
		t.Fatalf("a per-symbol failure must not abort the cycle: %v", err)
	}
	if snap.Rows[0].StopLoss.Found {
		t.Error("expected a degraded stop loss")
	}
	if snap.TotalRiskUSD != 0 {
		t.Errorf("TotalRiskUSD = %v, want 0", snap.TotalRiskUSD)
	}
}

func TestAggregatePollFailures(t *testing.T) {
	coins := testCoins(t, `{"BTCUSDT": {"leverage": 10, "sl_percent": 2}}`)

	if _, err := newTestAggregator(t, &fakeClient{balancesErr: errors.New("down")}, coins).
		Aggregate(context.Background(), SortDefault, false); err == nil {
		t.Error("expected an error when the balance poll fails")
	}

	client := &fakeClient{
		balances:     usdtWallet(1000, 0),
		positionsErr: errors.New("down"),
	}
	if _, err := newTestAggregator(t, client, coins).
		Aggregate(context.Background(), SortDefault, false); err == nil {
		t.Error("expected an error when the position poll fails")
	}
}
