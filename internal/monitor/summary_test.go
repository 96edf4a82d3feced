package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Symbol: "BTCUSDT", Margin: 800, Open: true},
		{Symbol: "ETHUSDT", Margin: 200, Open: true},
		// Placeholder margin is meaningless and must be excluded.
		{Symbol: "SOLUSDT", Margin: 999},
	}

	s := Summarize(rows, 10000, 500, 120, 0)

	assert.Equal(t, 10500.0, s.Total)
	assert.InDelta(t, 5.0, s.UnrealizedPct, 1e-9)
	assert.Equal(t, 1000.0, s.UsedMargin)
	assert.Equal(t, 9500.0, s.AvailableBalance)
	assert.False(t, s.HasTarget)
}

func TestSummarizeZeroBalance(t *testing.T) {
	s := Summarize(nil, 0, 50, 0, 0)
	assert.Zero(t, s.UnrealizedPct, "a zero balance must not divide")
}

func TestSummarizeTarget(t *testing.T) {
	s := Summarize(nil, 10000, 500, 0, 20000)
	require.True(t, s.HasTarget)
	assert.InDelta(t, 0.525, s.TargetProgress, 1e-9)
	assert.Equal(t, 15, s.TargetFilled)

	// Past the target the bar pegs at full.
	over := Summarize(nil, 30000, 0, 0, 20000)
	assert.Equal(t, 1.0, over.TargetProgress)
	assert.Equal(t, TargetBarWidth, over.TargetFilled)
}

func TestSummaryMessage(t *testing.T) {
	f := NewFormatter(zap.NewNop())
	rows := []Row{{Symbol: "BTCUSDT", Margin: 1000, Open: true}}

	msg := Summarize(rows, 10000, 500, 120, 20000).Message(f)

	for _, want := range []string{
		"📊 Position Update",
		"Wallet Balance: $10,000.00",
		"Available Balance: $9,500.00",
		"Unrealized PnL: +$500.00 (+5.00%)",
		"Total: $10,500.00",
		"Total SL Risk: $120.00 (1.14%)",
		"Target: $20,000.00 (52.5%)",
	} {
		assert.Contains(t, msg, want)
	}
}
