package monitor

import (
	"fmt"
	"strings"
)

// TargetBarWidth is the fixed cell count of the wallet-target progress bar.
const TargetBarWidth = 30

// Summary is the portfolio-level roll-up derived from one snapshot.
type Summary struct {
	WalletBalance    float64
	UnrealizedPnL    float64
	UnrealizedPct    float64 // vs wallet balance; 0 when balance is 0
	Total            float64 // wallet + unrealized
	UsedMargin       float64 // sum over open rows only
	AvailableBalance float64 // total - used margin
	TotalRiskUSD     float64

	WalletTarget   float64
	TargetProgress float64 // clamped to [0, 1]
	TargetFilled   int     // of TargetBarWidth
	HasTarget      bool
}

// Summarize combines aggregated rows with the wallet state. Placeholder
// rows carry no margin and are excluded from the used-margin sum.
func Summarize(rows []Row, walletBalance, unrealizedPnL, totalRiskUSD, walletTarget float64) Summary {
	s := Summary{
		WalletBalance: walletBalance,
		UnrealizedPnL: unrealizedPnL,
		Total:         walletBalance + unrealizedPnL,
		TotalRiskUSD:  totalRiskUSD,
		WalletTarget:  walletTarget,
	}

	for _, r := range rows {
		if r.Open {
			s.UsedMargin += r.Margin
		}
	}
	s.AvailableBalance = s.Total - s.UsedMargin

	if walletBalance != 0 {
		s.UnrealizedPct = unrealizedPnL / walletBalance * 100
	}

	if walletTarget > 0 {
		s.HasTarget = true
		ratio := s.Total / walletTarget
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		s.TargetProgress = ratio
		s.TargetFilled = int(ratio * TargetBarWidth)
	}

	return s
}

// Message renders the summary as the multi-line block pushed to the
// notification sink.
func (s Summary) Message(f *Formatter) string {
	var sb strings.Builder

	sb.WriteString("📊 Position Update\n\n")
	sb.WriteString(fmt.Sprintf("💰 Wallet Balance: $%s\n", groupThousands(s.WalletBalance)))
	sb.WriteString(fmt.Sprintf("💵 Available Balance: $%s\n", groupThousands(s.AvailableBalance)))
	sb.WriteString(fmt.Sprintf("📈 Unrealized PnL: %s (%s)\n",
		f.SignedDollar(s.UnrealizedPnL), f.SignedPercent(s.UnrealizedPct, 0)))
	sb.WriteString(fmt.Sprintf("💼 Total: $%s\n", groupThousands(s.Total)))
	sb.WriteString(fmt.Sprintf("🛡 Total SL Risk: %s\n", f.RiskDollar(s.TotalRiskUSD, s.Total)))

	if s.HasTarget {
		sb.WriteString(fmt.Sprintf("🎯 Target: $%s (%.1f%%)\n",
			groupThousands(s.WalletTarget), s.TargetProgress*100))
	}

	return sb.String()
}
