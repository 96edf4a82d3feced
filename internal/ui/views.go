package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/buibui/buibui/internal/monitor"
)

// PositionsView renders the position risk table.
func PositionsView(rows []monitor.Row, f *monitor.Formatter) string {
	table := NewTable(
		Column{Header: "Symbol", Align: lipgloss.Left},
		Column{Header: "Side", Align: lipgloss.Left},
		Column{Header: "Lev", Align: lipgloss.Right},
		Column{Header: "Entry", Align: lipgloss.Right},
		Column{Header: "Mark", Align: lipgloss.Right},
		Column{Header: "Margin", Align: lipgloss.Right},
		Column{Header: "Size", Align: lipgloss.Right},
		Column{Header: "PnL", Align: lipgloss.Right},
		Column{Header: "PnL%", Align: lipgloss.Right},
		Column{Header: "Risk%", Align: lipgloss.Right},
		Column{Header: "SL Price", Align: lipgloss.Right},
		Column{Header: "SL %", Align: lipgloss.Right},
		Column{Header: "SL USD", Align: lipgloss.Right},
	)

	for _, r := range rows {
		table.AddRow(positionCells(r, f)...)
	}
	return table.View()
}

func positionCells(r monitor.Row, f *monitor.Formatter) []Cell {
	if !r.Open {
		cells := []Cell{
			{Text: r.Symbol},
			{Text: absent(), Style: mutedStyle},
			{Text: strconv.Itoa(r.Leverage)},
		}
		for i := 0; i < 10; i++ {
			cells = append(cells, Cell{Text: absent(), Style: mutedStyle})
		}
		return cells
	}

	slStyle := neutralStyle
	if r.StopLoss.Found {
		slStyle = signStyle(r.StopLoss.Percent)
	}

	return []Cell{
		{Text: r.Symbol},
		{Text: string(r.Side), Style: sideStyle(r.Side)},
		{Text: strconv.Itoa(r.Leverage)},
		{Text: formatPrice(r.EntryPrice)},
		{Text: formatPrice(r.MarkPrice)},
		{Text: fmt.Sprintf("%.2f", r.Margin)},
		{Text: fmt.Sprintf("%.2f", r.Notional)},
		{Text: f.SignedDollar(r.PnL), Style: signStyle(r.PnL)},
		{Text: f.SignedPercent(r.PnLPercent, 0), Style: signStyle(r.PnLPercent)},
		{Text: fmt.Sprintf("%.2f%%", r.RiskPercent)},
		{Text: r.StopLoss.PriceText},
		{Text: r.StopLoss.PercentText, Style: slStyle},
		{Text: r.StopLoss.RiskText, Style: slStyle},
	}
}

// PricesView renders the price change board, appending the invalid-symbol
// listing when any symbol failed.
func PricesView(rows []monitor.PriceRow, invalid []monitor.InvalidSymbol, f *monitor.Formatter) string {
	table := NewTable(
		Column{Header: "Symbol", Align: lipgloss.Left},
		Column{Header: "Last Price", Align: lipgloss.Right},
		Column{Header: "15m %", Align: lipgloss.Right},
		Column{Header: "1h %", Align: lipgloss.Right},
		Column{Header: "Since Asia 8AM", Align: lipgloss.Right},
		Column{Header: "24h %", Align: lipgloss.Right},
	)

	for _, r := range rows {
		if r.Err {
			table.AddRow(
				Cell{Text: r.Symbol},
				Cell{Text: "Error", Style: errorStyle},
				Cell{}, Cell{}, Cell{}, Cell{},
			)
			continue
		}
		table.AddRow(
			Cell{Text: r.Symbol},
			Cell{Text: formatPrice(r.LastPrice)},
			Cell{Text: f.SignedPercent(r.Change15m, 0), Style: signStyle(r.Change15m)},
			Cell{Text: f.SignedPercent(r.Change1h, 0), Style: signStyle(r.Change1h)},
			Cell{Text: f.SignedPercent(r.ChangeAsia, 0), Style: signStyle(r.ChangeAsia)},
			Cell{Text: f.SignedPercent(r.Change24h, 0), Style: signStyle(r.Change24h)},
		)
	}

	out := table.View()
	if len(invalid) > 0 {
		var sb strings.Builder
		sb.WriteString(out)
		sb.WriteString("\n\n⚠️  The following symbols had errors:\n")
		for _, inv := range invalid {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", inv.Symbol, inv.Reason))
		}
		return sb.String()
	}
	return out
}

// SummaryView renders the portfolio roll-up block shown above the table.
func SummaryView(s monitor.Summary, f *monitor.Formatter) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("💰 Wallet Balance: %s\n", titleStyle.Render(f.Dollar(s.WalletBalance))))
	sb.WriteString(fmt.Sprintf("💵 Available: %s   📈 Unrealized PnL: %s (%s)\n",
		f.Dollar(s.AvailableBalance),
		signStyle(s.UnrealizedPnL).Render(f.SignedDollar(s.UnrealizedPnL)),
		signStyle(s.UnrealizedPct).Render(f.SignedPercent(s.UnrealizedPct, 0))))
	sb.WriteString(fmt.Sprintf("💼 Total: %s   🛡 Total SL Risk: %s\n",
		titleStyle.Render(f.Dollar(s.Total)),
		f.RiskDollar(s.TotalRiskUSD, s.Total)))

	if s.HasTarget {
		bar := strings.Repeat("█", s.TargetFilled) +
			strings.Repeat("░", monitor.TargetBarWidth-s.TargetFilled)
		sb.WriteString(fmt.Sprintf("🎯 Target %s [%s] %.1f%%\n",
			f.Dollar(s.WalletTarget), bar, s.TargetProgress*100))
	}

	return sb.String()
}

// PlainPositions renders the position table without styling for the
// notification sink.
func PlainPositions(rows []monitor.Row, f *monitor.Formatter) string {
	headers := []string{"Symbol", "Side", "Lev", "Entry", "Mark", "Margin", "Size", "PnL", "PnL%", "Risk%", "SL", "SL%", "SL USD"}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := positionCells(r, f)
		line := make([]string, len(cells))
		for i, c := range cells {
			line[i] = c.Text
		}
		data = append(data, line)
	}
	return plainTable(headers, data)
}

// PlainPrices renders the price board without styling.
func PlainPrices(rows []monitor.PriceRow, f *monitor.Formatter) string {
	headers := []string{"Symbol", "Last Price", "15m %", "1h %", "Asia 8AM", "24h %"}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r.Err {
			data = append(data, []string{r.Symbol, "Error", "", "", "", ""})
			continue
		}
		data = append(data, []string{
			r.Symbol,
			formatPrice(r.LastPrice),
			f.SignedPercent(r.Change15m, 0),
			f.SignedPercent(r.Change1h, 0),
			f.SignedPercent(r.ChangeAsia, 0),
			f.SignedPercent(r.Change24h, 0),
		})
	}
	return plainTable(headers, data)
}

func plainTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	writeLine := func(cells []string) {
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(cell)
			if i < len(widths)-1 {
				sb.WriteString(strings.Repeat(" ", w-len(cell)+2))
			}
		}
		sb.WriteString("\n")
	}

	writeLine(headers)
	for _, row := range rows {
		writeLine(row)
	}
	return sb.String()
}

func sideStyle(side monitor.Side) lipgloss.Style {
	switch side {
	case monitor.SideLong:
		return positiveStyle
	case monitor.SideShort:
		return negativeStyle
	default:
		return mutedStyle
	}
}

// formatPrice rounds to five decimals and drops trailing zeros, matching
// the precision the exchange reports entry and mark prices with.
func formatPrice(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e5)/1e5, 'f', -1, 64)
}

func absent() string { return "-" }
