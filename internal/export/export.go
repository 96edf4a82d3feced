package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/buibui/buibui/internal/monitor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format selects the snapshot export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures a snapshot export.
type Options struct {
	Format    Format
	OutputDir string
	OpenOnly  bool // skip placeholder rows for symbols without a position
}

// SnapshotExporter writes one aggregated snapshot to a timestamped file.
type SnapshotExporter struct {
	logger *zap.Logger
}

// NewSnapshotExporter creates an exporter.
func NewSnapshotExporter(logger *zap.Logger) *SnapshotExporter {
	return &SnapshotExporter{logger: logger.Named("export")}
}

// Export writes the snapshot and returns the output path.
func (e *SnapshotExporter) Export(snap *monitor.Snapshot, opts Options) (string, error) {
	rows := snap.Rows
	if opts.OpenOnly {
		filtered := make([]monitor.Row, 0, len(rows))
		for _, r := range rows {
			if r.Open {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to export")
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	var path string
	var err error
	switch opts.Format {
	case FormatJSON:
		path = filepath.Join(dir, fmt.Sprintf("positions_%s.json", stamp))
		err = e.writeJSON(path, snap, rows)
	case FormatCSV, "":
		path = filepath.Join(dir, fmt.Sprintf("positions_%s.csv", stamp))
		err = e.writeCSV(path, rows)
	default:
		return "", fmt.Errorf("unsupported export format: %s", opts.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("exported snapshot",
		zap.String("path", path),
		zap.Int("rows", len(rows)))
	return path, nil
}

func (e *SnapshotExporter) writeCSV(path string, rows []monitor.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"symbol", "side", "leverage", "entry_price", "mark_price",
		"margin", "notional", "pnl", "pnl_pct", "risk_pct",
		"sl_price", "sl_pct", "sl_usd",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Symbol,
			string(r.Side),
			strconv.Itoa(r.Leverage),
			formatFloat(r.EntryPrice),
			formatFloat(r.MarkPrice),
			formatFloat(r.Margin),
			formatFloat(r.Notional),
			formatFloat(r.PnL),
			formatFloat(r.PnLPercent),
			formatFloat(r.RiskPercent),
			r.StopLoss.PriceText,
			r.StopLoss.PercentText,
			formatFloat(r.StopLoss.RiskUSD),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

func (e *SnapshotExporter) writeJSON(path string, snap *monitor.Snapshot, rows []monitor.Row) error {
	payload := struct {
		ExportedAt    time.Time     `json:"exported_at"`
		WalletBalance float64       `json:"wallet_balance"`
		UnrealizedPnL float64       `json:"unrealized_pnl"`
		TotalRiskUSD  float64       `json:"total_risk_usd"`
		Rows          []monitor.Row `json:"rows"`
	}{
		ExportedAt:    time.Now(),
		WalletBalance: snap.WalletBalance,
		UnrealizedPnL: snap.UnrealizedPnL,
		TotalRiskUSD:  snap.TotalRiskUSD,
		Rows:          rows,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
