package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/buibui/buibui/internal/config"
	"github.com/buibui/buibui/internal/exchange"
	"github.com/buibui/buibui/internal/export"
	"github.com/buibui/buibui/internal/logger"
	"github.com/buibui/buibui/internal/monitor"
	"github.com/buibui/buibui/internal/notify"
	"github.com/buibui/buibui/internal/ui"
)

const usage = `Usage: buibui monitor <command> [flags]

Commands:
  position   position risk table with stop-loss coverage
  price      price change board for the configured symbols

Flags:
  --config path    main config file (default configs/config.json)
  --sort spec      position sort: pnl_pct or sl_usd, with optional
                   :asc or :desc suffix (default: config file order)
  --live           auto-refreshing full-screen view
  --telegram       push the rendered summary to telegram
  --export format  write the position snapshot to csv or json
`

func main() {
	if len(os.Args) < 3 || os.Args[1] != "monitor" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[2]
	if command != "position" && command != "price" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	fs := flag.NewFlagSet("buibui monitor "+command, flag.ExitOnError)
	configPath := fs.String("config", "configs/config.json", "path to the main config file")
	sortSpec := fs.String("sort", "", "sort column, optionally with :asc or :desc")
	live := fs.Bool("live", false, "auto-refreshing full-screen view")
	telegram := fs.Bool("telegram", false, "push the summary to telegram")
	exportFmt := fs.String("export", "", "write the snapshot to csv or json")
	_ = fs.Parse(os.Args[3:])

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     50,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	coins, err := config.LoadCoins(cfg.CoinsFile)
	if err != nil {
		log.LogError("failed to load coins config", err, zap.String("path", cfg.CoinsFile))
		fmt.Fprintf(os.Stderr, "failed to load coins config: %v\n", err)
		os.Exit(1)
	}

	sortBy, descending, err := parseSort(*sortSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{
		cfg:    cfg,
		coins:  coins,
		log:    log,
		format: monitor.NewFormatter(log.Logger),
		client: exchange.NewBinance(exchange.Options{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
			Retries:   cfg.Retries,
			Logger:    log.WithComponent("exchange"),
		}),
		telegram: notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log.Logger),
	}

	switch command {
	case "position":
		err = app.runPositions(ctx, sortBy, descending, *live, *telegram, *exportFmt)
	case "price":
		err = app.runPrices(ctx, *live, *telegram)
	}
	if err != nil && ctx.Err() == nil {
		log.LogError("command failed", err, zap.String("command", command))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	coins    *config.Coins
	log      *logger.Logger
	format   *monitor.Formatter
	client   exchange.Client
	telegram *notify.Telegram
}

func (a *app) refreshInterval() time.Duration {
	return time.Duration(a.cfg.RefreshInterval) * time.Second
}

func (a *app) runPositions(ctx context.Context, sortBy string, descending, live, telegram bool, exportFmt string) error {
	agg := monitor.NewAggregator(a.client, a.coins, a.format, a.log.WithCycle("position"), a.cfg.Workers)

	if live {
		return ui.RunLive(ctx, func(ctx context.Context) (string, error) {
			snap, err := agg.Aggregate(ctx, sortBy, descending)
			if err != nil {
				return "", err
			}
			return a.positionsFrame(snap), nil
		}, a.refreshInterval())
	}

	snap, err := agg.Aggregate(ctx, sortBy, descending)
	if err != nil {
		return err
	}
	fmt.Println(a.positionsFrame(snap))

	if telegram {
		summary := a.summarize(snap)
		a.telegram.Send(ctx, summary.Message(a.format))
	}
	if exportFmt != "" {
		exporter := export.NewSnapshotExporter(a.log.Logger)
		path, err := exporter.Export(snap, export.Options{Format: export.Format(exportFmt)})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("snapshot written to %s\n", path)
	}
	return nil
}

func (a *app) runPrices(ctx context.Context, live, telegram bool) error {
	board := monitor.NewPriceBoard(a.client, a.log.WithCycle("price"), a.cfg.Workers)

	if live {
		return ui.RunLive(ctx, func(ctx context.Context) (string, error) {
			rows, invalid := board.Changes(ctx, a.coins.Order)
			return ui.PricesView(rows, invalid, a.format), nil
		}, a.refreshInterval())
	}

	rows, invalid := board.Changes(ctx, a.coins.Order)
	fmt.Println(ui.PricesView(rows, invalid, a.format))

	if telegram {
		msg := "📊 Price Update\n```\n" + ui.PlainPrices(rows, a.format) + "```"
		a.telegram.Send(ctx, msg)
	}
	return nil
}

func (a *app) positionsFrame(snap *monitor.Snapshot) string {
	summary := a.summarize(snap)
	return ui.SummaryView(summary, a.format) + "\n" + ui.PositionsView(snap.Rows, a.format)
}

func (a *app) summarize(snap *monitor.Snapshot) monitor.Summary {
	return monitor.Summarize(snap.Rows, snap.WalletBalance, snap.UnrealizedPnL,
		snap.TotalRiskUSD, a.cfg.WalletTarget)
}

// parseSort splits "column[:asc|desc]". Performance sorts default to
// descending so the biggest movers surface first.
func parseSort(spec string) (sortBy string, descending bool, err error) {
	if spec == "" {
		return monitor.SortDefault, false, nil
	}

	column, direction, hasDir := strings.Cut(spec, ":")
	switch column {
	case monitor.SortPnLPct, monitor.SortSLUSD:
	default:
		return "", false, fmt.Errorf("unknown sort column %q (want %s or %s)",
			column, monitor.SortPnLPct, monitor.SortSLUSD)
	}

	descending = true
	if hasDir {
		switch direction {
		case "asc":
			descending = false
		case "desc":
		default:
			return "", false, fmt.Errorf("unknown sort direction %q (want asc or desc)", direction)
		}
	}
	return column, descending, nil
}
