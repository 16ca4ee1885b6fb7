package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/gradsniper/backtest"
	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/config"
	"github.com/web3guy0/gradsniper/engine"
	"github.com/web3guy0/gradsniper/execadapter"
	"github.com/web3guy0/gradsniper/journal"
	"github.com/web3guy0/gradsniper/notify"
	"github.com/web3guy0/gradsniper/paper"
	"github.com/web3guy0/gradsniper/storage"
	"github.com/web3guy0/gradsniper/strategy"
	"github.com/web3guy0/gradsniper/telemetry"
)

const version = "v1.0"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var cmdErr error
	switch os.Args[1] {
	case "run":
		cmdErr = runCommand(cfg, os.Args[2:])
	case "monitor":
		cmdErr = monitorCommand(cfg)
	case "backtest":
		cmdErr = backtestCommand(os.Args[2:])
	case "quote":
		cmdErr = quoteCommand(os.Args[2:])
	case "status":
		cmdErr = statusCommand(cfg)
	case "collect":
		cmdErr = collectCommand(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		log.Error().Err(cmdErr).Msg("command failed")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gradsniper ` + version + `

Usage:
  gradsniper run [--mode live|paper]
  gradsniper monitor
  gradsniper backtest --data <file>
  gradsniper quote <token> <amount_usd>
  gradsniper status
  gradsniper collect --hours N --output <file>`)
}

func flagValue(args []string, name, def string) string {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return def
}

// runCommand wires the engine in the requested mode and blocks until a
// termination signal arrives.
func runCommand(cfg *config.Config, args []string) error {
	mode := engine.Mode(flagValue(args, "--mode", "paper"))

	b := bus.New()
	rec := telemetry.New(jsonlSink())
	rec.Attach(b)

	tg, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifier unavailable, continuing without it")
	}
	tg.Attach(b)

	store, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("journal persistence unavailable, continuing without it")
	} else {
		store.Attach(b)
		defer store.Close()
	}

	trades := journal.NewTradeJournal(cfg.PaperBalanceUSD)
	trades.Attach(b)
	if store != nil && store.Enabled() {
		trades.SetRoundTripSink(func(rt journal.RoundTrip) {
			if err := store.LogRoundTrip(rt.Token, rt.EntryPrice, rt.ExitPrice, rt.Quantity, rt.PnLUSD, rt.PnLPct); err != nil {
				log.Warn().Err(err).Str("token", rt.Token).Msg("failed to persist round trip")
			}
		})
	}

	var adapters []execadapter.Adapter
	if mode == engine.ModePaper || mode == engine.ModeBacktest {
		paper.New(b, cfg.PaperBalanceUSD)
	} else {
		// No live DEX client is wired (wire-level swap execution is out of
		// scope per spec.md §1); the simulated venue stands in so limit,
		// stop, and trailing-stop orders still have somewhere to rest and
		// fill against live price ticks.
		adapters = append(adapters, execadapter.NewSimulated("simulated-venue"))
	}

	sniper := strategy.NewGraduationSniper(strategy.SniperConfig{
		Filters: strategy.FilterConfig{
			MinLiquidityUSD:  1000,
			MaxMcapLiqRatio:  50,
			MaxConcentration: 60,
			MinScore:         60,
			MaxPositions:     cfg.MaxPositions,
		},
		BaseSizeUSD:         cfg.PositionSizeUSD.InexactFloat64(),
		TakeProfitPct:       cfg.TakeProfitPct,
		StopLossPct:         cfg.StopLossPct,
		TrailingActivatePct: cfg.TrailingActivatePct,
		TrailingStopPct:     cfg.TrailingStopPct,
		MaxHoldSeconds:      int64(cfg.MaxHoldSeconds),
		ExitOnDevSell:       cfg.ExitOnDevSell,
	})

	eng, err := engine.New(engine.Config{
		Mode:       mode,
		Bus:        b,
		Adapters:   adapters,
		Strategies: []strategy.Strategy{sniper},
	})
	if err != nil {
		return err
	}

	log.Info().Str("mode", string(mode)).Msg("gradsniper starting")
	failures := eng.Run(context.Background())
	for _, f := range failures {
		if f.Err != nil {
			log.Warn().Str("component", f.Name).Err(f.Err).Msg("component failed to connect")
		}
	}

	printJournalSummary(trades.Summary())
	return nil
}

func printJournalSummary(s journal.Summary) {
	fmt.Printf("trades: %d (win rate %.1f%%)\ntotal pnl: $%.2f\nprofit factor: %.2f\nsharpe: %.2f  sortino: %.2f\nmax drawdown: %.2f%%\n",
		s.TradeCount, s.WinRate*100, s.TotalPnLUSD.InexactFloat64(), s.ProfitFactor, s.Sharpe, s.Sortino, s.MaxDrawdown*100)
}

// monitorCommand connects feeds and logs every signal event without
// trading — a dry, read-only view of the graduation stream.
func monitorCommand(cfg *config.Config) error {
	b := bus.New()
	b.Subscribe(bus.KindGraduation, func(e bus.Event) error {
		g := e.Payload.(bus.GraduationEvent)
		log.Info().Str("mint", g.Mint).Str("symbol", g.Symbol).Float64("sol_raised", g.SOLRaised).Msg("graduation observed")
		return nil
	})
	b.Subscribe(bus.KindPriceUpdate, func(e bus.Event) error {
		p := e.Payload.(bus.PriceUpdate)
		log.Debug().Str("token", p.Token).Float64("price_usd", p.PriceUSD).Msg("price update")
		return nil
	})

	eng, err := engine.New(engine.Config{Mode: engine.ModePaper, Bus: b})
	if err != nil {
		return err
	}
	eng.Run(context.Background())
	return nil
}

// backtestCommand replays a recorded JSON file of graduations and price
// histories, per the wire format in spec.md §6.
func backtestCommand(args []string) error {
	path := flagValue(args, "--data", "")
	if path == "" {
		return fmt.Errorf("backtest: --data <file> is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("backtest: reading %s: %w", path, err)
	}

	var wire []backtestWireRecord
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("backtest: parsing %s: %w", path, err)
	}

	records := make([]backtest.Record, 0, len(wire))
	for _, w := range wire {
		if w.Mint == "" {
			log.Warn().Msg("backtest: skipping record missing mint")
			continue
		}
		history := make([]backtest.PricePoint, 0, len(w.PriceHistory))
		for _, h := range w.PriceHistory {
			history = append(history, backtest.PricePoint{
				TimestampNs: h.Timestamp * int64(time.Second),
				Price:       h.Price,
				Volume5m:    h.Volume5m,
			})
		}
		records = append(records, backtest.Record{
			Mint:            w.Mint,
			Symbol:          w.Symbol,
			GraduatedAtNs:   w.GraduatedAt * int64(time.Second),
			InitialPriceUSD: w.InitialPriceUSD,
			PoolAddress:     w.PoolAddress,
			PoolType:        w.PoolType,
			SOLRaised:       w.SOLRaised,
			HolderCount:     w.HolderCount,
			Creator:         w.Creator,
			History:         history,
		})
	}

	b := bus.New()
	p := paper.New(b, decimal.NewFromFloat(1000))
	trades := journal.NewTradeJournal(decimal.NewFromFloat(1000))
	trades.Attach(b)

	sniper := strategy.NewGraduationSniper(strategy.SniperConfig{
		Filters: strategy.FilterConfig{MinScore: 60, MaxPositions: 5},
		BaseSizeUSD:         50,
		TakeProfitPct:       0.5,
		StopLossPct:         0.2,
		TrailingActivatePct: 0.3,
		TrailingStopPct:     0.15,
		MaxHoldSeconds:      3600,
		ExitOnDevSell:       true,
	})
	sniper.OnStart(b)

	result := backtest.NewReplayer(b, p).Run(records)
	fmt.Printf("records replayed: %d\nfinal balance: $%.2f\npeak equity: $%.2f\nmax drawdown: %.2f%%\n",
		result.RecordsReplayed, result.FinalBalanceUSD, result.PeakEquityUSD, result.MaxDrawdown*100)
	printJournalSummary(trades.Summary())
	return nil
}

type backtestWireRecord struct {
	Mint            string  `json:"mint"`
	Symbol          string  `json:"symbol"`
	GraduatedAt     int64   `json:"graduated_at"`
	InitialPriceUSD float64 `json:"initial_price_usd"`
	SOLRaised       float64 `json:"sol_raised"`
	HolderCount     int     `json:"holder_count"`
	Creator         string  `json:"creator"`
	PoolAddress     string  `json:"pool_address"`
	PoolType        string  `json:"pool_type"`
	PriceHistory    []struct {
		Timestamp int64   `json:"timestamp"`
		Price     float64 `json:"price"`
		Volume5m  float64 `json:"volume_5m"`
	} `json:"price_history"`
}

// quoteCommand checks its arguments and reports that a live quote needs a
// connected execution adapter. It does not look up reserves or compute a
// swap output.
func quoteCommand(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("quote: usage: quote <token> <amount_usd>")
	}
	fmt.Printf("quote: live reserve lookup for %s requires a connected execution adapter (out of scope for this CLI); wire one via engine.Config.Adapters to quote against real pool state.\n", args[0])
	return nil
}

func statusCommand(cfg *config.Config) error {
	fmt.Printf("gradsniper %s\nmax_positions: %d\nposition_size_usd: %s\ntake_profit_pct: %.2f\nstop_loss_pct: %.2f\ntelegram: %v\npersistence: %v\n",
		version, cfg.MaxPositions, cfg.PositionSizeUSD.StringFixed(2), cfg.TakeProfitPct, cfg.StopLossPct,
		cfg.TelegramToken != "", cfg.DatabaseURL != "")
	return nil
}

// collectCommand collects no data: it requires --output and reports the
// requested --hours window (default 24, not validated) and that path.
func collectCommand(args []string) error {
	hours := flagValue(args, "--hours", "24")
	output := flagValue(args, "--output", "")
	if output == "" {
		return fmt.Errorf("collect: --output <file> is required")
	}
	fmt.Printf("collect: historical-data collection is an external-source integration out of scope for this engine; would have written %s hours of graduation/price history to %s\n", hours, output)
	return nil
}

func jsonlSink() *os.File {
	f, err := os.OpenFile("telemetry.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry: falling back to stderr")
		return os.Stderr
	}
	return f
}
