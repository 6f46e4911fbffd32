package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"shein_sen/internal/agent"
	"shein_sen/internal/config"
	"shein_sen/internal/logbus"
	"shein_sen/internal/notify"
	"shein_sen/internal/probe"
	"shein_sen/internal/session"
	"shein_sen/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config.yaml")
	headful := flag.Bool("headful", false, "run the browser with a visible window (manual login)")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zlog.With().Str("service", "shein_sen").Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *headful {
		cfg.Browser.Headless = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := logbus.New(200)
	defer bus.Close()

	browser := agent.NewAgent(
		cfg.Browser,
		cfg.Storefront.BaseURL,
		session.NewStore(cfg.Session.CookiesPath),
		log,
	)
	if err := browser.Start(ctx); err != nil {
		return err
	}
	// Cookies are flushed here even when the batch errors out.
	defer browser.Shutdown()

	if !browser.CheckLoggedIn(ctx) {
		log.Warn().Msg("not logged in; rerun with -headful and log in manually, cart adds may fail")
	}

	opts := agent.Options{
		Store:           store,
		Browser:         browser,
		Bus:             bus,
		Logger:          log,
		ElementTimeout:  cfg.Browser.ElementTimeout(),
		Settle:          cfg.Browser.Settle(),
		InterOrderDelay: cfg.Batch.InterOrderDelay(),
		MaxQuantity:     cfg.Batch.MaxQuantity,
	}
	if cfg.Probe.Enabled {
		opts.Probe = probe.New(cfg.Probe, cfg.Browser.UserAgent)
	}
	processor := agent.NewProcessor(opts)

	started := time.Now()
	res, runErr := processor.ProcessPending(ctx)

	log.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int("total", res.Total).
		Msg("batch result")

	if res.Total > 0 {
		notifier := buildNotifier(cfg, log)
		summary := notify.BatchSummary{
			At:        started,
			Succeeded: res.Succeeded,
			Failed:    res.Failed,
			Total:     res.Total,
		}
		if orders, err := store.ListOrders(ctx); err == nil {
			for _, o := range orders {
				if o.ProcessedAt.Before(started) {
					continue
				}
				summary.Orders = append(summary.Orders, notify.OrderLine{
					OrderID:   o.ID,
					Requester: o.RequesterName,
					Product:   o.ProductURL,
					Status:    string(o.Status),
					Note:      o.Note,
				})
			}
		}
		if err := notifier.NotifyBatchFinished(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("batch recap not delivered")
		}
	}

	return runErr
}

func buildNotifier(cfg config.Config, log zerolog.Logger) notify.Notifier {
	if cfg.Notify.Email.Enabled {
		return notify.NewEmailNotifier(cfg.Notify.Email, log)
	}
	return notify.Nop{}
}
