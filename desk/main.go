package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/Mohammad-Mahdi82/GameDesk/config"
	"github.com/Mohammad-Mahdi82/GameDesk/gateway"
	"github.com/Mohammad-Mahdi82/GameDesk/scheduler"
	"github.com/Mohammad-Mahdi82/GameDesk/store"
)

func main() {
	cfgPath := flag.String("config", "desk/etc/gamedesk.yml", "Path to the YAML config")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		logger.Info().Msg("no base URL configured, listening for the backend beacon")
		baseURL, err = discoverBackend(discoveryPort, 10*time.Second)
		if err != nil {
			logger.Fatal().Err(err).Msg("backend discovery failed")
		}
		logger.Info().Str("base_url", baseURL).Msg("backend discovered")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open local store")
	}

	gw := gateway.New(baseURL, logger)

	app := tview.NewApplication()
	banner := NewBanner(app)

	// The Telegram channel plays the push-notification role; without it
	// the scheduler warns once and runs banner-only.
	var remote scheduler.Sink
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := scheduler.NewTelegramSink(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram sink unavailable, continuing without it")
		} else {
			remote = tg
		}
	}

	sched := scheduler.New(gw, remote, banner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Init(ctx)
	defer sched.Shutdown()

	// Terminal stop/continue doubles as the background/foreground signal:
	// a suspended console cannot show banners, so only the remote sink
	// fires while we are stopped, and a resume reconciles immediately.
	lifecycle := make(chan os.Signal, 1)
	signal.Notify(lifecycle, syscall.SIGTSTP, syscall.SIGCONT)
	go func() {
		for sig := range lifecycle {
			switch sig {
			case syscall.SIGTSTP:
				sched.SetForeground(ctx, false)
			case syscall.SIGCONT:
				sched.SetForeground(ctx, true)
			}
		}
	}()

	console := newConsole(ctx, app, gw, sched, st, banner, logger)

	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	if err := console.run(); err != nil {
		logger.Fatal().Err(err).Msg("console stopped")
	}
	logger.Info().Msg("console exited")
}
