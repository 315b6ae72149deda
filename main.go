package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"trading-signal-bot/internal/clock"
	"trading-signal-bot/internal/config"
	"trading-signal-bot/internal/dispatcher"
	"trading-signal-bot/internal/handlers"
	"trading-signal-bot/internal/lib/sl"
	"trading-signal-bot/internal/market"
	"trading-signal-bot/internal/middleware"
	"trading-signal-bot/internal/scheduler"
	signalgen "trading-signal-bot/internal/signal"
	"trading-signal-bot/internal/subscription"
	"trading-signal-bot/internal/telegram"
	"trading-signal-bot/store"
	"trading-signal-bot/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", sl.Err(err))
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Error("failed to open store", "path", cfg.DBPath, sl.Err(err))
		os.Exit(1)
	}
	defer st.Close()

	var delivery types.DeliveryStore
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "signal_bot")
		if err != nil {
			log.Error("failed to connect to Redis", sl.Err(err))
			os.Exit(1)
		}
		defer rdb.Close()
		delivery = store.NewRedisDeliveryStore(rdb)
	}

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(50*time.Second, &http.Client{Timeout: time.Minute}),
	)
	if err != nil {
		log.Error("failed to create bot", sl.Err(err))
		os.Exit(1)
	}

	clk := clock.New()
	sender := telegram.NewSender(b)
	manager := subscription.NewManager(st, clk, log)

	prices := market.NewClient(cfg.APIURL, log)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := signalgen.NewGenerator(prices, clk, rnd, cfg.SymbolList())

	disp := dispatcher.New(manager, generator, sender, delivery, clk, log)

	sched, err := scheduler.NewScheduler(disp, manager, sender, scheduler.Config{
		SignalTime:          cfg.SignalTime,
		CheckExpireEvery:    cfg.CheckExpireEvery(),
		NotifyBeforeSeconds: cfg.NotifyBeforeWindow(),
	}, log)
	if err != nil {
		log.Error("invalid schedule", sl.Err(err))
		os.Exit(1)
	}

	h := handlers.NewHandlers(manager, st, sender, clk, log, cfg.AdminID)
	contacts := middleware.NewContactTracker(manager, log)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, contacts.TrackUserMiddleware(h.MainHandler))

	sched.Start()
	defer sched.Stop()

	log.Info("bot started", "admin_id", cfg.AdminID, "symbols", cfg.Symbols)
	b.Start(ctx)
}

func setupLogger(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case "prod":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "dev":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
