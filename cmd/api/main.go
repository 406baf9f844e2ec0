package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billbridge/internal/config"
	"billbridge/internal/featureflag"
	httpx "billbridge/internal/http"
	"billbridge/internal/provider/base"
	"billbridge/internal/provider/registry"
	"billbridge/internal/services/event"
	"billbridge/internal/store/postgres"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init DB
	pool := postgres.MustOpen(ctx, cfg.DB.DSN)
	defer pool.Close()

	transactions := postgres.NewTransactionRepository(pool)
	favorites := postgres.NewFavoriteRepository(pool)
	events := postgres.NewEventRepository(pool)

	// Feature flags, read through redis when configured
	var flags featureflag.Store = postgres.NewFlagStore(pool)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		flags = featureflag.NewCachedStore(flags, rdb, cfg.Redis.FlagCacheTTL)
	}

	// Provider registry
	reg := registry.New(registry.Deps{
		PayPalTransport:    base.NewHTTPTransport("paypal", cfg.PayPal.BaseURL, cfg.PayPal.Secret, cfg.PayPal.TimeoutSec),
		SaySwitchTransport: base.NewHTTPTransport("sayswitch", cfg.SaySwitch.BaseURL, cfg.SaySwitch.Secret, cfg.SaySwitch.TimeoutSec),
		Flags:              flags,
		Transactions:       transactions,
		Favorites:          favorites,
	})
	if err := reg.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("provider registry initialization failed")
	}

	// Webhook event worker
	processor := event.NewProcessor(events, reg)
	worker := event.NewWorker(events, processor, cfg.Worker.PollEvery, cfg.Worker.BatchSize)
	go worker.Run(ctx)

	// Router
	r := httpx.NewRouter(httpx.RouterDependencies{
		Registry: reg,
		Events:   events,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Msgf("BillBridge API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
