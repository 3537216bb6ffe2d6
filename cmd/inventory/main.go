package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/bookhaus/orders/internal/books"
	"github.com/bookhaus/orders/internal/config"
	"github.com/bookhaus/orders/internal/inventory"
	kafkax "github.com/bookhaus/orders/internal/kafka"
	"github.com/bookhaus/orders/internal/postgres"
	"github.com/bookhaus/orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", cfg.ServiceName+"-inventory").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: hasil penyesuaian stok per transisi
	prod := kafkax.NewProducer(cfg.KafkaBrokers, books.TopicStockAdjusted, 1024, log)
	prod.Start(ctx)

	// Engine + service
	repo := &books.Repo{DB: db}
	eng := &inventory.Engine{
		Items: repo,
		Stock: &books.StockRepo{DB: db},
		Log:   log,
	}
	svc := &inventory.Service{
		Engine:      eng,
		Redis:       rdb,
		Producer:    prod,
		ServiceName: cfg.ServiceName + "-inventory",
		Log:         log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, books.TopicOrderStatusChanged, cfg.InventoryWorkers, log)

	go func() {
		log.Info().
			Str("group", cfg.InventoryGroup).
			Str("topic", books.TopicOrderStatusChanged).
			Int("workers", cfg.InventoryWorkers).
			Msg("inventory consumer started")
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}
