package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/bookhaus/orders/internal/books"
	"github.com/bookhaus/orders/internal/config"
	"github.com/bookhaus/orders/internal/httpx"
	kafkax "github.com/bookhaus/orders/internal/kafka"
	"github.com/bookhaus/orders/internal/postgres"
	"github.com/bookhaus/orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", cfg.ServiceName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: order.created & order.status.changed
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, books.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, books.TopicOrderStatusChanged, 1024, log)
	pStatus.Start(ctx)

	// Repo & handler
	repo := &books.Repo{DB: db}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Store:           repo,
		ProducerCreated: pCreated,
		ProducerStatus:  pStatus,
		Redis:           rdb,
		Service:         cfg.ServiceName,
		Log:             log,
	}
	oh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close() // tutup inbox -> flush & close writer
	pStatus.Close()
	cancel() // stop producer loop
	pCreated.WaitClosed()
	pStatus.WaitClosed()
}
