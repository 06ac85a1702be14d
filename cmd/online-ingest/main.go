package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kapehan/pos-backend/internal/config"
	"github.com/kapehan/pos-backend/internal/ingest"
	kafkax "github.com/kapehan/pos-backend/internal/kafka"
	"github.com/kapehan/pos-backend/internal/postgres"
	"github.com/kapehan/pos-backend/internal/redisx"
	"github.com/kapehan/pos-backend/internal/sales"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-online-ingest"
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("db migrate", "err", err)
		os.Exit(1)
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, sales.TopicOrderEvents, 1024, log)
	prod.Start(ctx)

	// Same storage path as the HTTP online-order endpoint, minus inventory.
	orders := &sales.Service{
		Store:       &sales.Repo{DB: db},
		Events:      prod,
		Idem:        &redisx.OnlineOrders{RDB: rdb, Log: log},
		ServiceName: name,
		Log:         log,
	}
	svc := &ingest.Service{
		Orders: orders,
		Dedup:  &redisx.Dedup{RDB: rdb, Service: name},
		Log:    log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.OnlineOrderGroup, sales.TopicOnlineOrderPlaced, cfg.OnlineOrderWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("consumer started", "group", cfg.OnlineOrderGroup, "topic", sales.TopicOnlineOrderPlaced,
			"workers", cfg.OnlineOrderWorkers)
		if err := cons.Start(ctx, svc.HandleOnlineOrderPlaced); err != nil {
			log.Error("consumer exit", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done
	prod.Close()
	prod.WaitClosed()
}
