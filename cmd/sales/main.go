package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapehan/pos-backend/internal/auth"
	"github.com/kapehan/pos-backend/internal/config"
	"github.com/kapehan/pos-backend/internal/httpx"
	"github.com/kapehan/pos-backend/internal/inventory"
	kafkax "github.com/kapehan/pos-backend/internal/kafka"
	"github.com/kapehan/pos-backend/internal/postgres"
	"github.com/kapehan/pos-backend/internal/redisx"
	"github.com/kapehan/pos-backend/internal/sales"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", cfg.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
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

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, sales.TopicOrderEvents, 1024, log)
	prod.Start(ctx)

	svc := &sales.Service{
		Store:       &sales.Repo{DB: db},
		Restocker:   inventory.NewClient(cfg.InventoryBaseURL, cfg.UpstreamTimeout, log),
		Events:      prod,
		Idem:        &redisx.OnlineOrders{RDB: rdb, Log: log},
		ServiceName: cfg.ServiceName,
		Log:         log,
	}

	router := httpx.NewRouter(cfg.CORSOrigins, "POS Sales Service")
	h := &httpx.SalesHandler{
		Sales: svc,
		Auth:  auth.NewClient(cfg.AuthMeURL, cfg.UpstreamTimeout),
		Log:   log,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // flush queued events, then close the writer
	prod.WaitClosed()
	cancel()
}
