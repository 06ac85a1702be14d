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
	kafkax "github.com/kapehan/pos-backend/internal/kafka"
	"github.com/kapehan/pos-backend/internal/postgres"
	"github.com/kapehan/pos-backend/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	name := cfg.ServiceName + "-session"
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

	prod := kafkax.NewProducer(cfg.KafkaBrokers, session.TopicSessionEvents, 256, log)
	prod.Start(ctx)

	svc := &session.Service{
		Store:       &session.Repo{DB: db},
		Events:      prod,
		ServiceName: name,
		Log:         log,
	}

	router := httpx.NewRouter(cfg.CORSOrigins, "POS Session Service")
	h := &httpx.SessionHandler{
		Sessions: svc,
		Auth:     auth.NewClient(cfg.AuthMeURL, cfg.UpstreamTimeout),
		Log:      log,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.SessionHTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("HTTP listening", "addr", cfg.SessionHTTPAddr)
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
	prod.Close()
	prod.WaitClosed()
	cancel()
}
