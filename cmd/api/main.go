package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/donasaurs/p2p-market/internal/auth"
	"github.com/donasaurs/p2p-market/internal/config"
	"github.com/donasaurs/p2p-market/internal/httpx"
	kafkax "github.com/donasaurs/p2p-market/internal/kafka"
	"github.com/donasaurs/p2p-market/internal/market"
	"github.com/donasaurs/p2p-market/internal/postgres"
	"github.com/donasaurs/p2p-market/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	// Stores & orchestrator
	db := postgres.NewDB(pool)
	svc := market.NewService(db,
		&market.ListingRepo{DB: pool},
		&market.OrderRepo{DB: pool},
		&market.UserRepo{DB: pool},
		prod, log, cfg.ServiceName)

	// Router & handlers
	router := httpx.NewRouter()
	authmw := auth.Middleware(cfg.JWTSecret)
	lh := &httpx.ListingsHandler{Service: svc, Redis: rdb, Log: log}
	lh.Register(router, authmw)
	oh := &httpx.OrdersHandler{Service: svc, Redis: rdb, Log: log}
	oh.Register(router, authmw)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	prod.Close()      // stop accepting, flush remaining events
	prod.WaitClosed() // drain before the pool goes away
}
