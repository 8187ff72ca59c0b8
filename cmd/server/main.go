package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"artshow/internal/batch"
	"artshow/internal/batch/events"
	"artshow/internal/batch/handler"
	batchmetrics "artshow/internal/batch/metrics"
	"artshow/internal/batch/runlock"
	"artshow/internal/batch/service"
	"artshow/internal/platform/config"
	"artshow/internal/platform/httpserver"
	"artshow/internal/platform/logger"
	"artshow/internal/platform/middleware"
	platformredis "artshow/internal/platform/redis"
	"artshow/internal/platform/token"
	showstore "artshow/internal/show/store"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		batchStore batch.Store
		tx         service.Tx
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		if cfg.AutoMigrate {
			if err := showstore.ApplySchema(ctx, db); err != nil {
				log.Error("apply schema", "error", err)
				os.Exit(1)
			}
		}
		batchStore = batch.NewPostgres(db)
		tx = newShowPostgresTx(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		batchStore = batch.NewInMemoryStore()
		tx = showstore.NewMemoryTx(showstore.NewMemory())
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(batchmetrics.New()),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithLocker(runlock.NewRedis(redisClient.Client, "artshow:batch:runlock")))
	} else {
		opts = append(opts, service.WithLocker(runlock.NewLocal()))
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx); err != nil {
			log.Error("ensure kafka topic", "error", err)
			os.Exit(1)
		}
		opts = append(opts, service.WithEvents(publisher))
	}

	svc, err := service.New(batchStore, tx, opts...)
	if err != nil {
		log.Error("build batch service", "error", err)
		os.Exit(1)
	}

	var validator middleware.JWTValidator
	if cfg.JWTSigningKey != "" {
		validator = token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	} else {
		log.Warn("no JWT signing key configured, batch API is unauthenticated")
	}

	router := chi.NewRouter()
	handler.New(svc, log, validator).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting artshow batch server", "addr", cfg.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
