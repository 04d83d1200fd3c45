package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"certiva/internal/audit"
	certstore "certiva/internal/certificate/store"
	institutionstore "certiva/internal/institution/store"
	"certiva/internal/ledger"
	"certiva/internal/platform/config"
	"certiva/internal/platform/httpserver"
	"certiva/internal/platform/logger"
	"certiva/internal/platform/postgres"
	platformredis "certiva/internal/platform/redis"
	httptransport "certiva/internal/transport/http"
	"certiva/internal/verification"
	"certiva/internal/verification/cache"
	verificationhandler "certiva/internal/verification/handler"
	"certiva/internal/verification/metrics"
	"certiva/internal/verification/ports"
)

// main wires dependencies explicitly and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		records      ports.RecordRepository
		institutions ports.InstitutionRepository
	)
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		records = certstore.NewPostgresStore(pool)
		institutions = institutionstore.NewPostgresStore(pool)
		log.Info("using postgres stores")
	} else {
		records = certstore.NewInMemoryStore()
		institutions = institutionstore.NewInMemoryStore()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	var resultCache *cache.ResultCache
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		resultCache = cache.New(redisClient.Client, cfg.Redis.ResultTTL)
		log.Info("result cache enabled", "ttl", cfg.Redis.ResultTTL)
	}

	var auditSink audit.Store = audit.NewInMemoryStore()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditSink = kafkaStore
		log.Info("audit trail publishing to kafka", "topic", cfg.Kafka.Topic)
	}
	auditQueue := audit.NewQueue(0, log)
	auditWorker := audit.NewWorker(auditQueue, auditSink, log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	service := verification.NewService(
		records,
		institutions,
		ledger.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.Timeout),
		verification.WithConfig(cfg.Engine),
		verification.WithLogger(log),
		verification.WithMetrics(metrics.New()),
		verification.WithAudit(audit.NewPublisher(auditQueue)),
	)

	handler := verificationhandler.New(service, resultCache, log)
	router := httptransport.NewRouter(handler, cfg.Server.JWTSigningKey)
	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting certiva", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
