package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SRG1996AP/productivity-tracker/internal/api"
	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/config"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
	"github.com/SRG1996AP/productivity-tracker/internal/form"
	"github.com/SRG1996AP/productivity-tracker/internal/observability"
	"github.com/SRG1996AP/productivity-tracker/internal/outbox"
	"github.com/SRG1996AP/productivity-tracker/internal/persistence/postgres"
	"github.com/SRG1996AP/productivity-tracker/internal/report"
	"github.com/SRG1996AP/productivity-tracker/internal/schema"
	httptransport "github.com/SRG1996AP/productivity-tracker/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info").Error("load config", "error", err)
		os.Exit(1)
	}
	log := observability.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.Migrate(ctx, cfg.PostgresURL); err != nil {
		log.Error("migrate", "error", err)
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresURL, postgres.PoolOptions{
		MaxConns:        cfg.PostgresMaxConn,
		MinConns:        cfg.PostgresMinConn,
		MaxConnLifetime: cfg.ConnLifetime,
		MaxConnIdleTime: cfg.ConnIdleTime,
	})
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	records := postgres.NewRecordRepository(pool)
	fields := postgres.NewFieldRepository(pool)
	directory := postgres.NewDirectoryRepository(pool)

	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	dispatcher := outbox.NewDispatcher(pool, producer, log, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	go dispatcher.Start(ctx)

	recordService := domain.NewService(records)
	registry := schema.NewRegistry(fields)
	materializer := form.NewMaterializer(registry, records)
	engine := report.NewEngine(postgres.NewReportStore(records, directory))

	handler := api.NewHandler(recordService, materializer, registry, engine, directory, log)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, authMiddleware.Wrap(requestLogger(log, mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("api listening", "address", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	dispatcher.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		log.Info("request", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "elapsed_ms", elapsed.Milliseconds())
		observability.ObserveRequest(r.URL.Path, strconv.Itoa(recorder.status), elapsed)
	})
}
