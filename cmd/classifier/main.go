package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/SRG1996AP/productivity-tracker/internal/config"
	"github.com/SRG1996AP/productivity-tracker/internal/consumer"
	"github.com/SRG1996AP/productivity-tracker/internal/events"
	"github.com/SRG1996AP/productivity-tracker/internal/observability"
	"github.com/SRG1996AP/productivity-tracker/internal/persistence/postgres"
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

	pool, err := postgres.NewPool(ctx, cfg.PostgresURL, postgres.PoolOptions{
		MaxConns: cfg.PostgresMaxConn,
		MinConns: cfg.PostgresMinConn,
	})
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	handler := consumer.NewClassifierHandler(postgres.NewRecordRepository(pool), nil)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Info("classifier metrics listening", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		Topic:           events.TopicRecordEvents,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})

	proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(log))

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer reader.Close()

		log.Info("classifier started", "topic", events.TopicRecordEvents, "group", cfg.ConsumerGroupID)
		if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("classifier stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics shutdown", "error", err)
	}
	<-done
}
