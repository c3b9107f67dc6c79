// cmd/refinerd/main.go
// Package main implements the entry point for the refinement pipeline.
// It wires all collaborators, runs one batch over the input directory and
// writes the run summary and schema descriptor to the output directory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatdlp/telegram-refiner-go/internal/artifact"
	"github.com/chatdlp/telegram-refiner-go/internal/config"
	"github.com/chatdlp/telegram-refiner-go/internal/event"
	"github.com/chatdlp/telegram-refiner-go/internal/input"
	"github.com/chatdlp/telegram-refiner-go/internal/publish"
	"github.com/chatdlp/telegram-refiner-go/internal/refine"
	"github.com/chatdlp/telegram-refiner-go/internal/schema"
	"github.com/chatdlp/telegram-refiner-go/internal/storage"
	"github.com/chatdlp/telegram-refiner-go/internal/telemetry"
)

// main runs one refinement batch end to end.
func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	_, err = telemetry.InitTracer("telegram-refiner")
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		// Shutdown the tracer provider
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.ShutdownTracer(ctx)
	}()

	// Optional metrics listener; a batch run is short-lived, so metrics are
	// only exposed when an address is configured explicitly.
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listener starting", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	// Initialize storage backend (PostgreSQL or in-memory)
	var store storage.Store
	if cfg.DatabaseDSN != "" {
		// Use PostgreSQL storage for production
		store, err = storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("failed to initialize postgres storage", "error", err)
			os.Exit(1)
		}
	} else {
		// Use in-memory storage for development/testing
		store = storage.NewMemory()
	}
	defer store.Close()

	// Initialize event publisher (NATS JetStream or no-op)
	events := event.NewPublisher(cfg.NATSURL)
	defer events.Close()

	// Initialize the artifact publisher: Pinata when a credential is
	// configured, S3 as the alternative, no-op otherwise.
	var publisher publish.Publisher
	switch {
	case cfg.PinataJWT != "":
		publisher, err = publish.NewPinata(cfg.PinataJWT, cfg.IPFSGatewayURL, logger)
		if err != nil {
			logger.Error("failed to initialize pinata publisher", "error", err)
			os.Exit(1)
		}
	case cfg.S3Endpoint != "" || cfg.S3Bucket != "":
		publisher, err = publish.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			logger.Error("failed to initialize s3 publisher", "error", err)
			os.Exit(1)
		}
	default:
		logger.Warn("no publication backend configured, artifacts stay local")
		publisher = publish.NewNoop()
	}

	// Artifact sealing is mandatory; the key is validated at startup.
	sealer, err := artifact.NewSealer(cfg.EncryptionKey)
	if err != nil {
		logger.Error("failed to initialize artifact sealer", "error", err)
		os.Exit(1)
	}

	refiner, err := refine.New(store, events, publisher, sealer, logger)
	if err != nil {
		logger.Error("failed to initialize refiner", "error", err)
		os.Exit(1)
	}

	// Discover input documents, including zipped batches.
	docs, err := input.NewScanner(logger).Scan(cfg.InputDir)
	if err != nil {
		logger.Error("input scan failed", "dir", cfg.InputDir, "error", err)
		os.Exit(1)
	}
	logger.Info("batch starting", "env", cfg.Env, "documents", len(docs))

	ctx := context.Background()
	summary, err := refiner.Run(ctx, docs)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	// Emit the schema descriptor and run summary for downstream consumers.
	desc := schema.NewDescriptor(cfg.SchemaName, cfg.SchemaVersion, cfg.SchemaDescription, cfg.SchemaDialect)
	if _, err := refine.WriteDescriptor(desc, cfg.OutputDir); err != nil {
		logger.Error("descriptor write failed", "error", err)
		os.Exit(1)
	}
	summaryPath, err := refine.WriteSummary(summary, cfg.OutputDir)
	if err != nil {
		logger.Error("summary write failed", "error", err)
		os.Exit(1)
	}

	logger.Info("batch finished",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"summary", summaryPath)

	if summary.Failed > 0 && summary.Processed == 0 {
		os.Exit(1)
	}
}
