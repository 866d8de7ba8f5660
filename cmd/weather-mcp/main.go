package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/weather-mcp-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-mcp-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-mcp-service/internal/adapter/nws"
	"github.com/couchcryptid/weather-mcp-service/internal/config"
	"github.com/couchcryptid/weather-mcp-service/internal/mcpserver"
	"github.com/couchcryptid/weather-mcp-service/internal/observability"
	"github.com/couchcryptid/weather-mcp-service/internal/tools"
	"github.com/couchcryptid/weather-mcp-service/internal/weather"
)

func main() {
	var transport string
	if len(os.Args) > 1 {
		transport = os.Args[1]
	}

	cfg, err := config.Load(transport)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := nws.NewClient(cfg.NWSTimeout, metrics, logger,
		nws.WithBaseURL(cfg.NWSBaseURL),
		nws.WithUserAgent(cfg.NWSUserAgent),
	)
	svc := weather.NewService(client, client.BaseURL(), logger)

	opts := []tools.Option{tools.WithLogger(logger), tools.WithMetrics(metrics)}

	// Invocation audit is feature-flagged via AUDIT_KAFKA_BROKERS.
	var writer *kafkaadapter.Writer
	if cfg.AuditEnabled() {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		opts = append(opts, tools.WithRecorder(writer))
		metrics.AuditEnabled.Set(1)
		logger.Info("kafka audit enabled", "brokers", cfg.AuditBrokers, "topic", cfg.AuditTopic)
	} else {
		logger.Info("kafka audit disabled")
	}

	reg := tools.NewRegistry(svc, opts...)
	server := mcpserver.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case config.TransportStdio:
		if err := mcpserver.RunStdio(ctx, server, logger); err != nil {
			logger.Error("mcp server error", "error", err)
		}
	case config.TransportSSE:
		srv := httpadapter.NewServer(cfg.HTTPAddr, reg, logger,
			httpadapter.WithMCPHandler(mcpserver.SSEHandler(server)))

		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				stop()
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
