package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mbravoz/drop-storefront/internal/mail"
	"github.com/mbravoz/drop-storefront/internal/messaging"
	"github.com/mbravoz/drop-storefront/internal/notifier"
	"github.com/mbravoz/drop-storefront/internal/telemetry"
)

const (
	serviceName    = "storefront-notifier"
	serviceVersion = "1.0.0"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	emailAPIURL := os.Getenv("EMAIL_API_URL")
	if emailAPIURL == "" {
		logger.Error("EMAIL_API_URL environment variable is required")
		os.Exit(1)
	}

	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		logger.Error("EMAIL_API_KEY environment variable is required")
		os.Exit(1)
	}

	emailFrom := os.Getenv("EMAIL_FROM")
	if emailFrom == "" {
		logger.Error("EMAIL_FROM environment variable is required")
		os.Exit(1)
	}

	ownerEmail := os.Getenv("OWNER_EMAIL")
	if ownerEmail == "" {
		logger.Error("OWNER_EMAIL environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer provider", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("failed to shutdown tracer provider", "error", err)
		}
	}()

	brokers := strings.Split(kafkaBrokers, ",")
	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderPaid, "owner-notifier", logger)
	defer func() { _ = consumer.Close() }()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	mailer := mail.NewClient(emailAPIURL, emailAPIKey, emailFrom, httpClient)

	handler := notifier.New(mailer, ownerEmail, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting owner notifier", "brokers", brokers, "topic", messaging.TopicOrderPaid)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
