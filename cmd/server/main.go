package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mbravoz/drop-storefront/internal/admin"
	"github.com/mbravoz/drop-storefront/internal/auth"
	"github.com/mbravoz/drop-storefront/internal/catalog"
	"github.com/mbravoz/drop-storefront/internal/checkout"
	"github.com/mbravoz/drop-storefront/internal/customers"
	"github.com/mbravoz/drop-storefront/internal/discounts"
	"github.com/mbravoz/drop-storefront/internal/mail"
	"github.com/mbravoz/drop-storefront/internal/messaging"
	"github.com/mbravoz/drop-storefront/internal/orders"
	"github.com/mbravoz/drop-storefront/internal/payments"
	"github.com/mbravoz/drop-storefront/internal/settlement"
	"github.com/mbravoz/drop-storefront/internal/shipping"
	"github.com/mbravoz/drop-storefront/internal/stock"
	"github.com/mbravoz/drop-storefront/internal/stockwatch"
	"github.com/mbravoz/drop-storefront/internal/telemetry"
)

const (
	serviceName    = "storefront-server"
	serviceVersion = "1.0.0"
)

type config struct {
	port          string
	postgresURL   string
	kafkaBrokers  []string
	productID     int64
	productName   string
	paymentAPIURL string
	paymentToken  string
	returnURL     string
	emailAPIURL   string
	emailAPIKey   string
	emailFrom     string
	sheetsWebhook string
	sessionSecret string
	adminPassword string
	secureCookies bool
	stockInterval time.Duration
}

func loadConfig(logger *slog.Logger) config {
	required := func(name string) string {
		value := os.Getenv(name)
		if value == "" {
			logger.Error(name + " environment variable is required")
			os.Exit(1)
		}
		return value
	}

	cfg := config{
		port:          os.Getenv("PORT"),
		postgresURL:   required("POSTGRES_URL"),
		kafkaBrokers:  strings.Split(required("KAFKA_BROKERS"), ","),
		productName:   required("PRODUCT_NAME"),
		paymentAPIURL: required("PAYMENT_API_URL"),
		paymentToken:  required("PAYMENT_ACCESS_TOKEN"),
		returnURL:     required("CHECKOUT_RETURN_URL"),
		emailAPIURL:   required("EMAIL_API_URL"),
		emailAPIKey:   required("EMAIL_API_KEY"),
		emailFrom:     required("EMAIL_FROM"),
		sheetsWebhook: required("SHEETS_WEBHOOK_URL"),
		sessionSecret: required("SESSION_SECRET"),
		adminPassword: required("ADMIN_PASSWORD"),
		secureCookies: os.Getenv("INSECURE_COOKIES") != "true",
		stockInterval: 5 * time.Second,
	}
	if cfg.port == "" {
		cfg.port = "8080"
	}

	productID, err := strconv.ParseInt(required("PRODUCT_ID"), 10, 64)
	if err != nil {
		logger.Error("PRODUCT_ID must be an integer", "error", err)
		os.Exit(1)
	}
	cfg.productID = productID

	if interval := os.Getenv("STOCK_POLL_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			logger.Error("STOCK_POLL_INTERVAL must be a duration", "error", err)
			os.Exit(1)
		}
		cfg.stockInterval = d
	}

	return cfg
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := loadConfig(logger)

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

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownMeter(shutdownCtx); err != nil {
			logger.Error("failed to shutdown meter provider", "error", err)
		}
	}()

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(cfg.postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	catalogRepo := catalog.NewRepository(db)
	stockRepo := stock.NewRepository(db)
	discountRepo := discounts.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	customerRepo := customers.NewRepository(db)

	processor := payments.NewClient(cfg.paymentAPIURL, cfg.paymentToken, httpClient)
	mailer := mail.NewClient(cfg.emailAPIURL, cfg.emailAPIKey, cfg.emailFrom, httpClient)
	sheets := shipping.NewSheetsClient(cfg.sheetsWebhook, httpClient)

	producer := messaging.NewProducer(cfg.kafkaBrokers, messaging.TopicOrderPaid)
	defer func() { _ = producer.Close() }()

	checkoutService := checkout.NewService(catalogRepo, processor, cfg.productID, cfg.returnURL, logger)
	settlementService := settlement.NewService(
		processor, stockRepo, discountRepo, customerRepo, orderRepo,
		mailer, producer,
		cfg.productID, cfg.productName, logger,
	)

	catalogHandler := catalog.NewHandler(catalogRepo, cfg.productID, logger)
	discountHandler := discounts.NewHandler(discountRepo, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	settlementHandler := settlement.NewHandler(settlementService, logger)
	shippingHandler := shipping.NewHandler(orderRepo, customerRepo, mailer, sheets, cfg.productName, logger)
	adminHandler := admin.NewHandler(orderRepo, discountRepo, catalogRepo, cfg.productID, logger)
	guard := auth.NewGuard([]byte(cfg.sessionSecret), cfg.adminPassword, cfg.secureCookies, logger)

	mux := http.NewServeMux()

	// Public storefront API.
	mux.HandleFunc("GET /api/stock", telemetry.WithHTTPRoute(catalogHandler.HandleStock))
	mux.HandleFunc("GET /api/precios", telemetry.WithHTTPRoute(catalogHandler.HandlePrices))
	mux.HandleFunc("GET /api/provincias", telemetry.WithHTTPRoute(shippingHandler.HandleProvinces))
	mux.HandleFunc("POST /api/descuentos/validar", telemetry.WithHTTPRoute(discountHandler.HandleValidate))
	mux.HandleFunc("POST /api/checkout", telemetry.WithHTTPRoute(checkoutHandler.HandleCreate))
	mux.HandleFunc("GET /api/pagos/confirmar", telemetry.WithHTTPRoute(settlementHandler.HandleConfirm))
	mux.HandleFunc("POST /api/envios", telemetry.WithHTTPRoute(shippingHandler.HandleCreate))

	// Session endpoints.
	mux.HandleFunc("POST /api/admin/login", telemetry.WithHTTPRoute(guard.HandleLogin))
	mux.HandleFunc("POST /api/admin/logout", telemetry.WithHTTPRoute(guard.HandleLogout))

	// Owner dashboard, behind the session guard.
	protected := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, guard.RequireAdmin(telemetry.WithHTTPRoute(handler)))
	}
	protected("GET /api/admin/pedidos", adminHandler.HandleListOrders)
	protected("PATCH /api/admin/pedidos/{id}/envio", adminHandler.HandleUpdateShipping)
	protected("GET /api/admin/estadisticas", adminHandler.HandleStats)
	protected("GET /api/admin/descuentos", adminHandler.HandleListDiscounts)
	protected("POST /api/admin/descuentos", adminHandler.HandleCreateDiscount)
	protected("PATCH /api/admin/descuentos/{id}", adminHandler.HandleSetDiscountActive)
	protected("GET /api/admin/descuentos/rendimiento", adminHandler.HandleDiscountPerformance)
	protected("PATCH /api/admin/precios", adminHandler.HandleUpdatePrices)

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	setStock, err := telemetry.StockGauge()
	if err != nil {
		logger.Error("failed to register stock gauge", "error", err)
		os.Exit(1)
	}
	watcher := stockwatch.New(
		availableFunc(func(ctx context.Context) (int, error) {
			return stockRepo.Available(ctx, cfg.productID)
		}),
		cfg.stockInterval,
		setStock,
		logger,
	)
	go watcher.Run(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           otelhttp.NewHandler(mux, "server"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
		cancel()
	}()

	logger.Info("starting server", "port", cfg.port, "product_id", cfg.productID)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type availableFunc func(ctx context.Context) (int, error)

func (f availableFunc) Available(ctx context.Context) (int, error) {
	return f(ctx)
}
