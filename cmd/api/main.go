package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"preventa-backend/config"
	"preventa-backend/internal/delivery/http/middleware"
	v1 "preventa-backend/internal/delivery/http/v1"
	"preventa-backend/internal/infrastructure/cache"
	"preventa-backend/internal/infrastructure/ratetable"
	"preventa-backend/internal/infrastructure/shopify"
	"preventa-backend/internal/usecase"
	"preventa-backend/pkg/logger"
	"preventa-backend/pkg/storage"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

const serviceName = "preventa-backend"

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// --- Commerce Platform ---
	shopifyClient := shopify.NewClient(shopify.Config{
		BaseURL:     cfg.ShopifyURL,
		AccessToken: cfg.ShopifyAPIToken,
		APIVersion:  cfg.ShopifyAPIVersion,
		Currency:    cfg.CurrencyCode,
		Timeout:     cfg.ShopifyTimeout,
	})

	// --- Rate Schedule (local file or R2 object) ---
	var source ratetable.Source = ratetable.NewFileSource(cfg.RateTablePath)
	if cfg.RateTableBucket != "" {
		r2Storage, err := storage.NewR2Storage(
			context.Background(),
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.RateTableBucket,
			cfg.R2Timeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		source = ratetable.NewObjectSource(r2Storage, cfg.RateTableKey)
	}

	var tableOpts []ratetable.Option
	if cfg.RateTableCacheTTL > 0 {
		tableOpts = append(tableOpts, ratetable.WithCache(cache.NewMemoryCache(cfg.RateTableCacheTTL), cfg.RateTableCacheTTL))
	}
	rateTable := ratetable.New(source, tableOpts...)

	// Check the schedule once at boot. Lookups still read it on every call.
	if rows, err := rateTable.Load(context.Background()); err != nil {
		log.Warn().Err(err).Str("source", source.Name()).Msg("Rate schedule not readable at startup")
	} else {
		log.Info().Int("rows", len(rows)).Str("source", source.Name()).Dur("cache_ttl", cfg.RateTableCacheTTL).Msg("Rate schedule loaded")
	}

	// --- Balance Module ---
	balanceUC := usecase.NewBalanceUsecase(shopifyClient, rateTable, cfg.PreSalePolicy, cfg.EligibilityTag)
	balanceHandler := v1.NewBalanceHandler(balanceUC)

	// Set up Router
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/order_created", balanceHandler.OrderCreated)
	mux.HandleFunc("GET /actualizar_pedido/{order_id}", balanceHandler.RecalculateOrder)
	mux.HandleFunc("GET /health", v1.Health)

	// Per-IP inbound limiter, cleanup every minute, client TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)

	// Request Logger, Rate Limit, and Gzip
	handler := middleware.RequestLogger(mux)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop(serviceName)
}
