package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marketplace-gateway/internal/catalogue"
	"marketplace-gateway/internal/config"
	"marketplace-gateway/internal/httpserver"
	"marketplace-gateway/internal/logging"
	"marketplace-gateway/internal/pricing"
	cartsvc "marketplace-gateway/internal/service/cart"
	"marketplace-gateway/internal/service/cartstore"
	"marketplace-gateway/internal/service/quotation"
	"marketplace-gateway/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger = logger.Named("api")

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
	_ = logger.Sync()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, false, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	var finder catalogue.Finder = catalogue.NewHTTPClient(cfg.CatalogueURL, catalogue.HTTPOptions{
		Timeout: cfg.CatalogueTimeout,
	}, logger.Named("catalogue"))
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable, catalogue cache will fall through", zap.Error(err))
		}
		finder = catalogue.NewCache(finder, rdb, cfg.CatalogueCacheTTL, logger.Named("catalogue-cache"))
	}

	resolver := pricing.NewResolver(pricing.FlatTax{Percent: cfg.TaxPercent}, cfg.DefaultCurrency, logger.Named("pricing"))
	quoteService := quotation.New(finder, resolver, logger.Named("quotation"))
	store := cartstore.New(backend.Carts, backend.Accounts, resolver.Currency(),
		cartstore.WithPricer(quoteService),
		cartstore.WithLogger(logger.Named("cartstore")))
	cartService := cartsvc.New(store, logger.Named("cart"))

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.PingFunc(backend.Ping), httpserver.Deps{
		CartSvc:  cartService,
		QuoteSvc: quoteService,
	}, httpserver.Options{
		CartCookie:  cfg.CartCookie,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		runErr = fmt.Errorf("serve http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	return runErr
}
