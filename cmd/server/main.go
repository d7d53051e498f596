package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog_back_end/internal/cache"
	"catalog_back_end/internal/catalog"
	"catalog_back_end/internal/config"
	"catalog_back_end/internal/handlers"
	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/media"
	"catalog_back_end/internal/middleware"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/notify"
	"catalog_back_end/internal/orders"
	"catalog_back_end/internal/payment"
	"catalog_back_end/internal/routes"
	"catalog_back_end/internal/search"
	"catalog_back_end/internal/store"
)

func main() {
	cfg := config.Load(".env")
	defer logger.Sync()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	files, err := mediaStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("❌ Media storage unavailable", zap.Error(err))
	}

	var opts []catalog.Option
	var limiter middleware.Counter
	if cfg.RedisEnabled() {
		client, err := cache.Connect(ctx, cfg.RedisHost, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("⚠️ Redis unavailable, product cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			opts = append(opts, catalog.WithCache(cache.NewProductCache(client, cache.ProductCacheTTL)))
			limiter = middleware.NewRedisCounter(client)
		}
	}
	if cfg.SearchEnabled() {
		index, err := search.Connect(ctx, search.Config{
			URL:      cfg.ElasticURL,
			Username: cfg.ElasticUser,
			Password: cfg.ElasticPassword,
			Index:    cfg.ElasticIndex,
		})
		if err != nil {
			logger.Log.Warn("⚠️ Elasticsearch unavailable, search scans the product file", zap.Error(err))
		} else {
			opts = append(opts, catalog.WithIndex(index))
		}
	}
	cancel()

	products := catalog.NewService(store.NewJSONFile[models.Product](cfg.ProductsFile), files, opts...)
	reindexCtx, stopReindex := context.WithTimeout(context.Background(), time.Minute)
	if err := products.Reindex(reindexCtx); err != nil {
		logger.Log.Warn("⚠️ Search index rebuild failed, older products may be missing from search", zap.Error(err))
	}
	stopReindex()
	recorder := orders.NewRecorder(store.NewJSONFile[models.Order](cfg.OrdersFile))

	if cfg.StripeSecretKey == "" {
		logger.Log.Warn("⚠️ STRIPE_SECRET_KEY missing, checkout requests will fail")
	}
	checkout := payment.NewCheckout(payment.Config{
		SecretKey:        cfg.StripeSecretKey,
		SuccessURL:       cfg.CheckoutSuccessURL,
		CancelURL:        cfg.CheckoutCancelURL,
		AllowedCountries: cfg.AllowedCountries,
		Currency:         cfg.Currency,
	})
	if cfg.StripeWebhookSecret == "" {
		logger.Log.Warn("⚠️ STRIPE_WEBHOOK_SECRET missing, webhook events will not mark orders paid")
	}
	events := payment.NewWebhook(cfg.StripeWebhookSecret)

	var notifier handlers.Notifier
	if cfg.MailEnabled() {
		notifier = notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.NotifyEmail,
		})
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger(), cors.New(corsConfig(cfg.CORSOrigins)))
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter, cfg.RateLimit, middleware.APIWindow))
	}
	routes.RegisterRoutes(r,
		handlers.NewProductHandler(products),
		handlers.NewCheckoutHandler(checkout, recorder, events, notifier),
		handlers.NewMediaHandler(files),
	)
	routes.ServePublic(r, cfg.PublicDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("🚀 Server listening", zap.String("url", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("❌ Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
}

func mediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	if cfg.UseMinIO() {
		return media.ConnectMinIO(ctx, media.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	}
	return media.NewDisk(cfg.UploadDir)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Stripe-Signature", logger.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}
