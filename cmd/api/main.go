package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sirupsen/logrus"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/favorites"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/session"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	if cfg.Environment == "development" {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.WithFields(logrus.Fields{
		"driver":  cfg.Storage.Driver,
		"catalog": cfg.Catalog.Path,
	}).Info("starting storefront")

	kv, err := openStore(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open state store")
	}
	defer kv.Close()

	products, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load catalog")
	}

	// Optional change feed: with no brokers configured, session changes
	// are discovered by polling alone.
	var feed storage.Publisher
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		feed = producer
		logrus.WithField("brokers", cfg.Kafka.Brokers).Info("change feed enabled")
	}

	sessions := session.NewStore(kv, feed)
	carts := cart.NewStore(kv, cfg.Pricing.FreeShippingThreshold, cfg.Pricing.StandardDeliveryFee)
	orders := order.NewStore(kv)
	favs := favorites.NewStore(kv, sessions)
	co := checkout.NewProcess(sessions, carts, orders)

	jwtService := auth.NewJWTService(cfg.JWT.SecretKey, time.Duration(cfg.JWT.AccessTokenTTL)*time.Hour)

	watcher := session.NewWatcher(sessions, cfg.Session.PollInterval)
	watcher.Subscribe(func(s *session.Session) {
		if s == nil {
			logrus.Info("session ended")
			return
		}
		logrus.WithField("email", s.Email).Info("session changed")
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("session watcher stopped")
		}
	}()

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, watcher.HandleChange); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("change feed consumer stopped")
			}
		}()
	}

	handlers := api.NewHandlers(products, carts, orders, favs, sessions, co)
	authHandlers := api.NewAuthHandlers(sessions, jwtService)
	router := api.NewRouter(handlers, authHandlers, jwtService)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("server started")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logrus.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wg.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	case "postgres":
		db, err := storage.ConnectPostgres(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresStore(db)
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.AWSRegion))
		if err != nil {
			return nil, err
		}
		return storage.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Storage.DynamoTable), nil
	}
	// Unreachable: config.Load rejects unknown drivers.
	return storage.NewMemoryStore(), nil
}
