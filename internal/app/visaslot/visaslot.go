// Package visaslot собирает приложение: хранилище, кеш, очередь уведомлений,
// сервисы и HTTP-сервер с graceful shutdown.
package visaslot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/visaslot-backend/internal/cache"
	"github.com/magabrotheeeer/visaslot-backend/internal/config"
	"github.com/magabrotheeeer/visaslot-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/visaslot-backend/internal/migrations"
	"github.com/magabrotheeeer/visaslot-backend/internal/paymentprovider"
	reconcileservice "github.com/magabrotheeeer/visaslot-backend/internal/services/reconcile"
	subservice "github.com/magabrotheeeer/visaslot-backend/internal/services/subscriber"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	cache      *cache.Cache
	rabbitConn *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Очередь уведомлений необязательна: без rabbit_connection события
	// об оплате просто не публикуются.
	var rabbitConn *amqp.Connection
	var notifier reconcileservice.Notifier
	if cfg.RabbitConnection != "" {
		rabbitConn, err = rabbitmq.Connect(cfg.RabbitConnection, 5, 2*time.Second)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetNotificationQueues())
		if err != nil {
			return nil, err
		}
		notifier = rabbitmq.NewNotificationPublisher(ch)
	} else {
		logger.Warn("rabbit connection is not configured, payment notifications disabled")
	}

	if cfg.WebhookSecret == "" {
		logger.Warn("stripe webhook secret is not configured, webhook processing disabled")
	}

	subscriberService := subservice.NewSubscriberService(db, cacheRedis, logger)
	reconcileService := reconcileservice.New(db, cacheRedis, notifier, cfg.WebhookSecret, logger)
	providerClient := paymentprovider.NewClient(cfg.SecretKey)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, cfg, db, subscriberService, reconcileService, providerClient)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		cache:      cacheRedis,
		rabbitConn: rabbitConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.rabbitConn != nil {
			_ = a.rabbitConn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
