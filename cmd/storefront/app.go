package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/consumer"
	"github.com/fjod/storefront/internal/customer"
	"github.com/fjod/storefront/internal/health"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/notification"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/redis/go-redis/v9"
)

// app holds everything serve runs. Close releases it in reverse order.
type app struct {
	handler  http.Handler
	poller   *publisher.OutboxPoller
	consumer *consumer.Consumer
	checker  *health.Checker
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config, repo *repository.Repository, log *slog.Logger) (*app, error) {
	a := &app{}
	m := metrics.New()

	var (
		productCache cache.ProductCache = cache.Noop{}
		marker       cache.EventMarker  = cache.Noop{}
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		rc := cache.NewRedisCache(client)
		productCache, marker = rc, rc
		log.Info("redis cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	var directory customer.Directory = customer.NewSQLDirectory(repo)
	if cfg.MongoURI != "" {
		db, err := customer.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { db.Client().Disconnect(context.Background()) })
		md := customer.NewMongoDirectory(db)
		if err := md.CreateIndexes(ctx); err != nil {
			a.Close()
			return nil, err
		}
		directory = md
		log.Info("customer directory on mongodb", slog.String("database", cfg.MongoDatabase))
	}

	gw, err := payment.New(cfg.Payment())
	if err != nil {
		a.Close()
		return nil, err
	}
	gateway := payment.WithBreaker(gw, circuitbreaker.New[*payment.Intent](circuitbreaker.Settings{
		Name:   "payment-gateway",
		Logger: log,
	}))

	catalog := service.NewCatalogService(repo, productCache, log)
	checkout := service.NewCheckoutService(
		service.NewPricer(repo),
		directory,
		gateway,
		repo,
		service.CheckoutOptions{Currency: cfg.Currency, Timeout: cfg.RequestTimeout},
		log,
		m,
	)
	fulfillment := service.NewFulfillmentService(repo, catalog, log, m)
	webhooks := service.NewWebhookService(gateway, fulfillment, marker, log, m)
	admin := service.NewAdminService(repo, log)
	orders := service.NewOrderQueryService(repo, cfg.Currency)

	notifier := notification.NewLogNotifier(log)
	var sink publisher.Sink
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		sink = publisher.NewKafkaSink(cfg.KafkaTopic, brokers...)
		a.consumer = consumer.NewConsumer(notifier, cfg.KafkaTopic, log, m, brokers...)
		a.closers = append(a.closers, a.consumer.Close)
		log.Info("outbox publishing to kafka", slog.Any("brokers", brokers), slog.String("topic", cfg.KafkaTopic))
	} else {
		sink = publisher.NewNotifierSink(notifier, log, m)
	}
	a.closers = append(a.closers, func() {
		if err := sink.Close(); err != nil {
			log.Error("error closing outbox sink", slog.Any("error", err))
		}
	})
	a.poller = publisher.NewOutboxPoller(repo, sink, log, m)
	a.checker = health.NewChecker(repo, log)

	a.handler = h.NewRouter(h.RouterConfig{
		Products:   h.NewProductHandler(catalog, cfg.Currency, cfg.RequestTimeout),
		Checkout:   h.NewCheckoutHandler(checkout),
		Orders:     h.NewOrdersHandler(orders, cfg.RequestTimeout),
		Webhooks:   h.NewWebhookHandler(webhooks),
		Admin:      h.NewAdminHandler(admin, catalog, cfg.RequestTimeout),
		Metrics:    m.Handler(),
		DB:         repo,
		AdminToken: cfg.AdminToken,
		Log:        log,
	})
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
