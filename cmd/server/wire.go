package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"enroll/internal/activitylog"
	"enroll/internal/events"
	eventskafka "enroll/internal/events/kafka"
	eventsrabbitmq "enroll/internal/events/rabbitmq"
	"enroll/internal/ledger"
	"enroll/internal/payment/dedupe"
	"enroll/internal/payment/gateway"
	payhandler "enroll/internal/payment/handler"
	paymetrics "enroll/internal/payment/metrics"
	payservice "enroll/internal/payment/service"
	"enroll/internal/platform/config"
	"enroll/internal/platform/kafka"
	"enroll/internal/platform/lock"
	"enroll/internal/platform/metrics"
	"enroll/internal/platform/middleware"
	"enroll/internal/platform/rabbitmq"
	"enroll/internal/platform/redis"
	"enroll/internal/platform/sheets"
	"enroll/internal/ratelimit"
	reghandler "enroll/internal/registrant/handler"
	regservice "enroll/internal/registrant/service"
	"enroll/internal/registrant/store"
	"enroll/internal/registrant/store/memory"
	"enroll/internal/registrant/store/postgres"
	sheetstore "enroll/internal/registrant/store/sheets"
	httptransport "enroll/internal/transport/http"
)

// app holds the wired service and everything that must be closed on shutdown.
type app struct {
	router      http.Handler
	registrants *regservice.Service
	closers     []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	health := map[string]httptransport.HealthCheck{}

	var sheetsAPI *sheets.Client
	if cfg.Sheets.Validate() == nil {
		sheetsAPI, err = sheets.New(ctx, cfg.Sheets.CredentialsJSON, cfg.Sheets.SpreadsheetID)
		if err != nil {
			return nil, err
		}
	}

	st, err := openStore(ctx, cfg, sheetsAPI, a)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	var sink activitylog.Sink = activitylog.NewSlogSink(log)
	if sheetsAPI != nil {
		logs := activitylog.NewSheetsSink(sheetsAPI, cfg.Sheets.LogsSheet)
		if err := logs.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sink = logs
	}
	activity := activitylog.NewRecorder(sink, activitylog.WithAsyncBuffer(256), activitylog.WithLogger(log))
	a.closers = append(a.closers, activity.Close)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	var (
		locker  lock.Locker     = lock.NewSharded(cfg.Redis.LockTTL)
		claimer dedupe.Store    = dedupe.NewMemory(cfg.Redis.DedupeTTL)
		limits  ratelimit.Store = ratelimit.NewMemory()
	)
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		health["redis"] = rdb.Health
		locker = lock.NewRedis(rdb.Client, cfg.Redis.LockTTL)
		claimer = dedupe.NewRedis(rdb.Client, cfg.Redis.DedupeTTL)
		limits = ratelimit.NewRedis(rdb.Client)
	}

	publisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = publisher.Close() })

	m := metrics.New()
	registrants := regservice.New(st, ledger.Cents(cfg.Plan.PriceCents),
		regservice.WithLogger(log),
		regservice.WithMetrics(m),
		regservice.WithPublisher(publisher),
		regservice.WithActivityLog(activity),
		regservice.WithLocker(locker),
		regservice.WithDefaultDueDay(cfg.Plan.DefaultDueDay),
	)
	a.registrants = registrants

	pm := paymetrics.New()
	gw := gateway.New(cfg.Gateway, gateway.WithLogger(log), gateway.WithMetrics(pm))
	payments := payservice.New(gw, registrants, payservice.Config{
		PublicKey:       cfg.Gateway.PublicKey,
		NotificationURL: notificationURL(cfg.Server.PublicBaseURL),
		WebhookToken:    cfg.Gateway.Token,
		VerifyWebhooks:  cfg.Gateway.VerifyWebhooks,
	},
		payservice.WithLogger(log),
		payservice.WithMetrics(pm),
		payservice.WithActivityLog(activity),
		payservice.WithPublisher(publisher),
		payservice.WithDedupe(claimer),
	)

	var tokens *middleware.AdminTokens
	if cfg.Admin.JWTSigningKey != "" {
		tokens = middleware.NewAdminTokens(cfg.Admin.JWTSigningKey, cfg.Admin.Issuer)
	} else {
		log.Warn("ADMIN_JWT_SIGNING_KEY not set; admin routes are disabled")
	}

	limiter := ratelimit.Middleware(limits, ratelimit.Limit{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	}, log)

	a.router = httptransport.NewRouter(httptransport.Options{
		Logger:         log,
		Metrics:        m,
		AdminTokens:    tokens,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Health:         health,
		RateLimit:      limiter,
	},
		reghandler.New(registrants, log),
		payhandler.New(payments, log),
	)
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, api *sheets.Client, a *app) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		return postgres.New(pool), nil
	default:
		return sheetstore.New(api, cfg.Sheets.RegistrantsSheet), nil
	}
}

func openPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (events.Publisher, error) {
	switch cfg.Events.Backend {
	case config.EventsKafka:
		client, err := kafka.NewClient(ctx, cfg.Events.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		if err := kafka.EnsureTopic(ctx, client, cfg.Events.KafkaTopic, 3, 1); err != nil {
			client.Close()
			return nil, err
		}
		return eventskafka.NewPublisher(client, cfg.Events.KafkaTopic), nil
	case config.EventsRabbitMQ:
		conn, err := rabbitmq.Dial(cfg.Events.AMQPURL)
		if err != nil {
			return nil, err
		}
		if err := conn.DeclareTopicExchange(cfg.Events.Exchange); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return eventsrabbitmq.NewPublisher(conn, cfg.Events.Exchange), nil
	default:
		return events.NewLogPublisher(log), nil
	}
}

func notificationURL(base string) string {
	if base == "" {
		return ""
	}
	return base + "/webhooks/pagbank"
}
