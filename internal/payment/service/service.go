package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"enroll/internal/activitylog"
	"enroll/internal/events"
	"enroll/internal/ledger"
	"enroll/internal/payment/dedupe"
	"enroll/internal/payment/gateway"
	"enroll/internal/payment/metrics"
	"enroll/internal/platform/middleware"
	rmodels "enroll/internal/registrant/models"
)

// Gateway is the subset of the PagBank client the service uses.
type Gateway interface {
	CreateOrder(ctx context.Context, req *gateway.OrderRequest) (*gateway.Order, error)
	CreatePublicKey(ctx context.Context) (*gateway.PublicKey, error)
	Environment() string
}

// Registrants is the registrant service as seen by payment intake.
type Registrants interface {
	FindByEmail(ctx context.Context, addr string) (*rmodels.Registrant, error)
	MarkInstallmentPaid(ctx context.Context, ref rmodels.Ref, slot int, paidDate time.Time, source string) (*rmodels.MarkOutcome, error)
	MarkAllPaid(ctx context.Context, ref rmodels.Ref, paidDate time.Time, source string) (*rmodels.MarkOutcome, error)
	RecordTransaction(ctx context.Context, ref rmodels.Ref, transactionID string) error
	Price() ledger.Cents
}

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type ActivityLog interface {
	Record(ctx context.Context, kind activitylog.Kind, level activitylog.Level, msg string, kv ...any)
}

// Config holds the gateway settings the service needs outside the client.
type Config struct {
	PublicKey string
	// NotificationURL is sent with every order so the gateway calls back.
	NotificationURL string
	// WebhookToken signs notifications; checked only when VerifyWebhooks is set.
	WebhookToken   string
	VerifyWebhooks bool
}

const pixExpiry = 24 * time.Hour

type Service struct {
	gateway     Gateway
	registrants Registrants
	cfg         Config
	dedupe      dedupe.Store

	logger    *slog.Logger
	metrics   *metrics.Metrics
	activity  ActivityLog
	publisher EventPublisher

	keyMu     sync.RWMutex
	publicKey string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithActivityLog(a ActivityLog) Option {
	return func(s *Service) { s.activity = a }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithDedupe sets where processed charge ids are remembered. Defaults to an
// in-process store.
func WithDedupe(d dedupe.Store) Option {
	return func(s *Service) { s.dedupe = d }
}

func New(gw Gateway, registrants Registrants, cfg Config, opts ...Option) *Service {
	s := &Service{
		gateway:     gw,
		registrants: registrants,
		cfg:         cfg,
		publicKey:   cfg.PublicKey,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dedupe == nil {
		s.dedupe = dedupe.NewMemory(0)
	}
	return s
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) record(ctx context.Context, kind activitylog.Kind, level activitylog.Level, msg string, kv ...any) {
	if s.activity != nil {
		s.activity.Record(ctx, kind, level, msg, kv...)
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"request_id", middleware.GetRequestID(ctx),
			"event_type", string(e.Type),
			"error", err,
		)
	}
}
