package service

import (
	"context"
	"errors"
	"log/slog"

	"enroll/internal/activitylog"
	"enroll/internal/events"
	"enroll/internal/ledger"
	"enroll/internal/platform/lock"
	"enroll/internal/platform/metrics"
	"enroll/internal/platform/middleware"
	"enroll/internal/registrant/store"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
)

// Sources label who marked an installment paid, for metrics and events.
const (
	SourceAdmin = "admin"
	SourcePix   = "pix"
	SourceCard  = "card"
)

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type ActivityLog interface {
	Record(ctx context.Context, kind activitylog.Kind, level activitylog.Level, msg string, kv ...any)
}

// Service owns registrants and their installment ledgers. Every ledger
// mutation runs under a per-registrant lock and is followed by reconciling
// that registrant, so aggregates are only stale between a direct store edit and
// the next sweep.
type Service struct {
	store         store.Store
	locker        lock.Locker
	price         ledger.Cents
	defaultDueDay int

	logger    *slog.Logger
	publisher EventPublisher
	activity  ActivityLog
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithActivityLog(a ActivityLog) Option {
	return func(s *Service) {
		s.activity = a
	}
}

// WithLocker replaces the in-process locker, e.g. with a Redis one when several
// replicas share a store.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithDefaultDueDay sets the due day used when a registration omits one.
func WithDefaultDueDay(day int) Option {
	return func(s *Service) {
		if day >= 1 && day <= 31 {
			s.defaultDueDay = day
		}
	}
}

// New constructs a Service selling the plan at price.
func New(st store.Store, price ledger.Cents, opts ...Option) *Service {
	s := &Service{
		store:         st,
		price:         price,
		defaultDueDay: 10,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = lock.NewSharded(0)
	}
	return s
}

// Price is the fixed plan price.
func (s *Service) Price() ledger.Cents { return s.price }

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

// publish is best effort; a broker outage never fails a ledger write.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"request_id", middleware.GetRequestID(ctx),
			"event_type", string(e.Type),
			"registrant_id", e.RegistrantID,
			"error", err,
		)
	}
}

// translate maps store sentinels to domain errors.
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registrant not found")
	case errors.Is(err, sentinel.ErrLocked):
		return dErrors.Wrap(err, dErrors.CodeStorage, "registrant is being updated, try again")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeStorage, msg)
}

func lockKey(id string) string { return "registrant:" + id }
