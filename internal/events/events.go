// Package events announces ledger changes to downstream consumers such as the
// confirmation email sender. Publishing is best effort: callers log failures
// and carry on.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRegistrantCreated Type = "registrant.created"
	TypePaymentCreated    Type = "payment.created"
	TypeInstallmentPaid   Type = "installment.paid"
)

// Event is the wire form shared by every broker.
type Event struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	RegistrantID string    `json:"registrant_id"`
	Email        string    `json:"email,omitempty"`
	Slot         int       `json:"installment,omitempty"`
	AmountCents  int64     `json:"amount_cents,omitempty"`
	Source       string    `json:"source,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// New stamps an id and time on an event of the given type.
func New(t Type, registrantID string, now time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, RegistrantID: registrantID, OccurredAt: now}
}

// Key partitions events so one registrant's events stay ordered.
func (e Event) Key() string { return e.RegistrantID }

func (e Event) Marshal() ([]byte, error) { return json.Marshal(e) }

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the structured log only. It is the default
// when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "event published",
		"event_id", e.ID,
		"event_type", string(e.Type),
		"registrant_id", e.RegistrantID,
		"installment", e.Slot,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
