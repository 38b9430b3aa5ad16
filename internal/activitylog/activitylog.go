// Package activitylog keeps an operator-facing trail of registrations,
// payments and webhook problems. Entries are written off the request path and
// a failing sink never fails the operation that produced the entry.
package activitylog

import (
	"context"
	"time"
)

// Kind groups entries for operators filtering the trail.
type Kind string

const (
	KindRegistration  Kind = "inscricao"
	KindPayment       Kind = "pagamento"
	KindWebhook       Kind = "webhook"
	KindReconcile     Kind = "reconciliacao"
	KindAdminOverride Kind = "baixa_manual"
)

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one row of the trail.
type Entry struct {
	Timestamp time.Time
	Kind      Kind
	Level     Level
	Message   string
	Data      map[string]any
	RequestID string
}

// Sink persists entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}
