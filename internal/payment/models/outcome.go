package models

// OutcomeKind tags a webhook result. Both kinds are acknowledged to the
// gateway with a 200.
type OutcomeKind string

const (
	KindAcknowledged                  OutcomeKind = "acknowledged"
	KindAcknowledgedWithInternalError OutcomeKind = "acknowledged_with_internal_error"
)

// Actions describe what an acknowledged notification did.
const (
	ActionInstallmentPaid = "installment_paid"
	ActionAllPaid         = "all_paid"
	ActionDuplicate       = "duplicate"
	ActionNoPaidCharge    = "no_paid_charge"
)

// Outcome is the result of handling one gateway notification.
type Outcome struct {
	Kind        OutcomeKind
	Action      string
	Details     string
	OrderID     string
	ReferenceID string
	NewlyPaid   []int
}

func Acknowledged(orderID, referenceID, action string) Outcome {
	return Outcome{Kind: KindAcknowledged, Action: action, OrderID: orderID, ReferenceID: referenceID}
}

func AcknowledgedWithInternalError(orderID, referenceID, details string) Outcome {
	return Outcome{Kind: KindAcknowledgedWithInternalError, Details: details, OrderID: orderID, ReferenceID: referenceID}
}

func (o Outcome) Failed() bool { return o.Kind == KindAcknowledgedWithInternalError }

// Label is the outcome reported in the webhook response and metrics.
func (o Outcome) Label() string {
	if o.Failed() {
		return string(o.Kind)
	}
	if o.Action == "" {
		return string(o.Kind)
	}
	return o.Action
}

func (o Outcome) Response() WebhookResponse {
	return WebhookResponse{Received: true, OrderID: o.OrderID, ReferenceID: o.ReferenceID, Outcome: o.Label()}
}
