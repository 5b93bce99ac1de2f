package payments

import "context"

// Intent status reported by the processor once a payment attempt completed
// successfully. Anything else means the payment has not gone through.
const IntentSucceeded = "succeeded"

// Webhook event types the reconciliation handler acts on.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Intent is the processor-side payment attempt for an order.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Event is a verified webhook event, reduced to the fields the order
// reconciliation needs. IntentID and OrderID are only populated for
// payment-intent events.
type Event struct {
	ID       string
	Type     string
	IntentID string
	OrderID  string
}

// Provider abstracts the external payment processor so handlers can be
// exercised against a fake in tests.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency, orderID string) (Intent, error)
	GetIntent(ctx context.Context, intentID string) (Intent, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
}
