package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment event types recorded in the ledger.
const (
	EventIntentCreated = "intent_created"
	EventSucceeded     = "succeeded"
	EventFailed        = "failed"
)

// Payment event sources.
const (
	SourceAPI     = "api"
	SourceConfirm = "confirm"
	SourceWebhook = "webhook"
)

// PaymentEvent is one entry in the append-only payment ledger. The order's
// paymentStatus field is a projection of the latest terminal event.
type PaymentEvent struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID      primitive.ObjectID `bson:"orderId" json:"orderId"`
	IntentID     string             `bson:"intentId" json:"intentId"`
	EventType    string             `bson:"eventType" json:"eventType"`
	Source       string             `bson:"source" json:"source"`
	ProcessorRef string             `bson:"processorRef,omitempty" json:"processorRef,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
