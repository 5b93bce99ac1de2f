package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle states.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment states. PaymentRefunded is representable but currently has no
// producer; refund webhooks are not wired.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Accepted payment methods.
const (
	MethodCard   = "card"
	MethodUPI    = "upi"
	MethodCOD    = "cod"
	MethodWallet = "wallet"
)

// allowedTransitions is the order lifecycle graph. Delivered and cancelled
// are terminal.
var allowedTransitions = map[string][]string{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderDelivered},
	OrderDelivered: {},
	OrderCancelled: {},
}

func ValidOrderStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. A status never transitions to itself; callers treat that case as
// an idempotent no-op instead.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether no further transitions exist from status.
func TerminalStatus(status string) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case MethodCard, MethodUPI, MethodCOD, MethodWallet:
		return true
	}
	return false
}

func TerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// OrderItem is a single line of an order. Price is the line total
// (unit price × quantity) captured at order time.
type OrderItem struct {
	FoodItemID primitive.ObjectID `bson:"foodItemId" json:"foodItemId"`
	Name       string             `bson:"name" json:"name"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Price      float64            `bson:"price" json:"price"`
}

// Order defines the persisted order document. Payment state lives inline as
// a cached projection of the payment_events ledger.
type Order struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CustomerID        primitive.ObjectID  `bson:"customerId" json:"customerId"`
	ShopID            primitive.ObjectID  `bson:"shopId" json:"shopId"`
	Items             []OrderItem         `bson:"items" json:"items"`
	TotalAmount       float64             `bson:"totalAmount" json:"totalAmount"`
	Address           string              `bson:"address" json:"address"`
	StructuredAddress *StructuredAddress  `bson:"structuredAddress,omitempty" json:"structuredAddress,omitempty"`
	Status            string              `bson:"status" json:"status"`
	PaymentMethod     string              `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus     string              `bson:"paymentStatus" json:"paymentStatus"`
	PaymentID         string              `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	PaymentIntentID   string              `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	AppliedOfferID    *primitive.ObjectID `bson:"appliedOfferId,omitempty" json:"appliedOfferId,omitempty"`
	ScheduledFor      *time.Time          `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}
