package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountPercent = "percent"
	DiscountFlat    = "flat"
)

// Offer is a promotional discount. ShopID is nil for platform-wide offers.
type Offer struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ShopID         *primitive.ObjectID `bson:"shopId,omitempty" json:"shopId,omitempty"`
	Code           string              `bson:"code" json:"code"`
	Description    string              `bson:"description,omitempty" json:"description,omitempty"`
	DiscountType   string              `bson:"discountType" json:"discountType"`
	Value          float64             `bson:"value" json:"value"`
	MaxDiscount    float64             `bson:"maxDiscount" json:"maxDiscount"`
	MinOrderAmount float64             `bson:"minOrderAmount" json:"minOrderAmount"`
	IsActive       bool                `bson:"isActive" json:"isActive"`
	ExpiresAt      *time.Time          `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}

// Usable reports whether the offer can be applied at the given time.
func (o Offer) Usable(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.ExpiresAt != nil && now.After(*o.ExpiresAt) {
		return false
	}
	return true
}

// Discount returns the amount deducted from subtotal by this offer.
func (o Offer) Discount(subtotal float64) float64 {
	if subtotal < o.MinOrderAmount {
		return 0
	}
	var discount float64
	switch o.DiscountType {
	case DiscountPercent:
		discount = subtotal * o.Value / 100
	case DiscountFlat:
		discount = o.Value
	default:
		return 0
	}
	if o.MaxDiscount > 0 && discount > o.MaxDiscount {
		discount = o.MaxDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}
