package handlers

import (
	"fmt"
	"math"

	"backend/internal/models"
)

// totalTolerance is how far the client-computed total may drift from the
// server-computed total before creation is rejected. Covers float rounding
// differences between the JS client and this service, nothing more.
const totalTolerance = 0.01

type FeeSchedule struct {
	DeliveryFee float64
	PlatformFee float64
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func orderSubtotal(items []models.OrderItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price
	}
	return roundMoney(subtotal)
}

// computeOrderTotal derives the amount the customer owes: line items minus
// any offer discount, plus the fee schedule. Fees apply even when a discount
// brings the item subtotal to zero.
func computeOrderTotal(subtotal, discount float64, fees FeeSchedule) float64 {
	if discount > subtotal {
		discount = subtotal
	}
	return roundMoney(subtotal - discount + fees.DeliveryFee + fees.PlatformFee)
}

func validateClientTotal(computed, claimed float64) error {
	if math.Abs(computed-claimed) > totalTolerance {
		return totalMismatchError{Computed: computed, Claimed: claimed}
	}
	return nil
}

type totalMismatchError struct {
	Computed float64
	Claimed  float64
}

func (e totalMismatchError) Error() string {
	return fmt.Sprintf("total amount mismatch: expected %.2f, got %.2f", e.Computed, e.Claimed)
}
