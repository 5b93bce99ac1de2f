package models

import (
	"testing"
	"time"
)

func TestOfferDiscountPercentWithCap(t *testing.T) {
	offer := Offer{DiscountType: DiscountPercent, Value: 20, MaxDiscount: 50}
	if got := offer.Discount(400); got != 50 {
		t.Fatalf("expected cap at 50, got %v", got)
	}
	if got := offer.Discount(200); got != 40 {
		t.Fatalf("expected 20%% of 200 = 40, got %v", got)
	}
}

func TestOfferDiscountFlatNeverExceedsSubtotal(t *testing.T) {
	offer := Offer{DiscountType: DiscountFlat, Value: 100}
	if got := offer.Discount(60); got != 60 {
		t.Fatalf("expected discount clamped to 60, got %v", got)
	}
}

func TestOfferDiscountBelowMinimum(t *testing.T) {
	offer := Offer{DiscountType: DiscountFlat, Value: 50, MinOrderAmount: 300}
	if got := offer.Discount(299); got != 0 {
		t.Fatalf("expected no discount below minimum, got %v", got)
	}
}

func TestOfferUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (Offer{IsActive: false}).Usable(now) {
		t.Fatal("inactive offer must not be usable")
	}
	if (Offer{IsActive: true, ExpiresAt: &past}).Usable(now) {
		t.Fatal("expired offer must not be usable")
	}
	if !(Offer{IsActive: true, ExpiresAt: &future}).Usable(now) {
		t.Fatal("active unexpired offer must be usable")
	}
	if !(Offer{IsActive: true}).Usable(now) {
		t.Fatal("active offer without expiry must be usable")
	}
}
