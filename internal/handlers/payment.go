package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
	"backend/internal/payments"
)

type createIntentRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency"`
	OrderID  string `json:"orderId" binding:"required"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

/* =========================
   INTENT CREATION
========================= */

// CreatePaymentIntent asks the processor for a trackable intent tied to an
// order. The order stays pending/pending; only confirmation or the webhook
// move payment state.
func CreatePaymentIntent(store OrderStore, provider payments.Provider, defaultCurrency string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/create-intent"
		defer handlePanic(c, route)

		var req createIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.OrderID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		currency := strings.ToLower(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = defaultCurrency
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		if _, err := store.orderByID(ctx, orderID); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		intent, err := provider.CreateIntent(ctx, req.Amount, currency, orderID.Hex())
		if err != nil {
			log.Println("[PAYMENT] [ERROR] intent creation failed:", err)
			respondWithError(c, http.StatusBadGateway, route, "payment intent creation failed")
			return
		}

		if err := store.recordPaymentIntent(ctx, orderID, intent.ID); err != nil {
			log.Println("[PAYMENT] [ERROR] intent id save failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[PAYMENT] [INFO] intent", intent.ID, "created for order", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{
			"clientSecret":    intent.ClientSecret,
			"paymentIntentId": intent.ID,
		})
	}
}

/* =========================
   SYNCHRONOUS CONFIRMATION
========================= */

// ConfirmPayment finalizes an order after the client reports a successful
// payment. The processor is re-queried rather than trusting the client's
// claim; anything other than "succeeded" is rejected with the reported
// status and leaves the order untouched.
func ConfirmPayment(store OrderStore, provider payments.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/confirm/:orderId"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		intent, err := provider.GetIntent(ctx, strings.TrimSpace(req.PaymentIntentID))
		if err != nil {
			log.Println("[PAYMENT] [ERROR] intent lookup failed:", err)
			respondWithError(c, http.StatusBadGateway, route, "payment status lookup failed")
			return
		}

		if intent.Status != payments.IntentSucceeded {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "payment not completed",
				"paymentStatus": intent.Status,
			})
			return
		}

		order, err := store.orderByID(ctx, orderID)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updated, applied, err := store.settlePayment(ctx, order, intent.ID, models.SourceConfirm)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] confirm apply failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !applied {
			log.Println("[PAYMENT] [INFO] confirm skipped, intent", intent.ID, "already applied to order", orderID.Hex())
		}

		c.JSON(http.StatusOK, expandOrder(ctx, store, updated))
	}
}

/* =========================
   STATUS QUERY
========================= */

func GetPaymentStatus(provider payments.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/payments/status/:paymentIntentId"
		defer handlePanic(c, route)

		intentID := strings.TrimSpace(c.Param("paymentIntentId"))
		if intentID == "" {
			respondWithError(c, http.StatusBadRequest, route, "paymentIntentId is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		intent, err := provider.GetIntent(ctx, intentID)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] intent lookup failed:", err)
			respondWithError(c, http.StatusBadGateway, route, "payment status lookup failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"paymentIntentId": intent.ID,
			"status":          intent.Status,
		})
	}
}

/* =========================
   WEBHOOK RECONCILIATION
========================= */

// PaymentWebhook applies processor-pushed events to orders independent of
// any client session. Signature verification failures are the only 400;
// once an event verifies, the processor always gets a 200 so it will not
// retry forever against an order that cannot be matched.
func PaymentWebhook(store OrderStore, provider payments.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/webhook"
		defer handlePanic(c, route)

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "unreadable payload")
			return
		}

		event, err := provider.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			log.Println("[WEBHOOK] [ERROR] signature verification failed:", err)
			respondWithError(c, http.StatusBadRequest, route, "invalid signature")
			return
		}

		switch event.Type {
		case payments.EventPaymentSucceeded, payments.EventPaymentFailed:
			// handled below
		default:
			log.Println("[WEBHOOK] [INFO] ignoring event type:", event.Type)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(event.OrderID)
		if err != nil {
			log.Println("[WEBHOOK] [ERROR] event", event.ID, "has no usable order metadata")
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		order, err := store.orderByID(ctx, orderID)
		if err == mongo.ErrNoDocuments {
			log.Println("[WEBHOOK] [ERROR] no order matches event", event.ID, "order", event.OrderID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		if err != nil {
			log.Println("[WEBHOOK] [ERROR] order lookup failed:", err)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		switch event.Type {
		case payments.EventPaymentSucceeded:
			if _, applied, err := store.settlePayment(ctx, order, event.IntentID, models.SourceWebhook); err != nil {
				log.Println("[WEBHOOK] [ERROR] success apply failed:", err)
			} else if applied {
				log.Println("[WEBHOOK] [INFO] order", orderID.Hex(), "confirmed via webhook")
			}
		case payments.EventPaymentFailed:
			if err := store.failPayment(ctx, order, event.IntentID); err != nil {
				log.Println("[WEBHOOK] [ERROR] failure apply failed:", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

/* =========================
   SETTLEMENT DECISION
========================= */

// paymentSettlement is what a succeeded intent writes to an order's cached
// payment projection. OrderStatus is empty when the status machine blocks
// confirmation (for example a cancelled order).
type paymentSettlement struct {
	PaymentStatus string
	OrderStatus   string
}

// settlementFor decides the projection update for a succeeded intent. The
// second return is false when the same intent was already applied, which
// makes repeat deliveries of the confirm call or the webhook no-ops.
func settlementFor(order models.Order, intentID string) (paymentSettlement, bool) {
	if order.PaymentID == intentID && models.TerminalPaymentStatus(order.PaymentStatus) {
		return paymentSettlement{}, false
	}

	settle := paymentSettlement{PaymentStatus: models.PaymentPaid}
	if models.CanTransition(order.Status, models.OrderConfirmed) {
		settle.OrderStatus = models.OrderConfirmed
	}
	return settle, true
}
