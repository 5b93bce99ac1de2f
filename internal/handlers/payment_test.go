package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/payments"
)

// fakeProvider stands in for the processor so payment flows can be
// exercised without Stripe.
type fakeProvider struct {
	intent    payments.Intent
	intentErr error
	event     payments.Event
	eventErr  error
}

func (f *fakeProvider) CreateIntent(ctx context.Context, amount int64, currency, orderID string) (payments.Intent, error) {
	return f.intent, f.intentErr
}

func (f *fakeProvider) GetIntent(ctx context.Context, intentID string) (payments.Intent, error) {
	return f.intent, f.intentErr
}

func (f *fakeProvider) ParseWebhook(payload []byte, signature string) (payments.Event, error) {
	return f.event, f.eventErr
}

func init() {
	gin.SetMode(gin.TestMode)
}

func pendingOrderStore() (*fakeOrderStore, primitive.ObjectID) {
	store := newFakeOrderStore()
	orderID := primitive.NewObjectID()
	store.orders[orderID] = models.Order{
		ID:            orderID,
		CustomerID:    primitive.NewObjectID(),
		ShopID:        primitive.NewObjectID(),
		Status:        models.OrderPending,
		PaymentMethod: models.MethodCard,
		PaymentStatus: models.PaymentPending,
	}
	return store, orderID
}

func postConfirm(store OrderStore, provider payments.Provider, orderID string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/payments/confirm/:orderId", ConfirmPayment(store, provider))

	body, _ := json.Marshal(confirmPaymentRequest{PaymentIntentID: "pi_123"})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/confirm/"+orderID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConfirmPaymentMarksPendingOrderPaid(t *testing.T) {
	store, orderID := pendingOrderStore()
	provider := &fakeProvider{intent: payments.Intent{ID: "pi_123", Status: payments.IntentSucceeded}}

	w := postConfirm(store, provider, orderID.Hex())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	settled := store.orders[orderID]
	assert.Equal(t, models.OrderConfirmed, settled.Status)
	assert.Equal(t, models.PaymentPaid, settled.PaymentStatus)
	assert.Equal(t, "pi_123", settled.PaymentID)
	assert.Equal(t, []string{"pi_123"}, store.settled)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	store, orderID := pendingOrderStore()
	provider := &fakeProvider{intent: payments.Intent{ID: "pi_123", Status: payments.IntentSucceeded}}

	first := postConfirm(store, provider, orderID.Hex())
	second := postConfirm(store, provider, orderID.Hex())

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	// Only the first delivery settles; the repeat must not extend the ledger.
	assert.Equal(t, []string{"pi_123"}, store.settled)
}

func TestConfirmPaymentRejectsUnsucceededIntent(t *testing.T) {
	store, orderID := pendingOrderStore()
	provider := &fakeProvider{
		intent: payments.Intent{ID: "pi_123", Status: "requires_payment_method"},
	}

	w := postConfirm(store, provider, orderID.Hex())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "payment not completed", resp["error"])
	assert.Equal(t, "requires_payment_method", resp["paymentStatus"])

	assert.Equal(t, models.PaymentPending, store.orders[orderID].PaymentStatus)
}

func TestConfirmPaymentRejectsMalformedOrderID(t *testing.T) {
	store, _ := pendingOrderStore()
	provider := &fakeProvider{intent: payments.Intent{ID: "pi_123", Status: payments.IntentSucceeded}}

	w := postConfirm(store, provider, "not-hex")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmPaymentSurfacesProcessorFailure(t *testing.T) {
	store, orderID := pendingOrderStore()
	provider := &fakeProvider{intentErr: errors.New("stripe unreachable")}

	w := postConfirm(store, provider, orderID.Hex())

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func postWebhook(store OrderStore, provider payments.Provider) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/payments/webhook", PaymentWebhook(store, provider))

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=valid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookConfirmsPendingOrderOnSuccess(t *testing.T) {
	store, orderID := pendingOrderStore()
	provider := &fakeProvider{
		event: payments.Event{
			ID:       "evt_1",
			Type:     payments.EventPaymentSucceeded,
			IntentID: "pi_123",
			OrderID:  orderID.Hex(),
		},
	}

	w := postWebhook(store, provider)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["received"])

	settled := store.orders[orderID]
	assert.Equal(t, models.OrderConfirmed, settled.Status)
	assert.Equal(t, models.PaymentPaid, settled.PaymentStatus)
	assert.Equal(t, "pi_123", settled.PaymentIntentID)
}

func TestWebhookRecordsFailureWithoutCancelling(t *testing.T) {
	store, orderID := pendingOrderStore()
	provider := &fakeProvider{
		event: payments.Event{
			ID:       "evt_2",
			Type:     payments.EventPaymentFailed,
			IntentID: "pi_123",
			OrderID:  orderID.Hex(),
		},
	}

	w := postWebhook(store, provider)

	assert.Equal(t, http.StatusOK, w.Code)

	failed := store.orders[orderID]
	assert.Equal(t, models.PaymentFailed, failed.PaymentStatus)
	// The order itself stays pending so the customer can retry.
	assert.Equal(t, models.OrderPending, failed.Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store, _ := pendingOrderStore()
	provider := &fakeProvider{eventErr: errors.New("signature mismatch")}

	r := gin.New()
	r.POST("/api/payments/webhook", PaymentWebhook(store, provider))

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader([]byte(`{"type":"payment_intent.succeeded"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=forged")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid signature", resp["error"])
}

func TestWebhookAcknowledgesUnrecognizedEventType(t *testing.T) {
	store, orderID := pendingOrderStore()
	provider := &fakeProvider{
		event: payments.Event{ID: "evt_1", Type: "charge.refunded"},
	}

	w := postWebhook(store, provider)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentPending, store.orders[orderID].PaymentStatus)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["received"])
}

func TestSettlementForSkipsAlreadyAppliedIntent(t *testing.T) {
	order := models.Order{
		ID:            primitive.NewObjectID(),
		Status:        models.OrderConfirmed,
		PaymentStatus: models.PaymentPaid,
		PaymentID:     "pi_123",
	}

	_, apply := settlementFor(order, "pi_123")
	assert.False(t, apply)
}

func TestSettlementForConfirmsPendingOrder(t *testing.T) {
	order := models.Order{
		ID:            primitive.NewObjectID(),
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
	}

	settle, apply := settlementFor(order, "pi_123")
	require.True(t, apply)
	assert.Equal(t, models.PaymentPaid, settle.PaymentStatus)
	assert.Equal(t, models.OrderConfirmed, settle.OrderStatus)
}

func TestSettlementForLeavesCancelledOrderStatusAlone(t *testing.T) {
	order := models.Order{
		ID:            primitive.NewObjectID(),
		Status:        models.OrderCancelled,
		PaymentStatus: models.PaymentPending,
	}

	settle, apply := settlementFor(order, "pi_123")
	require.True(t, apply)
	assert.Equal(t, models.PaymentPaid, settle.PaymentStatus)
	assert.Empty(t, settle.OrderStatus)
}

func TestGetPaymentStatusReportsProcessorState(t *testing.T) {
	provider := &fakeProvider{
		intent: payments.Intent{ID: "pi_123", Status: "processing"},
	}

	r := gin.New()
	r.GET("/api/payments/status/:paymentIntentId", GetPaymentStatus(provider))

	req := httptest.NewRequest(http.MethodGet, "/api/payments/status/pi_123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pi_123", resp["paymentIntentId"])
	assert.Equal(t, "processing", resp["status"])
}
