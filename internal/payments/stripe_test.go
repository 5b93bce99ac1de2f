package payments

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedHeader(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func TestParseWebhookAcceptsValidSignature(t *testing.T) {
	p := NewStripeProvider("sk_test_key", testWebhookSecret)

	payload := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "pi_123",
				"object": "payment_intent",
				"metadata": {"orderId": "66f0c0ffee0ddba11ad0beef"}
			}
		}
	}`)

	event, err := p.ParseWebhook(payload, signedHeader(t, payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "pi_123", event.IntentID)
	assert.Equal(t, "66f0c0ffee0ddba11ad0beef", event.OrderID)
}

func TestParseWebhookRejectsWrongSecret(t *testing.T) {
	p := NewStripeProvider("sk_test_key", testWebhookSecret)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	header := signedHeader(t, payload, "whsec_other_secret")

	_, err := p.ParseWebhook(payload, header)
	assert.Error(t, err)
}

func TestParseWebhookRejectsTamperedPayload(t *testing.T) {
	p := NewStripeProvider("sk_test_key", testWebhookSecret)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	header := signedHeader(t, payload, testWebhookSecret)

	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_999"}}}`)
	_, err := p.ParseWebhook(tampered, header)
	assert.Error(t, err)
}

func TestParseWebhookRejectsGarbageHeader(t *testing.T) {
	p := NewStripeProvider("sk_test_key", testWebhookSecret)

	_, err := p.ParseWebhook([]byte(`{}`), "not-a-signature")
	assert.Error(t, err)
}

func TestParseWebhookLeavesUnknownEventsUnreduced(t *testing.T) {
	p := NewStripeProvider("sk_test_key", testWebhookSecret)

	payload := []byte(`{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)
	event, err := p.ParseWebhook(payload, signedHeader(t, payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, "charge.refunded", event.Type)
	assert.Empty(t, event.IntentID)
	assert.Empty(t, event.OrderID)
}
