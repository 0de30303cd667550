package storefront

import (
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOK() {
	gock.New(testBaseURL).
		Get("/api/health").
		Reply(200).
		JSON(map[string]string{"status": "ok", "timestamp": "2026-08-31T12:00:00Z", "env": "test"})
}

func testProduct() Product {
	return Product{
		ID:          "1",
		Name:        "1oz Gold Bar",
		Description: "999.9 Fine Gold LBMA Certified",
		Price:       2050.00,
	}
}

func TestFlowStartsIdle(t *testing.T) {
	flow := NewFlow(NewClient(testBaseURL))
	assert.Equal(t, StateIdle, flow.State())
	assert.Empty(t, flow.AttemptID())
}

func TestFlowCheckoutHappyPath(t *testing.T) {
	client := newGockClient(t)
	flow := NewFlow(client)

	healthOK()
	gock.New(testBaseURL).
		Post("/api/create-checkout-session").
		Reply(200).
		JSON(map[string]string{
			"sessionId": "cs_test_1",
			"url":       "https://checkout.stripe.com/c/pay/cs_test_1",
		})

	redirectURL, err := flow.Checkout(context.Background(), testProduct(), "https://shop.example.com/success", "https://shop.example.com/cancel")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", redirectURL)
	assert.Equal(t, StateRedirecting, flow.State())
	assert.NotEmpty(t, flow.AttemptID())
	assert.NoError(t, flow.Err())
}

func TestFlowCheckoutHealthFailure(t *testing.T) {
	client := newGockClient(t)
	flow := NewFlow(client)

	gock.New(testBaseURL).
		Get("/api/health").
		Reply(503)

	_, err := flow.Checkout(context.Background(), testProduct(), "https://s", "https://c")
	require.ErrorIs(t, err, ErrServerUnavailable)
	assert.Equal(t, StateFailed, flow.State())
	assert.ErrorIs(t, flow.Err(), ErrServerUnavailable)
}

func TestFlowCheckoutSessionFailure(t *testing.T) {
	client := newGockClient(t)
	flow := NewFlow(client)

	healthOK()
	gock.New(testBaseURL).
		Post("/api/create-checkout-session").
		Reply(500).
		JSON(map[string]string{"error": "checkout_error"})

	_, err := flow.Checkout(context.Background(), testProduct(), "https://s", "https://c")
	require.Error(t, err)
	assert.Equal(t, StateFailed, flow.State())
}

func TestFlowCheckoutMissingSessionID(t *testing.T) {
	client := newGockClient(t)
	flow := NewFlow(client)

	healthOK()
	gock.New(testBaseURL).
		Post("/api/create-checkout-session").
		Reply(200).
		JSON(map[string]string{"url": "https://checkout.stripe.com"})

	_, err := flow.Checkout(context.Background(), testProduct(), "https://s", "https://c")
	require.ErrorIs(t, err, ErrNoSessionCreated)
	assert.Equal(t, StateFailed, flow.State())
}

func TestFlowResetAfterFailure(t *testing.T) {
	client := newGockClient(t)
	flow := NewFlow(client)

	gock.New(testBaseURL).
		Get("/api/health").
		Reply(503)

	_, err := flow.Checkout(context.Background(), testProduct(), "https://s", "https://c")
	require.Error(t, err)
	require.Equal(t, StateFailed, flow.State())

	flow.Reset()
	assert.Equal(t, StateIdle, flow.State())
	assert.NoError(t, flow.Err())
}

func TestFlowVerifyWithoutSessionIDSkipsNetwork(t *testing.T) {
	client := newGockClient(t)
	flow := NewFlow(client)

	result := flow.Verify(context.Background(), "  ")
	require.ErrorIs(t, result.Err(), ErrMissingSessionID)
	assert.False(t, result.Pending())

	_, ok := result.OK()
	assert.False(t, ok)
	assert.True(t, gock.IsDone(), "no HTTP call expected")
}

func TestFlowVerifySuccess(t *testing.T) {
	client := newGockClient(t)
	flow := NewFlow(client)

	gock.New(testBaseURL).
		Get("/api/verify-session/cs_test_1").
		Reply(200).
		JSON(map[string]any{
			"status":   "paid",
			"customer": map[string]string{"email": "buyer@example.com", "name": "Ada Buyer"},
		})

	result := flow.Verify(context.Background(), "cs_test_1")
	verification, ok := result.OK()
	require.True(t, ok)
	assert.Equal(t, "paid", verification.Status)
	assert.Equal(t, "Ada Buyer", verification.CustomerName)
}

func TestResultStates(t *testing.T) {
	pending := PendingResult()
	assert.True(t, pending.Pending())
	_, ok := pending.OK()
	assert.False(t, ok)
	assert.NoError(t, pending.Err())

	success := OKResult(VerifyResponse{Status: "paid"})
	verification, ok := success.OK()
	assert.True(t, ok)
	assert.Equal(t, "paid", verification.Status)
}
