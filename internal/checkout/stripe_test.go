package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing session", &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing, Msg: "No such checkout.session"}, ErrSessionNotFound},
		{"bad request", &stripe.Error{HTTPStatusCode: 400, Msg: "Invalid currency"}, ErrRejected},
		{"server error", &stripe.Error{HTTPStatusCode: 502}, ErrUnavailable},
		{"rate limited", &stripe.Error{HTTPStatusCode: 429}, ErrUnavailable},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), ErrTimeout},
		{"network", errors.New("dial tcp: connection refused"), ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err), tt.want)
		})
	}
}

func TestToSession(t *testing.T) {
	s := toSession(&stripe.CheckoutSession{
		ID:              "cs_1",
		URL:             "https://checkout.example/cs_1",
		PaymentIntent:   &stripe.PaymentIntent{ID: "pi_1"},
		PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:     2500,
		Currency:        stripe.CurrencyUSD,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "a@example.com"},
		Metadata:        map[string]string{MetaOrderID: "o1"},
	})
	assert.Equal(t, "pi_1", s.PaymentIntentID)
	assert.Equal(t, "a@example.com", s.CustomerEmail)
	assert.Equal(t, "usd", s.Currency)
	assert.Equal(t, "o1", s.Metadata[MetaOrderID])
	assert.True(t, s.Paid())

	empty := toSession(&stripe.CheckoutSession{ID: "cs_2", PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid})
	assert.Empty(t, empty.PaymentIntentID)
	assert.NotNil(t, empty.Metadata)
	assert.False(t, empty.Paid())
}

func newTestProvider(t *testing.T, h http.HandlerFunc) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeProvider("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestRetrieveSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v1/checkout/sessions/cs_live" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session"}}`)
			return
		}
		fmt.Fprint(w, `{"id":"cs_live","object":"checkout.session","payment_intent":"pi_9","payment_status":"paid","amount_total":2500,"currency":"usd","customer_email":"b@example.com","metadata":{"orderId":"o9"}}`)
	})

	s, err := p.RetrieveSession(context.Background(), "cs_live")
	require.NoError(t, err)
	assert.Equal(t, "pi_9", s.PaymentIntentID)
	assert.Equal(t, int64(2500), s.AmountTotal)
	assert.Equal(t, "o9", s.Metadata[MetaOrderID])

	_, err = p.RetrieveSession(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
