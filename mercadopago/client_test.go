package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPreapproval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/preapproval/sub_123", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "sub_123",
			"status": "authorized",
			"payer_email": "a@x.com",
			"external_reference": "pro_999",
			"auto_recurring": {"frequency": 1, "frequency_type": "months", "transaction_amount": 3000, "currency_id": "ARS"}
		}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	preapproval, err := client.GetPreapproval(context.Background(), "sub_123")

	assert.NoError(t, err)
	assert.Equal(t, "sub_123", preapproval.ID)
	assert.Equal(t, "authorized", preapproval.Status)
	assert.Equal(t, "a@x.com", preapproval.PayerEmail)
	assert.Equal(t, "pro_999", preapproval.ExternalReference)
	if assert.NotNil(t, preapproval.AutoRecurring) {
		assert.Equal(t, 3000.0, preapproval.AutoRecurring.TransactionAmount)
		assert.Equal(t, "ARS", preapproval.AutoRecurring.CurrencyID)
	}
}

func TestCreatePreapproval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/preapproval", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req PreapprovalRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@x.com", req.PayerEmail)
		assert.Equal(t, "pro_user-uuid-1", req.ExternalReference)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "sub_new", "status": "pending", "init_point": "https://www.mercadopago.com/checkout/abc"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	preapproval, err := client.CreatePreapproval(context.Background(), PreapprovalRequest{
		Reason:            "Subscription Pro plan",
		PayerEmail:        "a@x.com",
		ExternalReference: "pro_user-uuid-1",
		Status:            "pending",
		AutoRecurring:     &AutoRecurring{Frequency: 1, FrequencyType: "months", TransactionAmount: 3000, CurrencyID: "ARS"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "sub_new", preapproval.ID)
	assert.Equal(t, "https://www.mercadopago.com/checkout/abc", preapproval.InitPoint)
}

func TestCancelPreapproval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/preapproval/sub_123", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cancelled", body["status"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "sub_123", "status": "cancelled"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	preapproval, err := client.CancelPreapproval(context.Background(), "sub_123")

	assert.NoError(t, err)
	assert.Equal(t, "cancelled", preapproval.Status)
}

func TestGetPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/77001", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 77001, "status": "approved", "transaction_amount": 3000, "currency_id": "ARS", "payment_method_id": "visa"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	payment, err := client.GetPayment(context.Background(), "77001")

	assert.NoError(t, err)
	assert.Equal(t, int64(77001), payment.ID)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, 3000.0, payment.TransactionAmount)
}

func TestClientError_IncludesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Preapproval not found"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	preapproval, err := client.GetPreapproval(context.Background(), "sub_404")

	assert.Nil(t, preapproval)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "Preapproval not found")
}
