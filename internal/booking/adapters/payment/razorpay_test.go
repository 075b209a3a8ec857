package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain"
	"fleetbook/internal/platform/config"
)

func testCustomer(t *testing.T) domain.Customer {
	t.Helper()
	name, err := domain.ParseUserName("Asha Rao")
	require.NoError(t, err)
	email, err := domain.ParseEmailAddress("asha@example.com")
	require.NoError(t, err)
	age, err := domain.ParseAge(30)
	require.NoError(t, err)
	mobile, err := domain.ParseMobileNumber("9876543210")
	require.NoError(t, err)
	pan, err := domain.ParsePAN("ABCDE1234F")
	require.NoError(t, err)
	aadhar, err := domain.ParseAadhar("123456789012")
	require.NoError(t, err)
	return domain.Customer{
		Name:        name,
		Email:       email,
		Age:         age,
		CountryCode: 91,
		Mobile:      mobile,
		PAN:         pan,
		Aadhar:      aadhar,
	}
}

func TestCreatePaymentLink(t *testing.T) {
	var got linkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment_links", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(linkResponse{ID: "plink_1", ShortURL: "https://rzp.io/l/abc"})
	}))
	defer srv.Close()

	gw := NewRazorpay(config.PaymentConfig{
		BaseURL:     srv.URL,
		Key:         "key_test",
		Secret:      "secret_test",
		CallbackURL: "https://fleetbook.example.com/paid",
	}, 5*time.Second)

	url, err := gw.CreatePaymentLink(context.Background(), 1023.60, 42, testCustomer(t))
	require.NoError(t, err)
	assert.Equal(t, "https://rzp.io/l/abc", url)

	assert.Equal(t, int64(102360), got.Amount, "amount crosses the API in paise")
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "42", got.ReferenceID, "link is keyed by booking id")
	assert.Equal(t, "+919876543210", got.Customer.Contact)
	assert.Equal(t, "https://fleetbook.example.com/paid", got.CallbackURL)
}

func TestCreatePaymentLinkRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"amount too low"}}`))
	}))
	defer srv.Close()

	gw := NewRazorpay(config.PaymentConfig{BaseURL: srv.URL}, 5*time.Second)
	_, err := gw.CreatePaymentLink(context.Background(), 0.001, 1, testCustomer(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too low")
}

func TestCreatePaymentLinkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	gw := NewRazorpay(config.PaymentConfig{BaseURL: srv.URL}, time.Second)
	_, err := gw.CreatePaymentLink(context.Background(), 100, 1, testCustomer(t))
	require.Error(t, err)
}
