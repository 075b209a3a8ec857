// Package payment implements the payment port against the Razorpay
// payment-links API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleetbook/internal/domain"
	"fleetbook/internal/platform/config"
)

// Razorpay issues hosted payment links. Amounts cross the API in minor
// currency units (paise).
type Razorpay struct {
	baseURL     string
	key         string
	secret      string
	callbackURL string
	httpClient  *http.Client
}

func NewRazorpay(cfg config.PaymentConfig, timeout time.Duration) *Razorpay {
	return &Razorpay{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		key:         cfg.Key,
		secret:      cfg.Secret,
		callbackURL: cfg.CallbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type linkCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type linkRequest struct {
	Amount         int64        `json:"amount"`
	Currency       string       `json:"currency"`
	ReferenceID    string       `json:"reference_id"`
	Description    string       `json:"description"`
	Customer       linkCustomer `json:"customer"`
	CallbackURL    string       `json:"callback_url,omitempty"`
	CallbackMethod string       `json:"callback_method,omitempty"`
}

type linkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

type apiError struct {
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
}

// CreatePaymentLink creates a hosted link for amount (base currency units),
// keyed to the booking id so the webhook can correlate the payment back.
func (r *Razorpay) CreatePaymentLink(ctx context.Context, amount float64, bookingID uint64, customer domain.Customer) (string, error) {
	bookingRef := strconv.FormatUint(bookingID, 10)
	body, err := json.Marshal(linkRequest{
		Amount:      int64(math.Round(amount * 100)),
		Currency:    "INR",
		ReferenceID: bookingRef,
		Description: "Car booking " + bookingRef,
		Customer: linkCustomer{
			Name:    string(customer.Name),
			Email:   string(customer.Email),
			Contact: fmt.Sprintf("+%d%s", customer.CountryCode, customer.Mobile),
		},
		CallbackURL:    r.callbackURL,
		CallbackMethod: "get",
	})
	if err != nil {
		return "", fmt.Errorf("encode payment link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/payment_links", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build payment link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.key, r.secret)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment link call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Description != "" {
			return "", fmt.Errorf("payment link refused: %s", apiErr.Error.Description)
		}
		return "", fmt.Errorf("payment link refused: http %d", resp.StatusCode)
	}

	var link linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", fmt.Errorf("decode payment link response: %w", err)
	}
	if link.ShortURL == "" {
		return "", fmt.Errorf("payment link response missing short_url")
	}
	return link.ShortURL, nil
}
