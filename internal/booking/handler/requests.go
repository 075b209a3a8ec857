package handler

import (
	"encoding/json"
	"time"

	"fleetbook/internal/domain"
	dErrors "fleetbook/pkg/domain-errors"
)

// CustomerPayload is the customer section of a booking request body.
type CustomerPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Age         uint8  `json:"age"`
	CountryCode uint16 `json:"country_code"`
	Mobile      string `json:"mobile_number"`
	PAN         string `json:"pan"`
	Aadhar      string `json:"aadhar"`
}

// PaymentLinkRequest is the HTTP request body for POST /bookings/payment-link.
// Identity carries the caller's delegation wire; it is a bearer credential
// and must never be echoed or logged.
type PaymentLinkRequest struct {
	Customer       CustomerPayload `json:"customer"`
	CarID          uint64          `json:"car_id"`
	StartTimestamp uint64          `json:"start_timestamp"`
	EndTimestamp   uint64          `json:"end_timestamp"`
	Identity       json.RawMessage `json:"identity"`
}

// Validate checks structural requirements. Field-level parsing happens in
// ToDomain, which needs the request time.
func (r *PaymentLinkRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.CarID == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "car_id is required")
	}
	if len(r.Identity) == 0 {
		return dErrors.New(dErrors.CodeUnauthorized, "identity is required")
	}
	return nil
}

// ToDomain parses the body into value objects, failing fast on the first
// invalid field.
func (r *PaymentLinkRequest) ToDomain(now time.Time) (domain.CreateBookingRequest, error) {
	var zero domain.CreateBookingRequest

	name, err := domain.ParseUserName(r.Customer.Name)
	if err != nil {
		return zero, err
	}
	email, err := domain.ParseEmailAddress(r.Customer.Email)
	if err != nil {
		return zero, err
	}
	age, err := domain.ParseAge(r.Customer.Age)
	if err != nil {
		return zero, err
	}
	mobile, err := domain.ParseMobileNumber(r.Customer.Mobile)
	if err != nil {
		return zero, err
	}
	pan, err := domain.ParsePAN(r.Customer.PAN)
	if err != nil {
		return zero, err
	}
	aadhar, err := domain.ParseAadhar(r.Customer.Aadhar)
	if err != nil {
		return zero, err
	}
	start, err := domain.ParseStartTime(r.StartTimestamp, now)
	if err != nil {
		return zero, err
	}
	end, err := domain.ParseEndTime(r.EndTimestamp, start)
	if err != nil {
		return zero, err
	}

	return domain.CreateBookingRequest{
		Customer: domain.Customer{
			Name:        name,
			Email:       email,
			Age:         age,
			CountryCode: r.Customer.CountryCode,
			Mobile:      mobile,
			PAN:         pan,
			Aadhar:      aadhar,
		},
		CarID:        r.CarID,
		Window:       domain.Window{Start: start, End: end},
		IdentityWire: r.Identity,
	}, nil
}

// ConfirmRequest is the HTTP request body for POST /bookings/confirm,
// submitted by the payment webhook path.
type ConfirmRequest struct {
	BookingID uint64  `json:"booking_id"`
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
}

func (r *ConfirmRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.BookingID == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "booking_id is required")
	}
	if r.PaymentID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "payment_id is required")
	}
	return nil
}
