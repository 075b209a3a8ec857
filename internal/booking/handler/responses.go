package handler

import (
	"fleetbook/internal/booking"
	"fleetbook/internal/domain"
)

// PaymentLinkResponse is the body returned for a successful quote.
type PaymentLinkResponse struct {
	BookingID   uint64  `json:"booking_id"`
	Amount      float64 `json:"amount"`
	PaymentLink string  `json:"payment_link"`
}

func FromPaymentLink(link *booking.PaymentLink) PaymentLinkResponse {
	return PaymentLinkResponse{
		BookingID:   link.BookingID,
		Amount:      link.Amount,
		PaymentLink: link.URL,
	}
}

// TransactionResponse is the body returned for a confirmed booking.
type TransactionResponse struct {
	BookingID      uint64 `json:"booking_id"`
	CarID          uint64 `json:"car_id"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	StartTimestamp uint64 `json:"start_timestamp"`
	EndTimestamp   uint64 `json:"end_timestamp"`
}

func FromTransaction(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		BookingID:      tx.BookingID,
		CarID:          tx.CarID,
		CustomerName:   string(tx.Customer.Name),
		CustomerEmail:  string(tx.Customer.Email),
		StartTimestamp: uint64(tx.Window.Start),
		EndTimestamp:   uint64(tx.Window.End),
	}
}

// PrincipalResponse reports the service's administrative principal.
type PrincipalResponse struct {
	Principal string `json:"principal"`
}
