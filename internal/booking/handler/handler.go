package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetbook/internal/booking"
	"fleetbook/internal/booking/ports"
	"fleetbook/internal/domain"
	"fleetbook/pkg/platform/httputil"
	"fleetbook/pkg/requestcontext"
)

// Service defines the interface for booking operations.
type Service interface {
	CreatePaymentLink(ctx context.Context, req domain.CreateBookingRequest) (*booking.PaymentLink, error)
	ConfirmBooking(ctx context.Context, bookingID uint64, proof ports.PaymentProof) (*domain.Transaction, error)
	Principal() string
}

// Handler wires booking endpoints to the booking service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a booking handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public booking endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/bookings/payment-link", h.HandlePaymentLink)
	r.Get("/principal", h.HandlePrincipal)
}

// RegisterProtected mounts the endpoints reserved for authenticated service
// callers (the payment webhook path).
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/bookings/confirm", h.HandleConfirm)
}

// HandlePaymentLink handles POST /bookings/payment-link requests.
func (h *Handler) HandlePaymentLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[PaymentLinkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	domainReq, err := req.ToDomain(requestcontext.Now(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "booking request validation failed",
			"request_id", requestID,
			"car_id", req.CarID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	link, err := h.service.CreatePaymentLink(ctx, domainReq)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment link created",
		"request_id", requestID,
		"booking_id", link.BookingID,
		"car_id", req.CarID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromPaymentLink(link))
}

// HandleConfirm handles POST /bookings/confirm requests.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ConfirmRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tx, err := h.service.ConfirmBooking(ctx, req.BookingID, ports.PaymentProof{
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "booking confirmation failed",
			"request_id", requestID,
			"booking_id", req.BookingID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "booking confirmed",
		"request_id", requestID,
		"booking_id", tx.BookingID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromTransaction(tx))
}

// HandlePrincipal handles GET /principal requests.
func (h *Handler) HandlePrincipal(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, PrincipalResponse{Principal: h.service.Principal()})
}
