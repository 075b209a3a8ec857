// Package booking orchestrates the two halves of the reservation workflow:
// quote issuance before payment, and commit after payment confirmation.
// All durable state lives in the remote ledger; this layer sequences calls
// and owns the partial-failure policy.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fleetbook/internal/audit"
	"fleetbook/internal/booking/metrics"
	"fleetbook/internal/booking/ports"
	"fleetbook/internal/domain"
	dErrors "fleetbook/pkg/domain-errors"
)

// feeMultiplier converts the ledger's quoted total into the payable amount,
// absorbing the gateway's fixed 2.36% fee plus tax.
const feeMultiplier = 1.0236

// PaymentLink is the outcome of a successful quote flow. No Transaction
// exists yet; the ledger holds a quote until the link is paid.
type PaymentLink struct {
	BookingID uint64  `json:"booking_id"`
	Amount    float64 `json:"amount"`
	URL       string  `json:"payment_link"`
}

// Service sequences validation, availability, payment and commit. It holds
// no booking state of its own.
type Service struct {
	ledger      ports.LedgerPort
	payment     ports.PaymentPort
	notifier    ports.NotifierPort
	idempotency ports.IdempotencyStore
	audit       *audit.Service
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewService(
	ledger ports.LedgerPort,
	payment ports.PaymentPort,
	notifier ports.NotifierPort,
	idempotency ports.IdempotencyStore,
	auditSvc *audit.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		ledger:      ledger,
		payment:     payment,
		notifier:    notifier,
		idempotency: idempotency,
		audit:       auditSvc,
		metrics:     m,
		logger:      logger,
	}
}

// CreatePaymentLink runs the quote flow: hold the car on the ledger with the
// caller's delegated authority, then issue a payment link for the quoted
// total plus gateway fee. Nothing durable is created here beyond the
// ledger's own hold; any failure is terminal for this attempt.
func (s *Service) CreatePaymentLink(ctx context.Context, req domain.CreateBookingRequest) (*PaymentLink, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuoteLatency(time.Since(start)) }()

	quote, err := s.ledger.QuoteAvailability(ctx, req.IdentityWire, req.CarID, req.Window, req.Customer)
	if err != nil {
		s.logger.WarnContext(ctx, "availability quote failed",
			"car_id", req.CarID,
			"error", err)
		s.emitAudit(ctx, audit.Event{
			Action:   audit.ActionQuoteRejected,
			CarID:    req.CarID,
			Decision: "rejected",
			Reason:   dErrors.MessageOf(err),
		})
		return nil, err
	}

	amount := quote.TotalAmount * feeMultiplier
	url, err := s.payment.CreatePaymentLink(ctx, amount, quote.BookingID, req.Customer)
	if err != nil {
		s.logger.ErrorContext(ctx, "payment link issuance failed",
			"booking_id", quote.BookingID,
			"error", err)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "payment gateway unavailable", err)
	}

	s.metrics.RecordPaymentLink()
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionQuoteIssued,
		BookingID: quote.BookingID,
		CarID:     req.CarID,
		Decision:  "issued",
	})
	s.logger.InfoContext(ctx, "payment link issued",
		"booking_id", quote.BookingID,
		"car_id", req.CarID)

	return &PaymentLink{BookingID: quote.BookingID, Amount: amount, URL: url}, nil
}

// ConfirmBooking runs the commit flow, acting with the service's own
// administrative authority. The reserve call is the durable commit point:
// once it succeeds, metric or notification failures never revert it.
func (s *Service) ConfirmBooking(ctx context.Context, bookingID uint64, proof ports.PaymentProof) (*domain.Transaction, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveCommitLatency(time.Since(start)) }()

	claimed, err := s.idempotency.Claim(ctx, bookingID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "idempotency check failed", err)
	}
	if !claimed {
		s.metrics.RecordDuplicate()
		s.logger.WarnContext(ctx, "duplicate booking confirmation ignored",
			"booking_id", bookingID)
		return nil, dErrors.New(dErrors.CodeConflict, "booking already confirmed")
	}

	record, err := s.ledger.CommitReservation(ctx, bookingID, proof)
	if err != nil {
		s.metrics.RecordFailure()
		s.emitAudit(ctx, audit.Event{
			Action:    audit.ActionBookingConfirmFailed,
			BookingID: bookingID,
			Decision:  "failed",
			Reason:    dErrors.MessageOf(err),
		})
		// The claim is released so a retry can reach the ledger again; the
		// ledger remains the authority on true duplicates.
		if relErr := s.idempotency.Release(ctx, bookingID); relErr != nil {
			s.logger.ErrorContext(ctx, "failed to release idempotency claim",
				"booking_id", bookingID,
				"error", relErr)
		}
		return nil, err
	}

	tx, err := transactionFromRecord(record)
	if err != nil {
		s.metrics.RecordFailure()
		s.logger.ErrorContext(ctx, "ledger returned malformed booking record",
			"booking_id", bookingID,
			"error", err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "malformed ledger record", err)
	}

	s.metrics.RecordSuccess()
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionBookingConfirmed,
		BookingID: tx.BookingID,
		CarID:     tx.CarID,
		Decision:  "confirmed",
	})
	s.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", tx.BookingID,
		"car_id", tx.CarID)

	if err := s.notifier.Notify(ctx, *tx); err != nil {
		// Fire-and-forget: the commit already happened.
		s.logger.WarnContext(ctx, "booking notification failed",
			"booking_id", tx.BookingID,
			"error", err)
	}

	return tx, nil
}

// Principal reports the administrative identity's public address.
func (s *Service) Principal() string {
	return s.ledger.Principal()
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err)
	}
}

// transactionFromRecord rebuilds a domain Transaction from the ledger's
// committed record, re-validating every customer field through the same
// parsers used on input. A malformed remote response can never produce a
// Transaction. Timestamps are taken as committed: the window may already
// have started by the time payment confirmation arrives.
func transactionFromRecord(record *ports.ConfirmedRecord) (*domain.Transaction, error) {
	name, err := domain.ParseUserName(record.Name)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	email, err := domain.ParseEmailAddress(record.Email)
	if err != nil {
		return nil, fmt.Errorf("email: %w", err)
	}
	age, err := domain.ParseAge(record.Age)
	if err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}
	mobile, err := domain.ParseMobileNumber(record.Mobile)
	if err != nil {
		return nil, fmt.Errorf("mobile: %w", err)
	}
	pan, err := domain.ParsePAN(record.PAN)
	if err != nil {
		return nil, fmt.Errorf("pan: %w", err)
	}
	aadhar, err := domain.ParseAadhar(record.Aadhar)
	if err != nil {
		return nil, fmt.Errorf("aadhar: %w", err)
	}

	customer := domain.Customer{
		Name:        name,
		Email:       email,
		Age:         age,
		CountryCode: record.CountryCode,
		Mobile:      mobile,
		PAN:         pan,
		Aadhar:      aadhar,
	}
	window := domain.Window{
		Start: domain.StartTime(record.StartNS / uint64(time.Second)),
		End:   domain.EndTime(record.EndNS / uint64(time.Second)),
	}
	tx := domain.NewTransaction(record.BookingID, record.CarID, customer, window)
	return &tx, nil
}
