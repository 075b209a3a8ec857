package booking

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/audit"
	"fleetbook/internal/booking/metrics"
	"fleetbook/internal/booking/ports"
	"fleetbook/internal/booking/store/idempotency"
	"fleetbook/internal/domain"
	dErrors "fleetbook/pkg/domain-errors"
)

// Shared across tests: promauto registers against the default registry, so
// metrics are created once and asserted by delta.
var testMetrics = metrics.New()

type fakeLedgerPort struct {
	quote     *ports.Quote
	quoteErr  error
	record    *ports.ConfirmedRecord
	commitErr error

	quoteCalls  int
	commitCalls int
	gotProof    ports.PaymentProof
}

func (f *fakeLedgerPort) QuoteAvailability(_ context.Context, _ json.RawMessage, _ uint64, _ domain.Window, _ domain.Customer) (*ports.Quote, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeLedgerPort) CommitReservation(_ context.Context, bookingID uint64, proof ports.PaymentProof) (*ports.ConfirmedRecord, error) {
	f.commitCalls++
	f.gotProof = proof
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	rec := *f.record
	rec.BookingID = bookingID
	return &rec, nil
}

func (f *fakeLedgerPort) Principal() string { return "fleet-admin-principal" }

type fakePayment struct {
	url  string
	err  error
	seen []float64

	gotBookingID uint64
}

func (f *fakePayment) CreatePaymentLink(_ context.Context, amount float64, bookingID uint64, _ domain.Customer) (string, error) {
	f.seen = append(f.seen, amount)
	f.gotBookingID = bookingID
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeNotifier struct {
	err   error
	calls int
	got   domain.Transaction
}

func (f *fakeNotifier) Notify(_ context.Context, tx domain.Transaction) error {
	f.calls++
	f.got = tx
	return f.err
}

func validRecord() *ports.ConfirmedRecord {
	return &ports.ConfirmedRecord{
		BookingID:   42,
		CarID:       3,
		Name:        "Asha Rao",
		Email:       "asha@example.com",
		Age:         30,
		CountryCode: 91,
		Mobile:      "9876543210",
		PAN:         "ABCDE1234F",
		Aadhar:      "123456789012",
		StartNS:     1_900_000_000_000_000_000,
		EndNS:       1_900_003_600_000_000_000,
		TotalAmount: 1023.60,
	}
}

func validRequest(t *testing.T) domain.CreateBookingRequest {
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
	return domain.CreateBookingRequest{
		Customer: domain.Customer{
			Name:        name,
			Email:       email,
			Age:         age,
			CountryCode: 91,
			Mobile:      mobile,
			PAN:         pan,
			Aadhar:      aadhar,
		},
		CarID:        3,
		Window:       domain.Window{Start: 1_900_000_000, End: 1_900_003_600},
		IdentityWire: json.RawMessage(`{}`),
	}
}

func newTestService(ledger *fakeLedgerPort, payment *fakePayment, notify *fakeNotifier) (*Service, *audit.MemoryStore) {
	store := audit.NewMemoryStore()
	svc := NewService(
		ledger,
		payment,
		notify,
		idempotency.NewMemory(),
		audit.NewService(store),
		testMetrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc, store
}

func TestCreatePaymentLinkAppliesGatewayFee(t *testing.T) {
	ledger := &fakeLedgerPort{quote: &ports.Quote{BookingID: 42, TotalAmount: 1000.00}}
	payment := &fakePayment{url: "https://rzp.io/l/abc"}
	svc, auditStore := newTestService(ledger, payment, &fakeNotifier{})

	link, err := svc.CreatePaymentLink(context.Background(), validRequest(t))
	require.NoError(t, err)

	assert.Equal(t, uint64(42), link.BookingID)
	assert.Equal(t, "https://rzp.io/l/abc", link.URL)
	assert.InDelta(t, 1023.60, link.Amount, 1e-9)
	require.Len(t, payment.seen, 1)
	assert.InDelta(t, 1023.60, payment.seen[0], 1e-9)
	assert.Equal(t, uint64(42), payment.gotBookingID, "link is keyed by the quoted booking id")

	events, err := auditStore.ListByAction(context.Background(), audit.ActionQuoteIssued)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(42), events[0].BookingID)
}

func TestCreatePaymentLinkUnavailableCarSkipsPayment(t *testing.T) {
	ledger := &fakeLedgerPort{quoteErr: dErrors.New(dErrors.CodeConflict, "car unavailable for requested window")}
	payment := &fakePayment{url: "https://rzp.io/l/abc"}
	svc, auditStore := newTestService(ledger, payment, &fakeNotifier{})

	_, err := svc.CreatePaymentLink(context.Background(), validRequest(t))
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	assert.Empty(t, payment.seen, "no payment link for an unavailable car")

	events, err := auditStore.ListByAction(context.Background(), audit.ActionQuoteRejected)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Reason, "unavailable")
}

func TestCreatePaymentLinkGatewayFailure(t *testing.T) {
	ledger := &fakeLedgerPort{quote: &ports.Quote{BookingID: 42, TotalAmount: 1000}}
	payment := &fakePayment{err: assert.AnError}
	svc, _ := newTestService(ledger, payment, &fakeNotifier{})

	_, err := svc.CreatePaymentLink(context.Background(), validRequest(t))
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func TestConfirmBookingSuccess(t *testing.T) {
	ledger := &fakeLedgerPort{record: validRecord()}
	notify := &fakeNotifier{}
	svc, auditStore := newTestService(ledger, &fakePayment{}, notify)

	before := promtestutil.ToFloat64(testMetrics.BookingOutcome.WithLabelValues("success"))

	tx, err := svc.ConfirmBooking(context.Background(), 42, ports.PaymentProof{PaymentID: "pay_1", Amount: 1023.60})
	require.NoError(t, err)

	assert.Equal(t, uint64(42), tx.BookingID)
	assert.Equal(t, uint64(3), tx.CarID)
	assert.Equal(t, "Asha Rao", string(tx.Customer.Name))
	assert.Equal(t, domain.StartTime(1_900_000_000), tx.Window.Start)

	assert.Equal(t, 1, notify.calls, "notifier invoked exactly once")
	assert.Equal(t, *tx, notify.got)
	assert.Equal(t, ports.PaymentProof{PaymentID: "pay_1", Amount: 1023.60}, ledger.gotProof)

	after := promtestutil.ToFloat64(testMetrics.BookingOutcome.WithLabelValues("success"))
	assert.Equal(t, before+1, after)

	events, err := auditStore.ListByAction(context.Background(), audit.ActionBookingConfirmed)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestConfirmBookingNotifierFailureStillSucceeds(t *testing.T) {
	ledger := &fakeLedgerPort{record: validRecord()}
	notify := &fakeNotifier{err: assert.AnError}
	svc, _ := newTestService(ledger, &fakePayment{}, notify)

	tx, err := svc.ConfirmBooking(context.Background(), 42, ports.PaymentProof{PaymentID: "pay_1"})
	require.NoError(t, err, "notification failure must not fail the commit")
	assert.Equal(t, uint64(42), tx.BookingID)
	assert.Equal(t, 1, notify.calls)
}

func TestConfirmBookingReserveFailureReleasesClaim(t *testing.T) {
	ledger := &fakeLedgerPort{commitErr: dErrors.New(dErrors.CodeUnavailable, "booking ledger unreachable")}
	notify := &fakeNotifier{}
	svc, auditStore := newTestService(ledger, &fakePayment{}, notify)

	before := promtestutil.ToFloat64(testMetrics.BookingOutcome.WithLabelValues("failure"))

	_, err := svc.ConfirmBooking(context.Background(), 42, ports.PaymentProof{PaymentID: "pay_1"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
	assert.Zero(t, notify.calls)

	after := promtestutil.ToFloat64(testMetrics.BookingOutcome.WithLabelValues("failure"))
	assert.Equal(t, before+1, after)

	events, err := auditStore.ListByAction(context.Background(), audit.ActionBookingConfirmFailed)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// The claim was released, so a retry reaches the ledger again.
	ledger.commitErr = nil
	ledger.record = validRecord()
	_, err = svc.ConfirmBooking(context.Background(), 42, ports.PaymentProof{PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.commitCalls)
}

func TestConfirmBookingDuplicateIsConflict(t *testing.T) {
	ledger := &fakeLedgerPort{record: validRecord()}
	svc, _ := newTestService(ledger, &fakePayment{}, &fakeNotifier{})

	_, err := svc.ConfirmBooking(context.Background(), 42, ports.PaymentProof{PaymentID: "pay_1"})
	require.NoError(t, err)

	_, err = svc.ConfirmBooking(context.Background(), 42, ports.PaymentProof{PaymentID: "pay_1"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	assert.Equal(t, 1, ledger.commitCalls, "duplicate never reaches the ledger")
}

func TestConfirmBookingMalformedRecordIsInternal(t *testing.T) {
	record := validRecord()
	record.Email = "not-an-email"
	ledger := &fakeLedgerPort{record: record}
	notify := &fakeNotifier{}
	svc, _ := newTestService(ledger, &fakePayment{}, notify)

	_, err := svc.ConfirmBooking(context.Background(), 42, ports.PaymentProof{PaymentID: "pay_1"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
	assert.Zero(t, notify.calls, "no notification for a transaction that was never constructed")
}

func TestPrincipal(t *testing.T) {
	svc, _ := newTestService(&fakeLedgerPort{}, &fakePayment{}, &fakeNotifier{})
	assert.Equal(t, "fleet-admin-principal", svc.Principal())
}
