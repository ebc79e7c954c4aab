package payrun

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultHorizonDays is how far ahead a payment may be scheduled. The value
// is configuration, not policy: override it via Composer.HorizonDays.
const DefaultHorizonDays = 61

// MaxNotesLength caps the free-text note carried to the authoriser.
const MaxNotesLength = 140

var (
	ErrNoInvoicesEnabled   = errors.New("payrun: no invoices enabled")
	ErrInsufficientBalance = errors.New("payrun: projected balance is negative")
	ErrPaymentDateRange    = errors.New("payrun: payment date out of range")
	ErrNotesTooLong        = errors.New("payrun: notes exceed maximum length")
)

// AuthorizedInvoice is one invoice inside an authorization request, with the
// amount actually being paid out.
type AuthorizedInvoice struct {
	Invoice
	AmountToPay decimal.Decimal `json:"amountToPay"`
}

// AuthorizationRequest is the payload handed to the payments API when the
// merchant requests payout authorization.
type AuthorizationRequest struct {
	PayrunID    uuid.UUID           `json:"payrunId"`
	Invoices    []AuthorizedInvoice `json:"invoices"`
	PaymentDate time.Time           `json:"paymentDate"`
	Notes       string              `json:"notes,omitempty"`
}

// TotalByCurrency sums the payout per currency, for display and audit.
func (r AuthorizationRequest) TotalByCurrency() map[Currency]decimal.Decimal {
	totals := make(map[Currency]decimal.Decimal)
	for _, inv := range r.Invoices {
		totals[inv.Currency] = totals[inv.Currency].Add(inv.AmountToPay)
	}
	return totals
}

// Composer assembles authorization requests from a selection state. The zero
// value uses the default scheduling horizon and the wall clock.
type Composer struct {
	HorizonDays int
	Now         func() time.Time
}

func (c Composer) horizon() int {
	if c.HorizonDays > 0 {
		return c.HorizonDays
	}
	return DefaultHorizonDays
}

func (c Composer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// ValidatePaymentDate checks the date falls between tomorrow and the
// scheduling horizon, comparing calendar days rather than instants.
func (c Composer) ValidatePaymentDate(paymentDate time.Time) error {
	now := c.now()
	earliest := startOfDay(now.AddDate(0, 0, 1))
	latest := startOfDay(now.AddDate(0, 0, c.horizon()))
	day := startOfDay(paymentDate)
	if day.Before(earliest) || day.After(latest) {
		return fmt.Errorf("%w: must be between %s and %s",
			ErrPaymentDateRange, earliest.Format("2006-01-02"), latest.Format("2006-01-02"))
	}
	return nil
}

// Compose flattens the currently enabled invoices of the working state into
// an authorization request. All validation preconditions are re-checked here
// regardless of what the caller's input layer enforced: the payment date
// window, the notes length, at least one enabled invoice, and a non-negative
// projected balance for every currency.
func (c Composer) Compose(payrunID uuid.UUID, working Selection, proj Projection, paymentDate time.Time, notes string) (AuthorizationRequest, error) {
	if err := c.ValidatePaymentDate(paymentDate); err != nil {
		return AuthorizationRequest{}, err
	}
	// Counted in runes so the limit matches the input layer's "140
	// characters", not 140 bytes.
	if n := utf8.RuneCountInString(notes); n > MaxNotesLength {
		return AuthorizationRequest{}, fmt.Errorf("%w: %d > %d", ErrNotesTooLong, n, MaxNotesLength)
	}
	if !working.AnyEnabled() {
		return AuthorizationRequest{}, ErrNoInvoicesEnabled
	}
	for _, cp := range proj.Currencies {
		if cp.BalanceAfterPayment.IsNegative() {
			return AuthorizationRequest{}, fmt.Errorf("%w: %s %s", ErrInsufficientBalance, cp.Currency, cp.BalanceAfterPayment)
		}
	}

	req := AuthorizationRequest{
		PayrunID:    payrunID,
		PaymentDate: startOfDay(paymentDate),
		Notes:       notes,
	}
	for _, line := range working.EnabledLines() {
		req.Invoices = append(req.Invoices, AuthorizedInvoice{
			Invoice:     line.Invoice,
			AmountToPay: line.PayableAmount(),
		})
	}
	return req, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
