package payrun

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var composeNow = time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

func testComposer() Composer {
	return Composer{Now: func() time.Time { return composeNow }}
}

func TestValidatePaymentDateWindow(t *testing.T) {
	c := testComposer()

	require.ErrorIs(t, c.ValidatePaymentDate(composeNow), ErrPaymentDateRange)
	require.ErrorIs(t, c.ValidatePaymentDate(composeNow.AddDate(0, 0, -1)), ErrPaymentDateRange)
	require.ErrorIs(t, c.ValidatePaymentDate(composeNow.AddDate(0, 0, 70)), ErrPaymentDateRange)

	require.NoError(t, c.ValidatePaymentDate(composeNow.AddDate(0, 0, 1)))
	require.NoError(t, c.ValidatePaymentDate(composeNow.AddDate(0, 0, 5)))
	require.NoError(t, c.ValidatePaymentDate(composeNow.AddDate(0, 0, DefaultHorizonDays)))
}

func TestValidatePaymentDateComparesCalendarDays(t *testing.T) {
	c := testComposer()

	// Early tomorrow morning is still tomorrow even though less than 24
	// hours away.
	earlyTomorrow := time.Date(2026, 8, 29, 0, 30, 0, 0, time.UTC)
	require.NoError(t, c.ValidatePaymentDate(earlyTomorrow))
}

func TestValidatePaymentDateHonoursConfiguredHorizon(t *testing.T) {
	c := Composer{HorizonDays: 10, Now: func() time.Time { return composeNow }}

	require.NoError(t, c.ValidatePaymentDate(composeNow.AddDate(0, 0, 10)))
	require.ErrorIs(t, c.ValidatePaymentDate(composeNow.AddDate(0, 0, 11)), ErrPaymentDateRange)
}

func TestComposeBuildsRequestFromEnabledLines(t *testing.T) {
	s := testSession()
	require.NoError(t, s.SelectAccount(CurrencyEUR, s.Accounts[1].ID))
	require.NoError(t, s.ToggleContact(CurrencyGBP, "Beta Co", false))

	target := line(s, CurrencyEUR, "Acme Ltd", 0)
	require.NoError(t, s.OverrideAmount(CurrencyEUR, "Acme Ltd", target.ID, decimal.RequireFromString("60")))

	req, err := testComposer().Compose(s.PayrunID, s.Working, s.Projection(), composeNow.AddDate(0, 0, 5), "month end")
	require.NoError(t, err)

	require.Equal(t, s.PayrunID, req.PayrunID)
	require.Len(t, req.Invoices, 3)

	totals := req.TotalByCurrency()
	require.True(t, totals[CurrencyEUR].Equal(decimal.RequireFromString("135")))
	_, hasGBP := totals[CurrencyGBP]
	require.False(t, hasGBP)
}

func TestComposeRejectsNegativeBalance(t *testing.T) {
	s := testSession()
	_, err := testComposer().Compose(s.PayrunID, s.Working, s.Projection(), composeNow.AddDate(0, 0, 5), "")
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestComposeRejectsEmptySelection(t *testing.T) {
	s := testSession()
	require.NoError(t, s.ToggleContact(CurrencyEUR, "Acme Ltd", false))
	require.NoError(t, s.ToggleContact(CurrencyEUR, "Globex", false))
	require.NoError(t, s.ToggleContact(CurrencyGBP, "Beta Co", false))

	_, err := testComposer().Compose(s.PayrunID, s.Working, s.Projection(), composeNow.AddDate(0, 0, 5), "")
	require.ErrorIs(t, err, ErrNoInvoicesEnabled)
}

func TestComposeRevalidatesNotesLength(t *testing.T) {
	s := testSession()
	require.NoError(t, s.SelectAccount(CurrencyEUR, s.Accounts[1].ID))
	require.NoError(t, s.ToggleContact(CurrencyGBP, "Beta Co", false))

	long := strings.Repeat("x", MaxNotesLength+1)
	_, err := testComposer().Compose(s.PayrunID, s.Working, s.Projection(), composeNow.AddDate(0, 0, 5), long)
	require.ErrorIs(t, err, ErrNotesTooLong)

	ok := strings.Repeat("x", MaxNotesLength)
	_, err = testComposer().Compose(s.PayrunID, s.Working, s.Projection(), composeNow.AddDate(0, 0, 5), ok)
	require.NoError(t, err)

	// The limit is characters, not bytes: 140 multibyte runes must pass.
	multibyte := strings.Repeat("é", MaxNotesLength)
	_, err = testComposer().Compose(s.PayrunID, s.Working, s.Projection(), composeNow.AddDate(0, 0, 5), multibyte)
	require.NoError(t, err)

	_, err = testComposer().Compose(s.PayrunID, s.Working, s.Projection(), composeNow.AddDate(0, 0, 5), multibyte+"é")
	require.ErrorIs(t, err, ErrNotesTooLong)
}
