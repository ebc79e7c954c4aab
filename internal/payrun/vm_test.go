package payrun

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "€ 1234.50", FormatAmount(CurrencyEUR, decimal.RequireFromString("1234.5")))
	require.Equal(t, "£ 30.00", FormatAmount(CurrencyGBP, decimal.RequireFromString("30")))
}

func TestCurrencySymbolFallsBackToCode(t *testing.T) {
	require.Equal(t, "XXX?", CurrencySymbol(Currency("XXX?")))
}

func TestIncludedText(t *testing.T) {
	single := ContactGroup{Invoices: []InvoiceLine{{Enabled: true}}}
	require.Equal(t, "1 invoice included", IncludedText(single))

	all := ContactGroup{Invoices: []InvoiceLine{{Enabled: true}, {Enabled: true}}}
	require.Equal(t, "All 2 invoices included", IncludedText(all))

	some := ContactGroup{Invoices: []InvoiceLine{{Enabled: true}, {Enabled: false}, {Enabled: false}}}
	require.Equal(t, "1 of 3 invoices included", IncludedText(some))
}

func TestDestinationDetailsPerScheme(t *testing.T) {
	eur := ContactGroup{Invoices: []InvoiceLine{{Invoice: inv("1", "Acme Ltd", CurrencyEUR, "10")}}}
	require.Equal(t, "IE29AIBK93115212345678", DestinationDetails(CurrencyEUR, eur))

	gbp := ContactGroup{Invoices: []InvoiceLine{{Invoice: inv("2", "Beta Co", CurrencyGBP, "10")}}}
	require.Equal(t, "123456 - 87654321", DestinationDetails(CurrencyGBP, gbp))

	require.Equal(t, "", DestinationDetails(CurrencyEUR, ContactGroup{}))
}

func TestNewSessionViewRendersDerivedFigures(t *testing.T) {
	s := testSession()
	view := NewSessionView(s)

	require.Equal(t, s.ID.String(), view.SessionID)
	require.False(t, view.HasChanges)
	require.False(t, view.IsPaymentValid)
	require.Len(t, view.Currencies, 2)

	eur := view.Currencies[0]
	require.Equal(t, CurrencyEUR, eur.Currency)
	require.Equal(t, "€ 175.00", eur.TotalPayable)
	require.Equal(t, "€ -55.00", eur.BalanceAfterPayment)
	require.True(t, eur.BalanceNegative)
	require.Equal(t, 2, eur.PayoutCount)
	require.Equal(t, "All 2 invoices included", eur.Contacts[0].IncludedText)
}
