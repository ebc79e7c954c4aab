package payrun

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToggleInvoiceKeepsGroupFlagAsUnion(t *testing.T) {
	s := testSession()
	first := line(s, CurrencyEUR, "Acme Ltd", 0)
	second := line(s, CurrencyEUR, "Acme Ltd", 1)

	require.NoError(t, s.ToggleInvoice(CurrencyEUR, "Acme Ltd", first.ID, false))
	require.True(t, s.Working.Currency(CurrencyEUR).Contact("Acme Ltd").Enabled)

	require.NoError(t, s.ToggleInvoice(CurrencyEUR, "Acme Ltd", second.ID, false))
	require.False(t, s.Working.Currency(CurrencyEUR).Contact("Acme Ltd").Enabled)
}

func TestDisablingLastInvoiceCollapsesGroup(t *testing.T) {
	s := testSession()
	only := line(s, CurrencyEUR, "Globex", 0)

	require.NoError(t, s.SetExpanded(CurrencyEUR, "Globex", true))
	require.True(t, s.IsExpanded(CurrencyEUR, "Globex"))

	require.NoError(t, s.ToggleInvoice(CurrencyEUR, "Globex", only.ID, false))
	require.False(t, s.IsExpanded(CurrencyEUR, "Globex"))
}

func TestEnablingGroupWithAllInvoicesOffReenablesAll(t *testing.T) {
	s := testSession()
	for _, l := range s.Working.Currency(CurrencyEUR).Contact("Acme Ltd").Invoices {
		require.NoError(t, s.ToggleInvoice(CurrencyEUR, "Acme Ltd", l.ID, false))
	}

	require.NoError(t, s.ToggleContact(CurrencyEUR, "Acme Ltd", true))

	contact := s.Working.Currency(CurrencyEUR).Contact("Acme Ltd")
	require.True(t, contact.Enabled)
	for _, l := range contact.Invoices {
		require.True(t, l.Enabled)
	}
}

func TestDisablingGroupPreservesInvoiceFlags(t *testing.T) {
	s := testSession()
	first := line(s, CurrencyEUR, "Acme Ltd", 0)
	require.NoError(t, s.ToggleInvoice(CurrencyEUR, "Acme Ltd", first.ID, false))

	require.NoError(t, s.ToggleContact(CurrencyEUR, "Acme Ltd", false))
	require.NoError(t, s.ToggleContact(CurrencyEUR, "Acme Ltd", true))

	contact := s.Working.Currency(CurrencyEUR).Contact("Acme Ltd")
	require.False(t, contact.Invoices[0].Enabled)
	require.True(t, contact.Invoices[1].Enabled)
}

func TestSelectAccountRejectsCurrencyMismatch(t *testing.T) {
	s := testSession()
	gbpAccount := s.Accounts[2]

	err := s.SelectAccount(CurrencyEUR, gbpAccount.ID)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	err = s.SelectAccount(CurrencyEUR, uuid.New())
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestOverrideAmountValidation(t *testing.T) {
	s := testSession()
	l := line(s, CurrencyEUR, "Acme Ltd", 0)

	err := s.OverrideAmount(CurrencyEUR, "Acme Ltd", l.ID, decimal.RequireFromString("100.01"))
	require.ErrorIs(t, err, ErrAmountTooLarge)

	err = s.OverrideAmount(CurrencyEUR, "Acme Ltd", l.ID, decimal.Zero)
	require.ErrorIs(t, err, ErrAmountNotPositive)

	err = s.OverrideAmount(CurrencyEUR, "Acme Ltd", l.ID, decimal.RequireFromString("-5"))
	require.ErrorIs(t, err, ErrAmountNotPositive)

	// Overrides round to the currency's minor units.
	require.NoError(t, s.OverrideAmount(CurrencyEUR, "Acme Ltd", l.ID, decimal.RequireFromString("33.333")))
	got := s.Working.Currency(CurrencyEUR).Contact("Acme Ltd").Invoices[0].AmountToPay
	require.Equal(t, "33.33", got.StringFixed(2))
}

func TestSetExpandedIgnoresDisabledGroups(t *testing.T) {
	s := testSession()
	require.NoError(t, s.ToggleContact(CurrencyEUR, "Globex", false))

	require.NoError(t, s.SetExpanded(CurrencyEUR, "Globex", true))
	require.False(t, s.IsExpanded(CurrencyEUR, "Globex"))
}

func TestSaveAndDiscardAreWholesale(t *testing.T) {
	s := testSession()
	first := line(s, CurrencyEUR, "Acme Ltd", 0)

	require.False(t, s.HasUnsavedChanges())
	require.True(t, s.CanLeave())

	require.NoError(t, s.ToggleInvoice(CurrencyEUR, "Acme Ltd", first.ID, false))
	require.NoError(t, s.ToggleContact(CurrencyGBP, "Beta Co", false))
	require.True(t, s.HasUnsavedChanges())
	require.False(t, s.CanLeave())

	cs := s.Save()
	require.False(t, cs.Empty())
	require.False(t, s.HasUnsavedChanges())

	// Further edits after save discard back to the saved baseline, not the
	// original state.
	require.NoError(t, s.ToggleContact(CurrencyGBP, "Beta Co", true))
	require.True(t, s.HasUnsavedChanges())
	s.Discard()
	require.False(t, s.HasUnsavedChanges())
	require.False(t, s.Working.Currency(CurrencyGBP).Contact("Beta Co").Enabled)
}

func TestExpansionNeverCountsAsChange(t *testing.T) {
	s := testSession()
	require.NoError(t, s.SetExpanded(CurrencyEUR, "Acme Ltd", true))
	require.False(t, s.HasUnsavedChanges())
}

func TestSaveWithNoEditsReturnsEmptyChangeSet(t *testing.T) {
	s := testSession()
	cs := s.Save()
	require.True(t, cs.Empty())
}
