package payrun

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.BritishEnglish)

// CurrencySymbol returns the display symbol for a currency code, falling
// back to the code itself for anything x/text does not know.
func CurrencySymbol(c Currency) string {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return string(c)
	}
	return amountPrinter.Sprint(currency.Symbol(unit))
}

// FormatAmount renders a monetary amount with its currency symbol for
// display. The decimal value stays the source of truth; this is
// presentation only.
func FormatAmount(c Currency, amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", CurrencySymbol(c), amount.StringFixed(c.MinorUnits()))
}

// IncludedText summarises how many of a contact group's invoices are
// included in the payout.
//
//	1 of 1   → "1 invoice included"
//	n of n   → "All n invoices included"
//	k of n   → "k of n invoices included"
func IncludedText(g ContactGroup) string {
	total := len(g.Invoices)
	included := 0
	for _, line := range g.Invoices {
		if line.Enabled {
			included++
		}
	}
	if included == 1 && total == 1 {
		return "1 invoice included"
	}
	if included == total {
		return fmt.Sprintf("All %d invoices included", included)
	}
	return fmt.Sprintf("%d of %d invoices included", included, total)
}

// DestinationDetails renders the payout destination of a contact group:
// the IBAN for EUR, sort code and account number for GBP. The details come
// from the group's first invoice, matching how payouts are addressed.
func DestinationDetails(c Currency, g ContactGroup) string {
	if len(g.Invoices) == 0 {
		return ""
	}
	first := g.Invoices[0]
	switch c {
	case CurrencyEUR:
		return first.DestinationIBAN
	case CurrencyGBP:
		return fmt.Sprintf("%s - %s", first.DestinationSortCode, first.DestinationAccountNumber)
	default:
		return ""
	}
}

// ContactView is the display shape of one contact group.
type ContactView struct {
	Contact            string        `json:"contact"`
	Enabled            bool          `json:"enabled"`
	Expanded           bool          `json:"expanded"`
	DestinationDetails string        `json:"destinationDetails"`
	IncludedText       string        `json:"includedText"`
	TotalIncluded      string        `json:"totalIncluded"`
	Invoices           []InvoiceLine `json:"invoices"`
}

// CurrencyView is the display shape of one currency group with its derived
// figures rendered for the dashboard.
type CurrencyView struct {
	Currency            Currency      `json:"currency"`
	Symbol              string        `json:"symbol"`
	TotalPayable        string        `json:"totalPayable"`
	BalanceAfterPayment string        `json:"balanceAfterPayment"`
	BalanceNegative     bool          `json:"balanceNegative"`
	PayoutCount         int           `json:"payoutCount"`
	Contacts            []ContactView `json:"contacts"`
}

// SessionView is the full dashboard rendering of an edit session.
type SessionView struct {
	SessionID      string         `json:"sessionId"`
	PayrunID       string         `json:"payrunId"`
	Name           string         `json:"name"`
	HasChanges     bool           `json:"hasChanges"`
	IsPaymentValid bool           `json:"isPaymentValid"`
	Currencies     []CurrencyView `json:"currencies"`
	Excluded       []Invoice      `json:"excluded,omitempty"`
}

// NewSessionView projects a session into its display shape.
func NewSessionView(s *Session) SessionView {
	proj := s.Projection()
	view := SessionView{
		SessionID:      s.ID.String(),
		PayrunID:       s.PayrunID.String(),
		Name:           s.Name,
		HasChanges:     s.HasUnsavedChanges(),
		IsPaymentValid: proj.IsPaymentValid,
		Excluded:       s.Working.Excluded,
	}
	for _, cg := range s.Working.Currencies {
		cp, _ := proj.Currency(cg.Currency)
		cv := CurrencyView{
			Currency:            cg.Currency,
			Symbol:              CurrencySymbol(cg.Currency),
			TotalPayable:        FormatAmount(cg.Currency, cp.TotalPayable),
			BalanceAfterPayment: FormatAmount(cg.Currency, cp.BalanceAfterPayment),
			BalanceNegative:     cp.BalanceAfterPayment.IsNegative(),
			PayoutCount:         cp.PayoutCount,
		}
		for _, contact := range cg.Contacts {
			cv.Contacts = append(cv.Contacts, ContactView{
				Contact:            contact.Contact,
				Enabled:            contact.Enabled,
				Expanded:           s.IsExpanded(cg.Currency, contact.Contact),
				DestinationDetails: DestinationDetails(cg.Currency, contact),
				IncludedText:       IncludedText(contact),
				TotalIncluded:      FormatAmount(cg.Currency, contact.EnabledTotal()),
				Invoices:           contact.Invoices,
			})
		}
		view.Currencies = append(view.Currencies, cv)
	}
	return view
}
