package payrun

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// MinorUnits returns the number of decimal places used for the currency.
func (c Currency) MinorUnits() int32 {
	switch c {
	case CurrencyEUR, CurrencyGBP:
		return 2
	default:
		return 2
	}
}

// Invoice is a single payable item inside a payrun. Invoices are immutable
// once loaded; selection state lives on InvoiceLine.
type Invoice struct {
	ID                       uuid.UUID       `json:"id"`
	InvoiceNumber            string          `json:"invoiceNumber"`
	Contact                  string          `json:"contact"`
	Currency                 Currency        `json:"currency"`
	TotalAmount              decimal.Decimal `json:"totalAmount"`
	DueDate                  time.Time       `json:"dueDate"`
	Reference                string          `json:"reference"`
	DestinationIBAN          string          `json:"destinationIban,omitempty"`
	DestinationSortCode      string          `json:"destinationSortCode,omitempty"`
	DestinationAccountNumber string          `json:"destinationAccountNumber,omitempty"`
}

// Valid reports whether the invoice carries enough data to be included in
// payout totals. Invalid invoices are excluded from all calculations rather
// than poisoning the arithmetic.
func (i Invoice) Valid() bool {
	if i.Currency == "" {
		return false
	}
	return i.TotalAmount.IsPositive()
}

// Payrun is a batch of invoices awaiting payout authorization.
type Payrun struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchantId"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Invoices   []Invoice `json:"invoices"`
	CreatedAt  time.Time `json:"inserted"`
}

// Page is one page of a payrun listing.
type Page struct {
	Content       []Payrun `json:"content"`
	PageNumber    int      `json:"pageNumber"`
	PageSize      int      `json:"pageSize"`
	TotalPages    int      `json:"totalPages"`
	TotalElements int      `json:"totalSize"`
}

// Account is a candidate disbursement account.
type Account struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"accountName"`
	Currency         Currency        `json:"currency"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	IsDefault        bool            `json:"isDefault"`
}

// InvoiceLine is an invoice plus its transient payout selection state.
// AmountToPay defaults to the invoice total and may be lowered, never raised.
type InvoiceLine struct {
	Invoice
	Enabled     bool            `json:"enabled"`
	AmountToPay decimal.Decimal `json:"amountToPay"`
}

// PayableAmount is the amount the line contributes when enabled.
func (l InvoiceLine) PayableAmount() decimal.Decimal {
	if l.AmountToPay.IsPositive() && l.AmountToPay.LessThan(l.TotalAmount) {
		return l.AmountToPay
	}
	return l.TotalAmount
}

// ContactGroup holds the invoices of one counterparty within a currency.
// Enabled is the logical OR of the member invoices' Enabled flags.
type ContactGroup struct {
	Contact  string        `json:"contact"`
	Enabled  bool          `json:"enabled"`
	Invoices []InvoiceLine `json:"invoices"`
}

// AnyInvoiceEnabled reports whether at least one member invoice is enabled.
func (g ContactGroup) AnyInvoiceEnabled() bool {
	for _, line := range g.Invoices {
		if line.Enabled {
			return true
		}
	}
	return false
}

// EnabledTotal sums the payable amounts of enabled member invoices.
func (g ContactGroup) EnabledTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range g.Invoices {
		if line.Enabled {
			total = total.Add(line.PayableAmount())
		}
	}
	return total
}

// CurrencyGroup holds the contact groups sharing one currency. Order follows
// first appearance in the source invoice list.
type CurrencyGroup struct {
	Currency Currency       `json:"currency"`
	Contacts []ContactGroup `json:"contacts"`
}

// Contact returns a pointer to the named contact group, or nil.
func (cg *CurrencyGroup) Contact(name string) *ContactGroup {
	for i := range cg.Contacts {
		if cg.Contacts[i].Contact == name {
			return &cg.Contacts[i]
		}
	}
	return nil
}

// Selection is the full nested payout selection at a point in time.
// Two instances are held per edit session: the live working state and the
// last-saved baseline.
type Selection struct {
	Currencies []CurrencyGroup `json:"currencies"`
	// Excluded lists invoices dropped during grouping because they were
	// malformed. They never participate in totals or authorization.
	Excluded []Invoice `json:"excluded,omitempty"`
}

// Currency returns a pointer to the group for the given currency, or nil.
func (s *Selection) Currency(c Currency) *CurrencyGroup {
	for i := range s.Currencies {
		if s.Currencies[i].Currency == c {
			return &s.Currencies[i]
		}
	}
	return nil
}

// Flatten returns every invoice line across all groups in grouping order.
func (s Selection) Flatten() []InvoiceLine {
	var out []InvoiceLine
	for _, cg := range s.Currencies {
		for _, contact := range cg.Contacts {
			out = append(out, contact.Invoices...)
		}
	}
	return out
}

// EnabledLines returns the lines included in the pending payout: those whose
// own flag and parent contact flag are both enabled.
func (s Selection) EnabledLines() []InvoiceLine {
	var out []InvoiceLine
	for _, cg := range s.Currencies {
		for _, contact := range cg.Contacts {
			if !contact.Enabled {
				continue
			}
			for _, line := range contact.Invoices {
				if line.Enabled {
					out = append(out, line)
				}
			}
		}
	}
	return out
}

// AnyEnabled reports whether at least one invoice is included anywhere.
func (s Selection) AnyEnabled() bool {
	for _, cg := range s.Currencies {
		for _, contact := range cg.Contacts {
			if contact.Enabled && contact.AnyInvoiceEnabled() {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy so working and baseline never alias.
func (s Selection) Clone() Selection {
	out := Selection{}
	if s.Currencies != nil {
		out.Currencies = make([]CurrencyGroup, len(s.Currencies))
		for i, cg := range s.Currencies {
			copied := CurrencyGroup{Currency: cg.Currency}
			copied.Contacts = make([]ContactGroup, len(cg.Contacts))
			for j, contact := range cg.Contacts {
				lines := make([]InvoiceLine, len(contact.Invoices))
				copy(lines, contact.Invoices)
				copied.Contacts[j] = ContactGroup{Contact: contact.Contact, Enabled: contact.Enabled, Invoices: lines}
			}
			out.Currencies[i] = copied
		}
	}
	if s.Excluded != nil {
		out.Excluded = append([]Invoice(nil), s.Excluded...)
	}
	return out
}

// Equal performs a deep comparison of the payout-relevant state: grouping,
// enabled flags and amount overrides. UI-only state (group expansion) lives
// outside Selection and never affects equality.
func (s Selection) Equal(other Selection) bool {
	if len(s.Currencies) != len(other.Currencies) {
		return false
	}
	for i, cg := range s.Currencies {
		og := other.Currencies[i]
		if cg.Currency != og.Currency || len(cg.Contacts) != len(og.Contacts) {
			return false
		}
		for j, contact := range cg.Contacts {
			oc := og.Contacts[j]
			if contact.Contact != oc.Contact || contact.Enabled != oc.Enabled {
				return false
			}
			if len(contact.Invoices) != len(oc.Invoices) {
				return false
			}
			for k, line := range contact.Invoices {
				ol := oc.Invoices[k]
				if line.ID != ol.ID || line.Enabled != ol.Enabled {
					return false
				}
				if !line.AmountToPay.Equal(ol.AmountToPay) {
					return false
				}
			}
		}
	}
	return true
}
