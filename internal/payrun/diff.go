package payrun

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceChange records one invoice whose inclusion differs between the
// working state and the saved baseline. Enabled and AmountToPay carry the
// values from the current (first) side.
type InvoiceChange struct {
	InvoiceID     uuid.UUID       `json:"invoiceId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Enabled       bool            `json:"enabled"`
	AmountToPay   decimal.Decimal `json:"amountToPay"`
}

// ContactChange groups the changed invoices of one counterparty.
type ContactChange struct {
	Currency Currency        `json:"currency"`
	Contact  string          `json:"contact"`
	Enabled  bool            `json:"enabled"`
	Invoices []InvoiceChange `json:"invoices"`
}

// ChangeSet is the minimal set of differences between two selection states,
// reported per contact group.
type ChangeSet struct {
	Contacts []ContactChange `json:"contacts"`
}

// Empty reports whether the change set carries no differences.
func (cs ChangeSet) Empty() bool {
	return len(cs.Contacts) == 0
}

// HasChanges reports whether the working state differs from the baseline.
// Group expansion and other UI-only state never count as changes.
func HasChanges(working, baseline Selection) bool {
	return !working.Equal(baseline)
}

// Diff computes the change set between two selection states.
//
// The operation is not symmetric. Callers must pass the live working state
// first and the saved baseline second: the result reports invoices whose
// current Enabled flag differs from the saved one, carrying current-side
// values.
func Diff(current, saved Selection) ChangeSet {
	var cs ChangeSet
	for _, cg := range current.Currencies {
		savedGroup := saved.Currency(cg.Currency)
		for _, contact := range cg.Contacts {
			var savedContact *ContactGroup
			if savedGroup != nil {
				savedContact = savedGroup.Contact(contact.Contact)
			}
			if savedContact != nil && contactEqual(contact, *savedContact) {
				continue
			}

			change := ContactChange{
				Currency: cg.Currency,
				Contact:  contact.Contact,
				Enabled:  contact.Enabled,
			}
			for _, line := range contact.Invoices {
				savedLine, ok := findLine(savedContact, line.ID)
				if ok && savedLine.Enabled == line.Enabled {
					continue
				}
				change.Invoices = append(change.Invoices, InvoiceChange{
					InvoiceID:     line.ID,
					InvoiceNumber: line.InvoiceNumber,
					Enabled:       line.Enabled,
					AmountToPay:   line.PayableAmount(),
				})
			}
			cs.Contacts = append(cs.Contacts, change)
		}
	}
	return cs
}

func contactEqual(a, b ContactGroup) bool {
	if a.Contact != b.Contact || a.Enabled != b.Enabled || len(a.Invoices) != len(b.Invoices) {
		return false
	}
	for i, line := range a.Invoices {
		other := b.Invoices[i]
		if line.ID != other.ID || line.Enabled != other.Enabled || !line.AmountToPay.Equal(other.AmountToPay) {
			return false
		}
	}
	return true
}

func findLine(contact *ContactGroup, id uuid.UUID) (InvoiceLine, bool) {
	if contact == nil {
		return InvoiceLine{}, false
	}
	for _, line := range contact.Invoices {
		if line.ID == id {
			return line, true
		}
	}
	return InvoiceLine{}, false
}
