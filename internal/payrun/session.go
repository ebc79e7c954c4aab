package payrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCurrency   = errors.New("payrun: currency not in payrun")
	ErrUnknownContact    = errors.New("payrun: contact not in currency group")
	ErrUnknownInvoice    = errors.New("payrun: invoice not in contact group")
	ErrUnknownAccount    = errors.New("payrun: account not available")
	ErrAmountTooLarge    = errors.New("payrun: amount to pay exceeds invoice total")
	ErrAmountNotPositive = errors.New("payrun: amount to pay must be positive")
	ErrCurrencyMismatch  = errors.New("payrun: account currency does not match group")
)

// Session is one merchant's live payrun editing session. It owns the working
// selection, the saved baseline, the per-currency account choice and the
// contact expansion state. Sessions are single-owner: all mutations happen
// synchronously in the order the user issued them.
type Session struct {
	ID         uuid.UUID `json:"id"`
	PayrunID   uuid.UUID `json:"payrunId"`
	MerchantID uuid.UUID `json:"merchantId"`
	Name       string    `json:"name"`

	Working  Selection `json:"working"`
	Baseline Selection `json:"baseline"`

	Accounts         []Account              `json:"accounts"`
	SelectedAccounts map[Currency]uuid.UUID `json:"selectedAccounts"`

	// OpenContacts tracks which contact groups are expanded in the UI.
	// Keys are contactKey(currency, contact). Expansion is UI-only state
	// and never participates in change detection.
	OpenContacts map[string]bool `json:"openContacts"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	projector *Projector
}

func contactKey(c Currency, contact string) string {
	return string(c) + "|" + contact
}

// NewSession derives a fresh session from a loaded payrun and the candidate
// disbursement accounts. The default account per currency is the one flagged
// as default, falling back to the first account in that currency.
func NewSession(p Payrun, accounts []Account, now time.Time) *Session {
	sel := BuildSelection(p)
	selected := make(map[Currency]uuid.UUID)
	for _, acc := range accounts {
		if acc.IsDefault {
			selected[acc.Currency] = acc.ID
		}
	}
	for _, cg := range sel.Currencies {
		if _, ok := selected[cg.Currency]; ok {
			continue
		}
		for _, acc := range accounts {
			if acc.Currency == cg.Currency {
				selected[cg.Currency] = acc.ID
				break
			}
		}
	}

	return &Session{
		ID:               uuid.New(),
		PayrunID:         p.ID,
		MerchantID:       p.MerchantID,
		Name:             p.Name,
		Working:          sel,
		Baseline:         sel.Clone(),
		Accounts:         accounts,
		SelectedAccounts: selected,
		OpenContacts:     make(map[string]bool),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Projector returns the memoizing projector for this session, rebuilding it
// after deserialization.
func (s *Session) Projector() *Projector {
	if s.projector == nil {
		s.projector = NewProjector(s.Accounts, s.SelectedAccounts)
	}
	return s.projector
}

// Projection computes the current derived figures over the working state.
func (s *Session) Projection() Projection {
	return s.Projector().Project(s.Working)
}

func (s *Session) contact(c Currency, name string) (*ContactGroup, error) {
	cg := s.Working.Currency(c)
	if cg == nil {
		return nil, ErrUnknownCurrency
	}
	contact := cg.Contact(name)
	if contact == nil {
		return nil, ErrUnknownContact
	}
	return contact, nil
}

// ToggleInvoice flips one invoice's inclusion. Disabling the last enabled
// invoice in a contact group flips the group flag off and collapses the
// group's expansion; the group flag otherwise stays the OR of its members.
func (s *Session) ToggleInvoice(c Currency, contactName string, invoiceID uuid.UUID, enabled bool) error {
	contact, err := s.contact(c, contactName)
	if err != nil {
		return err
	}
	found := false
	for i := range contact.Invoices {
		if contact.Invoices[i].ID == invoiceID {
			contact.Invoices[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownInvoice
	}

	contact.Enabled = contact.AnyInvoiceEnabled()
	if !contact.Enabled {
		delete(s.OpenContacts, contactKey(c, contactName))
	}
	s.touch(c)
	return nil
}

// ToggleContact flips a whole contact group. Enabling a group whose invoices
// are all individually disabled re-enables every one of them, so an enabled
// group always contributes at least one invoice. Disabling leaves the
// per-invoice flags intact, so toggling off then on restores the prior
// per-invoice state.
func (s *Session) ToggleContact(c Currency, contactName string, enabled bool) error {
	contact, err := s.contact(c, contactName)
	if err != nil {
		return err
	}
	contact.Enabled = enabled
	if enabled && !contact.AnyInvoiceEnabled() {
		for i := range contact.Invoices {
			contact.Invoices[i].Enabled = true
		}
	}
	if !enabled {
		delete(s.OpenContacts, contactKey(c, contactName))
	}
	s.touch(c)
	return nil
}

// SelectAccount chooses the disbursement account for a currency. The account
// must exist and carry the same currency as the group it funds.
func (s *Session) SelectAccount(c Currency, accountID uuid.UUID) error {
	var account *Account
	for i := range s.Accounts {
		if s.Accounts[i].ID == accountID {
			account = &s.Accounts[i]
			break
		}
	}
	if account == nil {
		return ErrUnknownAccount
	}
	if account.Currency != c {
		return ErrCurrencyMismatch
	}
	if s.SelectedAccounts == nil {
		s.SelectedAccounts = make(map[Currency]uuid.UUID)
	}
	s.SelectedAccounts[c] = accountID
	s.Projector().SelectAccount(c, accountID)
	s.UpdatedAt = time.Now()
	return nil
}

// OverrideAmount lowers the amount to pay for one invoice. The override is
// clamped by validation: it must be positive and at most the invoice total,
// rounded to the currency's minor units.
func (s *Session) OverrideAmount(c Currency, contactName string, invoiceID uuid.UUID, amount decimal.Decimal) error {
	contact, err := s.contact(c, contactName)
	if err != nil {
		return err
	}
	for i := range contact.Invoices {
		line := &contact.Invoices[i]
		if line.ID != invoiceID {
			continue
		}
		rounded := amount.Round(c.MinorUnits())
		if !rounded.IsPositive() {
			return ErrAmountNotPositive
		}
		if rounded.GreaterThan(line.TotalAmount) {
			return ErrAmountTooLarge
		}
		line.AmountToPay = rounded
		s.touch(c)
		return nil
	}
	return ErrUnknownInvoice
}

// SetExpanded records a contact group's expansion state. Disabled groups
// cannot be expanded.
func (s *Session) SetExpanded(c Currency, contactName string, open bool) error {
	contact, err := s.contact(c, contactName)
	if err != nil {
		return err
	}
	key := contactKey(c, contactName)
	if open && contact.Enabled {
		s.OpenContacts[key] = true
	} else {
		delete(s.OpenContacts, key)
	}
	return nil
}

// IsExpanded reports whether a contact group is expanded.
func (s *Session) IsExpanded(c Currency, contactName string) bool {
	return s.OpenContacts[contactKey(c, contactName)]
}

// HasUnsavedChanges compares the working state against the baseline.
func (s *Session) HasUnsavedChanges() bool {
	return HasChanges(s.Working, s.Baseline)
}

// CanLeave is the navigation gate: leaving is free only when no unsaved
// changes exist.
func (s *Session) CanLeave() bool {
	return !s.HasUnsavedChanges()
}

// Save promotes the working state to the new baseline and returns the change
// set that was committed, computed as Diff(working, previous baseline). The
// change set is informational: it feeds the audit trail, not the API.
func (s *Session) Save() ChangeSet {
	cs := Diff(s.Working, s.Baseline)
	s.Baseline = s.Working.Clone()
	s.UpdatedAt = time.Now()
	return cs
}

// Discard replaces the working state wholesale with the saved baseline.
// Partial discard is not supported.
func (s *Session) Discard() {
	s.Working = s.Baseline.Clone()
	s.Projector().InvalidateAll()
	s.UpdatedAt = time.Now()
}

// Rename updates the payrun's display name in the session. Persistence is
// the caller's concern.
func (s *Session) Rename(name string) {
	s.Name = name
	s.UpdatedAt = time.Now()
}

func (s *Session) touch(c Currency) {
	s.Projector().Invalidate(c)
	s.UpdatedAt = time.Now()
}
