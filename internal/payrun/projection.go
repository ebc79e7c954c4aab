package payrun

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyProjection carries the derived figures for one currency group.
type CurrencyProjection struct {
	Currency            Currency        `json:"currency"`
	AccountID           uuid.UUID       `json:"accountId,omitempty"`
	AccountSelected     bool            `json:"accountSelected"`
	TotalPayable        decimal.Decimal `json:"totalPayable"`
	BalanceAfterPayment decimal.Decimal `json:"balanceAfterPayment"`
	// PayoutCount is the number of contact groups producing a payout, i.e.
	// enabled groups with at least one enabled invoice.
	PayoutCount  int `json:"payoutCount"`
	EnabledCount int `json:"enabledInvoices"`
	InvoiceCount int `json:"totalInvoices"`
}

// Projection is the full derived view over a selection: per-currency figures
// plus the system-wide validity flag gating authorization.
type Projection struct {
	Currencies []CurrencyProjection `json:"currencies"`
	AnyEnabled bool                 `json:"anyEnabled"`
	// IsPaymentValid is true only when at least one invoice is enabled and
	// every currency's projected post-payment balance is non-negative.
	IsPaymentValid bool `json:"isPaymentValid"`
}

// Currency returns the projection for the given currency, if present.
func (p Projection) Currency(c Currency) (CurrencyProjection, bool) {
	for _, cp := range p.Currencies {
		if cp.Currency == c {
			return cp, true
		}
	}
	return CurrencyProjection{}, false
}

// Projector computes balance projections over a selection. Per-currency
// results are memoized; mutations must invalidate the touched currency so
// repeated reads stay O(1) on large invoice lists.
type Projector struct {
	accounts []Account
	selected map[Currency]uuid.UUID
	cache    map[Currency]CurrencyProjection
}

// NewProjector builds a projector over the candidate accounts and the
// selected account per currency.
func NewProjector(accounts []Account, selected map[Currency]uuid.UUID) *Projector {
	return &Projector{
		accounts: accounts,
		selected: selected,
		cache:    make(map[Currency]CurrencyProjection),
	}
}

// Invalidate drops the memoized figures for one currency.
func (pr *Projector) Invalidate(c Currency) {
	delete(pr.cache, c)
}

// InvalidateAll drops every memoized entry, e.g. after a wholesale discard.
func (pr *Projector) InvalidateAll() {
	pr.cache = make(map[Currency]CurrencyProjection)
}

// SelectAccount records the disbursement account for a currency and
// invalidates that currency's projection.
func (pr *Projector) SelectAccount(c Currency, accountID uuid.UUID) {
	if pr.selected == nil {
		pr.selected = make(map[Currency]uuid.UUID)
	}
	pr.selected[c] = accountID
	pr.Invalidate(c)
}

func (pr *Projector) account(c Currency) (Account, bool) {
	id, ok := pr.selected[c]
	if !ok {
		return Account{}, false
	}
	for _, acc := range pr.accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return Account{}, false
}

// ProjectCurrency computes (or returns the memoized) figures for one
// currency group. With no account selected the exposure is treated as zero,
// so the projected balance is simply the negated total payable.
func (pr *Projector) ProjectCurrency(sel Selection, c Currency) CurrencyProjection {
	if cached, ok := pr.cache[c]; ok {
		return cached
	}

	cp := CurrencyProjection{Currency: c}
	cg := sel.Currency(c)
	if cg != nil {
		for _, contact := range cg.Contacts {
			cp.InvoiceCount += len(contact.Invoices)
			if !contact.Enabled {
				continue
			}
			payout := false
			for _, line := range contact.Invoices {
				if !line.Enabled {
					continue
				}
				cp.EnabledCount++
				cp.TotalPayable = cp.TotalPayable.Add(line.PayableAmount())
				payout = true
			}
			if payout {
				cp.PayoutCount++
			}
		}
	}

	balance := decimal.Zero
	if acc, ok := pr.account(c); ok {
		cp.AccountID = acc.ID
		cp.AccountSelected = true
		balance = acc.AvailableBalance
	}
	cp.BalanceAfterPayment = balance.Sub(cp.TotalPayable)

	pr.cache[c] = cp
	return cp
}

// Project computes the full projection across every currency in the
// selection.
func (pr *Projector) Project(sel Selection) Projection {
	out := Projection{}
	allNonNegative := true
	for _, cg := range sel.Currencies {
		cp := pr.ProjectCurrency(sel, cg.Currency)
		out.Currencies = append(out.Currencies, cp)
		if cp.EnabledCount > 0 {
			out.AnyEnabled = true
		}
		if cp.BalanceAfterPayment.IsNegative() {
			allNonNegative = false
		}
	}
	out.IsPaymentValid = out.AnyEnabled && allNonNegative
	return out
}
