package payrun

// BuildSelection partitions a payrun's ordered invoice list into the
// two-level currency/contact grouping, preserving original invoice order
// within each group. Every invoice and every contact group starts enabled and
// each line's AmountToPay starts at the invoice total.
//
// Contact names are compared exactly: names differing only in case or
// whitespace form distinct groups. Malformed invoices (blank currency or a
// non-positive total) are excluded from grouping and reported on
// Selection.Excluded so they surface to the caller instead of distorting
// totals.
func BuildSelection(p Payrun) Selection {
	sel := Selection{}
	for _, inv := range p.Invoices {
		if !inv.Valid() {
			sel.Excluded = append(sel.Excluded, inv)
			continue
		}
		cg := sel.Currency(inv.Currency)
		if cg == nil {
			sel.Currencies = append(sel.Currencies, CurrencyGroup{Currency: inv.Currency})
			cg = &sel.Currencies[len(sel.Currencies)-1]
		}
		contact := cg.Contact(inv.Contact)
		if contact == nil {
			cg.Contacts = append(cg.Contacts, ContactGroup{Contact: inv.Contact, Enabled: true})
			contact = &cg.Contacts[len(cg.Contacts)-1]
		}
		contact.Invoices = append(contact.Invoices, InvoiceLine{
			Invoice:     inv,
			Enabled:     true,
			AmountToPay: inv.TotalAmount,
		})
	}
	return sel
}
