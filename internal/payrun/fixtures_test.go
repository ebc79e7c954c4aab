package payrun

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func inv(number, contact string, c Currency, amount string) Invoice {
	i := Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		Contact:       contact,
		Currency:      c,
		TotalAmount:   decimal.RequireFromString(amount),
		DueDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Reference:     "ref-" + number,
	}
	switch c {
	case CurrencyEUR:
		i.DestinationIBAN = "IE29AIBK93115212345678"
	case CurrencyGBP:
		i.DestinationSortCode = "123456"
		i.DestinationAccountNumber = "87654321"
	}
	return i
}

// testPayrun mirrors a dashboard scenario: two EUR contacts against an
// account holding 120, one GBP contact against an account holding 10.
func testPayrun() Payrun {
	return Payrun{
		ID:         uuid.New(),
		MerchantID: uuid.New(),
		Name:       "September payrun",
		Status:     "Draft",
		Invoices: []Invoice{
			inv("A-100", "Acme Ltd", CurrencyEUR, "100"),
			inv("A-101", "Acme Ltd", CurrencyEUR, "50"),
			inv("G-200", "Globex", CurrencyEUR, "25"),
			inv("B-300", "Beta Co", CurrencyGBP, "30"),
		},
	}
}

func testAccounts() []Account {
	return []Account{
		{ID: uuid.New(), Name: "EUR Main", Currency: CurrencyEUR, AvailableBalance: decimal.RequireFromString("120"), IsDefault: true},
		{ID: uuid.New(), Name: "EUR Reserve", Currency: CurrencyEUR, AvailableBalance: decimal.RequireFromString("1000")},
		{ID: uuid.New(), Name: "GBP Main", Currency: CurrencyGBP, AvailableBalance: decimal.RequireFromString("10")},
	}
}

func testSession() *Session {
	return NewSession(testPayrun(), testAccounts(), time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC))
}

func line(s *Session, c Currency, contact string, index int) InvoiceLine {
	return s.Working.Currency(c).Contact(contact).Invoices[index]
}
