package dto

import (
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	bdt          = currency.MustParseISO(string(valueobject.BDT))
	moneyPrinter = message.NewPrinter(language.English)
)

// FormatBDT renders an amount for display, e.g. "BDT 12,500.00"
func FormatBDT(m valueobject.Money) string {
	return moneyPrinter.Sprint(currency.ISO(bdt.Amount(m.Amount().InexactFloat64())))
}

// MoneyDisplay maps field names to their display strings
type MoneyDisplay map[string]string

// NewMoneyDisplay formats every amount in fields
func NewMoneyDisplay(fields map[string]valueobject.Money) MoneyDisplay {
	display := make(MoneyDisplay, len(fields))
	for name, amount := range fields {
		display[name] = FormatBDT(amount)
	}
	return display
}
