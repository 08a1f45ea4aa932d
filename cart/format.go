package cart

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatVND renders amount the way vi-VN formats dong: whole units, "."
// grouping and a trailing symbol.
func FormatVND(amount decimal.Decimal) string {
	p := message.NewPrinter(language.Vietnamese)
	return p.Sprintf("%d", amount.Round(0).IntPart()) + "\u00a0₫"
}

// Subtotal is quantity × unit price.
func Subtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
