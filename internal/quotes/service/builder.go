package service

import (
	"fmt"
	"math"

	"github.com/yossefJiy/caravan-creator-sub000/internal/invoicing"
	"github.com/yossefJiy/caravan-creator-sub000/internal/pricing"
)

// vatRate is the fixed VAT applied to the stored quote total. Line prices
// stay VAT-exclusive; the invoicing provider adds VAT on its own total.
const vatRate = 0.18

const quoteCurrency = "ILS"

// buildIncomeLines assembles the provider line items from resolved
// selections. The layout works around the provider's line-item model: the
// truck-type line carries the entire subtotal as the single taxable amount,
// followed by a zero-price "package contents:" header and one zero-price
// descriptive line per selection. The lines always sum to exactly the
// subtotal.
func buildIncomeLines(truckTypeName string, size pricing.Line, equipment []pricing.Line) ([]invoicing.IncomeLine, float64) {
	subtotal := size.Total()
	for _, line := range equipment {
		subtotal += line.Total()
	}

	if truckTypeName == "" {
		truckTypeName = "Food truck"
	}

	lines := make([]invoicing.IncomeLine, 0, len(equipment)+3)
	lines = append(lines, invoicing.IncomeLine{
		Description: truckTypeName,
		Quantity:    1,
		Price:       subtotal,
		Currency:    quoteCurrency,
		VatType:     invoicing.VatTypeExclusive,
	})
	lines = append(lines, zeroLine("package contents:"))

	if size.Name != "" {
		lines = append(lines, zeroLine(size.Name))
	}
	for _, line := range equipment {
		lines = append(lines, zeroLine(describeLine(line)))
	}

	return lines, subtotal
}

func describeLine(line pricing.Line) string {
	if line.Quantity > 1 {
		return fmt.Sprintf("%s (×%d)", line.Name, line.Quantity)
	}
	return line.Name
}

func zeroLine(description string) invoicing.IncomeLine {
	return invoicing.IncomeLine{
		Description: description,
		Quantity:    1,
		Price:       0,
		Currency:    quoteCurrency,
		VatType:     invoicing.VatTypeExclusive,
	}
}

// totalWithVAT returns the subtotal with the fixed VAT applied, rounded to
// two decimals. 53,000 becomes 62,540.
func totalWithVAT(subtotal float64) float64 {
	return math.Round(subtotal*(1+vatRate)*100) / 100
}
