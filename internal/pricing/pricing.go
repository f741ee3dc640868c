// Package pricing computes document totals from line items, company tax
// definitions and an optional document discount. It performs no I/O.
//
// Every monetary step is rounded to one decimal place, half away from zero.
// Persisted document totals are produced by clients with the same rules, so
// the rounding points below must not move.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountMoney   DiscountType = "money"
	DiscountPercent DiscountType = "purcent"
)

// AmountType selects which total a document is billed on.
type AmountType string

const (
	AmountHT  AmountType = "HT"
	AmountTTC AmountType = "TTC"
)

var (
	hundred     = decimal.NewFromInt(100)
	minQuantity = decimal.NewFromFloat(0.5)
)

// LineItem is one priced line of a document.
type LineItem struct {
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	Discount     decimal.Decimal
	DiscountType DiscountType
	HasTax       bool
}

// CumulRef points at another tax this tax is stacked on.
type CumulRef struct {
	Name  string `json:"name"`
	Check bool   `json:"check"`
}

// TaxDefinition is a company tax as configured by the tenant.
type TaxDefinition struct {
	Name  string     `json:"taxName"`
	Value string     `json:"taxValue"`
	Cumul []CumulRef `json:"cumul,omitempty"`
}

// DocumentDiscount is the optional discount applied to the whole document.
type DocumentDiscount struct {
	Value decimal.Decimal
	Type  DiscountType
}

type TaxResult struct {
	Name         string            `json:"taxName"`
	AppliedRates []decimal.Decimal `json:"appliedTaxes"`
	TaxPrice     decimal.Decimal   `json:"taxPrice"`
	TotalTax     decimal.Decimal   `json:"totalTax"`
}

type Result struct {
	Taxes             []TaxResult     `json:"taxes"`
	TotalTax          decimal.Decimal `json:"totalTax"`
	TotalWithTaxes    decimal.Decimal `json:"totalWithTaxes"`
	TotalWithoutTaxes decimal.Decimal `json:"totalWithoutTaxes"`
	CurrentPrice      decimal.Decimal `json:"currentPrice"`
	Subtotal          decimal.Decimal `json:"subtotal"`
}

// Round1 rounds to one decimal place, half away from zero.
func Round1(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}

// ParseRate reads a percentage such as "18", "18%" or "18,5 %".
func ParseRate(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("taux vide")
	}
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("taux invalide %q: %w", value, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("taux négatif %q", value)
	}
	return rate, nil
}

// ValidateTaxes checks every rate parses and names are unique.
func ValidateTaxes(taxes []TaxDefinition) error {
	seen := make(map[string]struct{}, len(taxes))
	for _, t := range taxes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("nom de taxe manquant")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("taxe %q définie deux fois", name)
		}
		seen[name] = struct{}{}
		if _, err := ParseRate(t.Value); err != nil {
			return fmt.Errorf("taxe %q: %w", name, err)
		}
	}
	return nil
}

// Calculate computes the totals of a document.
func Calculate(items []LineItem, taxes []TaxDefinition, discount *DocumentDiscount, amountType AmountType) Result {
	totalHT := decimal.Zero
	base := decimal.Zero

	for _, it := range items {
		line := LineTotal(it)
		totalHT = totalHT.Add(line)
		if it.HasTax {
			base = base.Add(line)
		}
	}

	subtotal := totalHT

	if discount != nil && discount.Value.IsPositive() {
		switch discount.Type {
		case DiscountMoney:
			ratio := discount.Value.Div(base.Add(discount.Value))
			totalHT = totalHT.Sub(discount.Value)
			base = base.Sub(base.Mul(ratio))
		default:
			totalHT = totalHT.Sub(totalHT.Mul(discount.Value).Div(hundred))
			base = base.Sub(base.Mul(discount.Value).Div(hundred))
		}
		totalHT = Round1(clamp(totalHT))
		base = Round1(clamp(base))
	}

	results := make([]TaxResult, len(taxes))
	rates := make([]decimal.Decimal, len(taxes))
	index := make(map[string]int, len(taxes))
	for i, t := range taxes {
		rate, err := ParseRate(t.Value)
		if err != nil {
			rate = decimal.Zero
		}
		rates[i] = rate
		index[t.Name] = i
		results[i] = TaxResult{
			Name:         t.Name,
			AppliedRates: []decimal.Decimal{rate},
			TaxPrice:     base,
			TotalTax:     Round1(base.Mul(rate).Div(hundred)),
		}
	}

	// Stacked amounts read the referenced tax's own amount, never a
	// previously stacked one, so declaration order does not matter.
	stacked := make([]decimal.Decimal, len(taxes))
	for i, t := range taxes {
		stacked[i] = results[i].TotalTax
		for _, ref := range t.Cumul {
			if !ref.Check {
				continue
			}
			j, ok := index[ref.Name]
			if !ok || j == i {
				continue
			}
			stacked[i] = stacked[i].Add(Round1(results[j].TotalTax.Mul(rates[i]).Div(hundred)))
		}
	}

	totalTax := decimal.Zero
	for i := range results {
		results[i].TotalTax = Round1(stacked[i])
		totalTax = totalTax.Add(results[i].TotalTax)
	}
	totalTax = Round1(totalTax)

	withTaxes := Round1(totalHT.Add(totalTax))
	current := totalHT
	if amountType == AmountTTC {
		current = withTaxes
	}

	return Result{
		Taxes:             results,
		TotalTax:          totalTax,
		TotalWithTaxes:    withTaxes,
		TotalWithoutTaxes: totalHT,
		CurrentPrice:      current,
		Subtotal:          subtotal,
	}
}

// LineTotal is the rounded, discounted amount of one line, never negative.
func LineTotal(it LineItem) decimal.Decimal {
	qty := it.Quantity
	if qty.LessThan(minQuantity) {
		qty = minQuantity
	}
	total := it.Price.Mul(qty)
	if it.Discount.IsPositive() {
		if it.DiscountType == DiscountMoney {
			total = total.Sub(it.Discount)
		} else {
			total = total.Sub(total.Mul(it.Discount).Div(hundred))
		}
	}
	return Round1(clamp(total))
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Total picks the billed total of a stored document.
func Total(amountType string, totalHT, totalTTC decimal.Decimal) decimal.Decimal {
	if AmountType(amountType) == AmountTTC {
		return totalTTC
	}
	return totalHT
}
