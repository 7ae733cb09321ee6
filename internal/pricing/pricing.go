// Package pricing computes resolved unit prices and wizard totals.
// All functions are pure aside from diagnostic logging; bad numeric
// inputs are substituted with 0 so nothing downstream ever sees NaN.
package pricing

import (
	"math"

	"cellardoor/internal/domain"
	applog "cellardoor/internal/log"
)

// Totals is the aggregate view of a selection set.
type Totals struct {
	SubscriptionSubtotal float64 `json:"subscriptionSubtotal"`
	AddOnSubtotal        float64 `json:"addOnSubtotal"`
	DiscountAmount       float64 `json:"discountAmount"`
	OriginalSubtotal     float64 `json:"originalSubtotal"`
	GrandTotal           float64 `json:"grandTotal"`
}

// UnitPrice resolves the per-bottle price for an offering. Resolution
// order: case-specific individual price, then the selling plan's
// discount, then raw retail.
func UnitPrice(off domain.ProductOffering, caseSizeID string, plan *domain.SellingPlan) float64 {
	base := amount(off.Variant.Price, "variant.price", off.Variant.ID)
	if ip := off.IndividualPriceFor(caseSizeID); ip != nil {
		return applyDiscount(base, ip.Type, amount(ip.Amount, "individual.amount", off.Variant.ID))
	}
	if plan != nil && plan.Discount != nil {
		return applyDiscount(base, plan.Discount.Type, amount(plan.Discount.Amount, "plan.amount", plan.ID))
	}
	return base
}

// LineTotal is quantity times resolved unit price, input-guarded.
func LineTotal(sel domain.SelectedProduct) float64 {
	qty := sel.Quantity
	if qty < 0 {
		applog.Diag("pricing.qty.invalid", map[string]any{"variant": sel.VariantID, "qty": qty})
		qty = 0
	}
	return float64(qty) * amount(sel.UnitPrice, "selection.unitPrice", sel.VariantID)
}

// Aggregate rolls a selection set up into totals. Add-ons never count
// toward the subscription subtotal or the discount computation.
func Aggregate(main, addOns []domain.SelectedProduct) Totals {
	var t Totals
	for _, sel := range main {
		qty := sel.Quantity
		if qty < 0 {
			qty = 0
		}
		t.SubscriptionSubtotal += LineTotal(sel)
		t.OriginalSubtotal += float64(qty) * amount(sel.BasePrice, "selection.basePrice", sel.VariantID)
	}
	for _, sel := range addOns {
		t.AddOnSubtotal += LineTotal(sel)
	}
	t.DiscountAmount = t.OriginalSubtotal - t.SubscriptionSubtotal
	if t.DiscountAmount < 0 {
		applog.Diag("pricing.discount.negative", map[string]any{"discount": t.DiscountAmount})
		t.DiscountAmount = 0
	}
	t.GrandTotal = t.SubscriptionSubtotal + t.AddOnSubtotal
	return t
}

func applyDiscount(base float64, typ domain.DiscountType, amt float64) float64 {
	switch typ {
	case domain.DiscountPercentage:
		p := base * (1 - amt/100)
		if p < 0 {
			p = 0
		}
		return p
	case domain.DiscountFixedAmount:
		p := base - amt
		if p < 0 {
			p = 0
		}
		return p
	case domain.DiscountPrice:
		return amt
	default:
		applog.Diag("pricing.discount.unknown", map[string]any{"type": string(typ)})
		return base
	}
}

// amount guards a monetary input: NaN, infinite, or negative values
// collapse to 0 with a diagnostic.
func amount(v float64, field, ref string) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		applog.Diag("pricing.amount.invalid", map[string]any{"field": field, "ref": ref, "value": v})
		return 0
	}
	return v
}
