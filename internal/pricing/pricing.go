// Package pricing computes checkout totals. All amounts are int64 minor
// currency units; callers keep a single unit end to end.
package pricing

import "storefront-checkout/internal/model"

// Initial seeds pricing from a fresh cart snapshot: no shipping, no
// discount, no tax.
func Initial(snapshot model.CartSnapshot) model.Pricing {
	return model.Pricing{
		Subtotal: snapshot.Subtotal,
		Total:    snapshot.Subtotal,
	}
}

// WithShipping returns p with the shipping cost replaced and the total
// recomputed. Total is always derived, never mutated independently.
func WithShipping(p model.Pricing, cost int64) model.Pricing {
	p.ShippingCost = cost
	p.Total = p.Subtotal + p.ShippingCost - p.Discount + p.Tax
	return p
}

// ShippingCost returns the method's price, or zero when the cart
// subtotal reaches the method's free-shipping threshold.
func ShippingCost(method *model.ShippingMethod, subtotal int64) int64 {
	if method.MinOrderAmount > 0 && subtotal >= method.MinOrderAmount {
		return 0
	}
	return method.Price
}

// Snapshot builds the immutable cart copy for a new session. Quantity
// maps onto the effective (discounted-if-set) price per line.
func Snapshot(lines []model.CartLine) model.CartSnapshot {
	var (
		subtotal int64
		count    int32
	)
	for _, l := range lines {
		subtotal += l.EffectivePrice() * int64(l.Quantity)
		count += l.Quantity
	}
	return model.CartSnapshot{
		Lines:     lines,
		Subtotal:  subtotal,
		ItemCount: count,
	}
}
