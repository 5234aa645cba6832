package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
)

// Line is one client-held cart entry. ExpectedPriceCents, when set, is the
// price the client last saw and is used only to surface drift warnings.
type Line struct {
	ListingID          uuid.UUID
	Qty                int
	ExpectedPriceCents *int64
}

// PricingPolicy holds the checkout pricing constants.
type PricingPolicy struct {
	DeliveryFeeCents int64
	DiscountRate     decimal.Decimal
}

// Summary is the advisory money breakdown for a cart.
type Summary struct {
	SubtotalCents    int64 `json:"subtotal_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	DiscountCents    int64 `json:"discount_cents"`
	TotalCents       int64 `json:"total_cents"`
}

// Cart is an in-memory working set keyed by listing. Order of insertion is
// preserved so quotes render the way the client built them.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add inserts a line or increases an existing line's quantity.
func (c *Cart) Add(listingID uuid.UUID, qty int) error {
	if listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	for i := range c.lines {
		if c.lines[i].ListingID == listingID {
			c.lines[i].Qty += qty
			return nil
		}
	}
	c.lines = append(c.lines, Line{ListingID: listingID, Qty: qty})
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(listingID uuid.UUID, qty int) {
	if qty <= 0 {
		c.Remove(listingID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ListingID == listingID {
			c.lines[i].Qty = qty
			return
		}
	}
	c.lines = append(c.lines, Line{ListingID: listingID, Qty: qty})
}

// Remove drops the line for the listing if present.
func (c *Cart) Remove(listingID uuid.UUID) {
	for i := range c.lines {
		if c.lines[i].ListingID == listingID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the current working set.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// ComputeSummary derives the money breakdown from unit prices. The
// delivery fee applies to any non-empty subtotal; the discount is the
// configured fraction of the subtotal floored to whole cents.
func ComputeSummary(lines []Line, priceCentsOf func(uuid.UUID) (int64, bool), policy PricingPolicy) Summary {
	var subtotal int64
	for _, line := range lines {
		price, ok := priceCentsOf(line.ListingID)
		if !ok || line.Qty <= 0 {
			continue
		}
		subtotal += price * int64(line.Qty)
	}

	summary := Summary{SubtotalCents: subtotal}
	if subtotal <= 0 {
		return summary
	}

	summary.DeliveryFeeCents = policy.DeliveryFeeCents
	if policy.DiscountRate.IsPositive() {
		discount := decimal.NewFromInt(subtotal).Mul(policy.DiscountRate).Floor()
		summary.DiscountCents = discount.IntPart()
	}
	summary.TotalCents = subtotal + summary.DeliveryFeeCents - summary.DiscountCents
	return summary
}
