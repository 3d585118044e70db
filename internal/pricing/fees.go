package pricing

import (
	"math"

	"pharmadispatch/internal/config"
	"pharmadispatch/internal/domain"
)

// Calculator computes order fees from injected parameters. All methods are
// pure; the computed totals are persisted once and never silently recomputed.
type Calculator struct {
	fees config.Fees
}

// NewCalculator creates a fee Calculator.
func NewCalculator(fees config.Fees) *Calculator {
	return &Calculator{fees: fees}
}

// DeliveryFee returns the distance-based delivery fee, clamped to the
// configured bounds. Pass a negative distance when it is unknown; the
// configured fallback distance is used instead.
func (c *Calculator) DeliveryFee(distanceKm float64) int64 {
	if distanceKm < 0 {
		distanceKm = c.fees.FallbackDistanceKm
	}
	fee := c.fees.DeliveryBase + ceilMul(distanceKm, c.fees.DeliveryPerKm)
	return clamp(fee, c.fees.DeliveryMin, c.fees.DeliveryMax)
}

// ServiceFee returns the platform service fee on the goods subtotal,
// or 0 when disabled.
func (c *Calculator) ServiceFee(subtotal int64) int64 {
	if !c.fees.ServiceEnabled {
		return 0
	}
	fee := ceilPct(subtotal, c.fees.ServicePct)
	return clamp(fee, c.fees.ServiceMin, c.fees.ServiceMax)
}

// PaymentFee returns the payment-processing fee on the full charged amount
// (subtotal plus prior fees). Cash payments are always free.
func (c *Calculator) PaymentFee(amount int64, method domain.PaymentMethod) int64 {
	if method == domain.PaymentCash || !c.fees.PaymentEnabled {
		return 0
	}
	return c.fees.PaymentFixed + ceilPct(amount, c.fees.PaymentPct)
}

// Quote assembles the order totals. The pharmacy is always owed exactly the
// subtotal; every fee is layered on top of it.
func (c *Calculator) Quote(subtotal int64, distanceKm float64, method domain.PaymentMethod) domain.OrderTotals {
	deliveryFee := c.DeliveryFee(distanceKm)
	serviceFee := c.ServiceFee(subtotal)
	paymentFee := c.PaymentFee(subtotal+deliveryFee+serviceFee, method)

	return domain.OrderTotals{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		ServiceFee:  serviceFee,
		PaymentFee:  paymentFee,
		Total:       subtotal + deliveryFee + serviceFee + paymentFee,
	}
}

func ceilMul(km float64, rate int64) int64 {
	return int64(math.Ceil(km * float64(rate)))
}

func ceilPct(amount int64, pct float64) int64 {
	return int64(math.Ceil(float64(amount) * pct / 100))
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
