package domain

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

// List of payment methods
const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Valid checks if the PaymentMethod is valid
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

// OrderTotals holds the amounts computed once at order creation. They are
// persisted with the delivery and consulted later, never recomputed.
// The pharmacy is always owed exactly Subtotal.
type OrderTotals struct {
	Subtotal    int64
	DeliveryFee int64
	ServiceFee  int64
	PaymentFee  int64
	Total       int64
}
