package enums

import "fmt"

// OrderStatus describes the lifecycle state of an order. Orders are immutable
// once created, so ORDERED is the only, terminal, state.
type OrderStatus string

const (
	OrderStatusOrdered OrderStatus = "ORDERED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusOrdered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
