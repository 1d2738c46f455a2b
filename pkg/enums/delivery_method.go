package enums

import "fmt"

// DeliveryMethod maps to the delivery_method enum in Postgres.
type DeliveryMethod string

const (
	DeliveryMethodStandard DeliveryMethod = "standard_delivery"
	DeliveryMethodPickUp   DeliveryMethod = "pick_up"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodStandard,
	DeliveryMethodPickUp,
}

// IsValid checks whether the given method matches the canonical enum.
func (m DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw strings into DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
