package enums

import "fmt"

// NotificationAudience maps to the notification_audience enum in Postgres.
type NotificationAudience string

const (
	NotificationAudienceAdmin    NotificationAudience = "admin"
	NotificationAudienceCustomer NotificationAudience = "customer"
	NotificationAudienceDriver   NotificationAudience = "driver"
)

var validNotificationAudiences = []NotificationAudience{
	NotificationAudienceAdmin,
	NotificationAudienceCustomer,
	NotificationAudienceDriver,
}

// IsValid checks whether the given audience matches the canonical enum.
func (a NotificationAudience) IsValid() bool {
	for _, candidate := range validNotificationAudiences {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseNotificationAudience converts raw strings into NotificationAudience.
func ParseNotificationAudience(value string) (NotificationAudience, error) {
	for _, candidate := range validNotificationAudiences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification audience %q", value)
}

// NotificationActivity maps to the notification_activity enum in Postgres.
type NotificationActivity string

const (
	NotificationActivityOrderStatus     NotificationActivity = "order_status"
	NotificationActivityOrderRejected   NotificationActivity = "order_rejected"
	NotificationActivityPaymentProof    NotificationActivity = "payment_proof"
	NotificationActivityProofRejected   NotificationActivity = "proof_rejected"
	NotificationActivityDeliveryStatus  NotificationActivity = "delivery_status"
	NotificationActivityDeliveryCancel  NotificationActivity = "delivery_canceled"
	NotificationActivityAssignmentAdded NotificationActivity = "assignment_changed"
)

var validNotificationActivities = []NotificationActivity{
	NotificationActivityOrderStatus,
	NotificationActivityOrderRejected,
	NotificationActivityPaymentProof,
	NotificationActivityProofRejected,
	NotificationActivityDeliveryStatus,
	NotificationActivityDeliveryCancel,
	NotificationActivityAssignmentAdded,
}

// IsValid checks whether the given activity matches the canonical enum.
func (a NotificationActivity) IsValid() bool {
	for _, candidate := range validNotificationActivities {
		if candidate == a {
			return true
		}
	}
	return false
}
