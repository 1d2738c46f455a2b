package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
	"github.com/rcmanalo/buildmart-backend/pkg/mailer"
	"github.com/rcmanalo/buildmart-backend/pkg/outbox"
	"github.com/rcmanalo/buildmart-backend/pkg/outbox/idempotency"
)

const fulfillmentConsumer = "fulfillment-notifications"

type consumerRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindOrderCustomer(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error)
}

// SMSSender is the outbound text channel, satisfied by sms.Client.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// MailSender is the outbound email channel, satisfied by mailer.Client.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Consumer fans domain events out into notification rows plus
// best-effort SMS and email. Store writes can fail the message; the
// outbound channels never do.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	sms          SMSSender
	mail         MailSender
	logg         *logger.Logger
}

// NewConsumer builds the fulfillment notification consumer. SMS and mail
// senders are optional channels and may be nil.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, sms SMSSender, mail MailSender, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		sms:          sms,
		mail:         mail,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, fulfillmentConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.route(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, fulfillmentConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) route(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderStatusChanged:
		return c.handleOrderStatus(ctx, data, logCtx)
	case enums.EventOrderRejected:
		return c.handleOrderRejected(ctx, data, logCtx)
	case enums.EventPaymentProofSubmitted:
		return c.handleProofSubmitted(ctx, data, logCtx)
	case enums.EventPaymentProofRejected:
		return c.handleProofRejected(ctx, data, logCtx)
	case enums.EventDeliveryStatusChanged:
		return c.handleDeliveryStatus(ctx, data, logCtx)
	case enums.EventDeliveryCanceled:
		return c.handleDeliveryCanceled(ctx, data, logCtx)
	case enums.EventDeliveryAssigned:
		return c.handleAssignment(ctx, data, logCtx)
	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

type orderStatusPayload struct {
	OrderID        uuid.UUID            `json:"order_id"`
	OrderNumber    int64                `json:"order_number"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	From           enums.OrderStatus    `json:"from"`
	To             enums.OrderStatus    `json:"to"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
}

func (c *Consumer) handleOrderStatus(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload orderStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	message := fmt.Sprintf("Order #%d is now %s.", payload.OrderNumber, payload.To)
	if err := c.repo.Create(ctx, &models.Notification{
		Audience:    enums.NotificationAudienceCustomer,
		RecipientID: &payload.CustomerID,
		Activity:    enums.NotificationActivityOrderStatus,
		OrderID:     &payload.OrderID,
		Message:     message,
	}); err != nil {
		return err
	}
	if err := c.repo.Create(ctx, &models.Notification{
		Audience: enums.NotificationAudienceAdmin,
		Activity: enums.NotificationActivityOrderStatus,
		OrderID:  &payload.OrderID,
		Message:  fmt.Sprintf("Order #%d moved to %s.", payload.OrderNumber, payload.To),
	}); err != nil {
		return err
	}
	// ready-for-pickup gets a text
	if payload.To == enums.OrderStatusReady && payload.DeliveryMethod == enums.DeliveryMethodPickUp {
		c.sendSMS(ctx, payload.CustomerID,
			fmt.Sprintf("BuildMart: order #%d is ready for pick up.", payload.OrderNumber), logCtx)
	}
	return nil
}

type orderRejectedPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Reason      string    `json:"reason"`
}

func (c *Consumer) handleOrderRejected(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload orderRejectedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	message := fmt.Sprintf("Order #%d was rejected. Reason: %s", payload.OrderNumber, payload.Reason)
	if err := c.repo.Create(ctx, &models.Notification{
		Audience:    enums.NotificationAudienceCustomer,
		RecipientID: &payload.CustomerID,
		Activity:    enums.NotificationActivityOrderRejected,
		OrderID:     &payload.OrderID,
		Message:     message,
	}); err != nil {
		return err
	}
	if err := c.repo.Create(ctx, &models.Notification{
		Audience: enums.NotificationAudienceAdmin,
		Activity: enums.NotificationActivityOrderRejected,
		OrderID:  &payload.OrderID,
		Message:  fmt.Sprintf("Order #%d rejected. Reason: %s", payload.OrderNumber, payload.Reason),
	}); err != nil {
		return err
	}
	c.sendSMS(ctx, payload.CustomerID,
		fmt.Sprintf("BuildMart: order #%d was rejected. %s", payload.OrderNumber, payload.Reason), logCtx)
	return nil
}

type proofSubmittedPayload struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber int64               `json:"order_number"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	Method      enums.PaymentMethod `json:"method"`
	Paid        bool                `json:"paid"`
}

func (c *Consumer) handleProofSubmitted(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload proofSubmittedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	message := fmt.Sprintf("Order #%d submitted a proof of payment for review.", payload.OrderNumber)
	if payload.Paid {
		message = fmt.Sprintf("Order #%d paid via %s, proof attached.", payload.OrderNumber, payload.Method)
	}
	// admin broadcast row, no single recipient
	return c.repo.Create(ctx, &models.Notification{
		Audience: enums.NotificationAudienceAdmin,
		Activity: enums.NotificationActivityPaymentProof,
		OrderID:  &payload.OrderID,
		Message:  message,
	})
}

type proofRejectedPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Reason      string    `json:"reason"`
}

func (c *Consumer) handleProofRejected(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload proofRejectedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	message := fmt.Sprintf("The proof of payment for order #%d was rejected. Please upload a new one.", payload.OrderNumber)
	if payload.Reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, payload.Reason)
	}
	if err := c.repo.Create(ctx, &models.Notification{
		Audience:    enums.NotificationAudienceCustomer,
		RecipientID: &payload.CustomerID,
		Activity:    enums.NotificationActivityProofRejected,
		OrderID:     &payload.OrderID,
		Message:     message,
	}); err != nil {
		return err
	}
	c.sendContact(ctx, payload.CustomerID, "Proof of payment rejected", message, logCtx)
	return nil
}

type deliveryStatusPayload struct {
	DeliveryID uuid.UUID            `json:"delivery_id"`
	OrderID    uuid.UUID            `json:"order_id"`
	From       enums.DeliveryStatus `json:"from"`
	To         enums.DeliveryStatus `json:"to"`
}

func (c *Consumer) handleDeliveryStatus(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload deliveryStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	message := fmt.Sprintf("Your delivery is now %s.", payload.To)
	customerID, err := c.orderCustomer(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if err := c.repo.Create(ctx, &models.Notification{
		Audience:    enums.NotificationAudienceCustomer,
		RecipientID: customerID,
		Activity:    enums.NotificationActivityDeliveryStatus,
		OrderID:     &payload.OrderID,
		DeliveryID:  &payload.DeliveryID,
		Message:     message,
	}); err != nil {
		return err
	}
	if err := c.repo.Create(ctx, &models.Notification{
		Audience:   enums.NotificationAudienceAdmin,
		Activity:   enums.NotificationActivityDeliveryStatus,
		OrderID:    &payload.OrderID,
		DeliveryID: &payload.DeliveryID,
		Message:    fmt.Sprintf("Delivery for order %s moved to %s.", payload.OrderID, payload.To),
	}); err != nil {
		return err
	}
	switch payload.To {
	case enums.DeliveryStatusPreparing, enums.DeliveryStatusOutForDelivery, enums.DeliveryStatusDelivered:
		if customerID != nil {
			c.sendSMS(ctx, *customerID, fmt.Sprintf("BuildMart: %s", message), logCtx)
		}
	}
	return nil
}

type deliveryCanceledPayload struct {
	DeliveryID    uuid.UUID `json:"delivery_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Reason        string    `json:"reason"`
	Notes         *string   `json:"notes,omitempty"`
	WasInProgress bool      `json:"was_in_progress"`
}

func (c *Consumer) handleDeliveryCanceled(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload deliveryCanceledPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	customerID, err := c.orderCustomer(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("Your delivery was canceled. Reason: %s", payload.Reason)
	if err := c.repo.Create(ctx, &models.Notification{
		Audience:    enums.NotificationAudienceCustomer,
		RecipientID: customerID,
		Activity:    enums.NotificationActivityDeliveryCancel,
		OrderID:     &payload.OrderID,
		DeliveryID:  &payload.DeliveryID,
		Message:     message,
	}); err != nil {
		return err
	}
	if customerID != nil {
		c.sendEmail(ctx, *customerID, "Delivery canceled",
			message+" Please contact the store to reschedule.", logCtx)
	}
	return nil
}

type assignmentPayload struct {
	DeliveryID uuid.UUID   `json:"delivery_id"`
	OrderID    uuid.UUID   `json:"order_id"`
	DriverIDs  []uuid.UUID `json:"driver_ids"`
	VehicleIDs []uuid.UUID `json:"vehicle_ids"`
}

func (c *Consumer) handleAssignment(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload assignmentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	var errs error
	for _, driverID := range payload.DriverIDs {
		recipient := driverID
		err := c.repo.Create(ctx, &models.Notification{
			Audience:    enums.NotificationAudienceDriver,
			RecipientID: &recipient,
			Activity:    enums.NotificationActivityAssignmentAdded,
			OrderID:     &payload.OrderID,
			DeliveryID:  &payload.DeliveryID,
			Message:     "You have been assigned a delivery.",
		})
		errs = multierr.Append(errs, err)
	}
	return errs
}

// orderCustomer resolves the customer for events that only carry an
// order id. A missing order is not fatal for fan-out; the admin row
// still lands.
func (c *Consumer) orderCustomer(ctx context.Context, orderID uuid.UUID) (*uuid.UUID, error) {
	customerID, err := c.repo.FindOrderCustomer(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customerID, nil
}

func (c *Consumer) sendSMS(ctx context.Context, userID uuid.UUID, message string, logCtx context.Context) {
	if c.sms == nil {
		return
	}
	user, err := c.repo.FindUser(ctx, userID)
	if err != nil || user.Phone == nil || *user.Phone == "" {
		c.logg.Info(logCtx, "no sms target for user")
		return
	}
	if err := c.sms.Send(ctx, *user.Phone, message); err != nil {
		c.logg.Error(logCtx, "sms send failed", err)
	}
}

func (c *Consumer) sendEmail(ctx context.Context, userID uuid.UUID, subject, body string, logCtx context.Context) {
	if c.mail == nil {
		return
	}
	user, err := c.repo.FindUser(ctx, userID)
	if err != nil || user.Email == "" {
		c.logg.Info(logCtx, "no email target for user")
		return
	}
	if err := c.mail.Send(ctx, mailer.Message{To: user.Email, Subject: subject, Body: body}); err != nil {
		c.logg.Error(logCtx, "email send failed", err)
	}
}

// sendContact attempts both channels, logging and swallowing failures.
func (c *Consumer) sendContact(ctx context.Context, userID uuid.UUID, subject, body string, logCtx context.Context) {
	c.sendSMS(ctx, userID, fmt.Sprintf("BuildMart: %s", body), logCtx)
	c.sendEmail(ctx, userID, subject, body, logCtx)
}
