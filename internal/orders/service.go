package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
	"github.com/rcmanalo/buildmart-backend/pkg/metrics"
	"github.com/rcmanalo/buildmart-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockMover is the inventory ledger surface the order machine needs.
type StockMover interface {
	Deduct(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
	Restore(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
}

// Service drives the order status machine.
type Service interface {
	AdvanceStatus(ctx context.Context, input AdvanceInput) error
	Reject(ctx context.Context, input RejectInput) error

	// MirrorDeliveryProgress and CancelFromDelivery run inside the delivery
	// machine's transaction, keyed off delivery transitions.
	MirrorDeliveryProgress(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, target enums.OrderStatus, actor *outbox.ActorRef) error
	CancelFromDelivery(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef) error
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	inventory   StockMover
	transitions *metrics.TransitionMetrics
	now         func() time.Time
}

// NewService builds an order service with the required dependencies.
// Transition metrics may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, inventory StockMover, transitions *metrics.TransitionMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		outbox:      outbox,
		inventory:   inventory,
		transitions: transitions,
		now:         time.Now,
	}, nil
}

func (s *service) AdvanceStatus(ctx context.Context, input AdvanceInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	var from enums.OrderStatus
	moved := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "order is in a final status")
		}
		if order.Status == input.Target {
			return nil
		}
		if !order.Status.CanAdvanceTo(input.Target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Target))
		}
		from = order.Status
		moved = true

		updates := map[string]any{"status": input.Target}

		switch input.Target {
		case enums.OrderStatusWaitingPayment:
			updates["approved_at"] = s.now()

		case enums.OrderStatusProcessing:
			if err := repo.UpdatePayment(ctx, order.ID, map[string]any{"proof_updated_at": nil}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear proof timestamp")
			}

		case enums.OrderStatusReady:
			if notYetDue(order.ScheduledDate, s.now()) {
				return pkgerrors.New(pkgerrors.CodeNotYetDue, "order is not scheduled for today yet")
			}
			if !order.StockDeducted {
				if err := s.inventory.Deduct(ctx, tx, order.Items); err != nil {
					return err
				}
				updates["stock_deducted"] = true
			}
			if order.DeliveryMethod == enums.DeliveryMethodStandard {
				if err := s.dispatchDelivery(ctx, repo, order); err != nil {
					return err
				}
			}

		case enums.OrderStatusCompleted:
			if order.DeliveryMethod != enums.DeliveryMethodPickUp {
				return pkgerrors.New(pkgerrors.CodePrecondition,
					"standard delivery orders complete through the delivery flow")
			}
			updates["collected_at"] = s.now()
		}

		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		return s.emitStatusChanged(ctx, tx, order, from, input.Target,
			buildActor(input.ActorUserID, input.ActorRole))
	})
	if err != nil {
		s.countRefusal(err)
		return err
	}
	if moved {
		s.transitions.IncOrderTransition(string(from), string(input.Target))
	}
	return nil
}

// countRefusal records guard-blocked transitions; infrastructure failures
// are not refusals.
func (s *service) countRefusal(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return
	}
	switch typed.Code() {
	case pkgerrors.CodeInvalidTransition,
		pkgerrors.CodeAlreadyFinal,
		pkgerrors.CodeNotYetDue,
		pkgerrors.CodePrecondition:
		s.transitions.IncRefused("order", string(typed.Code()))
	}
}

func (s *service) Reject(ctx context.Context, input RejectInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}

	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// A duplicate reject is a caller bug, not an idempotent no-op.
		if order.Status == enums.OrderStatusRejected {
			return pkgerrors.New(pkgerrors.CodePrecondition, "order already rejected")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "order is in a final status")
		}
		from = order.Status

		updates := map[string]any{
			"status":           enums.OrderStatusRejected,
			"rejection_reason": input.Reason,
			"rejected_by":      input.ActorUserID,
			"rejected_at":      s.now(),
		}
		if order.StockDeducted {
			if err := s.inventory.Restore(ctx, tx, order.Items); err != nil {
				return err
			}
			updates["stock_deducted"] = false
		}
		if order.Payment != nil && order.Payment.Status == enums.PaymentStatusPaid {
			if err := repo.UpdatePayment(ctx, order.ID, map[string]any{"status": enums.PaymentStatusPending}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "downgrade payment status")
			}
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderRejected,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: OrderRejectedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				Reason:      input.Reason,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		s.countRefusal(err)
		return err
	}
	s.transitions.IncOrderTransition(string(from), string(enums.OrderStatusRejected))
	return nil
}

// MirrorDeliveryProgress keeps the order row roughly in step with its
// delivery. Forward-only: a lagging or already-terminal order is left alone
// rather than treated as an error.
func (s *service) MirrorDeliveryProgress(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, target enums.OrderStatus, actor *outbox.ActorRef) error {
	repo := s.repo.WithTx(tx)
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status.IsTerminal() || order.Status == target {
		return nil
	}

	if target == enums.OrderStatusCompleted {
		if _, forward := order.Status.ForwardRank(); !forward {
			return nil
		}
	} else {
		currentRank, currentForward := order.Status.ForwardRank()
		targetRank, targetForward := target.ForwardRank()
		if !currentForward || !targetForward || targetRank <= currentRank {
			return nil
		}
	}

	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": target}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror order status")
	}
	return s.emitStatusChanged(ctx, tx, order, order.Status, target, actor)
}

// CancelFromDelivery cancels the order alongside its canceled delivery,
// returning any deducted stock. Runs in the delivery machine's transaction.
func (s *service) CancelFromDelivery(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef) error {
	repo := s.repo.WithTx(tx)
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == enums.OrderStatusCanceled {
		return nil
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "order is in a final status")
	}

	updates := map[string]any{"status": enums.OrderStatusCanceled}
	if order.StockDeducted {
		if err := s.inventory.Restore(ctx, tx, order.Items); err != nil {
			return err
		}
		updates["stock_deducted"] = false
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return s.emitStatusChanged(ctx, tx, order, order.Status, enums.OrderStatusCanceled, actor)
}

func (s *service) dispatchDelivery(ctx context.Context, repo Repository, order *models.Order) error {
	delivery := order.Delivery
	if delivery == nil {
		delivery = &models.Delivery{OrderID: order.ID, Status: enums.DeliveryStatusPending}
		if err := repo.CreateDelivery(ctx, delivery); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
		}
	}
	if delivery.Status.IsTerminal() || delivery.Status == enums.DeliveryStatusOutForDelivery {
		return nil
	}
	if err := repo.UpdateDeliveryStatus(ctx, delivery.ID, enums.DeliveryStatusOutForDelivery); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatch delivery")
	}
	return nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, from, to enums.OrderStatus, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actor,
		Data: OrderStatusChangedEvent{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			CustomerID:     order.CustomerID,
			From:           from,
			To:             to,
			DeliveryMethod: order.DeliveryMethod,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func buildActor(userID uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, Role: role}
}

// notYetDue compares calendar dates only; an order scheduled for a future
// day cannot go ready, regardless of time of day.
func notYetDue(scheduled *time.Time, now time.Time) bool {
	if scheduled == nil {
		return false
	}
	return scheduled.Format("2006-01-02") > now.Format("2006-01-02")
}
