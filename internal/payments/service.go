package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
	"github.com/rcmanalo/buildmart-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockMover is the inventory ledger surface the payment sub-state needs.
type StockMover interface {
	Deduct(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
	Restore(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
}

// Service owns the payment record tied 1:1 to each order.
type Service interface {
	SelectMethod(ctx context.Context, input SelectMethodInput) error
	RejectProof(ctx context.Context, input RejectProofInput) error
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory StockMover
	now       func() time.Time
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, inventory StockMover) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
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
		repo:      repo,
		tx:        tx,
		outbox:    outbox,
		inventory: inventory,
		now:       time.Now,
	}, nil
}

func (s *service) SelectMethod(ctx context.Context, input SelectMethodInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CustomerID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the order's customer can set the payment method")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "order is in a final status")
		}

		payment := order.Payment
		if payment == nil {
			payment = &models.PaymentRecord{OrderID: order.ID, Status: enums.PaymentStatusPending}
			if err := repo.CreatePayment(ctx, payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment record")
			}
		}

		updates := map[string]any{"method": input.Method}

		proofProvided := input.ProofRef != nil && *input.ProofRef != ""
		paid := false
		if proofProvided {
			updates["proof_ref"] = *input.ProofRef
			if firstUpload(payment) && input.Method == enums.PaymentMethodGCash {
				// The one path that marks an order paid before it goes ready.
				updates["status"] = enums.PaymentStatusPaid
				paid = true
				if !order.StockDeducted {
					if err := s.inventory.Deduct(ctx, tx, order.Items); err != nil {
						return err
					}
					if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"stock_deducted": true}); err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag stock deduction")
					}
				}
			} else if payment.ProofRejected {
				// Re-upload after a rejection stays pending and flags the new
				// proof for review. Uploads onto a record that was never
				// rejected leave the review markers alone.
				updates["proof_rejected"] = false
				updates["proof_updated_at"] = s.now()
			}
		}

		if err := repo.UpdatePayment(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment record")
		}

		if !proofProvided {
			return nil
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentProofSubmitted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: ProofSubmittedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				Method:      input.Method,
				Paid:        paid,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) RejectProof(ctx context.Context, input RejectProofInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !inPlacedPhase(order.Status) {
			return pkgerrors.New(pkgerrors.CodePrecondition,
				fmt.Sprintf("proof cannot be rejected while order is %s", order.Status))
		}

		paymentUpdates := map[string]any{
			"proof_ref":      nil,
			"proof_rejected": true,
			"status":         enums.PaymentStatusPending,
		}
		if err := repo.UpdatePayment(ctx, order.ID, paymentUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment record")
		}

		orderUpdates := map[string]any{"status": enums.OrderStatusWaitingPayment}
		if order.StockDeducted {
			if err := s.inventory.Restore(ctx, tx, order.Items); err != nil {
				return err
			}
			orderUpdates["stock_deducted"] = false
		}
		if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset order status")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentProofRejected,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: ProofRejectedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				Reason:      input.Reason,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// firstUpload reports whether no usable proof has ever been stored. A
// previously rejected proof makes the next upload a re-upload, even
// though the stored reference was cleared.
func firstUpload(payment *models.PaymentRecord) bool {
	if payment.ProofRejected {
		return false
	}
	return payment.ProofRef == nil || *payment.ProofRef == ""
}

// inPlacedPhase reports whether the order is still in review, before any
// stock leaves the building via the ready transition.
func inPlacedPhase(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPendingApproval, enums.OrderStatusWaitingPayment, enums.OrderStatusProcessing:
		return true
	}
	return false
}
