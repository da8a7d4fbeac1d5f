package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/paystack"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Gateway abstracts the payment processor used for order payment.
type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// InitResult carries the gateway redirect data back to the controller.
type InitResult struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// VerifyOutcome reports the normalized gateway status for a reference.
type VerifyOutcome struct {
	Status      enums.PaymentStatus `json:"status"`
	OrderStatus enums.OrderStatus   `json:"order_status"`
	Reference   string              `json:"reference"`
}

// OrderPaidEvent is emitted once a gateway verification succeeds.
type OrderPaidEvent struct {
	OrderID   uuid.UUID       `json:"order_id"`
	ProfileID uuid.UUID       `json:"profile_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentFailedEvent is emitted when the gateway reports a failed charge.
type PaymentFailedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	Reference string    `json:"reference"`
	Reason    string    `json:"reason"`
}

// Service defines payment operations.
type Service interface {
	Init(ctx context.Context, actor Actor, orderID uuid.UUID) (*InitResult, error)
	Verify(ctx context.Context, actor Actor, reference string) (*VerifyOutcome, error)
	ListForOrder(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	gateway     Gateway
	callbackURL string
	logg        *logger.Logger
}

// NewService builds the payment service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, gateway Gateway, callbackURL string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		outbox:      outboxSvc,
		gateway:     gateway,
		callbackURL: callbackURL,
		logg:        logg,
	}, nil
}

func (s *service) Init(ctx context.Context, actor Actor, orderID uuid.UUID) (*InitResult, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.ProfileID != actor.ProfileID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to profile")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	amount := order.TotalPrice
	if order.ShippingCost != nil {
		amount = amount.Add(*order.ShippingCost)
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	email, err := s.repo.FindProfileEmail(ctx, actor.ProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payer email")
	}

	reference := fmt.Sprintf("am-%s-%s", order.ID.String()[:8], uuid.NewString()[:8])
	initResult, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      amount,
		Reference:   reference,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		TransactionID: initResult.Reference,
		OrderID:       order.ID,
		PayeeID:       actor.ProfileID,
		PayeeEmail:    email,
		Amount:        amount,
		Status:        enums.PaymentStatusPending,
	}
	if _, err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	return &InitResult{
		AuthorizationURL: initResult.AuthorizationURL,
		Reference:        initResult.Reference,
	}, nil
}

func (s *service) Verify(ctx context.Context, actor Actor, reference string) (*VerifyOutcome, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	payment, err := s.repo.FindPaymentByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.PayeeID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to profile")
	}

	gatewayResult, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	status := mapGatewayStatus(gatewayResult.Status)
	outcome := &VerifyOutcome{Status: status, Reference: reference}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		outcome.OrderStatus = order.Status

		if payment.Status != status {
			if err := repo.UpdatePaymentStatus(ctx, payment.ID, status); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
			}
		}

		switch status {
		case enums.PaymentStatusSuccess:
			if order.Status == enums.OrderStatusPaid {
				return nil
			}
			if !order.Status.CanTransition(enums.OrderStatusPaid) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot transition to paid")
			}
			if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPaid); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
			outcome.OrderStatus = enums.OrderStatusPaid
			return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         buildActor(actor),
				Data: OrderPaidEvent{
					OrderID:   order.ID,
					ProfileID: order.ProfileID,
					Reference: reference,
					Amount:    payment.Amount,
				},
			})
		case enums.PaymentStatusFailed:
			if payment.Status == enums.PaymentStatusFailed {
				return nil
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregatePayment,
				AggregateID:   payment.ID,
				Version:       1,
				Actor:         buildActor(actor),
				Data: PaymentFailedEvent{
					OrderID:   payment.OrderID,
					Reference: reference,
					Reason:    gatewayResult.GatewayResponse,
				},
			})
		default:
			// Still pending at the gateway; nothing to change.
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *service) ListForOrder(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to profile")
	}

	rows, err := s.repo.FindPaymentsByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func mapGatewayStatus(raw string) enums.PaymentStatus {
	switch raw {
	case "success":
		return enums.PaymentStatusSuccess
	case "failed", "abandoned", "reversed":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}

func buildActor(actor Actor) *outbox.ActorRef {
	profile := actor.ProfileID
	return &outbox.ActorRef{
		UserID:    actor.UserID,
		ProfileID: &profile,
		Role:      actor.Role.String(),
	}
}
