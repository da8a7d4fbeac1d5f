package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/mailer"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/outbox/idempotency"
)

const orderNotificationConsumer = "order-notifications"

type consumerRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	FindRecipientEmail(ctx context.Context, profileID uuid.UUID) (string, error)
	FindRecipientPhone(ctx context.Context, profileID uuid.UUID) (string, error)
}

// Consumer watches domain events and turns order lifecycle transitions into
// notifications and recipient emails.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	email        mailer.EmailSender
	sms          mailer.SMSSender
	logg         *logger.Logger
}

// NewConsumer builds the order notification consumer. The email and SMS
// senders may be nil, in which case those channels are skipped and only
// in-app notifications are written.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, email mailer.EmailSender, sms mailer.SMSSender, logg *logger.Logger) (*Consumer, error) {
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
		email:        email,
		sms:          sms,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.Attributes["event_type"], msg.ID, msg.Data)
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

func (c *Consumer) process(ctx context.Context, eventType, messageID string, data []byte) processResult {
	fields := map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)
	c.logg.Debug(logCtx, "received event")

	handler := c.handlerFor(enums.OutboxEventType(eventType))
	if handler == nil {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := handler(ctx, logCtx, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

type eventHandler func(ctx context.Context, logCtx context.Context, data json.RawMessage) error

func (c *Consumer) handlerFor(eventType enums.OutboxEventType) eventHandler {
	switch eventType {
	case enums.EventOrderPaid:
		return c.handleOrderPaid
	case enums.EventOrderShipped:
		return c.handleOrderShipped
	case enums.EventOrderCanceled:
		return c.handleOrderCanceled
	case enums.EventReferralAttributed:
		return c.handleReferralAttributed
	default:
		return nil
	}
}

type orderPaidPayload struct {
	OrderID   uuid.UUID       `json:"order_id"`
	ProfileID uuid.UUID       `json:"profile_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

func (c *Consumer) handleOrderPaid(ctx context.Context, logCtx context.Context, data json.RawMessage) error {
	var payload orderPaidPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order paid payload: %w", err)
	}
	if payload.ProfileID == uuid.Nil {
		return fmt.Errorf("profile id missing")
	}

	message := fmt.Sprintf("Your payment of %s for order %s was received.", payload.Amount.StringFixed(2), shortID(payload.OrderID))
	if err := c.createNotification(ctx, payload.ProfileID, enums.NotificationTypeOrderPaid, "Payment received", message, data); err != nil {
		return err
	}
	c.sendEmail(ctx, logCtx, payload.ProfileID, "Payment received", message)
	c.logg.Info(logCtx, "buyer notified of payment")
	return nil
}

type orderShippedPayload struct {
	OrderID    uuid.UUID `json:"order_id"`
	ProfileID  uuid.UUID `json:"profile_id"`
	TrackingID string    `json:"tracking_id"`
	Carrier    string    `json:"carrier"`
}

func (c *Consumer) handleOrderShipped(ctx context.Context, logCtx context.Context, data json.RawMessage) error {
	var payload orderShippedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order shipped payload: %w", err)
	}
	if payload.ProfileID == uuid.Nil {
		return fmt.Errorf("profile id missing")
	}

	message := fmt.Sprintf("Order %s is on its way with %s. Tracking number: %s.", shortID(payload.OrderID), payload.Carrier, payload.TrackingID)
	if err := c.createNotification(ctx, payload.ProfileID, enums.NotificationTypeOrderShipped, "Order shipped", message, data); err != nil {
		return err
	}
	c.sendEmail(ctx, logCtx, payload.ProfileID, "Your order has shipped", message)
	c.sendSMS(ctx, logCtx, payload.ProfileID, message)
	c.logg.Info(logCtx, "buyer notified of shipment")
	return nil
}

type orderCanceledPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	ProfileID uuid.UUID `json:"profile_id"`
}

func (c *Consumer) handleOrderCanceled(ctx context.Context, logCtx context.Context, data json.RawMessage) error {
	var payload orderCanceledPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order canceled payload: %w", err)
	}
	if payload.ProfileID == uuid.Nil {
		return fmt.Errorf("profile id missing")
	}

	message := fmt.Sprintf("Order %s was canceled and any reserved artworks were released.", shortID(payload.OrderID))
	if err := c.createNotification(ctx, payload.ProfileID, enums.NotificationTypeOrderCanceled, "Order canceled", message, data); err != nil {
		return err
	}
	c.logg.Info(logCtx, "buyer notified of cancellation")
	return nil
}

type referralAttributedPayload struct {
	ReferralID     uuid.UUID `json:"referral_id"`
	Code           string    `json:"code"`
	OwnerProfileID uuid.UUID `json:"owner_profile_id"`
	OrderID        uuid.UUID `json:"order_id"`
}

func (c *Consumer) handleReferralAttributed(ctx context.Context, logCtx context.Context, data json.RawMessage) error {
	var payload referralAttributedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse referral payload: %w", err)
	}
	if payload.OwnerProfileID == uuid.Nil {
		return fmt.Errorf("owner profile id missing")
	}

	message := fmt.Sprintf("Your referral code %s was used on a new order.", payload.Code)
	if err := c.createNotification(ctx, payload.OwnerProfileID, enums.NotificationTypeReferralUsed, "Referral used", message, data); err != nil {
		return err
	}
	c.logg.Info(logCtx, "referrer notified")
	return nil
}

func (c *Consumer) createNotification(ctx context.Context, profileID uuid.UUID, kind enums.NotificationType, title, message string, payload json.RawMessage) error {
	notification := &models.Notification{
		ProfileID: profileID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Payload:   payload,
	}
	return c.repo.CreateNotification(ctx, notification)
}

// sendEmail is best effort. The in-app notification is already committed, so
// delivery failures are logged and the message is still acked.
func (c *Consumer) sendEmail(ctx context.Context, logCtx context.Context, profileID uuid.UUID, subject, body string) {
	if c.email == nil {
		return
	}
	address, err := c.repo.FindRecipientEmail(ctx, profileID)
	if err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "profile_id", profileID.String()), "recipient email lookup failed")
		return
	}
	err = c.email.SendEmail(ctx, mailer.EmailMessage{
		To:        address,
		Subject:   subject,
		PlainBody: body,
	})
	if err != nil {
		c.logg.Error(logCtx, "notification email delivery failed", err)
	}
}

// sendSMS mirrors sendEmail: best effort, skipped when no sender is wired or
// the recipient has no phone number on file.
func (c *Consumer) sendSMS(ctx context.Context, logCtx context.Context, profileID uuid.UUID, body string) {
	if c.sms == nil {
		return
	}
	phone, err := c.repo.FindRecipientPhone(ctx, profileID)
	if err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "profile_id", profileID.String()), "recipient phone lookup failed")
		return
	}
	if phone == "" {
		return
	}
	if err := c.sms.SendSMS(ctx, phone, body); err != nil {
		c.logg.Error(logCtx, "notification sms delivery failed", err)
	}
}

func shortID(id uuid.UUID) string {
	value := id.String()
	if len(value) > 8 {
		return value[:8]
	}
	return value
}
