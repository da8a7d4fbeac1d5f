package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

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

type stubConsumerRepo struct {
	created   []models.Notification
	emails    map[uuid.UUID]string
	phones    map[uuid.UUID]string
	createErr error
}

func (s *stubConsumerRepo) CreateNotification(_ context.Context, notification *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, *notification)
	return nil
}

func (s *stubConsumerRepo) FindRecipientEmail(_ context.Context, profileID uuid.UUID) (string, error) {
	email, ok := s.emails[profileID]
	if !ok {
		return "", errors.New("no such profile")
	}
	return email, nil
}

func (s *stubConsumerRepo) FindRecipientPhone(_ context.Context, profileID uuid.UUID) (string, error) {
	return s.phones[profileID], nil
}

type stubEmailSender struct {
	sent []mailer.EmailMessage
}

func (s *stubEmailSender) SendEmail(_ context.Context, msg mailer.EmailMessage) error {
	s.sent = append(s.sent, msg)
	return nil
}

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]struct{}{}}
}

func (m *memoryStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "am:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

type stubSMSSender struct {
	sent []string
	to   []string
}

func (s *stubSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.to = append(s.to, to)
	s.sent = append(s.sent, body)
	return nil
}

type consumerFixture struct {
	consumer *Consumer
	repo     *stubConsumerRepo
	email    *stubEmailSender
	sms      *stubSMSSender
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	t.Helper()
	repo := &stubConsumerRepo{emails: map[uuid.UUID]string{}, phones: map[uuid.UUID]string{}}
	email := &stubEmailSender{}
	sms := &stubSMSSender{}
	manager, err := idempotency.NewManager(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	consumer, err := NewConsumer(repo, &pubsub.Subscriber{}, manager, email, sms, logg)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return &consumerFixture{consumer: consumer, repo: repo, email: email, sms: sms}
}

func encodeEnvelope(t *testing.T, eventID uuid.UUID, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

func TestConsumerCreatesPaidNotificationAndEmail(t *testing.T) {
	t.Parallel()

	f := newConsumerFixture(t)
	ctx := context.Background()
	profileID := uuid.New()
	f.repo.emails[profileID] = "buyer@example.com"

	payload := orderPaidPayload{
		OrderID:   uuid.New(),
		ProfileID: profileID,
		Reference: "am-ref-1",
		Amount:    decimal.RequireFromString("2440.50"),
	}
	data := encodeEnvelope(t, uuid.New(), payload)

	result := f.consumer.process(ctx, string(enums.EventOrderPaid), "m1", data)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.repo.created))
	}
	row := f.repo.created[0]
	if row.ProfileID != profileID || row.Type != enums.NotificationTypeOrderPaid {
		t.Fatalf("unexpected notification %+v", row)
	}
	if len(f.email.sent) != 1 || f.email.sent[0].To != "buyer@example.com" {
		t.Fatalf("expected email to buyer, got %+v", f.email.sent)
	}
}

func TestConsumerShippedNoticeSendsEmailAndSMS(t *testing.T) {
	t.Parallel()

	f := newConsumerFixture(t)
	ctx := context.Background()
	profileID := uuid.New()
	f.repo.emails[profileID] = "buyer@example.com"
	f.repo.phones[profileID] = "+2348012345678"

	payload := orderShippedPayload{
		OrderID:    uuid.New(),
		ProfileID:  profileID,
		TrackingID: "TRK-42",
		Carrier:    "dhl",
	}
	data := encodeEnvelope(t, uuid.New(), payload)

	result := f.consumer.process(ctx, string(enums.EventOrderShipped), "m1", data)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(f.email.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(f.email.sent))
	}
	if len(f.sms.sent) != 1 || f.sms.to[0] != "+2348012345678" {
		t.Fatalf("expected sms to buyer, got %+v", f.sms.to)
	}
	if !strings.Contains(f.sms.sent[0], "TRK-42") {
		t.Fatalf("expected tracking number in sms, got %q", f.sms.sent[0])
	}
}

func TestConsumerShippedNoticeSkipsSMSWithoutPhone(t *testing.T) {
	t.Parallel()

	f := newConsumerFixture(t)
	profileID := uuid.New()
	f.repo.emails[profileID] = "buyer@example.com"

	payload := orderShippedPayload{
		OrderID:    uuid.New(),
		ProfileID:  profileID,
		TrackingID: "TRK-7",
		Carrier:    "ups",
	}
	data := encodeEnvelope(t, uuid.New(), payload)

	result := f.consumer.process(context.Background(), string(enums.EventOrderShipped), "m1", data)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(f.sms.sent) != 0 {
		t.Fatalf("expected no sms, got %+v", f.sms.sent)
	}
}

func TestConsumerSkipsDuplicateEvents(t *testing.T) {
	t.Parallel()

	f := newConsumerFixture(t)
	ctx := context.Background()
	payload := orderCanceledPayload{OrderID: uuid.New(), ProfileID: uuid.New()}
	data := encodeEnvelope(t, uuid.New(), payload)

	first := f.consumer.process(ctx, string(enums.EventOrderCanceled), "m1", data)
	second := f.consumer.process(ctx, string(enums.EventOrderCanceled), "m2", data)
	if !first.ack || !second.ack {
		t.Fatalf("expected both deliveries acked")
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected a single notification, got %d", len(f.repo.created))
	}
}

func TestConsumerNacksOnRepoFailure(t *testing.T) {
	t.Parallel()

	f := newConsumerFixture(t)
	f.repo.createErr = errors.New("db down")
	ctx := context.Background()
	eventID := uuid.New()
	payload := orderShippedPayload{
		OrderID:    uuid.New(),
		ProfileID:  uuid.New(),
		TrackingID: "TRK-1",
		Carrier:    "dhl",
	}
	data := encodeEnvelope(t, eventID, payload)

	result := f.consumer.process(ctx, string(enums.EventOrderShipped), "m1", data)
	if !result.nack {
		t.Fatalf("expected nack on repo failure, got %+v", result)
	}

	f.repo.createErr = nil
	retry := f.consumer.process(ctx, string(enums.EventOrderShipped), "m2", data)
	if !retry.ack {
		t.Fatalf("expected retry to succeed, got %+v", retry)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected notification after retry, got %d", len(f.repo.created))
	}
}

func TestConsumerAcksUnhandledEvents(t *testing.T) {
	t.Parallel()

	f := newConsumerFixture(t)
	data := encodeEnvelope(t, uuid.New(), map[string]any{"order_id": uuid.New()})

	result := f.consumer.process(context.Background(), string(enums.EventOrderCreated), "m1", data)
	if !result.ack {
		t.Fatalf("expected ack for unhandled event, got %+v", result)
	}
	if len(f.repo.created) != 0 {
		t.Fatalf("expected no notifications, got %d", len(f.repo.created))
	}
}

func TestConsumerNotifiesReferralOwner(t *testing.T) {
	t.Parallel()

	f := newConsumerFixture(t)
	ownerID := uuid.New()
	payload := referralAttributedPayload{
		ReferralID:     uuid.New(),
		Code:           "AB23CD45",
		OwnerProfileID: ownerID,
		OrderID:        uuid.New(),
	}
	data := encodeEnvelope(t, uuid.New(), payload)

	result := f.consumer.process(context.Background(), string(enums.EventReferralAttributed), "m1", data)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.repo.created))
	}
	row := f.repo.created[0]
	if row.ProfileID != ownerID || row.Type != enums.NotificationTypeReferralUsed {
		t.Fatalf("unexpected notification %+v", row)
	}
}
