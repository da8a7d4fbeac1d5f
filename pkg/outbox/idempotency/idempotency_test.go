package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// markerStore records SETNX and DEL traffic so tests can assert on the
// exact keys the manager writes.
type markerStore struct {
	claimed map[string]struct{}
	failSet error
	setTTLs map[string]time.Duration
	deleted []string
}

func newMarkerStore() *markerStore {
	return &markerStore{
		claimed: map[string]struct{}{},
		setTTLs: map[string]time.Duration{},
	}
}

func (s *markerStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (s *markerStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if s.failSet != nil {
		return false, s.failSet
	}
	s.setTTLs[key] = ttl
	if _, ok := s.claimed[key]; ok {
		return false, nil
	}
	s.claimed[key] = struct{}{}
	return true, nil
}

func (s *markerStore) IdempotencyKey(scope, id string) string {
	return "am:idempotency:" + scope + ":" + id
}

func (s *markerStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.claimed, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func processedKeyFor(consumer string, eventID uuid.UUID) string {
	return "am:idempotency:evt:processed:" + consumer + ":" + eventID.String()
}

func TestCheckAndMarkProcessedClaimsOnce(t *testing.T) {
	store := newMarkerStore()
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx := context.Background()
	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(ctx, "order-notifications", eventID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if already {
		t.Fatalf("first delivery should not be marked processed")
	}

	key := processedKeyFor("order-notifications", eventID)
	if ttl := store.setTTLs[key]; ttl != 24*time.Hour {
		t.Fatalf("unexpected ttl %v for key %q", ttl, key)
	}

	already, err = manager.CheckAndMarkProcessed(ctx, "order-notifications", eventID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !already {
		t.Fatalf("redelivery should report already processed")
	}
}

func TestCheckAndMarkProcessedScopedPerConsumer(t *testing.T) {
	store := newMarkerStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx := context.Background()
	eventID := uuid.New()
	if _, err := manager.CheckAndMarkProcessed(ctx, "order-notifications", eventID); err != nil {
		t.Fatalf("claim for first consumer: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(ctx, "referral-rewards", eventID)
	if err != nil {
		t.Fatalf("claim for second consumer: %v", err)
	}
	if already {
		t.Fatalf("the same event should be claimable by a different consumer")
	}
}

func TestCheckAndMarkProcessedSurfacesStoreErrors(t *testing.T) {
	store := newMarkerStore()
	store.failSet = errors.New("redis gone")
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "order-notifications", uuid.New()); err == nil {
		t.Fatal("expected the store error to propagate")
	}
}

func TestDeleteReleasesMarker(t *testing.T) {
	store := newMarkerStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx := context.Background()
	eventID := uuid.New()
	if _, err := manager.CheckAndMarkProcessed(ctx, "order-notifications", eventID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := manager.Delete(ctx, "order-notifications", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != processedKeyFor("order-notifications", eventID) {
		t.Fatalf("unexpected deleted keys %v", store.deleted)
	}

	already, err := manager.CheckAndMarkProcessed(ctx, "order-notifications", eventID)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if already {
		t.Fatalf("event should be claimable again after delete")
	}
}

func TestNewManagerRejectsMissingStore(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
}
