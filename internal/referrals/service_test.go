package referrals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
)

type stubReferralsRepo struct {
	byCode  map[string]*models.Referral
	byOwner map[uuid.UUID]*models.Referral
	uses    map[uuid.UUID]int
}

func newStubReferralsRepo() *stubReferralsRepo {
	return &stubReferralsRepo{
		byCode:  make(map[string]*models.Referral),
		byOwner: make(map[uuid.UUID]*models.Referral),
		uses:    make(map[uuid.UUID]int),
	}
}

func (s *stubReferralsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReferralsRepo) CreateReferral(ctx context.Context, referral *models.Referral) (*models.Referral, error) {
	s.byCode[referral.Code] = referral
	s.byOwner[referral.OwnerProfileID] = referral
	return referral, nil
}

func (s *stubReferralsRepo) FindByCode(ctx context.Context, code string) (*models.Referral, error) {
	referral, ok := s.byCode[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return referral, nil
}

func (s *stubReferralsRepo) FindByOwner(ctx context.Context, ownerProfileID uuid.UUID) (*models.Referral, error) {
	referral, ok := s.byOwner[ownerProfileID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return referral, nil
}

func (s *stubReferralsRepo) IncrementUses(ctx context.Context, referralID uuid.UUID) error {
	s.uses[referralID]++
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func TestGetOrCreateCodeIsStable(t *testing.T) {
	repo := newStubReferralsRepo()
	svc, err := NewService(repo, nil, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	owner := uuid.New()

	first, err := svc.GetOrCreateCode(context.Background(), owner)
	if err != nil {
		t.Fatalf("create code: %v", err)
	}
	if len(first.Code) != codeLength {
		t.Fatalf("unexpected code %q", first.Code)
	}

	second, err := svc.GetOrCreateCode(context.Background(), owner)
	if err != nil {
		t.Fatalf("reuse code: %v", err)
	}
	if second.Code != first.Code {
		t.Fatalf("expected stable code, got %s then %s", first.Code, second.Code)
	}
}

func TestAttributeIncrementsUsesAndEmits(t *testing.T) {
	repo := newStubReferralsRepo()
	sink := &stubOutbox{}
	svc, err := NewService(repo, sink, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	referral := &models.Referral{ID: uuid.New(), Code: "ART2026X", OwnerProfileID: uuid.New()}
	repo.byCode[referral.Code] = referral
	orderID := uuid.New()

	if err := svc.Attribute(context.Background(), nil, "art2026x", orderID); err != nil {
		t.Fatalf("attribute: %v", err)
	}
	if repo.uses[referral.ID] != 1 {
		t.Fatalf("expected 1 use, got %d", repo.uses[referral.ID])
	}
	if len(sink.events) != 1 || sink.events[0].EventType != enums.EventReferralAttributed {
		t.Fatalf("expected referral_attributed event, got %+v", sink.events)
	}
}

func TestAttributeAbsorbsUnknownCode(t *testing.T) {
	repo := newStubReferralsRepo()
	sink := &stubOutbox{}
	svc, err := NewService(repo, sink, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	if err := svc.Attribute(context.Background(), nil, "NOSUCH99", uuid.New()); err != nil {
		t.Fatalf("unknown code must be absorbed, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("unknown code must not emit events, got %+v", sink.events)
	}
}
