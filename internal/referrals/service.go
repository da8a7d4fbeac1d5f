package referrals

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

const (
	codeLength   = 8
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// AttributedEvent is emitted when an order carries a known referral code.
type AttributedEvent struct {
	ReferralID     uuid.UUID `json:"referral_id"`
	Code           string    `json:"code"`
	OwnerProfileID uuid.UUID `json:"owner_profile_id"`
	OrderID        uuid.UUID `json:"order_id"`
}

// Service defines referral operations. Attribute satisfies the order
// lifecycle's attributor dependency.
type Service interface {
	GetOrCreateCode(ctx context.Context, ownerProfileID uuid.UUID) (*models.Referral, error)
	Lookup(ctx context.Context, code string) (*models.Referral, error)
	Attribute(ctx context.Context, tx *gorm.DB, code string, orderID uuid.UUID) error
}

type service struct {
	repo   Repository
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the referral service. The outbox publisher may be nil
// when attribution events are not wanted.
func NewService(repo Repository, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("referrals repository required")
	}
	return &service{repo: repo, outbox: outboxSvc, logg: logg}, nil
}

func (s *service) GetOrCreateCode(ctx context.Context, ownerProfileID uuid.UUID) (*models.Referral, error) {
	if ownerProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}

	existing, err := s.repo.FindByOwner(ctx, ownerProfileID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral")
	}

	code, err := generateCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate referral code")
	}
	referral := &models.Referral{
		ID:             uuid.New(),
		Code:           code,
		OwnerProfileID: ownerProfileID,
	}
	created, err := s.repo.CreateReferral(ctx, referral)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create referral")
	}
	return created, nil
}

func (s *service) Lookup(ctx context.Context, code string) (*models.Referral, error) {
	normalized := normalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referral code required")
	}
	referral, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "referral code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral")
	}
	return referral, nil
}

// Attribute records a referral use inside the caller's transaction. An
// unknown code is absorbed silently so checkout never fails on a bad code.
func (s *service) Attribute(ctx context.Context, tx *gorm.DB, code string, orderID uuid.UUID) error {
	normalized := normalizeCode(code)
	if normalized == "" {
		return nil
	}

	repo := s.repo.WithTx(tx)
	referral, err := repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				logCtx := s.logg.WithField(ctx, "referral_code", normalized)
				s.logg.Warn(logCtx, "unknown referral code on order")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral")
	}

	if err := repo.IncrementUses(ctx, referral.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment referral uses")
	}

	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReferralAttributed,
		AggregateType: enums.AggregateReferral,
		AggregateID:   referral.ID,
		Version:       1,
		Data: AttributedEvent{
			ReferralID:     referral.ID,
			Code:           referral.Code,
			OwnerProfileID: referral.OwnerProfileID,
			OrderID:        orderID,
		},
	})
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
