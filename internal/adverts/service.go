package adverts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateInput is the payload for placing an advert.
type CreateInput struct {
	Title     string     `json:"title" validate:"required,max=200"`
	MediaURL  string     `json:"mediaUrl" validate:"required,url"`
	TargetURL *string    `json:"targetUrl"`
	StartsAt  time.Time  `json:"startsAt" validate:"required"`
	EndsAt    *time.Time `json:"endsAt"`
}

// Service defines advert operations. Writes are admin only.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Advert, error)
	Deactivate(ctx context.Context, actor Actor, advertID uuid.UUID) error
	Delete(ctx context.Context, actor Actor, advertID uuid.UUID) error
	ListActive(ctx context.Context) ([]models.Advert, error)
	ListAll(ctx context.Context, actor Actor) ([]models.Advert, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the advert service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("adverts repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Advert, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if input.Title == "" || input.MediaURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and media url required")
	}
	if input.EndsAt != nil && !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ends_at must be after starts_at")
	}

	advert := &models.Advert{
		ID:        uuid.New(),
		Title:     input.Title,
		MediaURL:  input.MediaURL,
		TargetURL: input.TargetURL,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		IsActive:  true,
	}
	if _, err := s.repo.CreateAdvert(ctx, advert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create advert")
	}
	return advert, nil
}

func (s *service) Deactivate(ctx context.Context, actor Actor, advertID uuid.UUID) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if _, err := s.find(ctx, advertID); err != nil {
		return err
	}
	if err := s.repo.UpdateAdvert(ctx, advertID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate advert")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, actor Actor, advertID uuid.UUID) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if _, err := s.find(ctx, advertID); err != nil {
		return err
	}
	if err := s.repo.DeleteAdvert(ctx, advertID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete advert")
	}
	return nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Advert, error) {
	rows, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adverts")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context, actor Actor) ([]models.Advert, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adverts")
	}
	return rows, nil
}

func (s *service) find(ctx context.Context, advertID uuid.UUID) (*models.Advert, error) {
	if advertID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "advert id required")
	}
	advert, err := s.repo.FindAdvert(ctx, advertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "advert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load advert")
	}
	return advert, nil
}
