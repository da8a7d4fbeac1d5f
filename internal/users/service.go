package users

import (
	"context"
	"errors"
	"fmt"

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

// UpdateInput carries partial account changes. Nil fields are untouched.
type UpdateInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

// Service defines account operations.
type Service interface {
	Get(ctx context.Context, actor Actor, userID uuid.UUID) (*models.User, error)
	Update(ctx context.Context, actor Actor, userID uuid.UUID, input UpdateInput) (*models.User, error)
	Deactivate(ctx context.Context, actor Actor, userID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the account service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, userID uuid.UUID) (*models.User, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) Update(ctx context.Context, actor Actor, userID uuid.UUID, input UpdateInput) (*models.User, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateUser(ctx, userID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
	}
	return s.Get(ctx, actor, userID)
}

func (s *service) Deactivate(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if err := authorize(actor, userID); err != nil {
		return err
	}
	if err := s.repo.UpdateUser(ctx, userID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
	}
	return nil
}

func authorize(actor Actor, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if actor.UserID != userID && actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "account does not belong to caller")
	}
	return nil
}
