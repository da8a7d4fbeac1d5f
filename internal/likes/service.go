package likes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
}

// Service defines like operations. Like and Unlike are idempotent.
type Service interface {
	Like(ctx context.Context, actor Actor, artworkID uuid.UUID) error
	Unlike(ctx context.Context, actor Actor, artworkID uuid.UUID) error
	ListForProfile(ctx context.Context, actor Actor) ([]models.Like, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the like service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("likes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Like(ctx context.Context, actor Actor, artworkID uuid.UUID) error {
	if actor.ProfileID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if artworkID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
	}

	exists, err := s.repo.LikeExists(ctx, actor.ProfileID, artworkID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check like")
	}
	if exists {
		return nil
	}

	like := &models.Like{
		ID:        uuid.New(),
		ProfileID: actor.ProfileID,
		ArtworkID: artworkID,
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateLike(ctx, like); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create like")
		}
		if err := repo.RefreshLikeCount(ctx, artworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh like count")
		}
		return nil
	})
}

func (s *service) Unlike(ctx context.Context, actor Actor, artworkID uuid.UUID) error {
	if actor.ProfileID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if artworkID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		removed, err := repo.DeleteLike(ctx, actor.ProfileID, artworkID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete like")
		}
		if !removed {
			return nil
		}
		if err := repo.RefreshLikeCount(ctx, artworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh like count")
		}
		return nil
	})
}

func (s *service) ListForProfile(ctx context.Context, actor Actor) ([]models.Like, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	rows, err := s.repo.ListByProfile(ctx, actor.ProfileID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list likes")
	}
	return rows, nil
}
