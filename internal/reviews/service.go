package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// CreateInput is the payload for posting a review.
type CreateInput struct {
	ArtworkID uuid.UUID `json:"artworkId" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   *string   `json:"comment"`
}

// UpdateInput carries partial review changes. Nil fields are untouched.
type UpdateInput struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// ReviewList is a page of reviews with an optional next cursor.
type ReviewList struct {
	Reviews    []models.Review `json:"reviews"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// Service defines review operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Review, error)
	Update(ctx context.Context, actor Actor, reviewID uuid.UUID, input UpdateInput) (*models.Review, error)
	Delete(ctx context.Context, actor Actor, reviewID uuid.UUID) error
	ListByArtwork(ctx context.Context, artworkID uuid.UUID, params pagination.Params) (*ReviewList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the review service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Review, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if input.ArtworkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	if _, err := s.repo.FindReviewByPair(ctx, actor.ProfileID, input.ArtworkID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "artwork already reviewed")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}

	review := &models.Review{
		ID:        uuid.New(),
		ProfileID: actor.ProfileID,
		ArtworkID: input.ArtworkID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateReview(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		if err := repo.RecalculateArtworkRating(ctx, input.ArtworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) Update(ctx context.Context, actor Actor, reviewID uuid.UUID, input UpdateInput) (*models.Review, error) {
	review, err := s.ownedReview(ctx, actor, reviewID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
		}
		updates["rating"] = *input.Rating
	}
	if input.Comment != nil {
		updates["comment"] = *input.Comment
	}
	if len(updates) == 0 {
		return review, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateReview(ctx, reviewID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
		if err := repo.RecalculateArtworkRating(ctx, review.ArtworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindReview(ctx, reviewID)
}

func (s *service) Delete(ctx context.Context, actor Actor, reviewID uuid.UUID) error {
	review, err := s.ownedReview(ctx, actor, reviewID)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteReview(ctx, reviewID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		if err := repo.RecalculateArtworkRating(ctx, review.ArtworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate rating")
		}
		return nil
	})
}

func (s *service) ListByArtwork(ctx context.Context, artworkID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if artworkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
	}
	rows, err := s.repo.ListByArtwork(ctx, artworkID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &ReviewList{Reviews: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.Reviews = rows[:limit]
	}
	return list, nil
}

func (s *service) ownedReview(ctx context.Context, actor Actor, reviewID uuid.UUID) (*models.Review, error) {
	if reviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	review, err := s.repo.FindReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if review.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to profile")
	}
	return review, nil
}
