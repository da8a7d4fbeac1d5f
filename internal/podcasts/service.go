package podcasts

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

// Actor identifies the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// CreateInput is the payload for listing a podcast or video.
type CreateInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	Kind        string  `json:"kind" validate:"required"`
	MediaURL    string  `json:"mediaUrl" validate:"required,url"`
	CoverURL    *string `json:"coverUrl"`
	DurationSec *int    `json:"durationSec"`
}

// UpdateInput carries partial podcast changes. Nil fields are untouched.
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CoverURL    *string `json:"coverUrl"`
	DurationSec *int    `json:"durationSec"`
}

// PodcastList is a page of podcasts with an optional next cursor.
type PodcastList struct {
	Podcasts   []models.Podcast `json:"podcasts"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// Service defines podcast operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Podcast, error)
	Update(ctx context.Context, actor Actor, podcastID uuid.UUID, input UpdateInput) (*models.Podcast, error)
	Delete(ctx context.Context, actor Actor, podcastID uuid.UUID) error
	Get(ctx context.Context, podcastID uuid.UUID) (*models.Podcast, error)
	List(ctx context.Context, kind *enums.PodcastKind, params pagination.Params) (*PodcastList, error)
}

type service struct {
	repo Repository
}

// NewService builds the podcast service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("podcasts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Podcast, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	kind, err := enums.ParsePodcastKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid podcast kind")
	}
	if input.Title == "" || input.MediaURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and media url required")
	}

	podcast := &models.Podcast{
		ID:          uuid.New(),
		ProfileID:   actor.ProfileID,
		Title:       input.Title,
		Description: input.Description,
		Kind:        kind,
		MediaURL:    input.MediaURL,
		CoverURL:    input.CoverURL,
		DurationSec: input.DurationSec,
	}
	if _, err := s.repo.CreatePodcast(ctx, podcast); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create podcast")
	}
	return podcast, nil
}

func (s *service) Update(ctx context.Context, actor Actor, podcastID uuid.UUID, input UpdateInput) (*models.Podcast, error) {
	podcast, err := s.ownedPodcast(ctx, actor, podcastID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CoverURL != nil {
		updates["cover_url"] = *input.CoverURL
	}
	if input.DurationSec != nil {
		updates["duration_sec"] = *input.DurationSec
	}
	if len(updates) == 0 {
		return podcast, nil
	}

	if err := s.repo.UpdatePodcast(ctx, podcastID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update podcast")
	}
	return s.repo.FindPodcast(ctx, podcastID)
}

func (s *service) Delete(ctx context.Context, actor Actor, podcastID uuid.UUID) error {
	if _, err := s.ownedPodcast(ctx, actor, podcastID); err != nil {
		return err
	}
	if err := s.repo.DeletePodcast(ctx, podcastID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete podcast")
	}
	return nil
}

func (s *service) Get(ctx context.Context, podcastID uuid.UUID) (*models.Podcast, error) {
	if podcastID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "podcast id required")
	}
	podcast, err := s.repo.FindPodcast(ctx, podcastID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "podcast not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load podcast")
	}
	return podcast, nil
}

func (s *service) List(ctx context.Context, kind *enums.PodcastKind, params pagination.Params) (*PodcastList, error) {
	rows, err := s.repo.List(ctx, kind, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list podcasts")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &PodcastList{Podcasts: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.Podcasts = rows[:limit]
	}
	return list, nil
}

func (s *service) ownedPodcast(ctx context.Context, actor Actor, podcastID uuid.UUID) (*models.Podcast, error) {
	podcast, err := s.Get(ctx, podcastID)
	if err != nil {
		return nil, err
	}
	if podcast.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "podcast does not belong to profile")
	}
	return podcast, nil
}
