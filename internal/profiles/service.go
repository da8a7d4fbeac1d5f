package profiles

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

// UpdateInput carries partial profile changes. Nil fields are untouched.
type UpdateInput struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatarUrl"`
}

// ProfileList is a page of artist profiles with an optional next cursor.
type ProfileList struct {
	Profiles   []models.Profile `json:"profiles"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// Service defines profile operations.
type Service interface {
	Get(ctx context.Context, profileID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, actor Actor, input UpdateInput) (*models.Profile, error)
	BecomeArtist(ctx context.Context, actor Actor) (*models.Profile, error)
	ListArtists(ctx context.Context, params pagination.Params) (*ProfileList, error)
}

type service struct {
	repo Repository
}

// NewService builds the profile service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, profileID uuid.UUID) (*models.Profile, error) {
	if profileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}
	profile, err := s.repo.FindProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

func (s *service) Update(ctx context.Context, actor Actor, input UpdateInput) (*models.Profile, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}

	updates := map[string]any{}
	if input.DisplayName != nil {
		if *input.DisplayName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name cannot be empty")
		}
		updates["display_name"] = *input.DisplayName
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateProfile(ctx, actor.ProfileID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}
	}
	return s.Get(ctx, actor.ProfileID)
}

// BecomeArtist flips the artist flag so the profile can list artworks.
func (s *service) BecomeArtist(ctx context.Context, actor Actor) (*models.Profile, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}

	profile, err := s.Get(ctx, actor.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile.IsArtist {
		return profile, nil
	}
	if err := s.repo.UpdateProfile(ctx, actor.ProfileID, map[string]any{"is_artist": true}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark artist")
	}
	return s.Get(ctx, actor.ProfileID)
}

func (s *service) ListArtists(ctx context.Context, params pagination.Params) (*ProfileList, error) {
	rows, err := s.repo.ListArtists(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artists")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &ProfileList{Profiles: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.Profiles = rows[:limit]
	}
	return list, nil
}
