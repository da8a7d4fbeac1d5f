package albums

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// Actor identifies the caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// CreateInput describes a new album.
type CreateInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	CoverURL    *string `json:"coverUrl" validate:"omitempty,url"`
}

// UpdateInput carries partial album updates.
type UpdateInput struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	CoverURL    *string `json:"coverUrl" validate:"omitempty,url"`
}

// ChildInput describes a new album entry.
type ChildInput struct {
	ArtworkID *uuid.UUID `json:"artworkId"`
	ImageURL  string     `json:"imageUrl" validate:"required,url"`
	Caption   *string    `json:"caption" validate:"omitempty,max=500"`
}

// AlbumList is a page of albums with the cursor for the next page.
type AlbumList struct {
	Items      []models.Album `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// Service defines album and album-child operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Album, error)
	Update(ctx context.Context, actor Actor, albumID uuid.UUID, input UpdateInput) (*models.Album, error)
	Delete(ctx context.Context, actor Actor, albumID uuid.UUID) error
	Get(ctx context.Context, albumID uuid.UUID) (*models.Album, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*AlbumList, error)
	AddChild(ctx context.Context, actor Actor, albumID uuid.UUID, input ChildInput) (*models.AlbumChild, error)
	RemoveChild(ctx context.Context, actor Actor, childID uuid.UUID) error
	ReorderChild(ctx context.Context, actor Actor, childID uuid.UUID, position int) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the album service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("albums repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Album, error) {
	if actor.Role != enums.UserRoleArtist && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "artist role required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	album := &models.Album{
		ID:          uuid.New(),
		ProfileID:   actor.ProfileID,
		Title:       title,
		Description: input.Description,
		CoverURL:    input.CoverURL,
	}
	created, err := s.repo.CreateAlbum(ctx, album)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create album")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, actor Actor, albumID uuid.UUID, input UpdateInput) (*models.Album, error) {
	album, err := s.ownedAlbum(ctx, actor, albumID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CoverURL != nil {
		updates["cover_url"] = *input.CoverURL
	}
	if len(updates) == 0 {
		return album, nil
	}

	if err := s.repo.UpdateAlbum(ctx, album.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update album")
	}
	return s.Get(ctx, album.ID)
}

func (s *service) Delete(ctx context.Context, actor Actor, albumID uuid.UUID) error {
	album, err := s.ownedAlbum(ctx, actor, albumID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAlbum(ctx, album.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete album")
	}
	return nil
}

func (s *service) Get(ctx context.Context, albumID uuid.UUID) (*models.Album, error) {
	album, err := s.repo.FindAlbum(ctx, albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "album not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find album")
	}
	return album, nil
}

func (s *service) ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*AlbumList, error) {
	rows, err := s.repo.ListByProfile(ctx, profileID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list albums")
	}

	list := &AlbumList{Items: rows}
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) > limit {
		list.Items = rows[:limit]
		last := list.Items[len(list.Items)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) AddChild(ctx context.Context, actor Actor, albumID uuid.UUID, input ChildInput) (*models.AlbumChild, error) {
	album, err := s.ownedAlbum(ctx, actor, albumID)
	if err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(input.ImageURL)
	if imageURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}

	var child *models.AlbumChild
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		max, err := repo.MaxChildPosition(ctx, album.ID)
		if err != nil {
			return err
		}
		child = &models.AlbumChild{
			ID:        uuid.New(),
			AlbumID:   album.ID,
			ArtworkID: input.ArtworkID,
			ImageURL:  imageURL,
			Caption:   input.Caption,
			Position:  max + 1,
		}
		_, err = repo.CreateChild(ctx, child)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add album entry")
	}
	return child, nil
}

func (s *service) RemoveChild(ctx context.Context, actor Actor, childID uuid.UUID) error {
	child, err := s.repo.FindChild(ctx, childID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "album entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find album entry")
	}
	if _, err := s.ownedAlbum(ctx, actor, child.AlbumID); err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteChild(ctx, child.ID); err != nil {
			return err
		}
		max, err := repo.MaxChildPosition(ctx, child.AlbumID)
		if err != nil {
			return err
		}
		if max <= child.Position {
			return nil
		}
		return repo.ShiftChildPositions(ctx, child.AlbumID, child.Position+1, max, -1)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove album entry")
	}
	return nil
}

func (s *service) ReorderChild(ctx context.Context, actor Actor, childID uuid.UUID, position int) error {
	if position < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "position cannot be negative")
	}

	child, err := s.repo.FindChild(ctx, childID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "album entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find album entry")
	}
	if _, err := s.ownedAlbum(ctx, actor, child.AlbumID); err != nil {
		return err
	}
	if position == child.Position {
		return nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		max, err := repo.MaxChildPosition(ctx, child.AlbumID)
		if err != nil {
			return err
		}
		target := position
		if target > max {
			target = max
		}
		if target == child.Position {
			return nil
		}
		if target < child.Position {
			if err := repo.ShiftChildPositions(ctx, child.AlbumID, target, child.Position-1, 1); err != nil {
				return err
			}
		} else {
			if err := repo.ShiftChildPositions(ctx, child.AlbumID, child.Position+1, target, -1); err != nil {
				return err
			}
		}
		return repo.UpdateChild(ctx, child.ID, map[string]any{"position": target})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reorder album entry")
	}
	return nil
}

func (s *service) ownedAlbum(ctx context.Context, actor Actor, albumID uuid.UUID) (*models.Album, error) {
	album, err := s.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRoleAdmin && album.ProfileID != actor.ProfileID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the album owner")
	}
	return album, nil
}
