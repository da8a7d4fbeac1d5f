package artworks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines artwork listing operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Artwork, error)
	Update(ctx context.Context, actor Actor, artworkID uuid.UUID, input UpdateInput) (*models.Artwork, error)
	AdjustStock(ctx context.Context, actor Actor, artworkID uuid.UUID, delta int) (*models.Artwork, error)
	Deactivate(ctx context.Context, actor Actor, artworkID uuid.UUID) error
	Get(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error)
	Search(ctx context.Context, filters SearchFilters, params pagination.Params) (*ArtworkList, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the artwork service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("artworks repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Artwork, error) {
	if actor.Role != enums.UserRoleArtist && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "artist role required")
	}
	kind, err := enums.ParseArtworkKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid artwork kind")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	mediums := input.Mediums
	if mediums == nil {
		mediums = []string{}
	}

	artwork := &models.Artwork{
		ID:             uuid.New(),
		ProfileID:      actor.ProfileID,
		Title:          input.Title,
		Description:    input.Description,
		Kind:           kind,
		Mediums:        models.StringList(mediums),
		Price:          input.Price,
		PurchaseStatus: enums.PurchaseStatusInStock,
		ImageURL:       input.ImageURL,
		ThumbnailURL:   input.ThumbnailURL,
		IsActive:       true,
		Inventory: &models.ArtworkInventory{
			AvailableQty: input.Quantity,
		},
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateArtwork(ctx, artwork); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create artwork")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return artwork, nil
}

func (s *service) Update(ctx context.Context, actor Actor, artworkID uuid.UUID, input UpdateInput) (*models.Artwork, error) {
	artwork, err := s.ownedArtwork(ctx, actor, artworkID)
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
	if input.Kind != nil {
		kind, err := enums.ParseArtworkKind(*input.Kind)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid artwork kind")
		}
		updates["kind"] = kind
	}
	if input.Mediums != nil {
		updates["mediums"] = models.StringList(input.Mediums)
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *input.Price
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.ThumbnailURL != nil {
		updates["thumbnail_url"] = *input.ThumbnailURL
	}
	if len(updates) == 0 {
		return artwork, nil
	}

	if err := s.repo.UpdateArtwork(ctx, artworkID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update artwork")
	}
	return s.repo.FindArtwork(ctx, artworkID)
}

// AdjustStock moves available stock by delta. Negative deltas refuse to take
// stock below zero or touch reserved holds.
func (s *service) AdjustStock(ctx context.Context, actor Actor, artworkID uuid.UUID, delta int) (*models.Artwork, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta must be non-zero")
	}
	if _, err := s.ownedArtwork(ctx, actor, artworkID); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if delta > 0 {
			if err := repo.AddStock(ctx, artworkID, delta); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add stock")
			}
		} else {
			removed, err := repo.RemoveStock(ctx, artworkID, -delta)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove stock")
			}
			if !removed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "not enough unreserved stock")
			}
		}
		if err := repo.RefreshPurchaseStatus(ctx, artworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh purchase status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindArtwork(ctx, artworkID)
}

func (s *service) Deactivate(ctx context.Context, actor Actor, artworkID uuid.UUID) error {
	if _, err := s.ownedArtwork(ctx, actor, artworkID); err != nil {
		return err
	}
	if err := s.repo.UpdateArtwork(ctx, artworkID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate artwork")
	}
	return nil
}

func (s *service) Get(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error) {
	if artworkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
	}
	artwork, err := s.repo.FindArtwork(ctx, artworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}
	if !artwork.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
	}
	return artwork, nil
}

func (s *service) Search(ctx context.Context, filters SearchFilters, params pagination.Params) (*ArtworkList, error) {
	rows, err := s.repo.Search(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search artworks")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &ArtworkList{Artworks: make([]ArtworkSummary, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Artworks = append(list.Artworks, toSummary(row))
	}
	return list, nil
}

func (s *service) ownedArtwork(ctx context.Context, actor Actor, artworkID uuid.UUID) (*models.Artwork, error) {
	if artworkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
	}
	artwork, err := s.repo.FindArtwork(ctx, artworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}
	if artwork.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "artwork does not belong to profile")
	}
	return artwork, nil
}
