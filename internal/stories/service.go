package stories

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
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Actor identifies the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// CreateInput is the payload for drafting a story.
type CreateInput struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Body     string   `json:"body" validate:"required"`
	Tags     []string `json:"tags"`
	CoverURL *string  `json:"coverUrl"`
}

// UpdateInput carries partial story changes. Nil fields are untouched.
type UpdateInput struct {
	Title    *string  `json:"title"`
	Body     *string  `json:"body"`
	Tags     []string `json:"tags"`
	CoverURL *string  `json:"coverUrl"`
}

// StoryList is a page of stories with an optional next cursor.
type StoryList struct {
	Stories    []models.Story `json:"stories"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// Service defines story operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Story, error)
	Update(ctx context.Context, actor Actor, storyID uuid.UUID, input UpdateInput) (*models.Story, error)
	Publish(ctx context.Context, actor Actor, storyID uuid.UUID) (*models.Story, error)
	Delete(ctx context.Context, actor Actor, storyID uuid.UUID) error
	Get(ctx context.Context, storyID uuid.UUID) (*models.Story, error)
	ListPublished(ctx context.Context, params pagination.Params) (*StoryList, error)
	ListByProfile(ctx context.Context, actor Actor, params pagination.Params) (*StoryList, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the story service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stories repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Story, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if input.Title == "" || input.Body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and body required")
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	story := &models.Story{
		ID:        uuid.New(),
		ProfileID: actor.ProfileID,
		Title:     input.Title,
		Body:      input.Body,
		Tags:      models.StringList(tags),
		CoverURL:  input.CoverURL,
	}
	if _, err := s.repo.CreateStory(ctx, story); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create story")
	}
	return story, nil
}

func (s *service) Update(ctx context.Context, actor Actor, storyID uuid.UUID, input UpdateInput) (*models.Story, error) {
	story, err := s.ownedStory(ctx, actor, storyID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Body != nil {
		updates["body"] = *input.Body
	}
	if input.Tags != nil {
		updates["tags"] = models.StringList(input.Tags)
	}
	if input.CoverURL != nil {
		updates["cover_url"] = *input.CoverURL
	}
	if len(updates) == 0 {
		return story, nil
	}

	if err := s.repo.UpdateStory(ctx, storyID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update story")
	}
	return s.repo.FindStory(ctx, storyID)
}

func (s *service) Publish(ctx context.Context, actor Actor, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.ownedStory(ctx, actor, storyID)
	if err != nil {
		return nil, err
	}
	if story.IsPublished {
		return story, nil
	}

	updates := map[string]any{
		"is_published": true,
		"published_at": s.now(),
	}
	if err := s.repo.UpdateStory(ctx, storyID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish story")
	}
	return s.repo.FindStory(ctx, storyID)
}

func (s *service) Delete(ctx context.Context, actor Actor, storyID uuid.UUID) error {
	if _, err := s.ownedStory(ctx, actor, storyID); err != nil {
		return err
	}
	if err := s.repo.DeleteStory(ctx, storyID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete story")
	}
	return nil
}

func (s *service) Get(ctx context.Context, storyID uuid.UUID) (*models.Story, error) {
	if storyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "story id required")
	}
	story, err := s.repo.FindStory(ctx, storyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "story not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load story")
	}
	return story, nil
}

func (s *service) ListPublished(ctx context.Context, params pagination.Params) (*StoryList, error) {
	rows, err := s.repo.ListPublished(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stories")
	}
	return paged(rows, params), nil
}

func (s *service) ListByProfile(ctx context.Context, actor Actor, params pagination.Params) (*StoryList, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	rows, err := s.repo.ListByProfile(ctx, actor.ProfileID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stories")
	}
	return paged(rows, params), nil
}

func paged(rows []models.Story, params pagination.Params) *StoryList {
	limit := pagination.NormalizeLimit(params.Limit)
	list := &StoryList{Stories: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.Stories = rows[:limit]
	}
	return list
}

func (s *service) ownedStory(ctx context.Context, actor Actor, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "story does not belong to profile")
	}
	return story, nil
}
