package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// ListParams configures a notification listing.
type ListParams struct {
	UnreadOnly bool
	Page       pagination.Params
}

// NotificationList is a page of notifications with the cursor for the next page.
type NotificationList struct {
	Items      []models.Notification `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

// Service defines notification list/read operations. Rows are written by the
// domain event consumer, not through this interface.
type Service interface {
	List(ctx context.Context, profileID uuid.UUID, params ListParams) (*NotificationList, error)
	MarkRead(ctx context.Context, profileID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the notifications service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, profileID uuid.UUID, params ListParams) (*NotificationList, error) {
	if profileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}

	rows, err := s.repo.ListByProfile(ctx, profileID, params.UnreadOnly, params.Page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	list := &NotificationList{Items: rows}
	limit := pagination.NormalizeLimit(params.Page.Limit)
	if len(rows) > limit {
		list.Items = rows[:limit]
		last := list.Items[len(list.Items)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) MarkRead(ctx context.Context, profileID, notificationID uuid.UUID) error {
	if profileID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, profileID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error) {
	if profileID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}

	count, err := s.repo.MarkAllRead(ctx, profileID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
