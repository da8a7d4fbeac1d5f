package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository is the persistence surface for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListByProfile(ctx context.Context, profileID uuid.UUID, unreadOnly bool, params pagination.Params) ([]models.Notification, error)
	MarkRead(ctx context.Context, profileID, notificationID uuid.UUID, now time.Time) (markResult, error)
	MarkAllRead(ctx context.Context, profileID uuid.UUID, now time.Time) (int64, error)
	FindRecipientEmail(ctx context.Context, profileID uuid.UUID) (string, error)
	FindRecipientPhone(ctx context.Context, profileID uuid.UUID) (string, error)
}

type markResult struct {
	Found   bool
	Updated bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed notifications repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) ListByProfile(ctx context.Context, profileID uuid.UUID, unreadOnly bool, params pagination.Params) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("profile_id = ?", profileID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Notification
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkRead(ctx context.Context, profileID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND profile_id = ? AND read_at IS NULL", notificationID, profileID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return markResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return markResult{Found: true, Updated: true}, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND profile_id = ?", notificationID, profileID).
		Count(&count).Error
	if err != nil {
		return markResult{}, err
	}
	return markResult{Found: count > 0}, nil
}

func (r *repository) MarkAllRead(ctx context.Context, profileID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("profile_id = ? AND read_at IS NULL", profileID).
		UpdateColumn("read_at", now)
	return result.RowsAffected, result.Error
}

func (r *repository) FindRecipientEmail(ctx context.Context, profileID uuid.UUID) (string, error) {
	var email string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.email").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.id = ?", profileID).
		Take(&email).Error
	if err != nil {
		return "", err
	}
	return email, nil
}

// FindRecipientPhone returns an empty string without error when the user has
// no phone number on file.
func (r *repository) FindRecipientPhone(ctx context.Context, profileID uuid.UUID) (string, error) {
	var phone *string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.phone").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.id = ?", profileID).
		Take(&phone).Error
	if err != nil {
		return "", err
	}
	if phone == nil {
		return "", nil
	}
	return *phone, nil
}
