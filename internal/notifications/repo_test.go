package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:notifications_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, profileID uuid.UUID, kind enums.NotificationType, createdAt time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:        uuid.New(),
		ProfileID: profileID,
		Type:      kind,
		Title:     "Order update",
		Message:   "Something happened to your order.",
		CreatedAt: createdAt,
	}
	if err := db.Create(notification).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return notification
}

func TestRepoMarkReadScopesToProfile(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	owner := uuid.New()
	stranger := uuid.New()
	row := seedNotification(t, db, owner, enums.NotificationTypeOrderPaid, now.Add(-time.Hour))

	result, err := repo.MarkRead(ctx, stranger, row.ID, now)
	if err != nil {
		t.Fatalf("mark read as stranger: %v", err)
	}
	if result.Found || result.Updated {
		t.Fatalf("expected no match for foreign profile, got %+v", result)
	}

	result, err = repo.MarkRead(ctx, owner, row.ID, now)
	if err != nil {
		t.Fatalf("mark read as owner: %v", err)
	}
	if !result.Found || !result.Updated {
		t.Fatalf("expected update for owner, got %+v", result)
	}

	result, err = repo.MarkRead(ctx, owner, row.ID, now)
	if err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
	if !result.Found || result.Updated {
		t.Fatalf("expected found-but-unchanged on repeat, got %+v", result)
	}
}

func TestRepoMarkAllReadCountsRows(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	profileID := uuid.New()
	seedNotification(t, db, profileID, enums.NotificationTypeOrderPaid, now.Add(-3*time.Hour))
	seedNotification(t, db, profileID, enums.NotificationTypeOrderShipped, now.Add(-2*time.Hour))
	seedNotification(t, db, uuid.New(), enums.NotificationTypeOrderPaid, now.Add(-time.Hour))

	count, err := repo.MarkAllRead(ctx, profileID, now)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows marked, got %d", count)
	}

	count, err = repo.MarkAllRead(ctx, profileID, now)
	if err != nil {
		t.Fatalf("repeat mark all read: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows on repeat, got %d", count)
	}
}

func TestRepoListByProfileFiltersUnread(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	profileID := uuid.New()
	read := seedNotification(t, db, profileID, enums.NotificationTypeOrderPaid, base.Add(-2*time.Hour))
	unread := seedNotification(t, db, profileID, enums.NotificationTypeOrderShipped, base.Add(-time.Hour))
	readAt := base.Add(-30 * time.Minute)
	if err := db.Model(&models.Notification{}).Where("id = ?", read.ID).UpdateColumn("read_at", readAt).Error; err != nil {
		t.Fatalf("mark seed read: %v", err)
	}

	rows, err := repo.ListByProfile(ctx, profileID, true, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != unread.ID {
		t.Fatalf("expected only the unread row, got %d rows", len(rows))
	}

	rows, err = repo.ListByProfile(ctx, profileID, false, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both rows, got %d", len(rows))
	}
	if rows[0].ID != unread.ID {
		t.Fatalf("expected newest row first")
	}
}

func TestRepoFindRecipientEmail(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: "x",
		FirstName:    "Ada",
		LastName:     "Obi",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	profile := &models.Profile{ID: uuid.New(), UserID: user.ID, DisplayName: "Ada"}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	email, err := repo.FindRecipientEmail(ctx, profile.ID)
	if err != nil {
		t.Fatalf("find recipient email: %v", err)
	}
	if email != "buyer@example.com" {
		t.Fatalf("unexpected email %q", email)
	}

	if _, err := repo.FindRecipientEmail(ctx, uuid.New()); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestRepoFindRecipientPhone(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	phone := "+2348012345678"
	withPhone := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		Phone:        &phone,
		PasswordHash: "x",
		FirstName:    "Ada",
		LastName:     "Obi",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	if err := db.Create(withPhone).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	profile := &models.Profile{ID: uuid.New(), UserID: withPhone.ID, DisplayName: "Ada"}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	got, err := repo.FindRecipientPhone(ctx, profile.ID)
	if err != nil {
		t.Fatalf("find recipient phone: %v", err)
	}
	if got != phone {
		t.Fatalf("unexpected phone %q", got)
	}

	noPhone := &models.User{
		ID:           uuid.New(),
		Email:        "other@example.com",
		PasswordHash: "x",
		FirstName:    "Tayo",
		LastName:     "Ade",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	if err := db.Create(noPhone).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	bare := &models.Profile{ID: uuid.New(), UserID: noPhone.ID, DisplayName: "Tayo"}
	if err := db.Create(bare).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	got, err = repo.FindRecipientPhone(ctx, bare.ID)
	if err != nil {
		t.Fatalf("find recipient phone: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty phone, got %q", got)
	}
}
