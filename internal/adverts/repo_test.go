package adverts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:adverts_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Advert{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestListActiveWindow(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	ended := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	seed := []*models.Advert{
		{ID: uuid.New(), Title: "Running", MediaURL: "https://cdn.example.com/a.png", StartsAt: now.Add(-24 * time.Hour), IsActive: true},
		{ID: uuid.New(), Title: "Windowed", MediaURL: "https://cdn.example.com/b.png", StartsAt: now.Add(-24 * time.Hour), EndsAt: &future, IsActive: true},
		{ID: uuid.New(), Title: "Expired", MediaURL: "https://cdn.example.com/c.png", StartsAt: now.Add(-48 * time.Hour), EndsAt: &ended, IsActive: true},
		{ID: uuid.New(), Title: "Upcoming", MediaURL: "https://cdn.example.com/d.png", StartsAt: future, IsActive: true},
		{ID: uuid.New(), Title: "Disabled", MediaURL: "https://cdn.example.com/e.png", StartsAt: now.Add(-24 * time.Hour), IsActive: false},
	}
	for _, advert := range seed {
		if _, err := repo.CreateAdvert(ctx, advert); err != nil {
			t.Fatalf("seed advert: %v", err)
		}
	}

	rows, err := repo.ListActive(ctx, now)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 active adverts, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Title != "Running" && row.Title != "Windowed" {
			t.Fatalf("unexpected advert in active window: %s", row.Title)
		}
	}
}
