package artworks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:artworks_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(&models.Artwork{}, &models.ArtworkInventory{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedArtwork(t *testing.T, db *gorm.DB, title string, kind enums.ArtworkKind, price string, available int, createdAt time.Time) *models.Artwork {
	t.Helper()
	artwork := &models.Artwork{
		ID:             uuid.New(),
		ProfileID:      uuid.New(),
		Title:          title,
		Kind:           kind,
		Mediums:        models.StringList{},
		Price:          decimal.RequireFromString(price),
		PurchaseStatus: enums.PurchaseStatusInStock,
		IsActive:       true,
		CreatedAt:      createdAt,
		Inventory:      &models.ArtworkInventory{AvailableQty: available},
	}
	if available == 0 {
		artwork.PurchaseStatus = enums.PurchaseStatusSoldOut
	}
	if err := db.Create(artwork).Error; err != nil {
		t.Fatalf("seed artwork: %v", err)
	}
	return artwork
}

func TestRepoSearchFilters(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedArtwork(t, db, "Harbor at Dusk", enums.ArtworkKindPainting, "1200.00", 3, base)
	seedArtwork(t, db, "Harbor Sketch", enums.ArtworkKindDrawing, "150.00", 1, base.Add(time.Minute))
	seedArtwork(t, db, "Bronze Dancer", enums.ArtworkKindSculpture, "4800.00", 0, base.Add(2*time.Minute))
	inactive := seedArtwork(t, db, "Harbor Night", enums.ArtworkKindPainting, "900.00", 2, base.Add(3*time.Minute))
	if err := db.Model(&models.Artwork{}).Where("id = ?", inactive.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	rows, err := repo.Search(ctx, SearchFilters{Query: "Harbor"}, pagination.Params{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 active harbor rows, got %d", len(rows))
	}

	kind := enums.ArtworkKindPainting
	rows, err = repo.Search(ctx, SearchFilters{Kind: &kind}, pagination.Params{})
	if err != nil {
		t.Fatalf("search by kind: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Harbor at Dusk" {
		t.Fatalf("unexpected kind filter result: %+v", rows)
	}

	minPrice := decimal.RequireFromString("1000.00")
	rows, err = repo.Search(ctx, SearchFilters{MinPrice: &minPrice}, pagination.Params{})
	if err != nil {
		t.Fatalf("search by price: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows at or above 1000, got %d", len(rows))
	}

	rows, err = repo.Search(ctx, SearchFilters{InStockOnly: true}, pagination.Params{})
	if err != nil {
		t.Fatalf("search in stock: %v", err)
	}
	for _, row := range rows {
		if row.PurchaseStatus != enums.PurchaseStatusInStock {
			t.Fatalf("sold out row leaked into in-stock search: %+v", row)
		}
	}
}

func TestRepoSearchPaginates(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedArtwork(t, db, "Study", enums.ArtworkKindDrawing, "100.00", 1, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.Search(ctx, SearchFilters{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected limit+1 rows on first page, got %d", len(first))
	}

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID})
	second, err := repo.Search(ctx, SearchFilters{}, pagination.Params{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 row on second page, got %d", len(second))
	}
}

func TestRepoStockGuards(t *testing.T) {
	t.Parallel()

	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	artwork := seedArtwork(t, db, "Limited Print", enums.ArtworkKindDigital, "75.00", 2, time.Now().UTC())

	removed, err := repo.RemoveStock(ctx, artwork.ID, 2)
	if err != nil || !removed {
		t.Fatalf("remove stock: removed=%v err=%v", removed, err)
	}
	if err := repo.RefreshPurchaseStatus(ctx, artwork.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	reloaded, err := repo.FindArtwork(ctx, artwork.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if reloaded.PurchaseStatus != enums.PurchaseStatusSoldOut {
		t.Fatalf("expected sold_out after draining stock, got %s", reloaded.PurchaseStatus)
	}
	if reloaded.Inventory == nil || reloaded.Inventory.AvailableQty != 0 {
		t.Fatalf("unexpected inventory: %+v", reloaded.Inventory)
	}

	removed, err = repo.RemoveStock(ctx, artwork.ID, 1)
	if err != nil {
		t.Fatalf("remove from empty: %v", err)
	}
	if removed {
		t.Fatal("remove must refuse to drive stock negative")
	}

	if err := repo.AddStock(ctx, artwork.ID, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if err := repo.RefreshPurchaseStatus(ctx, artwork.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	reloaded, err = repo.FindArtwork(ctx, artwork.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if reloaded.PurchaseStatus != enums.PurchaseStatusInStock || reloaded.Inventory.AvailableQty != 5 {
		t.Fatalf("expected restocked artwork, got %s qty=%d", reloaded.PurchaseStatus, reloaded.Inventory.AvailableQty)
	}
}
