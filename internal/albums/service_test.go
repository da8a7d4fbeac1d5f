package albums

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:albums_service_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Album{}, &models.AlbumChild{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newAlbumService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newServiceTestDB(t)
	svc, err := NewService(NewRepository(db), stubTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, db
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	return pkgerrors.As(err).Code()
}

func artistActor() Actor {
	return Actor{UserID: uuid.New(), ProfileID: uuid.New(), Role: enums.UserRoleArtist}
}

func addChild(t *testing.T, svc Service, actor Actor, albumID uuid.UUID, url string) *models.AlbumChild {
	t.Helper()
	child, err := svc.AddChild(context.Background(), actor, albumID, ChildInput{ImageURL: url})
	if err != nil {
		t.Fatalf("add child %s: %v", url, err)
	}
	return child
}

func childOrder(t *testing.T, svc Service, albumID uuid.UUID) []string {
	t.Helper()
	album, err := svc.Get(context.Background(), albumID)
	if err != nil {
		t.Fatalf("get album: %v", err)
	}
	urls := make([]string, 0, len(album.Children))
	for _, child := range album.Children {
		urls = append(urls, child.ImageURL)
	}
	return urls
}

func TestCreateRequiresArtistRole(t *testing.T) {
	t.Parallel()

	svc, _ := newAlbumService(t)
	buyer := Actor{UserID: uuid.New(), ProfileID: uuid.New(), Role: enums.UserRoleUser}

	_, err := svc.Create(context.Background(), buyer, CreateInput{Title: "Landscapes"})
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}

	artist := artistActor()
	album, err := svc.Create(context.Background(), artist, CreateInput{Title: "  Landscapes  "})
	if err != nil {
		t.Fatalf("create album: %v", err)
	}
	if album.Title != "Landscapes" || album.ProfileID != artist.ProfileID {
		t.Fatalf("unexpected album %+v", album)
	}
}

func TestAddChildAppendsPositions(t *testing.T) {
	t.Parallel()

	svc, _ := newAlbumService(t)
	artist := artistActor()
	album, err := svc.Create(context.Background(), artist, CreateInput{Title: "Portraits"})
	if err != nil {
		t.Fatalf("create album: %v", err)
	}

	first := addChild(t, svc, artist, album.ID, "https://cdn.example.com/a.png")
	second := addChild(t, svc, artist, album.ID, "https://cdn.example.com/b.png")
	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("expected appended positions 0,1; got %d,%d", first.Position, second.Position)
	}

	stranger := artistActor()
	_, err = svc.AddChild(context.Background(), stranger, album.ID, ChildInput{ImageURL: "https://cdn.example.com/c.png"})
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %s", code)
	}
}

func TestReorderChildShiftsNeighbors(t *testing.T) {
	t.Parallel()

	svc, _ := newAlbumService(t)
	artist := artistActor()
	album, err := svc.Create(context.Background(), artist, CreateInput{Title: "Series"})
	if err != nil {
		t.Fatalf("create album: %v", err)
	}
	addChild(t, svc, artist, album.ID, "a")
	b := addChild(t, svc, artist, album.ID, "b")
	addChild(t, svc, artist, album.ID, "c")
	d := addChild(t, svc, artist, album.ID, "d")

	if err := svc.ReorderChild(context.Background(), artist, d.ID, 0); err != nil {
		t.Fatalf("move d to front: %v", err)
	}
	got := childOrder(t, svc, album.ID)
	want := []string{"d", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after move to front: got %v want %v", got, want)
		}
	}

	if err := svc.ReorderChild(context.Background(), artist, b.ID, 99); err != nil {
		t.Fatalf("move b past end: %v", err)
	}
	got = childOrder(t, svc, album.ID)
	want = []string{"d", "a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after move to end: got %v want %v", got, want)
		}
	}
}

func TestRemoveChildCompactsPositions(t *testing.T) {
	t.Parallel()

	svc, db := newAlbumService(t)
	artist := artistActor()
	album, err := svc.Create(context.Background(), artist, CreateInput{Title: "Sketches"})
	if err != nil {
		t.Fatalf("create album: %v", err)
	}
	addChild(t, svc, artist, album.ID, "a")
	b := addChild(t, svc, artist, album.ID, "b")
	addChild(t, svc, artist, album.ID, "c")

	if err := svc.RemoveChild(context.Background(), artist, b.ID); err != nil {
		t.Fatalf("remove child: %v", err)
	}

	var rows []models.AlbumChild
	if err := db.Order("position ASC").Find(&rows, "album_id = ?", album.ID).Error; err != nil {
		t.Fatalf("load children: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 children, got %d", len(rows))
	}
	if rows[0].ImageURL != "a" || rows[0].Position != 0 || rows[1].ImageURL != "c" || rows[1].Position != 1 {
		t.Fatalf("positions not compacted: %+v", rows)
	}
}

func TestGetUnknownAlbum(t *testing.T) {
	t.Parallel()

	svc, _ := newAlbumService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}
