package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

const publicStorageHost = "https://storage.googleapis.com"

// Signer is the object-storage surface the media service depends on.
type Signer interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Actor identifies the caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// PresignInput models an upload URL request.
type PresignInput struct {
	Kind      string `json:"kind" validate:"required"`
	FileName  string `json:"fileName" validate:"required"`
	MimeType  string `json:"mimeType" validate:"required"`
	SizeBytes int64  `json:"sizeBytes" validate:"required,gt=0"`
}

// PresignOutput is returned to the client for a direct PUT upload.
type PresignOutput struct {
	ObjectKey    string    `json:"objectKey"`
	SignedPutURL string    `json:"signedPutUrl"`
	PublicURL    string    `json:"publicUrl"`
	ContentType  string    `json:"contentType"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// DownloadOutput carries a read URL for an object.
type DownloadOutput struct {
	ObjectKey string    `json:"objectKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Service exposes upload/download presign and object deletion.
type Service interface {
	PresignUpload(ctx context.Context, actor Actor, input PresignInput) (*PresignOutput, error)
	PresignDownload(ctx context.Context, objectKey string) (*DownloadOutput, error)
	Delete(ctx context.Context, actor Actor, objectKey string) error
}

// Options configures bucket, limits and URL lifetimes.
type Options struct {
	Bucket        string
	MaxUploadMB   int
	UploadTTL     time.Duration
	DownloadTTL   time.Duration
	GCSAccessMode string
}

type service struct {
	signer  Signer
	opts    Options
	now     func() time.Time
	newUUID func() uuid.UUID
}

// NewService wires the media service against an object-storage signer.
func NewService(signer Signer, opts Options) (Service, error) {
	if signer == nil {
		return nil, fmt.Errorf("storage signer required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket required")
	}
	if opts.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if opts.UploadTTL <= 0 || opts.DownloadTTL <= 0 {
		return nil, fmt.Errorf("url ttls must be positive")
	}
	return &service{
		signer:  signer,
		opts:    opts,
		now:     time.Now,
		newUUID: uuid.New,
	}, nil
}

var mimeTypesByKind = map[enums.MediaKind][]string{
	enums.MediaKindArtwork: {"image/png", "image/jpeg", "image/webp"},
	enums.MediaKindAlbum:   {"image/png", "image/jpeg", "image/webp"},
	enums.MediaKindAvatar:  {"image/png", "image/jpeg", "image/webp"},
	enums.MediaKindStory:   {"image/png", "image/jpeg", "image/webp", "image/gif"},
	enums.MediaKindAdvert:  {"image/png", "image/jpeg", "image/webp", "image/gif", "video/mp4"},
	enums.MediaKindPodcast: {"audio/mpeg", "audio/mp4", "audio/ogg", "video/mp4", "video/webm"},
	// MediaKindOther accepts any mime type.
}

var artistOnlyKinds = map[enums.MediaKind]struct{}{
	enums.MediaKindArtwork: {},
	enums.MediaKindAlbum:   {},
	enums.MediaKindPodcast: {},
}

func (s *service) PresignUpload(ctx context.Context, actor Actor, input PresignInput) (*PresignOutput, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}

	kind, err := enums.ParseMediaKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media kind")
	}
	if kind == enums.MediaKindAdvert && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "advert media is admin only")
	}
	if _, artistOnly := artistOnlyKinds[kind]; artistOnly {
		if actor.Role != enums.UserRoleArtist && actor.Role != enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "artist role required")
		}
	}

	fileName := sanitizeFileName(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime type is required")
	}
	if !isAllowedMime(kind, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime type not allowed for media kind")
	}

	maxBytes := int64(s.opts.MaxUploadMB) * 1024 * 1024
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size must be positive")
	}
	if input.SizeBytes > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size exceeds the %dMB upload limit", s.opts.MaxUploadMB))
	}

	objectKey := buildObjectKey(kind, actor.ProfileID, s.newUUID(), fileName)
	signedURL, err := s.signer.SignedURL(s.opts.Bucket, objectKey, mimeType, s.opts.UploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		ObjectKey:    objectKey,
		SignedPutURL: signedURL,
		PublicURL:    s.publicURL(objectKey),
		ContentType:  mimeType,
		ExpiresAt:    s.now().Add(s.opts.UploadTTL),
	}, nil
}

func (s *service) PresignDownload(ctx context.Context, objectKey string) (*DownloadOutput, error) {
	objectKey = strings.TrimSpace(strings.TrimPrefix(objectKey, "/"))
	if objectKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object key is required")
	}

	if s.opts.GCSAccessMode == "public" {
		return &DownloadOutput{ObjectKey: objectKey, URL: s.publicURL(objectKey)}, nil
	}

	url, err := s.signer.SignedReadURL(s.opts.Bucket, objectKey, s.opts.DownloadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign read url")
	}
	return &DownloadOutput{
		ObjectKey: objectKey,
		URL:       url,
		ExpiresAt: s.now().Add(s.opts.DownloadTTL),
	}, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, objectKey string) error {
	objectKey = strings.TrimSpace(strings.TrimPrefix(objectKey, "/"))
	if objectKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "object key is required")
	}

	owner, err := ownerFromObjectKey(objectKey)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid object key")
	}
	if actor.Role != enums.UserRoleAdmin && owner != actor.ProfileID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not the media owner")
	}

	if err := s.signer.DeleteObject(ctx, s.opts.Bucket, objectKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	return nil
}

func (s *service) publicURL(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", publicStorageHost, s.opts.Bucket, objectKey)
}

// Object keys are laid out as media/<kind>/<profile_id>/<media_id>/<file>,
// which lets deletion authorize against the owning profile without a lookup.
func buildObjectKey(kind enums.MediaKind, profileID, mediaID uuid.UUID, fileName string) string {
	return fmt.Sprintf("media/%s/%s/%s/%s", kind, profileID, mediaID, fileName)
}

func ownerFromObjectKey(objectKey string) (uuid.UUID, error) {
	parts := strings.Split(objectKey, "/")
	if len(parts) < 4 || parts[0] != "media" {
		return uuid.Nil, fmt.Errorf("unrecognized object key layout")
	}
	return uuid.Parse(parts[2])
}

func isAllowedMime(kind enums.MediaKind, mimeType string) bool {
	allowed, ok := mimeTypesByKind[kind]
	if !ok {
		return true
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
