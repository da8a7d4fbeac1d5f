package enums

import "fmt"

// ArtworkKind categorizes a listed artwork.
type ArtworkKind string

const (
	ArtworkKindPainting    ArtworkKind = "painting"
	ArtworkKindDrawing     ArtworkKind = "drawing"
	ArtworkKindSculpture   ArtworkKind = "sculpture"
	ArtworkKindPhotography ArtworkKind = "photography"
	ArtworkKindDigital     ArtworkKind = "digital"
	ArtworkKindMixedMedia  ArtworkKind = "mixed_media"
	ArtworkKindOther       ArtworkKind = "other"
)

var validArtworkKinds = []ArtworkKind{
	ArtworkKindPainting,
	ArtworkKindDrawing,
	ArtworkKindSculpture,
	ArtworkKindPhotography,
	ArtworkKindDigital,
	ArtworkKindMixedMedia,
	ArtworkKindOther,
}

// String implements fmt.Stringer.
func (a ArtworkKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ArtworkKind.
func (a ArtworkKind) IsValid() bool {
	for _, candidate := range validArtworkKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseArtworkKind converts raw input into an ArtworkKind.
func ParseArtworkKind(value string) (ArtworkKind, error) {
	for _, candidate := range validArtworkKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artwork kind %q", value)
}
