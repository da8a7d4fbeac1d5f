package enums

import "fmt"

// PodcastKind distinguishes audio from video listings.
type PodcastKind string

const (
	PodcastKindAudio PodcastKind = "audio"
	PodcastKindVideo PodcastKind = "video"
)

var validPodcastKinds = []PodcastKind{
	PodcastKindAudio,
	PodcastKindVideo,
}

// String implements fmt.Stringer.
func (p PodcastKind) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PodcastKind.
func (p PodcastKind) IsValid() bool {
	for _, candidate := range validPodcastKinds {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePodcastKind converts raw input into a PodcastKind.
func ParsePodcastKind(value string) (PodcastKind, error) {
	for _, candidate := range validPodcastKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid podcast kind %q", value)
}
