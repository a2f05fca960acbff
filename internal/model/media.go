package model

import (
	"fmt"
	"strings"
)

// MediaKind is the closed set of playable asset kinds.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindImage
	KindVideo
	KindWeb
)

func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "IMAGE"
	case KindVideo:
		return "VIDEO"
	case KindWeb:
		return "WEB"
	default:
		return "UNKNOWN"
	}
}

// ParseMediaKind accepts the stored wire names, case-insensitively.
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IMAGE":
		return KindImage, nil
	case "VIDEO":
		return KindVideo, nil
	case "WEB":
		return KindWeb, nil
	}
	return KindUnknown, fmt.Errorf("unknown media kind %q", s)
}

func (k MediaKind) MarshalText() ([]byte, error) {
	if k == KindUnknown {
		return nil, fmt.Errorf("cannot encode unknown media kind")
	}
	return []byte(k.String()), nil
}

// UnmarshalText never fails: a kind written by a newer admin console decodes
// as KindUnknown and the item is treated as unrenderable.
func (k *MediaKind) UnmarshalText(b []byte) error {
	parsed, err := ParseMediaKind(string(b))
	if err != nil {
		*k = KindUnknown
		return nil
	}
	*k = parsed
	return nil
}

type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// MediaItem is a playable asset in the library.
type MediaItem struct {
	ID          string      `json:"-"`
	Kind        MediaKind   `json:"type"`
	URL         string      `json:"url"`
	Name        string      `json:"name"`
	Duration    int         `json:"duration"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
}
