package history

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("history record not found")

// StorageKey names the single persisted value holding the whole history list.
const StorageKey = "vidranker_content"

// DefaultLimit is the number of most-recent records kept. It is also the cap:
// larger limits are clamped to it.
const DefaultLimit = 50

type Kind string

const (
	KindSEO       Kind = "seo"
	KindThumbnail Kind = "thumbnail"
)

// ParseKind accepts "seo", "thumbnail" and the filter value "all" (returned as "").
func ParseKind(v string) (Kind, bool) {
	switch v {
	case "", "all":
		return "", true
	case string(KindSEO):
		return KindSEO, true
	case string(KindThumbnail):
		return KindThumbnail, true
	default:
		return "", false
	}
}

type SEOPayload struct {
	Tags        []string `json:"tags"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

type ThumbnailPayload struct {
	Prompt           string `json:"prompt"`
	ImageReference   string `json:"image_reference"`
	Style            string `json:"style"`
	GenerationMethod string `json:"generation_method"`
}

// Record is one saved generation. Exactly one payload is set, matching Kind.
type Record struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Title     string            `json:"title"`
	SEO       *SEOPayload       `json:"seo,omitempty"`
	Thumbnail *ThumbnailPayload `json:"thumbnail,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Draft is a record before the store assigns ID and CreatedAt.
type Draft struct {
	Kind      Kind
	Title     string
	SEO       *SEOPayload
	Thumbnail *ThumbnailPayload
}

type Stats struct {
	Total     int `json:"total"`
	SEO       int `json:"seo"`
	Thumbnail int `json:"thumbnail"`
}

// Backend persists one opaque value under StorageKey.
// Load returns (nil, nil) when nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
	Mode() string
	Close() error
}
