package history

import (
	"context"
	"strings"
)

// NewBackend picks postgres when a database URL is configured, bolt when a
// file path is configured, otherwise in-memory.
func NewBackend(ctx context.Context, path, databaseURL string) (Backend, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresBackend(ctx, databaseURL)
	}
	if strings.TrimSpace(path) != "" {
		return NewBoltBackend(path)
	}
	return NewInMemoryBackend(), nil
}
