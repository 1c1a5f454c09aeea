package storage

import "context"

// InlineImageStore keeps images exactly as submitted, data URLs included.
// It is used when object storage is disabled.
type InlineImageStore struct{}

// NewInlineImageStore creates a new InlineImageStore
func NewInlineImageStore() *InlineImageStore {
	return &InlineImageStore{}
}

// Store returns image unchanged
func (s *InlineImageStore) Store(_ context.Context, _ string, image string) (string, error) {
	return image, nil
}
