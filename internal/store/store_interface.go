package store

import (
	"context"

	"hydratutor/internal/stash"
)

// Key addresses one stash: an identity and a tutor variant.
type Key struct {
	UID     string
	Variant string
}

func (k Key) String() string {
	return k.UID + ":" + k.Variant
}

type StoreInterface interface {
	Save(ctx context.Context, key Key, entries []stash.Entry) error
	Get(ctx context.Context, key Key) ([]stash.Entry, bool, error)
	Delete(ctx context.Context, key Key) error
	Close() error
}
