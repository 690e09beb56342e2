package store

import (
	"context"

	"hydratutor/internal/stash"
)

func KeyOf(s *stash.Stash) Key {
	return Key{UID: s.UID(), Variant: s.Variant()}
}

// Sink persists every snapshot of s through st.
func Sink(st StoreInterface, key Key) stash.Sink {
	return func(ctx context.Context, snap stash.Snapshot) error {
		return st.Save(ctx, key, snap.Entries)
	}
}

// Restore loads the persisted entries of s, if any, and reports whether
// anything was found.
func Restore(ctx context.Context, st StoreInterface, s *stash.Stash) (bool, error) {
	entries, ok, err := st.Get(ctx, KeyOf(s))
	if err != nil || !ok {
		return false, err
	}
	s.Replace(entries)
	return true, nil
}
