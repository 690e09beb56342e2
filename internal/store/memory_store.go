package store

import (
	"context"
	"sync"

	"hydratutor/internal/stash"
)

type MemoryStore struct {
	stashes sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (st *MemoryStore) Save(_ context.Context, key Key, entries []stash.Entry) error {
	st.stashes.Store(key, append([]stash.Entry(nil), entries...))
	return nil
}

func (st *MemoryStore) Get(_ context.Context, key Key) ([]stash.Entry, bool, error) {
	val, ok := st.stashes.Load(key)
	if !ok {
		return nil, false, nil
	}
	return append([]stash.Entry(nil), val.([]stash.Entry)...), true, nil
}

func (st *MemoryStore) Delete(_ context.Context, key Key) error {
	st.stashes.Delete(key)
	return nil
}

func (st *MemoryStore) Close() error {
	return nil
}
