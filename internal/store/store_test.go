package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydratutor/internal/config"
	"hydratutor/internal/constants"
	"hydratutor/internal/stash"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "stash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleEntries() []stash.Entry {
	return []stash.Entry{
		{ID: "a", UID: "u1", Input: "A", Config: "{}", Path: "X", Ops: "title=hits", Href: "#", Variant: constants.VariantTree},
		{ID: "b", UID: "u1", Input: "B", Config: "{}", Href: "#", Variant: constants.VariantTree},
	}
}

func exerciseStore(t *testing.T, st StoreInterface) {
	ctx := context.Background()
	key := Key{UID: "u1", Variant: constants.VariantTree}
	other := Key{UID: "u1", Variant: constants.VariantFilter}

	_, ok, err := st.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Save(ctx, key, sampleEntries()))
	got, ok, err := st.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleEntries(), got)

	_, ok, err = st.Get(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok, "variants are stored separately")

	require.NoError(t, st.Save(ctx, key, sampleEntries()[:1]))
	got, _, err = st.Get(ctx, key)
	require.NoError(t, err)
	assert.Len(t, got, 1, "save overwrites wholesale")

	require.NoError(t, st.Save(ctx, key, nil))
	got, ok, err = st.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)

	require.NoError(t, st.Delete(ctx, key))
	_, ok, err = st.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, newTestSQLite(t))
}

func TestSQLiteStoreReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.db")
	ctx := context.Background()
	key := Key{UID: "u1", Variant: constants.VariantTree}

	st, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, key, sampleEntries()))
	require.NoError(t, st.Close())

	st, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer st.Close()
	got, ok, err := st.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestSQLiteStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := NewRedisStore(ctx, host, port, os.Getenv("REDIS_USERNAME"), os.Getenv("REDIS_PASSWORD"), time.Minute)
	require.NoError(t, err)
	defer st.Close()
	exerciseStore(t, st)
}

func TestNewStoreFallsBack(t *testing.T) {
	dir := t.TempDir()

	t.Run("memory", func(t *testing.T) {
		st, err := NewStore(&config.Config{Store: constants.StoreMemory}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, st)
	})

	t.Run("sqlite", func(t *testing.T) {
		st, err := NewStore(&config.Config{Store: constants.StoreSQLite, SQLitePath: filepath.Join(dir, "a.db")}, nil)
		require.NoError(t, err)
		defer st.Close()
		assert.IsType(t, &SQLiteStore{}, st)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		st, err := NewStore(&config.Config{
			Store:      constants.StoreRedis,
			Redis:      config.Redis{Host: "127.0.0.1", Port: "1"},
			SQLitePath: filepath.Join(dir, "b.db"),
		}, nil)
		require.NoError(t, err)
		defer st.Close()
		assert.IsType(t, &SQLiteStore{}, st)
	})
}

func TestMirrorPersistsAndRestores(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	s := stash.New("u1", constants.VariantTree)
	m := stash.NewMirror("sqlite", Sink(st, KeyOf(s)), nil).Attach(s)
	s.Save(stash.Fields{Input: "A", Config: "{}"})
	s.Save(stash.Fields{Input: "B", Config: "{}"})
	require.NoError(t, m.Flush(ctx))
	require.NoError(t, m.Close())

	fresh := stash.New("u1", constants.VariantTree)
	found, err := Restore(ctx, st, fresh)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, s.Entries(), fresh.Entries())

	empty := stash.New("u2", constants.VariantTree)
	found, err = Restore(ctx, st, empty)
	require.NoError(t, err)
	assert.False(t, found)
}
