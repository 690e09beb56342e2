package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydratutor/internal/backend"
	"hydratutor/internal/backend/backendtest"
	"hydratutor/internal/constants"
	"hydratutor/internal/stash"
	"hydratutor/internal/tree"
)

func storedEntries(t *testing.T, srv *backendtest.Server) []stash.Entry {
	t.Helper()
	entries, err := stash.Decode(srv.StoredStash())
	require.NoError(t, err)
	return entries
}

func TestSavePushesStashToBackend(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)

	s.SetInput("")
	_, err := s.Save()
	assert.ErrorIs(t, err, tree.ErrBlankStash)
	assert.Equal(t, constants.MsgBlankStash, s.Message())

	s.SetInput("in")
	s.SetPath("X")
	id, err := s.Save()
	require.NoError(t, err)
	require.NoError(t, s.SyncStash(ctx))

	entries := storedEntries(t, srv)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "in", entries[0].Input)
	assert.Equal(t, constants.DefaultTreeConfig, entries[0].Config)
	assert.Equal(t, "X", entries[0].Path)
	assert.Equal(t, "Your stash has been updated.", s.Message())

	call, _ := srv.LastCall(constants.EndpointTreeStash)
	assert.Equal(t, "in", call.Params.Get("inputText"))

	assert.True(t, s.DeleteEntry(id))
	require.NoError(t, s.SyncStash(ctx))
	assert.Empty(t, storedEntries(t, srv))

	_, err = s.Save()
	require.NoError(t, err)
	_, err = s.Save()
	require.NoError(t, err)
	s.ClearStash()
	require.NoError(t, s.SyncStash(ctx))
	assert.Empty(t, storedEntries(t, srv))
}

func TestStashPushFailureBecomesMessage(t *testing.T) {
	s, srv := newSession(t)
	srv.FailWith(constants.EndpointTreeStash, "There was an error updating your stash.")

	s.SetInput("in")
	_, err := s.Save()
	require.NoError(t, err)
	assert.Error(t, s.SyncStash(context.Background()))
	assert.Equal(t, "There was an error updating your stash.", s.Message())
}

func TestLoadEntryDropsBuiltTree(t *testing.T) {
	s, srv := newSession(t)
	built(t, s)
	s.SetPath("X")
	id, err := s.Save()
	require.NoError(t, err)

	s.SetInput("other")
	s.SetPath("")
	e, err := s.LoadEntry(id)
	require.NoError(t, err)
	s.Wait()

	v := s.View()
	assert.Equal(t, e.Input, v.Input)
	assert.Equal(t, "X", v.Path)
	assert.Equal(t, tree.Empty, v.State)
	assert.Empty(t, v.Tree)
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeReset))

	cur, ok := s.Stash().Current()
	require.True(t, ok)
	assert.Equal(t, id, cur.ID)

	// nothing built now, so no second reset
	_, err = s.LoadEntry(id)
	require.NoError(t, err)
	s.Wait()
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeReset))

	_, err = s.LoadEntry("missing")
	assert.ErrorIs(t, err, stash.ErrNotFound)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	doc, err := stash.Encode([]stash.Entry{{
		ID: "e1", UID: "u1", Input: "saved", Config: "{}", Variant: constants.VariantTree,
	}})
	require.NoError(t, err)
	srv.State.Input = "in"
	srv.State.Configuration = "{\"type\":\"tree\"}"
	srv.State.Path = "X"
	srv.State.Ops = "title=hits"
	srv.State.Stash = doc

	client := backend.New(backend.Options{BaseURL: srv.URL, UID: "u1"})
	s := tree.New(client, stash.New("u1", constants.VariantTree), nil)
	defer s.Close()

	require.NoError(t, s.Restore(ctx))
	v := s.View()
	assert.Equal(t, "in", v.Input)
	assert.Equal(t, "{\"type\":\"tree\"}", v.Config)
	assert.Equal(t, "X", v.Path)
	assert.Equal(t, "title=hits", v.Ops)

	entries := s.Stash().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "saved", entries[0].Input)

	require.NoError(t, s.SyncStash(ctx))
	assert.Zero(t, srv.CallCount(constants.EndpointTreeStash), "restoring does not echo the stash back")
}
