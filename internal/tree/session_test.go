package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydratutor/internal/backend"
	"hydratutor/internal/backend/backendtest"
	"hydratutor/internal/constants"
	"hydratutor/internal/protocol"
	"hydratutor/internal/stash"
	"hydratutor/internal/tree"
)

func newSession(t *testing.T) (*tree.Session, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New(t)
	client := backend.New(backend.Options{BaseURL: srv.URL, UID: "u1"})
	s := tree.New(client, stash.New("u1", constants.VariantTree), nil)
	t.Cleanup(func() { _ = s.Close() })
	return s, srv
}

func built(t *testing.T, s *tree.Session) {
	t.Helper()
	s.SetInput("{\"X\":{\"A\":1}}")
	s.SetConfig(`{"type":"tree"}`)
	_, err := s.Build(context.Background())
	require.NoError(t, err)
}

func TestBuildGuards(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)

	s.SetInput("")
	_, err := s.Build(ctx)
	assert.ErrorIs(t, err, tree.ErrBlankInput)
	assert.Equal(t, constants.MsgBlankBuild, s.Message())
	assert.Zero(t, srv.CallCount(constants.EndpointTreeBuild))

	s.SetInput("in")
	nodes, err := s.Build(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "X", nodes[0].Title)
	assert.Equal(t, tree.Built, s.View().State)

	_, err = s.Build(ctx)
	assert.ErrorIs(t, err, tree.ErrAlreadyBuilt)
	assert.True(t, tree.IsGuard(err))
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeBuild))

	_, err = s.Step(ctx)
	require.NoError(t, err)
	_, err = s.Build(ctx)
	require.NoError(t, err, "a step makes the same build legal again")

	s.SetConfig("{}")
	_, err = s.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, srv.CallCount(constants.EndpointTreeBuild))

	call, _ := srv.LastCall(constants.EndpointTreeBuild)
	assert.Equal(t, "in", call.Params.Get("inputText"))
	assert.Equal(t, "{}", call.Params.Get("configuration"))
}

func TestStepIsAlwaysPermitted(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)

	for i := 0; i < 3; i++ {
		_, err := s.Step(ctx)
		require.NoError(t, err)
	}
	v := s.View()
	assert.Equal(t, tree.Stepped, v.State)
	assert.True(t, v.Stepped)
	assert.Equal(t, 3, srv.CallCount(constants.EndpointTreeStep))
}

func TestQueryGuards(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)

	s.SetPath("X")
	_, err := s.Query(ctx)
	assert.ErrorIs(t, err, tree.ErrNotBuilt)

	built(t, s)

	s.SetInput("changed")
	_, err = s.Query(ctx)
	assert.ErrorIs(t, err, tree.ErrStaleTree)
	assert.Equal(t, constants.MsgStaleTree, s.Message())
	s.SetInput("{\"X\":{\"A\":1}}")

	s.SetPath("")
	_, err = s.Query(ctx)
	assert.ErrorIs(t, err, tree.ErrBlankQuery)

	s.SetPath("X")
	rows, err := s.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "1"}, rows[0].Strings())
	assert.Equal(t, tree.Queried, s.View().State)
	assert.Empty(t, s.Message())

	_, err = s.Query(ctx)
	assert.ErrorIs(t, err, tree.ErrDuplicateQuery)

	s.SetOps("title=hits")
	_, err = s.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.CallCount(constants.EndpointTreeQuery))
}

func TestFailedQueryMayBeRetried(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)
	built(t, s)
	s.SetPath("nope")

	srv.FailWith(constants.EndpointTreeQuery, "There was an error: no such path")
	_, err := s.Query(ctx)
	require.Error(t, err)
	assert.False(t, tree.IsGuard(err))
	assert.Equal(t, "There was an error: no such path", s.Message())
	assert.Empty(t, s.View().Rows)

	srv.Recover(constants.EndpointTreeQuery)
	_, err = s.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.CallCount(constants.EndpointTreeQuery))
}

func TestRebuildForgetsLastQuery(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	built(t, s)
	s.SetPath("X")
	_, err := s.Query(ctx)
	require.NoError(t, err)

	_, err = s.Step(ctx)
	require.NoError(t, err)
	assert.Empty(t, s.View().Rows)

	_, err = s.Query(ctx)
	require.NoError(t, err)
}

func TestBackUnwindsToEmptyTree(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)
	built(t, s)

	nodes, err := s.Back(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	v := s.View()
	assert.Empty(t, v.Tree)
	assert.Equal(t, tree.Built, v.State)
	assert.True(t, v.Stepped)

	srv.BackTree = []protocol.TreeNode{{Title: "X", Folder: true}}
	nodes, err = s.Back(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	_, err = s.Build(ctx)
	require.NoError(t, err)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)
	built(t, s)
	s.SetPath("X")
	s.SetOps("title=hits")
	_, err := s.Query(ctx)
	require.NoError(t, err)

	msg, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Your session has been reset.", msg)

	v := s.View()
	assert.Equal(t, tree.Empty, v.State)
	assert.Empty(t, v.Input)
	assert.Equal(t, constants.DefaultTreeConfig, v.Config)
	assert.Empty(t, v.Path)
	assert.Empty(t, v.Ops)
	assert.Empty(t, v.Tree)
	assert.Empty(t, v.Rows)
	assert.Equal(t, msg, v.Message)
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeReset))

	_, err = s.Query(ctx)
	assert.ErrorIs(t, err, tree.ErrNotBuilt)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)
	built(t, s)

	_, err := s.Step(ctx)
	require.NoError(t, err)

	rows, err := s.OpenNode(ctx, []string{"X", "A*"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = s.Reset(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeBuild))
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeStep))
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeQuery))
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeReset))
}

func TestSelectNode(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)
	built(t, s)

	nd, err := s.SelectNode(ctx, []string{"X", "A*"})
	require.NoError(t, err)
	assert.False(t, nd.None)
	require.Len(t, nd.Attachments, 1)
	assert.Equal(t, "tcomp", nd.Attachments[0].Name)
	require.Len(t, nd.Links, 1)
	assert.Equal(t, "DataKeyTop", nd.Links[0].Name)
	assert.Same(t, nd, s.View().Data)

	call, _ := srv.LastCall(constants.EndpointTreeGetData)
	assert.Equal(t, "X/A*", call.Params.Get("path"))

	nd, err = s.SelectNode(ctx, []string{"X", "B"})
	require.NoError(t, err)
	assert.True(t, nd.None)

	_, err = s.SelectNode(ctx, []string{"X", "Z"})
	assert.ErrorIs(t, err, tree.ErrUnknownNode)
}

func TestOpenNodeRunsHitsQuery(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)
	built(t, s)

	_, err := s.OpenNode(ctx, []string{"X", "A*"})
	require.NoError(t, err)

	v := s.View()
	assert.Equal(t, "X/A:+hits", v.Path)
	assert.Equal(t, "title=hits", v.Ops)
	call, _ := srv.LastCall(constants.EndpointTreeQuery)
	assert.Equal(t, "X/A:+hits", call.Params.Get("path"))
	assert.Equal(t, "title=hits", call.Params.Get("ops"))
}

func TestBusyIsPerControl(t *testing.T) {
	ctx := context.Background()
	s, srv := newSession(t)
	s.SetInput("in")

	entered, release := srv.Hold(constants.EndpointTreeBuild)
	defer release()
	done := make(chan error, 1)
	go func() {
		_, err := s.Build(ctx)
		done <- err
	}()
	<-entered

	assert.True(t, s.Busy(tree.ControlBuild))
	_, err := s.Build(ctx)
	assert.ErrorIs(t, err, tree.ErrBusy)

	_, err = s.Step(ctx)
	require.NoError(t, err, "other controls stay usable")

	release()
	require.NoError(t, <-done)
	assert.False(t, s.Busy(tree.ControlBuild))
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeBuild))
}
