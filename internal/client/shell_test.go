package client

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydratutor/internal/backend"
	"hydratutor/internal/backend/backendtest"
	"hydratutor/internal/constants"
	"hydratutor/internal/filter"
	"hydratutor/internal/stash"
	"hydratutor/internal/tree"
)

func script(lines ...string) LineReader {
	return NewBasicLineReader(strings.NewReader(strings.Join(lines, "\n")+"\n"), nil)
}

func TestFilterShell(t *testing.T) {
	srv := backendtest.New(t)
	client := backend.New(backend.Options{BaseURL: srv.URL, UID: "u1"})
	sess := filter.New(client, stash.New("u1", constants.VariantFilter), nil)
	t.Cleanup(sess.Wait)

	var out bytes.Buffer
	sh := NewFilterShell(sess, script(
		"input harry",
		`filter {op : "debug"}`,
		"type bundle",
		"run",
		"save",
		"library",
		"type nonsense",
		"bogus",
		"quit",
		"run",
	), &out)
	require.NoError(t, sh.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "HARRY")
	assert.Contains(t, text, "filter bundle")
	assert.Contains(t, text, "harry")
	assert.Contains(t, text, "filter type must be auto, value or bundle")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.Equal(t, 1, srv.CallCount(constants.EndpointFilterPost), "nothing runs after quit")
	assert.Equal(t, 1, sess.Stash().Len())
}

func TestFilterShellLibraryCommands(t *testing.T) {
	srv := backendtest.New(t)
	client := backend.New(backend.Options{BaseURL: srv.URL, UID: "u1"})
	sess := filter.New(client, stash.New("u1", constants.VariantFilter), nil)
	t.Cleanup(sess.Wait)

	var out bytes.Buffer
	sh := NewFilterShell(sess, script(
		"examples",
		"load 3",
		"delete 1",
		"store",
		"load 99",
	), &out)
	require.NoError(t, sh.Run(context.Background()))

	assert.Equal(t, len(filter.Examples)-1, sess.Stash().Len())
	assert.Equal(t, filter.Examples[2].Input, sess.Fields().Input)
	assert.Contains(t, out.String(), "permalink")
	assert.Contains(t, out.String(), constants.MsgNotFound)

	require.NoError(t, sh.Exec(context.Background(), "clear"))
	assert.Zero(t, sess.Stash().Len())
}

func TestReadTextForms(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(file, []byte("from file\n"), 0o644))

	var out bytes.Buffer
	sh := newShell("> ", script("line one", "line two", ".", "ignored"), &out)

	v, err := sh.readText("@" + file)
	require.NoError(t, err)
	assert.Equal(t, "from file", v)

	v, err = sh.readText("inline")
	require.NoError(t, err)
	assert.Equal(t, "inline", v)

	v, err = sh.readText("")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", v)
}

func TestTreeShell(t *testing.T) {
	srv := backendtest.New(t)
	client := backend.New(backend.Options{BaseURL: srv.URL, UID: "u1"})
	sess := tree.New(client, stash.New("u1", constants.VariantTree), nil)
	t.Cleanup(func() { _ = sess.Close() })

	var out bytes.Buffer
	sh := NewTreeShell(sess, script(
		`input {"X":{"A":1}}`,
		`config {"type":"tree"}`,
		"build",
		"build",
		"path X",
		"query",
		"select X/A*",
		"open X/A*",
		"save",
		"library",
		"state",
		"reset",
	), &out)
	require.NoError(t, sh.Run(context.Background()))

	text := out.String()
	for _, want := range []string{
		"A*",
		constants.MsgAlreadyBuilt,
		`"tcomp":`,
		"X/A:+hits",
		"Your stash has been updated.",
		"queried",
		"Your session has been reset.",
	} {
		assert.Contains(t, text, want)
	}
	assert.Equal(t, 1, srv.CallCount(constants.EndpointTreeBuild))
	assert.Equal(t, 2, srv.CallCount(constants.EndpointTreeQuery))
	assert.Equal(t, 1, sess.Stash().Len())
}

func TestResolveID(t *testing.T) {
	s := stash.New("u1", constants.VariantTree)
	a := s.Save(stash.Fields{Input: "a"})
	b := s.Save(stash.Fields{Input: "b"})

	id, err := ResolveID(s, "2")
	require.NoError(t, err)
	assert.Equal(t, b, id)
	id, err = ResolveID(s, "#1")
	require.NoError(t, err)
	assert.Equal(t, a, id)
	id, err = ResolveID(s, a)
	require.NoError(t, err)
	assert.Equal(t, a, id)

	_, err = ResolveID(s, "3")
	assert.ErrorIs(t, err, stash.ErrNotFound)
	_, err = ResolveID(s, "")
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a\tb\nc", sanitize("a\tb\x00\nc\x1b"))
}

func TestLineReaderFollowsGivenStreams(t *testing.T) {
	var out bytes.Buffer
	in, err := NewLineReader(filepath.Join(t.TempDir(), "history"), strings.NewReader("first\nlast"), &out)
	require.NoError(t, err)
	defer in.Close()

	line, err := in.ReadLine("p> ")
	require.NoError(t, err)
	assert.Equal(t, "first", line)
	line, err = in.ReadLine("p> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line)
	_, err = in.ReadLine("p> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "p> p> p> ", out.String())
}

func TestLibraryMarksLoadedEntry(t *testing.T) {
	srv := backendtest.New(t)
	c := backend.New(backend.Options{BaseURL: srv.URL, UID: "u1"})
	s := stash.New("u1", constants.VariantFilter)
	sess := filter.New(c, s, nil)
	first := s.Save(stash.Fields{Input: "first", FilterType: "auto"})
	s.Save(stash.Fields{Input: "second", FilterType: "auto"})

	var out bytes.Buffer
	sh := NewFilterShell(sess, script("load 1", "library"), &out)
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "1 ●")
	assert.NotContains(t, out.String(), "2 ●")
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, first, cur.ID)
}
