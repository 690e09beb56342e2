package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"hydratutor/internal/backend"
	"hydratutor/internal/config"
	"hydratutor/internal/dashboard"
	"hydratutor/internal/identity"
	"hydratutor/internal/logger"
	"hydratutor/internal/stash"
	"hydratutor/internal/store"
)

// app is everything a command needs: identity, backend client, stash store.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	id         identity.Identity
	transcript *logger.Logger
	client     *backend.Client

	store   store.StoreInterface
	mirrors []*stash.Mirror
	dash    *dashboard.Dashboard
}

func newApp(opts *rootOptions, stderr io.Writer) (*app, error) {
	cfg, log := opts.cfg, opts.logger

	id, err := identity.Ensure(identity.NewFileJar(cfg.CookieJarPath()))
	if err != nil {
		return nil, fmt.Errorf("failed to establish identity: %w", err)
	}
	a := &app{cfg: cfg, log: log.With(zap.String("uid", id.Token)), id: id}

	if cfg.Transcript {
		a.transcript, err = logger.NewLogger(cfg.StateDir, id.Token)
		if err != nil {
			a.log.Warn("transcript disabled", zap.Error(err))
		}
	}

	var trace io.Writer
	if opts.trace {
		trace = stderr
	}
	a.client = backend.New(backend.Options{
		BaseURL:       cfg.ServerURL,
		UID:           id.Token,
		Timeout:       cfg.RequestTimeout,
		SkipTLSVerify: cfg.SkipTLSVerify,
		Logger:        a.log,
		Transcript:    a.transcript,
		Trace:         trace,
	})
	return a, nil
}

func (a *app) openStore() (store.StoreInterface, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.NewStore(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// openStash restores the locally persisted stash of variant and keeps it
// persisted from then on.
func (a *app) openStash(ctx context.Context, variant string) (*stash.Stash, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	s := stash.New(a.id.Token, variant)
	if _, err := store.Restore(ctx, st, s); err != nil {
		a.log.Warn("failed to restore stash", zap.String("variant", variant), zap.Error(err))
	}
	m := stash.NewMirror("store", store.Sink(st, store.KeyOf(s)), a.log).Attach(s)
	a.mirrors = append(a.mirrors, m)
	return s, nil
}

// persist writes the current contents of s to the store at once. It covers
// a Replace, which the store mirror never sees.
func (a *app) persist(ctx context.Context, s *stash.Stash) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	return st.Save(ctx, store.KeyOf(s), s.Entries())
}

// settleTreeLibrary decides between the library the backend just gave s and
// the local copy. The backend wins unless it has nothing; then the local copy
// is kept and handed to every subscriber, the backend sync included.
func (a *app) settleTreeLibrary(ctx context.Context, s *stash.Stash, local []stash.Entry) error {
	if s.Len() == 0 && len(local) > 0 {
		s.Replace(local)
		s.Publish()
		return nil
	}
	return a.persist(ctx, s)
}

// adoptBackendLibrary replaces s with the tree library the backend keeps for
// this identity and settles it against the local copy.
func (a *app) adoptBackendLibrary(ctx context.Context, s *stash.Stash) error {
	local := s.Entries()
	st, err := a.client.State(ctx)
	if err != nil {
		return err
	}
	remote, err := stash.Decode(st.Stash)
	if err != nil {
		a.log.Warn("backend stash unreadable", zap.Error(err))
		remote = nil
	}
	s.Replace(remote)
	return a.settleTreeLibrary(ctx, s, local)
}

// pushTreeLibrary overwrites the backend copy of the tree library with
// entries, keeping the input and configuration the backend remembers.
func (a *app) pushTreeLibrary(ctx context.Context, entries []stash.Entry) (string, error) {
	st, err := a.client.State(ctx)
	if err != nil {
		return "", err
	}
	doc, err := stash.Encode(entries)
	if err != nil {
		return "", err
	}
	return a.client.UpdateStash(ctx, st.Input, st.Configuration, doc)
}

func (a *app) startDashboard(s *stash.Stash) (string, error) {
	d, err := dashboard.New(a.cfg.DashboardPort, s, a.log)
	if err != nil {
		return "", err
	}
	if err := d.Start(); err != nil {
		return "", err
	}
	a.dash = d
	return d.URL(), nil
}

// Close flushes pending stash writes and releases everything.
func (a *app) Close() {
	for _, m := range a.mirrors {
		_ = m.Close()
	}
	if a.dash != nil {
		if err := a.dash.Stop(); err != nil {
			a.log.Warn("dashboard shutdown", zap.Error(err))
		}
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.transcript.Close()
}
