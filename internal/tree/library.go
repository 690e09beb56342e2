package tree

import (
	"context"

	"go.uber.org/zap"

	"hydratutor/internal/stash"
)

// Save stashes the editor contents. The backend copy of the stash is
// updated in the background; its reply becomes the message.
func (s *Session) Save() (string, error) {
	s.mu.Lock()
	f := stash.Fields{Input: s.input, Config: s.config, Path: s.path, Ops: s.ops}
	if f.Input == "" || f.Config == "" {
		defer s.mu.Unlock()
		return "", s.refuse(ErrBlankStash)
	}
	s.mu.Unlock()
	return s.stash.Save(f), nil
}

// LoadEntry puts a saved entry back into the editors. Any built tree is
// dropped and the backend is told to forget it without waiting.
func (s *Session) LoadEntry(id string) (stash.Entry, error) {
	e, err := s.stash.Select(id)
	if err != nil {
		return stash.Entry{}, err
	}

	s.mu.Lock()
	s.input, s.config = e.Input, e.Config
	s.path, s.ops = e.Path, e.Ops
	s.message = ""
	wasBuilt := s.built
	s.clearLocked()
	s.mu.Unlock()

	if wasBuilt {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			if _, err := s.backend.TreeReset(context.Background()); err != nil {
				s.log.Warn("tree reset after load failed", zap.Error(err))
			}
		}()
	}
	return e, nil
}

func (s *Session) DeleteEntry(id string) bool {
	return s.stash.Delete(id)
}

func (s *Session) ClearStash() {
	s.stash.Clear()
}

// SyncStash waits until every stash change so far has reached the backend.
func (s *Session) SyncStash(ctx context.Context) error {
	return s.mirror.Flush(ctx)
}

// Wait blocks until background resets have finished.
func (s *Session) Wait() {
	s.bg.Wait()
}

// Restore fills the editors and the stash from what the backend remembers
// for this identity.
func (s *Session) Restore(ctx context.Context) error {
	st, err := s.backend.State(ctx)
	if err != nil {
		s.mu.Lock()
		s.message = err.Error()
		s.mu.Unlock()
		return err
	}
	entries, err := stash.Decode(st.Stash)
	if err != nil {
		s.log.Warn("backend stash unreadable", zap.Error(err))
		entries = nil
	}

	s.mu.Lock()
	s.input, s.config = st.Input, st.Configuration
	s.path, s.ops = st.Path, st.Ops
	s.mu.Unlock()

	s.stash.Replace(entries)
	s.log.Debug("tree state restored", zap.Int("entries", len(entries)))
	return nil
}

// pushStash sends the whole stash, with the current editor contents, to the
// backend.
func (s *Session) pushStash(ctx context.Context, snap stash.Snapshot) error {
	doc, err := stash.Encode(snap.Entries)
	if err != nil {
		return err
	}
	s.mu.Lock()
	input, config := s.input, s.config
	s.mu.Unlock()

	msg, err := s.backend.UpdateStash(ctx, input, config, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.message = err.Error()
		return err
	}
	s.message = msg
	return nil
}
