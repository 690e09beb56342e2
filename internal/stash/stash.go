package stash

import (
	"errors"
	"sync"
	"time"

	"hydratutor/internal/constants"
	"hydratutor/internal/identity"
)

var ErrNotFound = errors.New(constants.MsgNotFound)

// Snapshot is the full stash after one mutation. Seq grows by one per
// mutation.
type Snapshot struct {
	Seq     uint64
	Variant string
	UID     string
	Entries []Entry
	Current string
}

// Renderer redraws a view of the whole stash.
type Renderer interface {
	Render(snap Snapshot)
}

type RenderFunc func(snap Snapshot)

func (f RenderFunc) Render(snap Snapshot) { f(snap) }

type Option func(*Stash)

func WithClock(now func() time.Time) Option {
	return func(s *Stash) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Stash) { s.newID = newID }
}

func WithRenderer(r Renderer) Option {
	return func(s *Stash) { s.renderers = append(s.renderers, r) }
}

// Stash is the ordered list of saved sessions for one identity.
//
// Every mutation renders the full list to each Renderer and then hands the
// same snapshot to each subscriber, in mutation order.
type Stash struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	uid     string
	variant string
	entries []Entry
	current string
	seq     uint64

	renderers   []Renderer
	subscribers []func(Snapshot)

	now   func() time.Time
	newID func() string
}

func New(uid, variant string, opts ...Option) *Stash {
	s := &Stash{
		uid:     uid,
		variant: variant,
		now:     time.Now,
		newID:   identity.NewToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRenderer registers r and draws the current contents with it before any
// later mutation can reach it.
func (s *Stash) AddRenderer(r Renderer) {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.renderers = append(s.renderers, r)
	r.Render(snap)
}

// Subscribe registers fn for every later mutation. fn must not block.
func (s *Stash) Subscribe(fn func(Snapshot)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Stash) Variant() string { return s.variant }

func (s *Stash) UID() string { return s.uid }

// Save appends a new entry built from f, makes it current and returns its id.
func (s *Stash) Save(f Fields) string {
	ids := s.SaveAll([]Fields{f})
	return ids[0]
}

// SaveAll appends several entries as one mutation. The last one becomes
// current.
func (s *Stash) SaveAll(fs []Fields) []string {
	if len(fs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(fs))

	s.mu.Lock()
	for _, f := range fs {
		e := s.newEntry(f)
		s.entries = append(s.entries, e)
		ids = append(ids, e.ID)
	}
	s.current = ids[len(ids)-1]
	s.commit(true)
	return ids
}

func (s *Stash) newEntry(f Fields) Entry {
	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	return Entry{
		ID:         id,
		UID:        s.uid,
		Input:      f.Input,
		Filter:     f.Filter,
		FilterType: f.FilterType,
		Config:     f.Config,
		Path:       f.Path,
		Ops:        f.Ops,
		Date:       s.now().Format(constants.StashDateFormat),
		Href:       "#",
		Variant:    s.variant,
	}
}

// Delete removes the entry with id. Unknown ids are ignored and do not
// count as a mutation.
func (s *Stash) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	kept := make([]Entry, 0, len(s.entries)-1)
	kept = append(kept, s.entries[:i]...)
	kept = append(kept, s.entries[i+1:]...)
	s.entries = kept
	s.commit(true)
	return true
}

func (s *Stash) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.current = ""
	s.commit(true)
}

// Replace swaps in entries wholesale, e.g. when restoring persisted state.
// Views are redrawn but subscribers are not told, since the data came from
// them.
func (s *Stash) Replace(entries []Entry) {
	s.mu.Lock()
	s.entries = make([]Entry, len(entries))
	for i, e := range entries {
		if e.Variant == "" {
			e.Variant = s.variant
		}
		s.entries[i] = e
	}
	s.current = ""
	s.commit(false)
}

// Publish hands the current contents to every subscriber as a new
// mutation. It is used after a Replace whose data did not come from all of
// them.
func (s *Stash) Publish() {
	s.mu.Lock()
	s.commit(true)
}

// Load returns the entry with id. The first match wins.
func (s *Stash) Load(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Entry{}, ErrNotFound
	}
	return s.entries[i], nil
}

// Select makes id the current entry and returns it. Views are redrawn to
// move the marker; subscribers are not told since no entry changed.
func (s *Stash) Select(id string) (Entry, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	e := s.entries[i]
	s.current = id
	s.commit(false)
	return e, nil
}

// Current resolves the current id. A deleted entry is no selection.
func (s *Stash) Current() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return Entry{}, false
	}
	i := s.indexOf(s.current)
	if i < 0 {
		return Entry{}, false
	}
	return s.entries[i], true
}

func (s *Stash) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func (s *Stash) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Stash) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Stash) snapshotLocked() Snapshot {
	current := s.current
	if s.indexOf(current) < 0 {
		current = ""
	}
	return Snapshot{
		Seq:     s.seq,
		Variant: s.variant,
		UID:     s.uid,
		Entries: append([]Entry(nil), s.entries...),
		Current: current,
	}
}

// commit must be called with mu held; it releases mu. notifyMu is taken
// before mu is dropped so views see mutations in order.
func (s *Stash) commit(publish bool) {
	s.seq++
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, r := range s.renderers {
		r.Render(snap)
	}
	if !publish {
		return
	}
	for _, fn := range s.subscribers {
		fn(snap)
	}
}

func (s *Stash) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
