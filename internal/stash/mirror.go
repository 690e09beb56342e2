package stash

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"hydratutor/internal/logging"
)

var ErrMirrorClosed = errors.New("mirror closed")

// Sink receives whole-stash snapshots.
type Sink func(ctx context.Context, snap Snapshot) error

// Mirror pushes snapshots to a sink from a single goroutine. Bursts are
// coalesced: only the newest pending snapshot is pushed, so the sink always
// ends up with the latest stash.
type Mirror struct {
	name string
	sink Sink
	log  *zap.Logger

	mu        sync.Mutex
	pending   *Snapshot
	published uint64
	pushed    uint64
	lastErr   error
	progress  chan struct{}
	closed    bool

	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func NewMirror(name string, sink Sink, log *zap.Logger) *Mirror {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Mirror{
		name:     name,
		sink:     sink,
		log:      logging.OrNop(log),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	go m.loop()
	return m
}

// Attach subscribes the mirror to every mutation of s.
func (m *Mirror) Attach(s *Stash) *Mirror {
	s.Subscribe(m.Publish)
	return m
}

// Publish queues snap. It never blocks.
func (m *Mirror) Publish(snap Snapshot) {
	m.mu.Lock()
	if m.closed || snap.Seq <= m.published {
		m.mu.Unlock()
		return
	}
	m.pending = &snap
	m.published = snap.Seq
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Flush waits until everything published so far has been pushed.
func (m *Mirror) Flush(ctx context.Context) error {
	m.mu.Lock()
	target := m.published
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if m.pushed >= target {
			err := m.lastErr
			m.mu.Unlock()
			return err
		}
		ch := m.progress
		m.mu.Unlock()

		select {
		case <-ch:
		case <-m.done:
			m.mu.Lock()
			reached := m.pushed >= target
			m.mu.Unlock()
			if !reached {
				return ErrMirrorClosed
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// LastError is the outcome of the most recent push.
func (m *Mirror) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Close pushes whatever is pending and stops the worker.
func (m *Mirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.quit)
	<-m.done
	m.cancel()
	return nil
}

func (m *Mirror) loop() {
	defer close(m.done)
	for {
		select {
		case <-m.wake:
			m.pushPending()
		case <-m.quit:
			m.pushPending()
			return
		}
	}
}

func (m *Mirror) pushPending() {
	m.mu.Lock()
	snap := m.pending
	m.pending = nil
	m.mu.Unlock()
	if snap == nil {
		return
	}

	err := m.sink(m.ctx, *snap)
	if err != nil {
		m.log.Warn("stash mirror push failed",
			zap.String("mirror", m.name),
			zap.Uint64("seq", snap.Seq),
			zap.Error(err),
		)
	} else {
		m.log.Debug("stash mirrored",
			zap.String("mirror", m.name),
			zap.Uint64("seq", snap.Seq),
			zap.Int("entries", len(snap.Entries)),
		)
	}

	m.mu.Lock()
	m.pushed = snap.Seq
	m.lastErr = err
	close(m.progress)
	m.progress = make(chan struct{})
	m.mu.Unlock()
}
