package stash

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydratutor/internal/constants"
)

type recordingSink struct {
	mu     sync.Mutex
	pushed []Snapshot
	gate   chan struct{}
	err    error
}

func (r *recordingSink) push(ctx context.Context, snap Snapshot) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, snap)
	return r.err
}

func (r *recordingSink) snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.pushed...)
}

func TestMirrorPushesLatest(t *testing.T) {
	sink := &recordingSink{}
	s := New("u1", constants.VariantTree)
	m := NewMirror("test", sink.push, nil).Attach(s)
	defer m.Close()

	for i := 0; i < 10; i++ {
		s.Save(Fields{Input: "x", Config: "{}"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Flush(ctx))

	pushed := sink.snapshots()
	require.NotEmpty(t, pushed)
	last := pushed[len(pushed)-1]
	assert.Len(t, last.Entries, 10)

	for i := 1; i < len(pushed); i++ {
		assert.Greater(t, pushed[i].Seq, pushed[i-1].Seq)
	}
}

func TestMirrorCoalescesWhileBusy(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	s := New("u1", constants.VariantTree)
	m := NewMirror("test", sink.push, nil).Attach(s)

	start := time.Now()
	for i := 0; i < 5; i++ {
		s.Save(Fields{Input: "x", Config: "{}"})
	}
	assert.Less(t, time.Since(start), time.Second, "saves must not wait on the sink")

	close(sink.gate)
	require.NoError(t, m.Close())

	pushed := sink.snapshots()
	assert.LessOrEqual(t, len(pushed), 5)
	assert.Len(t, pushed[len(pushed)-1].Entries, 5)
}

func TestMirrorReportsSinkErrors(t *testing.T) {
	boom := errors.New("boom")
	sink := &recordingSink{err: boom}
	s := New("u1", constants.VariantTree)
	m := NewMirror("test", sink.push, nil).Attach(s)
	defer m.Close()

	s.Clear()
	err := m.Flush(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.LastError(), boom)
}

func TestMirrorFlushHonoursContext(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	s := New("u1", constants.VariantTree)
	m := NewMirror("test", sink.push, nil).Attach(s)
	defer func() {
		close(sink.gate)
		_ = m.Close()
	}()

	s.Clear()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Flush(ctx), context.DeadlineExceeded)
}

func TestMirrorIgnoresPublishAfterClose(t *testing.T) {
	sink := &recordingSink{}
	m := NewMirror("test", sink.push, nil)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	m.Publish(Snapshot{Seq: 1})
	assert.Empty(t, sink.snapshots())
}
