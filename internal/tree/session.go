// Package tree drives the tree tutor: build a tree from input and a
// configuration, walk it step by step, inspect node data and run queries
// against it.
package tree

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"hydratutor/internal/constants"
	"hydratutor/internal/logging"
	"hydratutor/internal/protocol"
	"hydratutor/internal/stash"
)

// Backend is the part of the tutor backend the tree session uses.
type Backend interface {
	Build(ctx context.Context, input, configuration string) ([]protocol.TreeNode, error)
	Step(ctx context.Context, input, configuration string) ([]protocol.TreeNode, error)
	Back(ctx context.Context, input, configuration string) ([]protocol.TreeNode, error)
	Query(ctx context.Context, path, ops string) ([]protocol.Row, error)
	State(ctx context.Context) (*protocol.TreeState, error)
	NodeData(ctx context.Context, path string) (*protocol.NodeData, error)
	UpdateStash(ctx context.Context, input, configuration, stash string) (string, error)
	TreeReset(ctx context.Context) (string, error)
}

type query struct {
	path, ops string
}

// View is a copy of everything the session shows.
type View struct {
	State   State
	Input   string
	Config  string
	Path    string
	Ops     string
	Tree    []protocol.TreeNode
	Rows    []protocol.Row
	Data    *protocol.NodeData
	Message string
	Stepped bool
}

type Session struct {
	mu      sync.Mutex
	backend Backend
	stash   *stash.Stash
	mirror  *stash.Mirror
	log     *zap.Logger

	input  string
	config string
	path   string
	ops    string

	// editor contents the current tree was built from
	builtInput  string
	builtConfig string
	lastQuery   *query

	state   State
	built   bool
	stepped bool
	tree    []protocol.TreeNode
	rows    []protocol.Row
	data    *protocol.NodeData
	message string

	busy map[Control]bool
	bg   sync.WaitGroup
}

// New creates a session with the default configuration template in the
// editor. Stash changes are pushed to the backend through a mirror.
func New(b Backend, s *stash.Stash, log *zap.Logger) *Session {
	sess := &Session{
		backend: b,
		stash:   s,
		log:     logging.OrNop(log),
		config:  constants.DefaultTreeConfig,
		busy:    make(map[Control]bool),
	}
	sess.mirror = stash.NewMirror("remote", sess.pushStash, sess.log).Attach(s)
	return sess
}

func (s *Session) Stash() *stash.Stash { return s.stash }

func (s *Session) SetInput(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = v
}

func (s *Session) SetConfig(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = v
}

func (s *Session) SetPath(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = v
}

func (s *Session) SetOps(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = v
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		State:   s.state,
		Input:   s.input,
		Config:  s.config,
		Path:    s.path,
		Ops:     s.ops,
		Tree:    s.tree,
		Rows:    s.rows,
		Data:    s.data,
		Message: s.message,
		Stepped: s.stepped,
	}
}

func (s *Session) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *Session) Busy(c Control) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[c]
}

// acquire marks c busy. Callers hold mu.
func (s *Session) acquire(c Control) error {
	if s.busy[c] {
		return ErrBusy
	}
	s.busy[c] = true
	return nil
}

func (s *Session) release(c Control) {
	s.mu.Lock()
	delete(s.busy, c)
	s.mu.Unlock()
}

func (s *Session) refuse(err *GuardError) error {
	s.message = err.Message
	return err
}

// Build creates the tree from scratch. Building the same input and
// configuration twice in a row is refused unless a step happened since.
func (s *Session) Build(ctx context.Context) ([]protocol.TreeNode, error) {
	s.mu.Lock()
	input, config := s.input, s.config
	if input == "" || config == "" {
		defer s.mu.Unlock()
		return nil, s.refuse(ErrBlankInput)
	}
	if input == s.builtInput && config == s.builtConfig && !s.stepped {
		defer s.mu.Unlock()
		return nil, s.refuse(ErrAlreadyBuilt)
	}
	s.mu.Unlock()
	return s.grow(ctx, ControlBuild, input, config, s.backend.Build)
}

// Step advances the tree by one step. It is always permitted.
func (s *Session) Step(ctx context.Context) ([]protocol.TreeNode, error) {
	s.mu.Lock()
	input, config := s.input, s.config
	s.mu.Unlock()
	return s.grow(ctx, ControlStep, input, config, s.backend.Step)
}

// Back undoes one step. When everything is unwound the tree is empty.
func (s *Session) Back(ctx context.Context) ([]protocol.TreeNode, error) {
	s.mu.Lock()
	input, config := s.input, s.config
	s.mu.Unlock()
	return s.grow(ctx, ControlBack, input, config, s.backend.Back)
}

type treeCall func(ctx context.Context, input, configuration string) ([]protocol.TreeNode, error)

func (s *Session) grow(ctx context.Context, c Control, input, config string, call treeCall) ([]protocol.TreeNode, error) {
	s.mu.Lock()
	if err := s.acquire(c); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	defer s.release(c)

	nodes, err := call(ctx, input, config)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.message = err.Error()
		s.log.Debug("tree call failed", zap.String("control", string(c)), zap.Error(err))
		return nil, err
	}
	s.tree = nodes
	s.built = true
	s.stepped = c != ControlBuild
	s.builtInput, s.builtConfig = input, config
	s.lastQuery = nil
	s.rows, s.data = nil, nil
	s.message = ""
	switch c {
	case ControlStep:
		s.state = Stepped
	default:
		s.state = Built
	}
	return nodes, nil
}

// Query runs path and ops against the built tree.
func (s *Session) Query(ctx context.Context) ([]protocol.Row, error) {
	s.mu.Lock()
	switch {
	case !s.built:
		defer s.mu.Unlock()
		return nil, s.refuse(ErrNotBuilt)
	case s.input != s.builtInput || s.config != s.builtConfig:
		defer s.mu.Unlock()
		return nil, s.refuse(ErrStaleTree)
	case s.path == "" && s.ops == "":
		defer s.mu.Unlock()
		return nil, s.refuse(ErrBlankQuery)
	case s.lastQuery != nil && s.lastQuery.path == s.path && s.lastQuery.ops == s.ops:
		defer s.mu.Unlock()
		return nil, s.refuse(ErrDuplicateQuery)
	}
	if err := s.acquire(ControlQuery); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	q := query{path: s.path, ops: s.ops}
	s.rows = nil
	s.mu.Unlock()
	defer s.release(ControlQuery)

	rows, err := s.backend.Query(ctx, q.path, q.ops)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// a failed query may be retried as-is
		s.lastQuery = nil
		s.message = err.Error()
		return nil, err
	}
	s.lastQuery = &q
	s.rows = rows
	s.message = ""
	s.state = Queried
	return rows, nil
}

// SelectNode fetches the attachments of the node at titles.
func (s *Session) SelectNode(ctx context.Context, titles []string) (*protocol.NodeData, error) {
	s.mu.Lock()
	if _, ok := Find(s.tree, titles); !ok {
		s.mu.Unlock()
		return nil, ErrUnknownNode
	}
	if err := s.acquire(ControlData); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	defer s.release(ControlData)

	nd, err := s.backend.NodeData(ctx, NodePath(titles))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.message = err.Error()
		return nil, err
	}
	s.data = nd
	return nd, nil
}

// OpenNode fills path and ops with the hits query for the node and runs it.
func (s *Session) OpenNode(ctx context.Context, titles []string) ([]protocol.Row, error) {
	s.mu.Lock()
	if _, ok := Find(s.tree, titles); !ok {
		s.mu.Unlock()
		return nil, ErrUnknownNode
	}
	s.path, s.ops = HitsQuery(titles)
	s.mu.Unlock()
	return s.Query(ctx)
}

// Reset restores the starting editor contents, drops the tree and asks the
// backend to forget its session. The backend reply becomes the message.
func (s *Session) Reset(ctx context.Context) (string, error) {
	s.mu.Lock()
	if err := s.acquire(ControlReset); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.clearLocked()
	s.input = ""
	s.config = constants.DefaultTreeConfig
	s.path, s.ops = "", ""
	s.message = ""
	s.mu.Unlock()
	defer s.release(ControlReset)

	msg, err := s.backend.TreeReset(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.message = err.Error()
		return "", err
	}
	s.message = msg
	return msg, nil
}

// clearLocked drops the tree, its results and the build snapshots.
func (s *Session) clearLocked() {
	s.builtInput, s.builtConfig = "", ""
	s.lastQuery = nil
	s.tree, s.rows, s.data = nil, nil, nil
	s.built = false
	s.state = Empty
}

// Close stops remote stash sync after pushing what is pending, and waits
// for background resets.
func (s *Session) Close() error {
	err := s.mirror.Close()
	s.bg.Wait()
	return err
}
