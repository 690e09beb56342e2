// Package filter drives the filter tutor: submit input against a filter
// expression and keep a library of saved attempts.
package filter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hydratutor/internal/constants"
	"hydratutor/internal/logging"
	"hydratutor/internal/protocol"
	"hydratutor/internal/stash"
)

var (
	ErrBusy        = errors.New(constants.MsgBusy)
	ErrUnknownType = errors.New("filter type must be auto, value or bundle")
)

// Backend is the part of the tutor backend the filter session uses.
type Backend interface {
	FilterPost(ctx context.Context, input, filter, filterType string) (*protocol.FilterResult, error)
	FilterReset(ctx context.Context) error
}

type Result struct {
	Output   string
	Messages string
}

type Session struct {
	mu      sync.Mutex
	backend Backend
	stash   *stash.Stash
	log     *zap.Logger

	input      string
	filter     string
	filterType string
	output     string
	messages   string

	busy   bool
	gen    uint64
	cancel context.CancelFunc

	resets sync.WaitGroup
}

func New(b Backend, s *stash.Stash, log *zap.Logger) *Session {
	return &Session{
		backend:    b,
		stash:      s,
		log:        logging.OrNop(log),
		filterType: constants.FilterTypeAuto,
	}
}

func (s *Session) Stash() *stash.Stash { return s.stash }

func (s *Session) SetInput(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = input
}

func (s *Session) SetFilter(filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
}

func (s *Session) SetFilterType(t string) error {
	switch t {
	case constants.FilterTypeAuto, constants.FilterTypeValue, constants.FilterTypeBundle:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterType = t
	return nil
}

// Fields returns the editor contents.
func (s *Session) Fields() stash.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fieldsLocked()
}

func (s *Session) fieldsLocked() stash.Fields {
	return stash.Fields{Input: s.input, Filter: s.filter, FilterType: s.filterType}
}

func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Result{Output: s.output, Messages: s.messages}
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Submit evaluates the current filter against the current input. Only one
// submission runs at a time; a second caller gets ErrBusy. The busy flag is
// cleared however the call ends.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Result{}, ErrBusy
	}
	s.busy = true
	s.gen++
	gen := s.gen
	s.output, s.messages = "", ""
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	f := s.fieldsLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.gen == gen {
			s.busy = false
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	res, err := s.backend.FilterPost(ctx, f.Input, f.Filter, f.FilterType)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// a reset happened meanwhile; its cleared display wins
		if err == nil {
			err = context.Canceled
		}
		return Result{}, err
	}
	if err != nil {
		s.messages = err.Error()
		s.log.Debug("filter submit failed", zap.Error(err))
		return Result{Messages: s.messages}, err
	}
	s.output, s.messages = res.Output, res.Messages
	return Result{Output: res.Output, Messages: res.Messages}, nil
}

// Reset clears the display, abandons any in-flight submission and asks the
// backend to drop its state without waiting for the answer.
func (s *Session) Reset() {
	s.mu.Lock()
	s.output, s.messages = "", ""
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.busy = false
	s.gen++
	s.mu.Unlock()

	s.resets.Add(1)
	go func() {
		defer s.resets.Done()
		if err := s.backend.FilterReset(context.Background()); err != nil {
			s.log.Warn("filter reset failed", zap.Error(err))
			return
		}
		s.log.Debug("filter state reset")
	}()
}

// Wait blocks until background resets have finished.
func (s *Session) Wait() {
	s.resets.Wait()
}
