package tree

import (
	"errors"

	"hydratutor/internal/constants"
)

// GuardError is a refusal decided locally, before any network call. Its
// text is what the user sees.
type GuardError struct {
	Message string
}

func (e *GuardError) Error() string {
	return e.Message
}

var (
	ErrBlankInput     = &GuardError{constants.MsgBlankBuild}
	ErrAlreadyBuilt   = &GuardError{constants.MsgAlreadyBuilt}
	ErrNotBuilt       = &GuardError{constants.MsgNotBuilt}
	ErrStaleTree      = &GuardError{constants.MsgStaleTree}
	ErrBlankQuery     = &GuardError{constants.MsgBlankQuery}
	ErrDuplicateQuery = &GuardError{constants.MsgDuplicateQuery}
	ErrBlankStash     = &GuardError{constants.MsgBlankStash}
)

var (
	ErrBusy        = errors.New(constants.MsgBusy)
	ErrUnknownNode = errors.New("no node at that path in the current tree")
)

// IsGuard reports whether err was a local refusal.
func IsGuard(err error) bool {
	var g *GuardError
	return errors.As(err, &g)
}
