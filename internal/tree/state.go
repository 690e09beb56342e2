package tree

type State int

const (
	Empty State = iota
	Built
	Stepped
	Queried
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Built:
		return "built"
	case Stepped:
		return "stepped"
	case Queried:
		return "queried"
	default:
		return "unknown"
	}
}

// Control names a user action limited to one call in flight.
type Control string

const (
	ControlBuild Control = "build"
	ControlStep  Control = "step"
	ControlBack  Control = "back"
	ControlQuery Control = "query"
	ControlData  Control = "data"
	ControlReset Control = "reset"
)
