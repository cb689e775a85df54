package executor

type State string

type Event string

const (
	StateIdle       State = "IDLE"
	StateRunning    State = "RUNNING"
	StateFinalizing State = "FINALIZING"
	StateCommitted  State = "COMMITTED"
	StateAborted    State = "ABORTED"
)

const (
	EventOpen     Event = "OPEN"
	EventFinalize Event = "FINALIZE"
	EventCommit   Event = "COMMIT"
	EventAbort    Event = "ABORT"
)

// StateMachine tracks one attempt. Terminal states absorb every event.
type StateMachine struct {
	State State
	trail []State
}

func NewStateMachine() *StateMachine {
	return &StateMachine{State: StateIdle, trail: []State{StateIdle}}
}

func (s *StateMachine) Apply(event Event) State {
	next := nextState(s.State, event)
	if next != s.State {
		s.trail = append(s.trail, next)
	}
	s.State = next
	return s.State
}

// Trail returns every state the attempt passed through, in order.
func (s *StateMachine) Trail() []State {
	out := make([]State, len(s.trail))
	copy(out, s.trail)
	return out
}

func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

func nextState(current State, event Event) State {
	switch current {
	case StateIdle:
		if event == EventOpen {
			return StateRunning
		}
		if event == EventAbort {
			return StateAborted
		}
	case StateRunning:
		if event == EventFinalize {
			return StateFinalizing
		}
		if event == EventAbort {
			return StateAborted
		}
	case StateFinalizing:
		if event == EventCommit {
			return StateCommitted
		}
		if event == EventAbort {
			return StateAborted
		}
	}
	return current
}
