package executor

import "testing"

func TestStateMachineTransitions(t *testing.T) {
	sm := NewStateMachine()
	if sm.State != StateIdle {
		t.Fatalf("expected %s, got %s", StateIdle, sm.State)
	}
	if sm.Apply(EventOpen) != StateRunning {
		t.Fatalf("expected %s, got %s", StateRunning, sm.State)
	}
	if sm.Apply(EventFinalize) != StateFinalizing {
		t.Fatalf("expected %s, got %s", StateFinalizing, sm.State)
	}
	if sm.Apply(EventCommit) != StateCommitted {
		t.Fatalf("expected %s, got %s", StateCommitted, sm.State)
	}
	if sm.Apply(EventAbort) != StateCommitted {
		t.Fatalf("committed must be terminal, got %s", sm.State)
	}
}

func TestStateMachineAbortFromRunning(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(EventOpen)
	if sm.Apply(EventAbort) != StateAborted {
		t.Fatalf("expected %s, got %s", StateAborted, sm.State)
	}
	if sm.Apply(EventOpen) != StateAborted {
		t.Fatalf("aborted must be terminal, got %s", sm.State)
	}
	if !sm.State.Terminal() {
		t.Fatal("expected terminal state")
	}
}

func TestStateMachineInvalidTransition(t *testing.T) {
	sm := NewStateMachine()
	if sm.Apply(EventCommit) != StateIdle {
		t.Fatalf("invalid transition should not change state")
	}
	if sm.Apply(EventFinalize) != StateIdle {
		t.Fatalf("invalid transition should not change state")
	}
	if len(sm.Trail()) != 1 {
		t.Fatalf("invalid transitions must not be recorded, got %v", sm.Trail())
	}
}
