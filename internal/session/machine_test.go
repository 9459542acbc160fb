package session

import "testing"

func TestTransitionHappyPath(t *testing.T) {
	t.Parallel()

	steps := []struct {
		event Event
		want  State
	}{
		{EventLoginStarted, StateAuthenticating},
		{EventAuthenticated, StateAuthenticatedNoHandle},
		{EventHandleReady, StateResolving},
		{EventProfileEmpty, StateNeedsProfile},
		{EventProfileFound, StateReady},
		{EventLoggedOut, StateUnauthenticated},
	}
	state := StateUnauthenticated
	for _, step := range steps {
		next, err := Transition(state, step.event)
		if err != nil {
			t.Fatalf("Transition(%s, %s) error = %v", state, step.event, err)
		}
		if next != step.want {
			t.Fatalf("Transition(%s, %s) = %s, want %s", state, step.event, next, step.want)
		}
		state = next
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  State
		event Event
	}{
		{StateUnauthenticated, EventHandleReady},
		{StateUnauthenticated, EventProfileFound},
		{StateUnauthenticated, EventExpired},
		{StateAuthenticating, EventExpired},
		{StateReady, EventHandleReady},
		{StateResolving, EventHandleReady},
		{StateAuthenticatedNoHandle, EventProfileFound},
	}
	for _, tc := range tests {
		got, err := Transition(tc.from, tc.event)
		if err == nil {
			t.Fatalf("Transition(%s, %s) = %s, want error", tc.from, tc.event, got)
		}
		if got != tc.from {
			t.Fatalf("Transition(%s, %s) moved to %s on error", tc.from, tc.event, got)
		}
	}
}

func TestTransitionExpiredFromAuthenticatedStates(t *testing.T) {
	t.Parallel()

	for _, s := range []State{StateAuthenticatedNoHandle, StateResolving, StateNeedsProfile, StateReady, StateError} {
		got, err := Transition(s, EventExpired)
		if err != nil || got != StateUnauthenticated {
			t.Fatalf("Transition(%s, expired) = %s, %v", s, got, err)
		}
	}
}

func TestTransitionLoggedOutFromAnyState(t *testing.T) {
	t.Parallel()

	for _, s := range []State{StateUnauthenticated, StateAuthenticating, StateAuthenticatedNoHandle, StateResolving, StateNeedsProfile, StateReady, StateError} {
		got, err := Transition(s, EventLoggedOut)
		if err != nil || got != StateUnauthenticated {
			t.Fatalf("Transition(%s, logged_out) = %s, %v", s, got, err)
		}
	}
}
