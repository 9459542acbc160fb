package session

import "fmt"

// State is the bootstrap state of one browser session.
type State string

const (
	StateUnauthenticated       State = "unauthenticated"
	StateAuthenticating        State = "authenticating"
	StateAuthenticatedNoHandle State = "authenticated_no_handle"
	StateResolving             State = "resolving"
	StateNeedsProfile          State = "needs_profile"
	StateReady                 State = "ready"
	StateError                 State = "error"
)

// Event drives a State transition.
type Event string

const (
	EventLoginStarted   Event = "login_started"
	EventLoginFailed    Event = "login_failed"
	EventAuthenticated  Event = "authenticated"
	EventReauthenticate Event = "reauthenticate"
	EventHandleReady    Event = "handle_ready"
	EventProfileFound   Event = "profile_found"
	EventProfileEmpty   Event = "profile_empty"
	EventProfileMissing Event = "profile_missing"
	EventFailed         Event = "failed"
	EventExpired        Event = "expired"
	EventLoggedOut      Event = "logged_out"
)

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]State{
	{StateUnauthenticated, EventLoginStarted}: StateAuthenticating,
	{StateAuthenticating, EventLoginStarted}:  StateAuthenticating,
	{StateError, EventLoginStarted}:           StateAuthenticating,

	{StateAuthenticating, EventLoginFailed}: StateUnauthenticated,

	{StateUnauthenticated, EventAuthenticated}: StateAuthenticatedNoHandle,
	{StateAuthenticating, EventAuthenticated}:  StateAuthenticatedNoHandle,
	{StateError, EventAuthenticated}:           StateAuthenticatedNoHandle,

	{StateError, EventReauthenticate}:        StateAuthenticatedNoHandle,
	{StateNeedsProfile, EventReauthenticate}: StateAuthenticatedNoHandle,
	{StateReady, EventReauthenticate}:        StateAuthenticatedNoHandle,

	{StateAuthenticatedNoHandle, EventHandleReady}: StateResolving,

	{StateResolving, EventProfileFound}:      StateReady,
	{StateNeedsProfile, EventProfileFound}:   StateReady,
	{StateReady, EventProfileFound}:          StateReady,
	{StateResolving, EventProfileEmpty}:      StateNeedsProfile,
	{StateResolving, EventProfileMissing}:    StateNeedsProfile,
	{StateReady, EventProfileMissing}:        StateNeedsProfile,
	{StateNeedsProfile, EventProfileMissing}: StateNeedsProfile,

	{StateResolving, EventFailed}: StateError,
}

// authenticatedStates may be left through EventExpired.
var authenticatedStates = map[State]bool{
	StateAuthenticatedNoHandle: true,
	StateResolving:             true,
	StateNeedsProfile:          true,
	StateReady:                 true,
	StateError:                 true,
}

// Transition returns the state reached from s on e.
// EventLoggedOut is accepted from every state.
func Transition(s State, e Event) (State, error) {
	switch e {
	case EventLoggedOut:
		return StateUnauthenticated, nil
	case EventExpired:
		if authenticatedStates[s] {
			return StateUnauthenticated, nil
		}
	default:
		if next, ok := transitions[transitionKey{s, e}]; ok {
			return next, nil
		}
	}
	return s, fmt.Errorf("session: invalid transition %s --%s-->", s, e)
}
