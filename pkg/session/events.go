package session

import "time"

// EventType names a session state change.
type EventType string

const (
	EventAuthenticated EventType = "authenticated"
	EventRefreshed     EventType = "refreshed"
	EventRefreshFailed EventType = "refresh_failed"
	EventLoggedOut     EventType = "logged_out"
	EventReady         EventType = "ready"
	EventAuthRequired  EventType = "auth_required"
)

// Event is delivered to observers and broadcaster subscribers.
type Event struct {
	Type     EventType
	Identity Identity
	Reason   string
	At       time.Time
}

// State is a snapshot of the manager.
type State struct {
	// Authenticated is true while a credential is held. A failed background
	// renewal leaves it true until Logout.
	Authenticated bool
	Ready         bool

	// Renewing is true while a refresh call is in flight.
	Renewing bool
	Identity Identity
}
