package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates the login endpoint rejected the credentials
	ErrInvalidCredentials = errors.New("session.invalid_credentials")

	// ErrRegistrationFailed is matched by every *RegistrationError
	ErrRegistrationFailed = errors.New("session.registration_failed")

	// ErrTransport wraps network level failures of login and register
	ErrTransport = errors.New("session.transport_failed")

	// ErrDecodeResponse indicates an auth endpoint returned an unreadable body
	ErrDecodeResponse = errors.New("session.decode_response_failed")

	// ErrNoRefreshSecret indicates header transport has no secret to send
	ErrNoRefreshSecret = errors.New("session.no_refresh_secret")

	// ErrRefreshRejected indicates the refresh endpoint answered non-2xx
	ErrRefreshRejected = errors.New("session.refresh_rejected")

	// ErrUnknownTransport indicates an unsupported refresh transport name
	ErrUnknownTransport = errors.New("session.unknown_transport")

	// ErrNoSession indicates no access token could be obtained
	ErrNoSession = errors.New("session.no_session")
)

// RegistrationError carries the server message of a rejected registration.
type RegistrationError struct {
	Status  int
	Message string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration failed (%d): %s", e.Status, e.Message)
}

func (e *RegistrationError) Is(target error) bool {
	return target == ErrRegistrationFailed
}
