package apiclient

import (
	"errors"
	"net/http"
)

// Humanize turns err into a message fit for end users.
func Humanize(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Something went wrong. Try again."
	}

	switch apiErr.Status {
	case http.StatusUnauthorized:
		return "Please sign in to continue."
	case http.StatusForbidden:
		return "You are not authorized for this action."
	case http.StatusConflict:
		return "Conflict. Please refresh."
	case http.StatusUnprocessableEntity:
		return "Validation error. Check your inputs."
	default:
		return "Something went wrong. Try again."
	}
}
